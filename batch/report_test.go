/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"math"
	"testing"

	"chainguard.dev/geval/judge"
	"github.com/google/go-cmp/cmp"
)

func result(score float64) Outcome {
	return Outcome{Result: &judge.Result{Score: score, Passed: score >= 0.5}}
}

func sampleReport() *Report {
	return &Report{
		CaseIDs:    []string{"a", "b", "c", "d"},
		JudgeNames: []string{"j1", "j2"},
		Cases: map[string]judge.Case{
			"a": {ID: "a", Input: "qa"},
			"b": {ID: "b", Input: "qb"},
			"c": {ID: "c", Input: "qc"},
			"d": {ID: "d", Input: "qd"},
		},
		Results: map[string]map[string]Outcome{
			"a": {"j1": result(0.9), "j2": result(0.1)},
			"b": {"j1": result(0.5), "j2": result(0.6)},
			"c": {"j1": result(0.2), "j2": {Err: &UnitError{Kind: KindParse, Message: "x"}}},
			"d": {"j1": result(1.0), "j2": result(0.3)},
		},
	}
}

func TestDisagreements(t *testing.T) {
	got := sampleReport().Disagreements(0.3)
	if len(got) != 2 {
		t.Fatalf("Disagreements: got = %d, wanted = 2", len(got))
	}
	// a: std 0.4, d: std 0.35; c has a single score and is skipped.
	if got[0].CaseID != "a" || got[1].CaseID != "d" {
		t.Errorf("order: got = [%s %s], wanted = [a d]", got[0].CaseID, got[1].CaseID)
	}
	if math.Abs(got[0].StdDev-0.4) > 1e-9 {
		t.Errorf("StdDev: got = %v, wanted = 0.4", got[0].StdDev)
	}
	if diff := cmp.Diff(map[string]float64{"j1": 0.9, "j2": 0.1}, got[0].Scores); diff != "" {
		t.Errorf("Scores (-want +got):\n%s", diff)
	}
	if got[0].Case.Input != "qa" {
		t.Errorf("Case: got = %+v", got[0].Case)
	}
}

func TestLowScores(t *testing.T) {
	got := sampleReport().LowScores("j2", 0.5)
	var ids []string
	for _, ls := range got {
		ids = append(ids, ls.CaseID)
	}
	if diff := cmp.Diff([]string{"a", "d"}, ids); diff != "" {
		t.Errorf("LowScores (-want +got):\n%s", diff)
	}
}

func TestScores(t *testing.T) {
	r := sampleReport()
	if diff := cmp.Diff([]float64{0.1, 0.6, 0.3}, r.Scores("j2")); diff != "" {
		t.Errorf("Scores (-want +got):\n%s", diff)
	}
	if got := r.Errors(); got != 1 {
		t.Errorf("Errors: got = %d, wanted = 1", got)
	}
}
