/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"chainguard.dev/geval/batch"
	"chainguard.dev/geval/judge"
)

func sampleReport() *batch.Report {
	return &batch.Report{
		CaseIDs:    []string{"greeting", "capital/fr"},
		JudgeNames: []string{"accuracy", "fluency"},
		Cases: map[string]judge.Case{
			"greeting":   {ID: "greeting", Input: "Say hello", ActualOutput: "Hello!"},
			"capital/fr": {ID: "capital/fr", Input: "What is the capital of France?", ActualOutput: "Lyon is the capital | maybe"},
		},
		Results: map[string]map[string]batch.Outcome{
			"greeting": {
				"accuracy": {Result: &judge.Result{Score: 0.9, Passed: true, Judge: "accuracy", Reason: "correct"}},
				"fluency":  {Result: &judge.Result{Score: 0.8, Passed: true, Judge: "fluency", Reason: "natural"}},
			},
			"capital/fr": {
				"accuracy": {Result: &judge.Result{Score: 0.2, Passed: false, Judge: "accuracy", Reason: "names Lyon instead of Paris"}},
				"fluency":  {Err: &batch.UnitError{Kind: batch.KindTransport, Message: "status 503"}},
			},
		},
		CasePassed: map[string]bool{
			"greeting":   true,
			"capital/fr": false,
		},
		OverallScore: 0.633,
		SuccessRate:  0.5,
	}
}

func TestMarkdown(t *testing.T) {
	got, err := Markdown(sampleReport())
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}

	for _, want := range []string{
		"Overall score: 0.633",
		"success rate: 50.0%",
		"2 cases, 2 judges, 1 errors",
		"| Judge",
		"accuracy",
		"fluency",
		"greeting",
		"capital/fr",
		"0.90 ✅",
		"0.20 ❌",
		"error: transport",
		"50.0% (1/2)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Markdown: missing %q in:\n%s", want, got)
		}
	}
}

func TestMarkdownSections(t *testing.T) {
	plain, err := Markdown(sampleReport())
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if strings.Contains(plain, "###") {
		t.Errorf("Markdown without options: unexpected section in:\n%s", plain)
	}

	got, err := Markdown(sampleReport(), WithLowScores(0.6), WithDisagreements(0.01))
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	for _, want := range []string{
		"### Low scores: accuracy (below 0.60)",
		"What is the capital of France?",
		`Lyon is the capital \| maybe`,
		"names Lyon instead of Paris",
		"### Judge disagreements (std dev above 0.01)",
		"0.050",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Markdown: missing %q in:\n%s", want, got)
		}
	}
	// fluency has no result below the cutoff, so it gets no section.
	if strings.Contains(got, "Low scores: fluency") {
		t.Errorf("Markdown: empty low score section in:\n%s", got)
	}

	got, err = Markdown(sampleReport(), WithDisagreements(0.3))
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if strings.Contains(got, "Judge disagreements") {
		t.Errorf("Markdown: disagreement section without disagreements in:\n%s", got)
	}
}

func TestMarkdownEmpty(t *testing.T) {
	got, err := Markdown(&batch.Report{})
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if !strings.Contains(got, "0 cases, 0 judges, 0 errors") {
		t.Errorf("Markdown: got = %q, wanted a summary line", got)
	}
	if strings.Contains(got, "|") {
		t.Errorf("Markdown: got = %q, wanted no tables", got)
	}
}

func TestTree(t *testing.T) {
	got, hasFailure := Tree(sampleReport())
	if !hasFailure {
		t.Error("Tree: hasFailure = false, wanted true")
	}

	for _, want := range []string{
		"accuracy",
		"fluency",
		"❌",
		"50.0% pass",
		"capital_fr",
		"names Lyon instead of Paris",
		"transport: status 503",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Tree: missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "greeting") {
		t.Errorf("Tree: passing case listed in:\n%s", got)
	}
}

func TestTreeAllPassing(t *testing.T) {
	r := &batch.Report{
		CaseIDs:    []string{"only"},
		JudgeNames: []string{"accuracy"},
		Results: map[string]map[string]batch.Outcome{
			"only": {"accuracy": {Result: &judge.Result{Score: 1, Passed: true}}},
		},
		CasePassed: map[string]bool{"only": true},
	}
	got, hasFailure := Tree(r)
	if hasFailure {
		t.Errorf("Tree: hasFailure = true, wanted false:\n%s", got)
	}
	if !strings.Contains(got, "100.0% pass, 1.00 avg") {
		t.Errorf("Tree: missing summary in:\n%s", got)
	}
	if strings.Contains(got, "❌") {
		t.Errorf("Tree: unexpected failure mark in:\n%s", got)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleReport()); err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var decoded struct {
		Results map[string]map[string]struct {
			Result *struct {
				Score float64 `json:"score"`
			} `json:"result"`
			Error *struct {
				Kind string `json:"kind"`
			} `json:"error"`
		} `json:"results"`
		SuccessRate float64 `json:"success_rate"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got, wanted := decoded.SuccessRate, 0.5; got != wanted {
		t.Errorf("success_rate: got = %v, wanted = %v", got, wanted)
	}
	if got, wanted := decoded.Results["capital/fr"]["fluency"].Error.Kind, "transport"; got != wanted {
		t.Errorf("error kind: got = %v, wanted = %v", got, wanted)
	}
	if got, wanted := decoded.Results["greeting"]["accuracy"].Result.Score, 0.9; got != wanted {
		t.Errorf("score: got = %v, wanted = %v", got, wanted)
	}
}

func TestOneLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"  two\n lines\t here ", "two lines here"},
		{"a | b", `a \| b`},
	}
	for _, tt := range tests {
		if got := oneLine(tt.in); got != tt.want {
			t.Errorf("oneLine(%q): got = %q, wanted = %q", tt.in, got, tt.want)
		}
	}
}
