/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"chainguard.dev/geval/judge"
)

// Kind classifies a failed unit.
type Kind string

const (
	// KindValidation means the case lacked a field the rubric requires.
	KindValidation Kind = "validation"
	// KindTransport means the model call failed.
	KindTransport Kind = "transport"
	// KindParse means the model reply had no usable score.
	KindParse Kind = "parse"
	// KindCanceled means the batch was cancelled before the unit finished.
	KindCanceled Kind = "canceled"
	// KindInternal covers anything else, including panics.
	KindInternal Kind = "internal"
)

// UnitError is recorded in place of a result for a failed unit.
type UnitError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *UnitError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func (e *UnitError) Unwrap() error { return e.Err }

// Outcome is either a result or an error, never both.
type Outcome struct {
	Result *judge.Result `json:"result,omitempty"`
	Err    *UnitError    `json:"error,omitempty"`
}

// Passed reports whether the outcome is a passing result.
func (o Outcome) Passed() bool { return o.Result != nil && o.Result.Passed }

// Report aggregates a batch run.
type Report struct {
	// Results maps case ID to judge name to outcome. Every submitted case
	// has one entry per judge.
	Results map[string]map[string]Outcome `json:"results"`
	// Cases maps case ID to the evaluated case.
	Cases map[string]judge.Case `json:"-"`
	// CaseIDs and JudgeNames are in submission order.
	CaseIDs    []string `json:"case_ids"`
	JudgeNames []string `json:"judge_names"`
	// CasePassed records whether every judge passed the case.
	CasePassed map[string]bool `json:"case_passed"`
	// OverallScore is the mean score over all results, or 0 when there are none.
	OverallScore float64 `json:"overall_score"`
	// SuccessRate is the fraction of cases that every judge passed, or 0
	// when there are no cases. Errors count as failures.
	SuccessRate float64 `json:"success_rate"`
}

// Outcome returns the outcome of judge on case.
func (r *Report) Outcome(caseID, judge string) (Outcome, bool) {
	o, ok := r.Results[caseID][judge]
	return o, ok
}

// Errors returns the number of failed units.
func (r *Report) Errors() int {
	var n int
	for _, byJudge := range r.Results {
		for _, o := range byJudge {
			if o.Err != nil {
				n++
			}
		}
	}
	return n
}

// Scores returns judge's scores in case order, skipping failed units.
func (r *Report) Scores(judge string) []float64 {
	var out []float64
	for _, id := range r.CaseIDs {
		if o := r.Results[id][judge]; o.Result != nil {
			out = append(out, o.Result.Score)
		}
	}
	return out
}

// LowScore is a result below a cutoff.
type LowScore struct {
	CaseID string
	Case   judge.Case
	Result judge.Result
}

// LowScores returns judge's results scoring strictly below cutoff in case order.
func (r *Report) LowScores(judge string, cutoff float64) []LowScore {
	var out []LowScore
	for _, id := range r.CaseIDs {
		if o := r.Results[id][judge]; o.Result != nil && o.Result.Score < cutoff {
			out = append(out, LowScore{CaseID: id, Case: r.Cases[id], Result: *o.Result})
		}
	}
	return out
}

// Disagreement is a case the judges scored far apart.
type Disagreement struct {
	CaseID string
	Case   judge.Case
	// Scores maps judge name to score.
	Scores map[string]float64
	// StdDev is the population standard deviation of Scores.
	StdDev float64
}

// Disagreements returns cases with at least two scores whose population
// standard deviation exceeds threshold, most divergent first.
func (r *Report) Disagreements(threshold float64) []Disagreement {
	var out []Disagreement
	for _, id := range r.CaseIDs {
		scores := make(map[string]float64, len(r.JudgeNames))
		values := make([]float64, 0, len(r.JudgeNames))
		for _, name := range r.JudgeNames {
			if o := r.Results[id][name]; o.Result != nil {
				scores[name] = o.Result.Score
				values = append(values, o.Result.Score)
			}
		}
		if len(values) < 2 {
			continue
		}
		if sd := stdDev(values); sd > threshold {
			out = append(out, Disagreement{CaseID: id, Case: r.Cases[id], Scores: scores, StdDev: sd})
		}
	}
	slices.SortStableFunc(out, func(a, b Disagreement) int { return cmp.Compare(b.StdDev, a.StdDev) })
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64) float64 {
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}
