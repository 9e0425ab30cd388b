/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"fmt"
	"strings"

	"chainguard.dev/geval/batch"
)

// Option adds optional sections to Markdown.
type Option func(*options)

type options struct {
	lowScores     bool
	lowCutoff     float64
	disagreements bool
	maxStdDev     float64
}

// WithLowScores lists, per judge, the cases scoring below cutoff together
// with their question, answer and reason.
func WithLowScores(cutoff float64) Option {
	return func(o *options) { o.lowScores, o.lowCutoff = true, cutoff }
}

// WithDisagreements lists the cases whose judge scores have a standard
// deviation above threshold, most divergent first.
func WithDisagreements(threshold float64) Option {
	return func(o *options) { o.disagreements, o.maxStdDev = true, threshold }
}

// Markdown renders a summary line, one row per judge with its mean score,
// pass rate and error count, and one row per case with every judge's outcome.
// Sections requested through opts follow, and are omitted when empty.
func Markdown(r *batch.Report, opts ...Option) (string, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Overall score: %.3f, success rate: %.1f%% (%d cases, %d judges, %d errors)\n\n",
		r.OverallScore, r.SuccessRate*100, len(r.CaseIDs), len(r.JudgeNames), r.Errors())
	if len(r.CaseIDs) == 0 || len(r.JudgeNames) == 0 {
		return out.String(), nil
	}

	summary := newMarkdownTable("summary", "Judge", "Mean Score", "Pass Rate", "Errors")
	for _, name := range r.JudgeNames {
		s := summarize(r, name)
		summary.row(
			name,
			fmt.Sprintf("%.3f", s.mean),
			fmt.Sprintf("%.1f%% (%d/%d)", s.passRate()*100, s.passed, len(r.CaseIDs)),
			fmt.Sprint(s.errors),
		)
	}
	if err := summary.writeTo(&out); err != nil {
		return "", err
	}
	out.WriteString("\n")

	headers := append([]string{"Case"}, r.JudgeNames...)
	headers = append(headers, "Passed")
	cases := newMarkdownTable("case", headers...)
	for _, id := range r.CaseIDs {
		row := []string{id}
		for _, name := range r.JudgeNames {
			row = append(row, cell(r.Results[id][name]))
		}
		cases.row(append(row, passMark(r.CasePassed[id]))...)
	}
	if err := cases.writeTo(&out); err != nil {
		return "", err
	}

	if o.lowScores {
		for _, name := range r.JudgeNames {
			if err := writeLowScores(&out, r, name, o.lowCutoff); err != nil {
				return "", err
			}
		}
	}
	if o.disagreements {
		if err := writeDisagreements(&out, r, o.maxStdDev); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

func writeLowScores(out *strings.Builder, r *batch.Report, name string, cutoff float64) error {
	low := r.LowScores(name, cutoff)
	if len(low) == 0 {
		return nil
	}
	fmt.Fprintf(out, "\n### Low scores: %s (below %.2f)\n\n", name, cutoff)

	table := newMarkdownTable("low score", "Case", "Question", "Answer", "Score", "Reason")
	for _, l := range low {
		table.row(l.CaseID, l.Case.Input, l.Case.ActualOutput, fmt.Sprintf("%.2f", l.Result.Score), l.Result.Reason)
	}
	return table.writeTo(out)
}

func writeDisagreements(out *strings.Builder, r *batch.Report, threshold float64) error {
	ds := r.Disagreements(threshold)
	if len(ds) == 0 {
		return nil
	}
	fmt.Fprintf(out, "\n### Judge disagreements (std dev above %.2f)\n\n", threshold)

	table := newMarkdownTable("disagreement", append([]string{"Case", "Std Dev"}, r.JudgeNames...)...)
	for _, d := range ds {
		row := []string{d.CaseID, fmt.Sprintf("%.3f", d.StdDev)}
		for _, name := range r.JudgeNames {
			if score, ok := d.Scores[name]; ok {
				row = append(row, fmt.Sprintf("%.2f", score))
			} else {
				row = append(row, "-")
			}
		}
		table.row(row...)
	}
	return table.writeTo(out)
}

func cell(o batch.Outcome) string {
	switch {
	case o.Result != nil:
		return fmt.Sprintf("%.2f %s", o.Result.Score, passMark(o.Result.Passed))
	case o.Err != nil:
		return "error: " + string(o.Err.Kind)
	default:
		return "-"
	}
}

func passMark(passed bool) string {
	if passed {
		return "✅"
	}
	return "❌"
}

// judgeSummary aggregates one judge across all cases.
type judgeSummary struct {
	results, passed, errors int
	mean                    float64
}

func (s judgeSummary) passRate() float64 {
	if total := s.results + s.errors; total > 0 {
		return float64(s.passed) / float64(total)
	}
	return 0
}

func summarize(r *batch.Report, name string) judgeSummary {
	var s judgeSummary
	var sum float64
	for _, id := range r.CaseIDs {
		o := r.Results[id][name]
		switch {
		case o.Result != nil:
			s.results++
			sum += o.Result.Score
			if o.Result.Passed {
				s.passed++
			}
		case o.Err != nil:
			s.errors++
		}
	}
	if s.results > 0 {
		s.mean = sum / float64(s.results)
	}
	return s
}
