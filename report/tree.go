/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"fmt"
	"strings"

	"chainguard.dev/geval/batch"
	"chainguard.dev/sdk/pathtree"
)

// Tree renders the report as judge/case paths. Every judge node shows its
// pass rate and mean score; only failing cases are listed under it.
// The boolean reports whether any case failed.
func Tree(r *batch.Report) (string, bool) {
	tree := pathtree.New()
	tree.PrintOption = pathtree.KeyValueLabel
	hasFailure := false

	for _, name := range r.JudgeNames {
		s := summarize(r, name)
		value := fmt.Sprintf("%.1f%% pass, %.2f avg", s.passRate()*100, s.mean)
		total := s.results + s.errors
		if s.passed < total {
			value = "❌ " + value
			hasFailure = true
		}
		judgePath := pathSegment(name)
		if err := tree.Add(judgePath, value, fmt.Sprintf("(%d/%d)", s.passed, total)); err != nil {
			_ = tree.Update(judgePath, value, fmt.Sprintf("(%d/%d)", s.passed, total))
		}

		for _, id := range r.CaseIDs {
			o, ok := r.Results[id][name]
			if !ok || o.Passed() {
				continue
			}
			casePath := judgePath + "/" + pathSegment(id)
			switch {
			case o.Result != nil:
				_ = tree.Add(casePath, fmt.Sprintf("%.2f", o.Result.Score), o.Result.Reason)
			case o.Err != nil:
				_ = tree.Add(casePath, "ERROR", fmt.Sprintf("%s: %s", o.Err.Kind, o.Err.Message))
			}
		}
	}

	return tree.String(), hasFailure
}

// pathSegment keeps a name from being split into several tree levels.
func pathSegment(s string) string {
	return strings.ReplaceAll(strings.Trim(s, "/"), "/", "_")
}
