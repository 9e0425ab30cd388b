/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package sink

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chainguard.dev/geval/judge"
	"github.com/google/go-cmp/cmp"
)

func TestNewRecord(t *testing.T) {
	c := judge.Case{
		ID:               "case-1",
		Input:            "日本の首都はどこですか？",
		ActualOutput:     "日本の首都は東京です。",
		ExpectedOutput:   "日本の首都は東京都です。",
		RetrievalContext: []string{"ctx"},
	}
	r := judge.Result{Score: 0.8, RawScore: 4, Reason: "正確", Passed: true, Threshold: 0.7, Judge: "correctness", Model: "gpt-4o-mini"}

	got := NewRecord(c, r, "japanese", map[string]string{"run": "nightly", MetadataModel: "overridden"})
	want := Record{
		CaseID: "case-1",
		Trace: TraceInput{
			Input:            c.Input,
			ActualOutput:     c.ActualOutput,
			ExpectedOutput:   c.ExpectedOutput,
			RetrievalContext: []string{"ctx"},
		},
		Annotation: Annotation{Name: "correctness_score", Score: 0.8, Threshold: 0.7, Passed: true, Reason: "正確"},
		Metadata: map[string]string{
			"run":                  "nightly",
			MetadataModel:          "gpt-4o-mini",
			MetadataEvaluationType: "correctness",
			MetadataLanguage:       "japanese",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NewRecord (-want +got):\n%s", diff)
	}

	// The record does not alias the case.
	c.RetrievalContext[0] = "changed"
	if got.Trace.RetrievalContext[0] != "ctx" {
		t.Error("record shares RetrievalContext with the case")
	}
}

func TestAnnotationComment(t *testing.T) {
	short := Annotation{Reason: "正確"}
	if got := short.Comment(); got != "正確" {
		t.Errorf("Comment: got = %q, wanted = %q", got, "正確")
	}

	long := Annotation{Reason: strings.Repeat("あ", 150)}
	want := strings.Repeat("あ", 100) + "..."
	if got := long.Comment(); got != want {
		t.Errorf("Comment: got = %q, wanted = %q", got, want)
	}
}

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	var calls []string
	s := Multi(
		Func(func(context.Context, Record) error { calls = append(calls, "a"); return boom }),
		nil,
		Nop,
		Func(func(context.Context, Record) error { calls = append(calls, "b"); return nil }),
	)

	err := s.Publish(context.Background(), Record{})
	if !errors.Is(err, boom) {
		t.Errorf("Publish: got = %v, wanted = %v", err, boom)
	}
	if diff := cmp.Diff([]string{"a", "b"}, calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
}
