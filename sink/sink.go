/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package sink defines where finished evaluations are published: tracing
// backends, metrics, scoring services. Publishing is best-effort; callers log
// failures and never let them affect evaluation results.
package sink

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"chainguard.dev/geval/judge"
)

// Interface receives one Record per finished evaluation.
// Implementations must be safe for concurrent use.
type Interface interface {
	Publish(ctx context.Context, rec Record) error
}

// TraceInput is the evaluated case as shown to observability backends.
type TraceInput struct {
	Input            string   `json:"input"`
	ActualOutput     string   `json:"actual_output"`
	ExpectedOutput   string   `json:"expected_output,omitempty"`
	RetrievalContext []string `json:"retrieval_context,omitempty"`
}

// ScoreType is the data type of an Annotation value.
const ScoreType = "NUMERIC"

// Annotation is the scored outcome attached to a trace.
type Annotation struct {
	// Name is the score name, "<judge>_score".
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Passed    bool    `json:"passed"`
	Reason    string  `json:"reason"`
}

// commentLimit bounds Annotation.Comment in runes.
const commentLimit = 100

// Comment returns the reason shortened for score comment fields.
func (a Annotation) Comment() string {
	r := []rune(a.Reason)
	if len(r) <= commentLimit {
		return a.Reason
	}
	return string(r[:commentLimit]) + "..."
}

// Metadata keys set on every Record.
const (
	MetadataModel          = "model"
	MetadataEvaluationType = "evaluation_type"
	MetadataLanguage       = "language"
)

// Record is a read-only view of one finished evaluation.
type Record struct {
	CaseID     string            `json:"case_id"`
	Trace      TraceInput        `json:"trace"`
	Annotation Annotation        `json:"annotation"`
	Metadata   map[string]string `json:"metadata"`

	// Started and Finished bracket the evaluation, retries included. Either
	// may be zero when the publisher did not time it.
	Started  time.Time `json:"started,omitzero"`
	Finished time.Time `json:"finished,omitzero"`
}

// NewRecord builds the Record for result r of case c. Keys in extra are
// copied first; model, evaluation_type and (when the rubric sets one)
// language are then filled from the evaluation itself.
func NewRecord(c judge.Case, r judge.Result, language string, extra map[string]string) Record {
	meta := make(map[string]string, len(extra)+3)
	maps.Copy(meta, extra)
	meta[MetadataModel] = r.Model
	meta[MetadataEvaluationType] = r.Judge
	if language != "" {
		meta[MetadataLanguage] = language
	}
	return Record{
		CaseID: c.ID,
		Trace: TraceInput{
			Input:            c.Input,
			ActualOutput:     c.ActualOutput,
			ExpectedOutput:   c.ExpectedOutput,
			RetrievalContext: slices.Clone(c.RetrievalContext),
		},
		Annotation: Annotation{
			Name:      r.Judge + "_score",
			Score:     r.Score,
			Threshold: r.Threshold,
			Passed:    r.Passed,
			Reason:    r.Reason,
		},
		Metadata: meta,
	}
}

type nop struct{}

// Nop discards every record.
var Nop Interface = nop{}

func (nop) Publish(context.Context, Record) error { return nil }

// Func adapts a function to Interface.
type Func func(ctx context.Context, rec Record) error

// Publish implements Interface.
func (f Func) Publish(ctx context.Context, rec Record) error { return f(ctx, rec) }

type multi []Interface

// Multi publishes to every sink in order and joins their errors. One failing
// sink does not stop the others.
func Multi(sinks ...Interface) Interface {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multi) Publish(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
