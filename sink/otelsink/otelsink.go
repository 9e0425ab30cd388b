/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package otelsink publishes each evaluation as an OpenTelemetry span.
package otelsink

import (
	"context"
	"maps"
	"slices"

	"chainguard.dev/geval/sink"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the instrumentation scope of emitted spans.
	TracerName = "chainguard.dev/geval/sink/otelsink"
	// SpanName names every evaluation span.
	SpanName = "geval.evaluation"
)

// Sink records one span per Record under the caller's context. The span
// covers the Record's Started to Finished interval when both are set.
type Sink struct {
	tracer oteltrace.Tracer
}

var _ sink.Interface = (*Sink)(nil)

// Option configures a Sink.
type Option func(*options)

type options struct {
	provider oteltrace.TracerProvider
}

// WithTracerProvider uses tp instead of the global provider.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(o *options) { o.provider = tp }
}

// New returns a Sink.
func New(opts ...Option) *Sink {
	o := options{provider: otel.GetTracerProvider()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Sink{
		tracer: o.provider.Tracer(TracerName, oteltrace.WithInstrumentationVersion("1.0.0")),
	}
}

// Publish implements sink.Interface.
func (s *Sink) Publish(ctx context.Context, rec sink.Record) error {
	attrs := []attribute.KeyValue{
		attribute.String("geval.case_id", rec.CaseID),
		attribute.String("geval.input", rec.Trace.Input),
		attribute.String("geval.actual_output", rec.Trace.ActualOutput),
		attribute.String("geval.score.name", rec.Annotation.Name),
		attribute.Float64("geval.score", rec.Annotation.Score),
		attribute.Float64("geval.threshold", rec.Annotation.Threshold),
		attribute.Bool("geval.passed", rec.Annotation.Passed),
		attribute.String("geval.reason", rec.Annotation.Reason),
	}
	if rec.Trace.ExpectedOutput != "" {
		attrs = append(attrs, attribute.String("geval.expected_output", rec.Trace.ExpectedOutput))
	}
	if len(rec.Trace.RetrievalContext) > 0 {
		attrs = append(attrs, attribute.StringSlice("geval.retrieval_context", rec.Trace.RetrievalContext))
	}
	for _, k := range slices.Sorted(maps.Keys(rec.Metadata)) {
		attrs = append(attrs, attribute.String("geval.metadata."+k, rec.Metadata[k]))
	}

	startOpts := []oteltrace.SpanStartOption{oteltrace.WithAttributes(attrs...)}
	if !rec.Started.IsZero() {
		startOpts = append(startOpts, oteltrace.WithTimestamp(rec.Started))
	}
	_, span := s.tracer.Start(ctx, SpanName, startOpts...)
	var endOpts []oteltrace.SpanEndOption
	if !rec.Finished.IsZero() {
		endOpts = append(endOpts, oteltrace.WithTimestamp(rec.Finished))
	}
	defer span.End(endOpts...)

	span.AddEvent("score", oteltrace.WithAttributes(
		attribute.String("name", rec.Annotation.Name),
		attribute.Float64("value", rec.Annotation.Score),
		attribute.String("data_type", sink.ScoreType),
		attribute.String("comment", rec.Annotation.Comment()),
	))
	if rec.Annotation.Passed {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, "score below threshold")
	}
	return nil
}
