/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics records OpenTelemetry metrics for calls made by model adapters.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// DefaultMeterName is the meter shared by every adapter in this module.
const DefaultMeterName = "chainguard.dev/geval/model"

// GenAI holds the instruments recorded around each model call. A nil *GenAI
// is valid and records nothing.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	requests         metric.Int64Counter
	latency          metric.Float64Histogram
}

// NewGenAI creates instruments on the named meter of the global MeterProvider.
// An instrument that fails to initialize is logged and replaced by a no-op.
func NewGenAI(meterName string) *GenAI {
	return NewGenAIWithMeter(otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0")))
}

// NewGenAIWithMeter creates instruments on the given meter.
func NewGenAIWithMeter(meter metric.Meter) *GenAI {
	promptTokens, err := meter.Int64Counter("genai.token.prompt",
		metric.WithDescription("The number of prompt tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create prompt tokens counter, metrics will be disabled", "error", err)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("genai.token.completion",
		metric.WithDescription("The number of completion tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create completion tokens counter, metrics will be disabled", "error", err)
		completionTokens = noop.Int64Counter{}
	}

	requests, err := meter.Int64Counter("genai.requests",
		metric.WithDescription("The number of model requests by outcome"),
		metric.WithUnit("{requests}"))
	if err != nil {
		slog.Warn("Failed to create request counter, metrics will be disabled", "error", err)
		requests = noop.Int64Counter{}
	}

	latency, err := meter.Float64Histogram("genai.request.duration",
		metric.WithDescription("Wall time of model requests"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("Failed to create latency histogram, metrics will be disabled", "error", err)
		latency = noop.Float64Histogram{}
	}

	return &GenAI{
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		requests:         requests,
		latency:          latency,
	}
}

// RecordTokens records prompt and completion token usage for model.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64, attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	opt := metric.WithAttributes(append([]attribute.KeyValue{attribute.String("model", model)}, attrs...)...)
	m.promptTokens.Add(ctx, promptTokens, opt)
	m.completionTokens.Add(ctx, completionTokens, opt)
}

// RecordRequest records one request to model that started at start.
// A nil err is recorded as outcome "ok", anything else as "error".
func (m *GenAI) RecordRequest(ctx context.Context, model string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	opt := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	)
	m.requests.Add(ctx, 1, opt)
	m.latency.Record(ctx, time.Since(start).Seconds(), opt)
}
