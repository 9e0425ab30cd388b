/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader sdkmetric.Reader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("aggregation: got = %T, wanted metricdata.Sum[int64]", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestGenAI(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := NewGenAIWithMeter(provider.Meter("test"))

	ctx := context.Background()
	m.RecordTokens(ctx, "gpt-4o-mini", 120, 30)
	m.RecordTokens(ctx, "gpt-4o-mini", 80, 20)
	m.RecordRequest(ctx, "gpt-4o-mini", time.Now(), nil)
	m.RecordRequest(ctx, "gpt-4o-mini", time.Now(), errors.New("boom"))

	got := collect(t, reader)
	if v := sumOf(t, got["genai.token.prompt"]); v != 200 {
		t.Errorf("prompt tokens: got = %d, wanted = 200", v)
	}
	if v := sumOf(t, got["genai.token.completion"]); v != 50 {
		t.Errorf("completion tokens: got = %d, wanted = 50", v)
	}
	if v := sumOf(t, got["genai.requests"]); v != 2 {
		t.Errorf("requests: got = %d, wanted = 2", v)
	}
	if _, ok := got["genai.request.duration"]; !ok {
		t.Error("request duration histogram was not recorded")
	}
}

func TestNilGenAI(t *testing.T) {
	var m *GenAI
	// Must not panic.
	m.RecordTokens(context.Background(), "m", 1, 1)
	m.RecordRequest(context.Background(), "m", time.Now(), nil)
}
