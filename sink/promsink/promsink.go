/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promsink exports evaluation outcomes as Prometheus metrics.
package promsink

import (
	"context"
	"strconv"

	"chainguard.dev/geval/sink"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sink updates counters, a gauge and a histogram for every Record.
type Sink struct {
	evaluations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	lastScore   *prometheus.GaugeVec
	scores      *prometheus.HistogramVec
}

var _ sink.Interface = (*Sink)(nil)

// New registers the sink's collectors with reg. Passing
// prometheus.DefaultRegisterer exposes them on the default /metrics handler.
func New(reg prometheus.Registerer) *Sink {
	f := promauto.With(reg)
	return &Sink{
		evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geval_evaluations_total",
				Help: "Total number of finished evaluations",
			},
			[]string{"judge", "model", "passed"},
		),
		failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geval_evaluation_failures_total",
				Help: "Total number of evaluations scoring below their threshold",
			},
			[]string{"judge", "model"},
		),
		lastScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "geval_evaluation_score",
				Help: "Most recent normalized evaluation score (0.0-1.0)",
			},
			[]string{"judge", "model"},
		),
		scores: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geval_evaluation_score_distribution",
				Help:    "Distribution of normalized evaluation scores",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
			[]string{"judge"},
		),
	}
}

// Publish implements sink.Interface.
func (s *Sink) Publish(_ context.Context, rec sink.Record) error {
	judge := rec.Metadata[sink.MetadataEvaluationType]
	model := rec.Metadata[sink.MetadataModel]

	s.evaluations.WithLabelValues(judge, model, strconv.FormatBool(rec.Annotation.Passed)).Inc()
	if !rec.Annotation.Passed {
		s.failures.WithLabelValues(judge, model).Inc()
	}
	s.lastScore.WithLabelValues(judge, model).Set(rec.Annotation.Score)
	s.scores.WithLabelValues(judge).Observe(rec.Annotation.Score)
	return nil
}
