/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package provider resolves a model name into a model.Interface.
//
// Names starting with "claude-" are served by Anthropic, names starting with
// "gemini-" by Google, and everything else is sent to an OpenAI-compatible
// endpoint (OpenAI, LiteLLM, vLLM, Ollama, ...).
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/geval/metrics"
	"chainguard.dev/geval/model"
	"chainguard.dev/geval/model/claudemodel"
	"chainguard.dev/geval/model/googlemodel"
	"chainguard.dev/geval/model/openaimodel"
)

// Config carries the credentials and endpoints adapters may need.
type Config struct {
	// BaseURL is the OpenAI-compatible endpoint, e.g. http://localhost:4000.
	// For gemini models it overrides the Gemini API endpoint.
	BaseURL string
	// APIKey authenticates against BaseURL, or against Anthropic/Gemini when
	// ProjectID is unset.
	APIKey string
	// ProjectID and Region select Vertex AI for claude and gemini models.
	ProjectID string
	Region    string
	// Metrics, if set, records token usage for every adapter.
	Metrics *metrics.GenAI
}

func (c Config) vertex() bool { return c.ProjectID != "" && c.Region != "" }

// New returns the adapter the model name resolves to.
func New(ctx context.Context, name string, cfg Config) (model.Interface, error) {
	if name == "" {
		return nil, errors.New("model name is required")
	}
	switch {
	case strings.HasPrefix(name, "claude-"):
		opts := []claudemodel.Option{claudemodel.WithMetrics(cfg.Metrics)}
		if cfg.vertex() {
			return claudemodel.NewVertex(ctx, cfg.ProjectID, cfg.Region, name, opts...)
		}
		return claudemodel.NewAPIKey(cfg.APIKey, name, opts...)

	case strings.HasPrefix(name, "gemini-"):
		opts := []googlemodel.Option{googlemodel.WithMetrics(cfg.Metrics)}
		if cfg.vertex() {
			return googlemodel.NewVertex(ctx, cfg.ProjectID, cfg.Region, name, opts...)
		}
		return googlemodel.NewAPIKey(ctx, cfg.APIKey, cfg.BaseURL, name, opts...)

	default:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("model %q requires a base URL", name)
		}
		return openaimodel.New(name, cfg.BaseURL, cfg.APIKey, openaimodel.WithMetrics(cfg.Metrics))
	}
}
