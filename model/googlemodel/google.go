/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googlemodel adapts Gemini GenerateContent to model.Interface.
package googlemodel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chainguard.dev/geval/metrics"
	"chainguard.dev/geval/model"
	"github.com/chainguard-dev/clog"
	"google.golang.org/genai"
)

const (
	// DefaultTemperature keeps judgments close to deterministic.
	DefaultTemperature float32 = 0.1
	// DefaultMaxOutputTokens bounds the judge's reply.
	DefaultMaxOutputTokens int32 = 2000
)

// Model sends each prompt as a single user turn to Gemini.
type Model struct {
	client          *genai.Client
	name            string
	temperature     float32
	maxOutputTokens int32
	metrics         *metrics.GenAI
}

var _ model.Interface = (*Model)(nil)

// Option configures a Model.
type Option func(*Model)

// WithTemperature overrides DefaultTemperature.
func WithTemperature(t float32) Option {
	return func(m *Model) { m.temperature = t }
}

// WithMaxOutputTokens overrides DefaultMaxOutputTokens.
func WithMaxOutputTokens(n int32) Option {
	return func(m *Model) { m.maxOutputTokens = n }
}

// WithMetrics records token usage and request outcomes on g.
func WithMetrics(g *metrics.GenAI) Option {
	return func(m *Model) { m.metrics = g }
}

// New wraps an existing client.
func New(client *genai.Client, name string, opts ...Option) (*Model, error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	if name == "" {
		return nil, errors.New("model name is required")
	}
	m := &Model{
		client:          client,
		name:            name,
		temperature:     DefaultTemperature,
		maxOutputTokens: DefaultMaxOutputTokens,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NewVertex creates a Gemini model on the Vertex AI backend.
func NewVertex(ctx context.Context, projectID, region, name string, opts ...Option) (*Model, error) {
	if projectID == "" || region == "" {
		return nil, errors.New("project and region are required for Vertex AI")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google AI client: %w", err)
	}
	return New(client, name, opts...)
}

// NewAPIKey creates a Gemini model on the Gemini API backend. A non-empty
// baseURL overrides the service endpoint.
func NewAPIKey(ctx context.Context, apiKey, baseURL, name string, opts ...Option) (*Model, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google AI client: %w", err)
	}
	return New(client, name, opts...)
}

// Name implements model.Interface.
func (m *Model) Name() string { return m.name }

// Generate implements model.Interface. Text parts of the first candidate
// are concatenated in order; thought parts are skipped.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	log := clog.FromContext(ctx).With("model", m.name)

	temperature := m.temperature
	start := time.Now()
	resp, err := m.client.Models.GenerateContent(ctx, m.name, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: m.maxOutputTokens,
	})
	m.metrics.RecordRequest(ctx, m.name, start, err)
	if err != nil {
		terr := m.transportError(err)
		log.With("status", terr.StatusCode).Warnf("Gemini request failed: %v", err)
		return "", terr
	}
	if resp.UsageMetadata != nil {
		m.metrics.RecordTokens(ctx, m.name,
			int64(resp.UsageMetadata.PromptTokenCount),
			int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &model.TransportError{Model: m.name, Err: errors.New("response contained no candidates")}
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	log.With("candidates_count", len(resp.Candidates)).Debug("Received Gemini response")
	return sb.String(), nil
}

func (m *Model) transportError(err error) *model.TransportError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &model.TransportError{
			Model:      m.name,
			StatusCode: apiErr.Code,
			Body:       apiErr.Message,
			Err:        err,
		}
	}
	return &model.TransportError{Model: m.name, Err: err}
}
