/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudemodel adapts the Anthropic Messages API to model.Interface.
package claudemodel

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"chainguard.dev/geval/metrics"
	"chainguard.dev/geval/model"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"github.com/chainguard-dev/clog"
)

const (
	// DefaultTemperature keeps judgments close to deterministic.
	DefaultTemperature = 0.1
	// DefaultMaxTokens bounds the judge's reply.
	DefaultMaxTokens = 2000
)

// Model sends each prompt as a single user message to Claude.
type Model struct {
	client      anthropic.Client
	name        string
	temperature float64
	maxTokens   int64
	metrics     *metrics.GenAI
}

var _ model.Interface = (*Model)(nil)

// Option configures a Model.
type Option func(*Model)

// WithTemperature overrides DefaultTemperature.
func WithTemperature(t float64) Option {
	return func(m *Model) { m.temperature = t }
}

// WithMaxTokens overrides DefaultMaxTokens.
func WithMaxTokens(n int64) Option {
	return func(m *Model) { m.maxTokens = n }
}

// WithMetrics records token usage and request outcomes on g.
func WithMetrics(g *metrics.GenAI) Option {
	return func(m *Model) { m.metrics = g }
}

// New wraps an existing client. Callers that construct their own client
// should disable SDK retries with option.WithMaxRetries(0).
func New(client anthropic.Client, name string, opts ...Option) (*Model, error) {
	if name == "" {
		return nil, errors.New("model name is required")
	}
	m := &Model{
		client:      client,
		name:        name,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NewVertex creates a Claude model served from Vertex AI in the given
// project and region, using application default credentials.
func NewVertex(ctx context.Context, projectID, region, name string, opts ...Option) (*Model, error) {
	if projectID == "" || region == "" {
		return nil, errors.New("project and region are required for Vertex AI")
	}
	client := anthropic.NewClient(
		vertex.WithGoogleAuth(ctx, region, projectID),
		option.WithMaxRetries(0),
	)
	return New(client, name, opts...)
}

// NewAPIKey creates a Claude model against the Anthropic API.
func NewAPIKey(apiKey, name string, opts ...Option) (*Model, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return New(client, name, opts...)
}

// Name implements model.Interface.
func (m *Model) Name() string { return m.name }

// Generate implements model.Interface. Text blocks of the reply are
// concatenated in order; other block types are ignored.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	log := clog.FromContext(ctx).With("model", m.name)

	start := time.Now()
	msg, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(m.name),
		MaxTokens: m.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(m.temperature),
	})
	m.metrics.RecordRequest(ctx, m.name, start, err)
	if err != nil {
		terr := m.transportError(err)
		log.With("status", terr.StatusCode).Warnf("Claude request failed: %v", err)
		return "", terr
	}
	m.metrics.RecordTokens(ctx, m.name, msg.Usage.InputTokens, msg.Usage.OutputTokens)

	var sb strings.Builder
	var blocks int
	for _, content := range msg.Content {
		if content.Type == "text" {
			sb.WriteString(content.Text)
			blocks++
		}
	}
	if blocks == 0 {
		return "", &model.TransportError{Model: m.name, Err: errors.New("response contained no text blocks")}
	}
	log.With("input_tokens", msg.Usage.InputTokens).
		With("output_tokens", msg.Usage.OutputTokens).
		Debug("Received Claude message")
	return sb.String(), nil
}

func (m *Model) transportError(err error) *model.TransportError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		body := apiErr.RawJSON()
		if !json.Valid([]byte(body)) {
			body = model.ResponseBody(apiErr.Response)
		}
		return &model.TransportError{
			Model:      m.name,
			StatusCode: apiErr.StatusCode,
			Body:       body,
			Err:        err,
		}
	}
	return &model.TransportError{Model: m.name, Err: err}
}
