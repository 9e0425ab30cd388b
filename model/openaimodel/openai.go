/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaimodel adapts any OpenAI-compatible chat completions endpoint
// (OpenAI, LiteLLM, vLLM, Ollama, ...) to model.Interface.
package openaimodel

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"chainguard.dev/geval/metrics"
	"chainguard.dev/geval/model"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	// DefaultTemperature keeps judgments close to deterministic.
	DefaultTemperature = 0.1
	// DefaultMaxTokens bounds the judge's reply.
	DefaultMaxTokens = 2000
)

// Model calls POST {baseURL}/chat/completions with a single user message.
type Model struct {
	client      openai.Client
	name        string
	temperature float64
	maxTokens   int64
	metrics     *metrics.GenAI
	extra       []option.RequestOption
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

// WithRequestOptions passes extra options (HTTP client, headers, ...) to the SDK client.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(m *Model) { m.extra = append(m.extra, opts...) }
}

// New returns an adapter for the named model behind baseURL, authenticated
// with apiKey as a bearer token.
func New(name, baseURL, apiKey string, opts ...Option) (*Model, error) {
	if name == "" {
		return nil, errors.New("model name is required")
	}
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	m := &Model{
		name:        name,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(m)
	}

	clientOpts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/"),
		option.WithAPIKey(apiKey),
		// Retries belong to the caller.
		option.WithMaxRetries(0),
	}
	m.client = openai.NewClient(append(clientOpts, m.extra...)...)
	return m, nil
}

// Name implements model.Interface.
func (m *Model) Name() string { return m.name }

// Generate implements model.Interface.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	log := clog.FromContext(ctx).With("model", m.name)

	start := time.Now()
	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(m.name),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(m.temperature),
		MaxTokens:   openai.Int(m.maxTokens),
	})
	m.metrics.RecordRequest(ctx, m.name, start, err)
	if err != nil {
		terr := m.transportError(err)
		log.With("status", terr.StatusCode).Warnf("Chat completion failed: %v", err)
		return "", terr
	}

	m.metrics.RecordTokens(ctx, m.name, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", &model.TransportError{Model: m.name, Err: errors.New("response contained no choices")}
	}
	log.With("prompt_tokens", resp.Usage.PromptTokens).
		With("completion_tokens", resp.Usage.CompletionTokens).
		Debug("Received chat completion")
	return resp.Choices[0].Message.Content, nil
}

// transportError converts an SDK error into a *model.TransportError.
func (m *Model) transportError(err error) *model.TransportError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		body := apiErr.RawJSON()
		if !json.Valid([]byte(body)) {
			body = model.ResponseBody(apiErr.Response)
		}
		if body == "" {
			body = apiErr.Message
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
