/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package modeltest provides in-process model.Interface doubles for tests.
package modeltest

import (
	"context"
	"fmt"
	"sync"

	"chainguard.dev/geval/model"
)

// Response is one canned reply.
type Response struct {
	Text string
	Err  error
}

// Recorder records every prompt it receives and answers through Respond.
// It is safe for concurrent use.
type Recorder struct {
	ModelName string
	// Respond produces the reply for the n-th call (0-based).
	Respond func(ctx context.Context, n int, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

var _ model.Interface = (*Recorder)(nil)

// Name implements model.Interface.
func (r *Recorder) Name() string { return r.ModelName }

// Generate implements model.Interface.
func (r *Recorder) Generate(ctx context.Context, prompt string) (string, error) {
	r.mu.Lock()
	n := len(r.prompts)
	r.prompts = append(r.prompts, prompt)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.Respond(ctx, n, prompt)
}

// Prompts returns a copy of the prompts received so far.
func (r *Recorder) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...)
}

// Calls returns the number of Generate calls so far.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prompts)
}

// Static returns a Recorder that always answers text.
func Static(name, text string) *Recorder {
	return &Recorder{
		ModelName: name,
		Respond: func(context.Context, int, string) (string, error) {
			return text, nil
		},
	}
}

// Failing returns a Recorder that always fails with err.
func Failing(name string, err error) *Recorder {
	return &Recorder{
		ModelName: name,
		Respond: func(context.Context, int, string) (string, error) {
			return "", err
		},
	}
}

// Sequence returns a Recorder that replays responses in call order and
// fails once they run out.
func Sequence(name string, responses ...Response) *Recorder {
	return &Recorder{
		ModelName: name,
		Respond: func(_ context.Context, n int, _ string) (string, error) {
			if n >= len(responses) {
				return "", fmt.Errorf("modeltest: unexpected call %d, only %d responses", n+1, len(responses))
			}
			return responses[n].Text, responses[n].Err
		},
	}
}
