/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package model

import "context"

// Interface is a text-generation backend.
type Interface interface {
	// Name identifies the backing model in results and traces.
	Name() string

	// Generate sends prompt to the model and returns its text unmodified.
	// Each call makes at most one outbound request.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Completion is the outcome of an asynchronous Generate call.
type Completion struct {
	Text string
	Err  error
}

// GenerateAsync runs m.Generate in a new goroutine. The returned channel
// yields exactly one Completion and is then closed.
func GenerateAsync(ctx context.Context, m Interface, prompt string) <-chan Completion {
	ch := make(chan Completion, 1)
	go func() {
		defer close(ch)
		text, err := m.Generate(ctx, prompt)
		ch <- Completion{Text: text, Err: err}
	}()
	return ch
}

// Func adapts an in-process function into an Interface.
type Func struct {
	// ModelName is returned by Name.
	ModelName string
	// Fn produces the completion for a prompt.
	Fn func(ctx context.Context, prompt string) (string, error)
}

var _ Interface = Func{}

// Name implements Interface.
func (f Func) Name() string { return f.ModelName }

// Generate implements Interface.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f.Fn(ctx, prompt)
}
