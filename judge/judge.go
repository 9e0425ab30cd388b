/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/geval/model"
	"github.com/chainguard-dev/clog"
)

// Result is the outcome of evaluating one Case against one Rubric.
type Result struct {
	// Score is the raw score normalized onto [0, 1].
	Score float64 `json:"score"`
	// RawScore is the score as emitted on the rubric's scale.
	RawScore float64 `json:"raw_score"`
	// Reason is the model's rationale.
	Reason string `json:"reason"`
	// Passed is Score >= Threshold.
	Passed bool `json:"passed"`
	// Threshold is the rubric threshold the score was compared against.
	Threshold float64 `json:"threshold"`
	// Judge is the rubric name.
	Judge string `json:"judge"`
	// Model is the adapter name.
	Model string `json:"model"`
}

// Judge scores cases against a Rubric using a model. It holds no mutable
// state and may be shared between goroutines.
type Judge struct {
	rubric *Rubric
	model  model.Interface
}

// New pairs a rubric with the model that judges it.
func New(r *Rubric, m model.Interface) (*Judge, error) {
	if r == nil {
		return nil, errors.New("rubric is required")
	}
	if m == nil {
		return nil, fmt.Errorf("judge %s: model is required", r.name)
	}
	return &Judge{rubric: r, model: m}, nil
}

// Name returns the rubric name.
func (j *Judge) Name() string { return j.rubric.name }

// Rubric returns the judge's rubric.
func (j *Judge) Rubric() *Rubric { return j.rubric }

// Model returns the judge's model.
func (j *Judge) Model() model.Interface { return j.model }

// Validate fails with *ValidationError when c lacks a field the rubric
// requires. Input and ActualOutput are always required.
func (j *Judge) Validate(c Case) error {
	if missing := c.missing(j.rubric.fields); len(missing) > 0 {
		return &ValidationError{Judge: j.rubric.name, Missing: missing}
	}
	return nil
}

// Prompt renders the evaluation prompt for c. The same case always yields
// the same prompt.
func (j *Judge) Prompt(c Case) (string, error) {
	p, err := bindRubric(evaluationPrompt, j.rubric)
	if err != nil {
		return "", fmt.Errorf("failed to bind rubric: %w", err)
	}
	if p, err = bindCase(p, j.rubric, c); err != nil {
		return "", fmt.Errorf("failed to bind case: %w", err)
	}
	return p.Build()
}

// Evaluate scores c. It makes at most one model call and never retries.
func (j *Judge) Evaluate(ctx context.Context, c Case) (Result, error) {
	log := clog.FromContext(ctx).With("judge", j.rubric.name).With("model", j.model.Name())
	if c.ID != "" {
		log = log.With("case", c.ID)
	}
	log.Debug("Starting evaluation")

	if err := j.Validate(c); err != nil {
		log.Warnf("Case failed validation: %v", err)
		return Result{}, err
	}

	prompt, err := j.Prompt(c)
	if err != nil {
		return Result{}, fmt.Errorf("judge %s: %w", j.rubric.name, err)
	}

	text, err := j.model.Generate(ctx, prompt)
	if err != nil {
		log.Errorf("Model call failed: %v", err)
		return Result{}, fmt.Errorf("judge %s: %w", j.rubric.name, err)
	}

	raw, reason, err := parseResponse(text)
	if err == nil && !j.rubric.scale.Contains(raw) {
		err = fmt.Errorf("score %s is outside the scale %s", formatScore(raw), j.rubric.scale)
	}
	if err != nil {
		log.Warnf("Failed to parse model response: %v", err)
		return Result{}, &ParseError{Judge: j.rubric.name, Response: text, Err: err}
	}

	score := j.rubric.scale.Normalize(raw)
	result := Result{
		Score:     score,
		RawScore:  raw,
		Reason:    reason,
		Passed:    score >= j.rubric.threshold,
		Threshold: j.rubric.threshold,
		Judge:     j.rubric.name,
		Model:     j.model.Name(),
	}
	log.With("score", result.Score).With("passed", result.Passed).Info("Evaluation complete")
	return result, nil
}
