/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package retry runs an operation again with exponential backoff when it
// fails with an error the caller classifies as retryable.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/chainguard-dev/clog"
)

// RetryConfig configures retry behavior. The zero value never retries.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	// 0 means do not retry at all.
	MaxRetries int
	// BaseBackoff is the wait before the first retry; it doubles every attempt.
	BaseBackoff time.Duration
	// MaxBackoff caps the doubled backoff.
	MaxBackoff time.Duration
	// MaxJitter is the maximum random jitter added to each backoff.
	MaxJitter time.Duration
}

// Validate checks that the retry configuration has valid values.
func (c RetryConfig) Validate() error {
	if c.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	if c.BaseBackoff < 0 {
		return errors.New("base backoff cannot be negative")
	}
	if c.MaxBackoff < 0 {
		return errors.New("max backoff cannot be negative")
	}
	if c.MaxJitter < 0 {
		return errors.New("max jitter cannot be negative")
	}
	return nil
}

// DefaultRetryConfig returns a configuration suited to rate-limited model
// endpoints: three retries starting at one second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  3,
		BaseBackoff: 1 * time.Second,
		MaxBackoff:  30 * time.Second,
		MaxJitter:   500 * time.Millisecond,
	}
}

// backoff returns the wait before retry number attempt (0-based).
func (c RetryConfig) backoff(attempt int) time.Duration {
	d := c.BaseBackoff << attempt
	if c.MaxBackoff > 0 && (d > c.MaxBackoff || d < 0) {
		d = c.MaxBackoff
	}
	if c.MaxJitter > 0 {
		d += rand.N(c.MaxJitter)
	}
	return d
}

// RetryWithBackoff calls fn until it succeeds, fails with an error that
// isRetryable rejects, or MaxRetries retries are spent. A cancelled ctx
// stops the wait and returns ctx.Err().
func RetryWithBackoff[T any](ctx context.Context, cfg RetryConfig, operation string, isRetryable func(error) bool, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}
		if !isRetryable(lastErr) {
			return result, lastErr
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		wait := cfg.backoff(attempt)
		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt+1).
			With("max_retries", cfg.MaxRetries).
			With("backoff", wait).
			With("error", lastErr.Error()).
			Warn("Retryable failure, backing off")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	if cfg.MaxRetries == 0 {
		return result, lastErr
	}
	return result, fmt.Errorf("%s failed after %d retries: %w", operation, cfg.MaxRetries, lastErr)
}
