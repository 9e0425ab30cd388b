/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"chainguard.dev/geval/retry"
)

func testRetryConfig() retry.RetryConfig {
	return retry.RetryConfig{
		MaxRetries:  3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  10 * time.Millisecond,
		MaxJitter:   time.Millisecond,
	}
}

func alwaysRetryable(err error) bool { return err != nil }

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()
	errTransient := errors.New("503 overloaded")
	errFatal := errors.New("bad request")

	tests := []struct {
		name         string
		cfg          retry.RetryConfig
		failures     int32
		failWith     error
		isRetryable  func(error) bool
		wantAttempts int32
		wantErr      error
	}{{
		name:         "first try",
		cfg:          testRetryConfig(),
		isRetryable:  alwaysRetryable,
		wantAttempts: 1,
	}, {
		name:         "succeeds after retries",
		cfg:          testRetryConfig(),
		failures:     2,
		failWith:     errTransient,
		isRetryable:  alwaysRetryable,
		wantAttempts: 3,
	}, {
		name:         "exhausted",
		cfg:          testRetryConfig(),
		failures:     10,
		failWith:     errTransient,
		isRetryable:  alwaysRetryable,
		wantAttempts: 4,
		wantErr:      errTransient,
	}, {
		name:         "not retryable",
		cfg:          testRetryConfig(),
		failures:     10,
		failWith:     errFatal,
		isRetryable:  func(err error) bool { return errors.Is(err, errTransient) },
		wantAttempts: 1,
		wantErr:      errFatal,
	}, {
		name:         "zero config never retries",
		failures:     10,
		failWith:     errTransient,
		isRetryable:  alwaysRetryable,
		wantAttempts: 1,
		wantErr:      errTransient,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var attempts atomic.Int32
			got, err := retry.RetryWithBackoff(context.Background(), tt.cfg, "test_op", tt.isRetryable, func() (string, error) {
				if attempts.Add(1) <= tt.failures {
					return "", tt.failWith
				}
				return "ok", nil
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error: got = %v, wanted = %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got != "ok" {
				t.Errorf("result: got = %q, wanted = %q", got, "ok")
			}
			if n := attempts.Load(); n != tt.wantAttempts {
				t.Errorf("attempts: got = %d, wanted = %d", n, tt.wantAttempts)
			}
		})
	}
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cfg := retry.RetryConfig{MaxRetries: 5, BaseBackoff: time.Hour, MaxBackoff: time.Hour}

	var attempts atomic.Int32
	done := make(chan error, 1)
	go func() {
		_, err := retry.RetryWithBackoff(ctx, cfg, "test_op", alwaysRetryable, func() (int, error) {
			attempts.Add(1)
			return 0, errors.New("transient")
		})
		done <- err
	}()

	// Give the first attempt time to enter the backoff wait.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error: got = %v, wanted = %v", err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RetryWithBackoff did not return after cancellation")
	}
	if n := attempts.Load(); n != 1 {
		t.Errorf("attempts: got = %d, wanted = 1", n)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     retry.RetryConfig
		wantErr bool
	}{
		{"default", retry.DefaultRetryConfig(), false},
		{"zero", retry.RetryConfig{}, false},
		{"negative retries", retry.RetryConfig{MaxRetries: -1}, true},
		{"negative base", retry.RetryConfig{BaseBackoff: -1}, true},
		{"negative max", retry.RetryConfig{MaxBackoff: -1}, true},
		{"negative jitter", retry.RetryConfig{MaxJitter: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
