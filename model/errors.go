/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package model

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 64 << 10

// TransportError reports a failed call to a model backend: either a non-2xx
// response or a request that never got a response.
type TransportError struct {
	// Model is the name of the adapter that failed.
	Model string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Body is the raw response body, if any.
	Body string
	// Err is the underlying error, if any.
	Err error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("model %s: unexpected status %d: %s", e.Model, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("model %s: unexpected status %d", e.Model, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("model %s: request failed: %v", e.Model, e.Err)
	default:
		return fmt.Sprintf("model %s: request failed", e.Model)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ResponseBody returns the body of an error response, trimmed and capped at
// 64KiB. It is for SDK errors whose decoded JSON is empty because the
// backend (a proxy, a load balancer) answered with plain text or HTML.
func ResponseBody(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil && len(b) == 0 {
		return ""
	}
	return strings.TrimSpace(string(b))
}
