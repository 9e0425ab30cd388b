/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"fmt"
	"strings"
)

// ValidationError reports a case that lacks fields the rubric requires.
// The model is never called for such a case.
type ValidationError struct {
	// Judge is the rubric name.
	Judge string
	// Missing lists the empty required fields in canonical order.
	Missing []Field
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, f := range e.Missing {
		names = append(names, f.String())
	}
	return fmt.Sprintf("judge %s: case is missing required fields: %s", e.Judge, strings.Join(names, ", "))
}

// ParseError reports a model reply without a usable score.
type ParseError struct {
	// Judge is the rubric name.
	Judge string
	// Response is the raw model reply.
	Response string
	// Err describes what was wrong with it.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("judge %s: failed to parse model response: %v", e.Judge, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
