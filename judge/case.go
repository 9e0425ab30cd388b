/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"fmt"
	"slices"
)

// Case is one question/answer unit under evaluation.
type Case struct {
	// ID identifies the case in batch reports. Optional for single evaluations.
	ID string `json:"id,omitempty"`

	// Input is the question or prompt given to the system under test.
	Input string `json:"input"`

	// ActualOutput is the answer produced by the system under test.
	ActualOutput string `json:"actual_output"`

	// ExpectedOutput is a reference answer. Empty means not provided.
	ExpectedOutput string `json:"expected_output,omitempty"`

	// RetrievalContext holds the snippets the answer was grounded on, in order.
	RetrievalContext []string `json:"retrieval_context,omitempty"`
}

// Field names a Case field a rubric may reference.
type Field int

const (
	// Input is Case.Input.
	Input Field = iota + 1
	// ActualOutput is Case.ActualOutput.
	ActualOutput
	// ExpectedOutput is Case.ExpectedOutput.
	ExpectedOutput
	// RetrievalContext is Case.RetrievalContext.
	RetrievalContext
)

var fieldNames = map[Field]string{
	Input:            "input",
	ActualOutput:     "actual_output",
	ExpectedOutput:   "expected_output",
	RetrievalContext: "retrieval_context",
}

func (f Field) String() string {
	if s, ok := fieldNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

func (f Field) valid() bool {
	_, ok := fieldNames[f]
	return ok
}

// ParseField returns the Field with the given string form.
func ParseField(s string) (Field, error) {
	for f, name := range fieldNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Field) MarshalText() ([]byte, error) {
	if !f.valid() {
		return nil, fmt.Errorf("unknown field %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Field) UnmarshalText(text []byte) error {
	parsed, err := ParseField(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// has reports whether the case carries a value for f.
func (c Case) has(f Field) bool {
	switch f {
	case Input:
		return c.Input != ""
	case ActualOutput:
		return c.ActualOutput != ""
	case ExpectedOutput:
		return c.ExpectedOutput != ""
	case RetrievalContext:
		return slices.ContainsFunc(c.RetrievalContext, func(s string) bool { return s != "" })
	}
	return false
}

// missing returns the fields in want (plus Input and ActualOutput, which are
// always required) that the case leaves empty, in field order.
func (c Case) missing(want []Field) []Field {
	var out []Field
	for _, f := range []Field{Input, ActualOutput, ExpectedOutput, RetrievalContext} {
		required := f == Input || f == ActualOutput || slices.Contains(want, f)
		if required && !c.has(f) {
			out = append(out, f)
		}
	}
	return out
}
