/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Scale is the numeric range the model is told to score on.
type Scale struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

var (
	// UnitScale asks for a score in [0, 1].
	UnitScale = Scale{Min: 0, Max: 1}
	// FivePointScale asks for a score in [0, 5].
	FivePointScale = Scale{Min: 0, Max: 5}
	// TenPointScale asks for a score in [0, 10]. Rubrics without a declared
	// scale use it.
	TenPointScale = Scale{Min: 0, Max: 10}
)

func (s Scale) validate() error {
	if math.IsNaN(s.Min) || math.IsNaN(s.Max) || math.IsInf(s.Min, 0) || math.IsInf(s.Max, 0) {
		return errors.New("scale bounds must be finite")
	}
	if s.Max <= s.Min {
		return fmt.Errorf("scale max %g must be greater than min %g", s.Max, s.Min)
	}
	return nil
}

// Contains reports whether raw lies within the scale, bounds included.
func (s Scale) Contains(raw float64) bool {
	return raw >= s.Min && raw <= s.Max
}

// Normalize maps raw from the scale onto [0, 1].
func (s Scale) Normalize(raw float64) float64 {
	return (raw - s.Min) / (s.Max - s.Min)
}

func (s Scale) String() string {
	return fmt.Sprintf("%g-%g", s.Min, s.Max)
}

// Definition is the mutable input to NewRubric.
type Definition struct {
	// Name identifies the rubric in reports. Required.
	Name string
	// Criteria describes what a good answer looks like. Required.
	Criteria string
	// Steps are evaluation instructions, transcribed into the prompt in order.
	// At least one is required.
	Steps []string
	// Fields are the case fields shown to the model. At least one is required.
	Fields []Field
	// Threshold is the minimum normalized score that passes, in [0, 1].
	Threshold float64
	// Scale is the range the model scores on. The zero value means TenPointScale.
	Scale Scale
	// Language, if set, is the language the model must write its reason in.
	Language string
}

// Rubric is a validated, immutable Definition.
type Rubric struct {
	name      string
	criteria  string
	steps     []string
	fields    []Field
	threshold float64
	scale     Scale
	language  string
}

// NewRubric validates d and returns an immutable Rubric. Fields are
// de-duplicated and sorted into canonical order.
func NewRubric(d Definition) (*Rubric, error) {
	var errs []error
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(d.Criteria) == "" {
		errs = append(errs, errors.New("criteria is required"))
	}
	if len(d.Steps) == 0 {
		errs = append(errs, errors.New("at least one step is required"))
	}
	for i, s := range d.Steps {
		if strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Errorf("step %d is empty", i+1))
		}
	}
	if len(d.Fields) == 0 {
		errs = append(errs, errors.New("at least one field is required"))
	}
	for _, f := range d.Fields {
		if !f.valid() {
			errs = append(errs, fmt.Errorf("unknown field %d", int(f)))
		}
	}
	if math.IsNaN(d.Threshold) || d.Threshold < 0 || d.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold %g must be within [0, 1]", d.Threshold))
	}
	scale := d.Scale
	if scale == (Scale{}) {
		scale = TenPointScale
	}
	if err := scale.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid rubric %q: %w", d.Name, errors.Join(errs...))
	}

	fields := slices.Clone(d.Fields)
	slices.Sort(fields)
	fields = slices.Compact(fields)

	return &Rubric{
		name:      d.Name,
		criteria:  d.Criteria,
		steps:     slices.Clone(d.Steps),
		fields:    fields,
		threshold: d.Threshold,
		scale:     scale,
		language:  d.Language,
	}, nil
}

// Name returns the rubric's identifier.
func (r *Rubric) Name() string { return r.name }

// Criteria returns the natural-language criteria.
func (r *Rubric) Criteria() string { return r.criteria }

// Steps returns a copy of the ordered evaluation steps.
func (r *Rubric) Steps() []string { return slices.Clone(r.steps) }

// Fields returns a copy of the referenced case fields in canonical order.
func (r *Rubric) Fields() []Field { return slices.Clone(r.fields) }

// Threshold returns the pass threshold.
func (r *Rubric) Threshold() float64 { return r.threshold }

// Scale returns the declared scoring scale.
func (r *Rubric) Scale() Scale { return r.scale }

// Language returns the requested reason language, or "".
func (r *Rubric) Language() string { return r.language }

// Uses reports whether the rubric shows field f to the model.
func (r *Rubric) Uses(f Field) bool { return slices.Contains(r.fields, f) }

// Definition returns a copy of the rubric's configuration.
func (r *Rubric) Definition() Definition {
	return Definition{
		Name:      r.name,
		Criteria:  r.criteria,
		Steps:     r.Steps(),
		Fields:    r.Fields(),
		Threshold: r.threshold,
		Scale:     r.scale,
		Language:  r.language,
	}
}
