/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// SuiteEntry is one rubric as written in a YAML suite file:
//
//	rubrics:
//	- name: correctness
//	  criteria: The answer states the same facts as the expected answer.
//	  steps:
//	  - Compare the facts in the answer with the expected answer
//	  - Penalize contradictions heavily
//	  fields: [input, actual_output, expected_output]
//	  threshold: 0.7
//	  scale: {min: 0, max: 5}
//	  language: Japanese
//	  model: gpt-4o-mini
type SuiteEntry struct {
	Name      string   `yaml:"name"`
	Criteria  string   `yaml:"criteria"`
	Steps     []string `yaml:"steps"`
	Fields    []Field  `yaml:"fields"`
	Threshold float64  `yaml:"threshold"`
	Scale     *Scale   `yaml:"scale,omitempty"`
	Language  string   `yaml:"language,omitempty"`
	// Model optionally names the model that judges this rubric.
	Model string `yaml:"model,omitempty"`
}

type suiteFile struct {
	Rubrics []SuiteEntry `yaml:"rubrics"`
}

// Rubric validates the entry and returns the Rubric it describes.
func (e SuiteEntry) Rubric() (*Rubric, error) {
	d := Definition{
		Name:      e.Name,
		Criteria:  e.Criteria,
		Steps:     e.Steps,
		Fields:    e.Fields,
		Threshold: e.Threshold,
		Language:  e.Language,
	}
	if e.Scale != nil {
		d.Scale = *e.Scale
		if d.Scale == (Scale{}) {
			return nil, fmt.Errorf("invalid rubric %q: scale max 0 must be greater than min 0", e.Name)
		}
	}
	return NewRubric(d)
}

// LoadSuite decodes a YAML rubric suite and validates every entry. Unknown
// keys and duplicate rubric names are rejected.
func LoadSuite(r io.Reader) ([]SuiteEntry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f suiteFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("rubric suite is empty")
		}
		return nil, fmt.Errorf("failed to decode rubric suite: %w", err)
	}
	if len(f.Rubrics) == 0 {
		return nil, errors.New("rubric suite is empty")
	}

	seen := make(map[string]struct{}, len(f.Rubrics))
	for i, e := range f.Rubrics {
		if _, err := e.Rubric(); err != nil {
			return nil, fmt.Errorf("rubric %d: %w", i+1, err)
		}
		if _, ok := seen[e.Name]; ok {
			return nil, fmt.Errorf("rubric %d: duplicate name %q", i+1, e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	return f.Rubrics, nil
}
