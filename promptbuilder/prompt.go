/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"encoding/xml"
	"fmt"
	"maps"
	"slices"
)

// stringLiteral only accepts untyped string constants from the caller.
type stringLiteral string

// Prompt is a parsed template together with the values bound so far.
type Prompt struct {
	template string
	// values holds rendered text for bound placeholders; a key with no entry
	// is a known placeholder that is still unbound.
	values map[string]*string
}

// NewPrompt parses template and records its placeholders.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	values := make(map[string]*string)
	if _, err := expand(string(template), func(name string) (string, error) {
		values[name] = nil
		return "", nil
	}); err != nil {
		return nil, err
	}
	return &Prompt{template: string(template), values: values}, nil
}

// Placeholders returns the sorted placeholder names found in the template.
func (p *Prompt) Placeholders() []string {
	return slices.Sorted(maps.Keys(p.values))
}

// Unbound returns the sorted names of placeholders that have no value yet.
func (p *Prompt) Unbound() []string {
	var names []string
	for name, v := range p.values {
		if v == nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// BindStringLiteral binds developer-controlled text verbatim.
func (p *Prompt) BindStringLiteral(name string, value stringLiteral) (*Prompt, error) {
	return p.bind(name, string(value))
}

// BindXML marshals data with encoding/xml (indented) and binds the result.
// Marshaling happens here, so a bad value is reported at bind time.
func (p *Prompt) BindXML(name string, data any) (*Prompt, error) {
	b, err := xml.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal XML for %q: %w", name, err)
	}
	return p.bind(name, string(b))
}

func (p *Prompt) bind(name, text string) (*Prompt, error) {
	v, ok := p.values[name]
	switch {
	case !ok:
		return nil, fmt.Errorf("binding %q not found in template", name)
	case v != nil:
		return nil, fmt.Errorf("binding %q already bound", name)
	}
	next := &Prompt{template: p.template, values: maps.Clone(p.values)}
	next.values[name] = &text
	return next, nil
}

// Build renders the template. It fails if any placeholder is still unbound.
func (p *Prompt) Build() (string, error) {
	if unbound := p.Unbound(); len(unbound) > 0 {
		return "", fmt.Errorf("unbound placeholders: %v", unbound)
	}
	return expand(p.template, func(name string) (string, error) {
		return *p.values[name], nil
	})
}
