/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// expand walks template once, replacing every {{name}} with resolve(name).
// Text produced by resolve is never scanned again.
func expand(template string, resolve func(name string) (string, error)) (string, error) {
	var out strings.Builder
	out.Grow(len(template))

	for {
		before, rest, found := strings.Cut(template, "{{")
		out.WriteString(before)
		if !found {
			return out.String(), nil
		}

		inner, after, closed := strings.Cut(rest, "}}")
		if !closed {
			return "", errors.New("unclosed binding: missing '}}'")
		}

		name := strings.TrimSpace(inner)
		if !isIdentifier(name) {
			return "", fmt.Errorf("invalid binding identifier %q", name)
		}
		text, err := resolve(name)
		if err != nil {
			return "", err
		}
		out.WriteString(text)
		template = after
	}
}

// isIdentifier reports whether s is a letter followed by letters, digits or underscores.
func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return s != ""
}
