/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	errNoScore = errors.New("no score found in response")

	// Fallback patterns for replies that are not valid JSON, e.g.
	//   score: 7
	//   reason: mostly right
	scorePattern  = regexp.MustCompile(`(?i)"?score"?\s*[:=]\s*"?(-?[0-9]+(?:\.[0-9]+)?)`)
	reasonPattern = regexp.MustCompile(`(?im)^\s*"?(?:reason|reasoning)"?\s*[:=]\s*(.+)$`)
)

// verdict is the payload the model is instructed to produce.
type verdict struct {
	Score     json.RawMessage `json:"score"`
	Reason    string          `json:"reason"`
	Reasoning string          `json:"reasoning"`
}

// parseResponse extracts the raw score and reason from a model reply.
func parseResponse(text string) (float64, string, error) {
	for _, candidate := range jsonCandidates(text) {
		if score, reason, err := parseJSON(candidate); err == nil {
			return score, reason, nil
		}
	}

	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", errNoScore
	}
	score, err := parseNumber(m[1])
	if err != nil {
		return 0, "", err
	}
	var reason string
	if rm := reasonPattern.FindStringSubmatch(text); rm != nil {
		reason = strings.Trim(strings.TrimSpace(rm[1]), `",`)
	}
	return score, reason, nil
}

func parseJSON(s string) (float64, string, error) {
	var v verdict
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&v); err != nil {
		return 0, "", err
	}
	if len(v.Score) == 0 || string(v.Score) == "null" {
		return 0, "", errNoScore
	}

	var score float64
	if err := json.Unmarshal(v.Score, &score); err != nil {
		// Some models quote the number.
		var quoted string
		if err := json.Unmarshal(v.Score, &quoted); err != nil {
			return 0, "", fmt.Errorf("score %s is not a number", v.Score)
		}
		if score, err = parseNumber(quoted); err != nil {
			return 0, "", err
		}
	}

	reason := v.Reason
	if reason == "" {
		reason = v.Reasoning
	}
	return score, reason, nil
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("score %q is not a number", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("score %q is not finite", s)
	}
	return f, nil
}

// jsonCandidates returns the places a verdict object may start, in the
// order they are tried: a ```json fenced block, then the text from every
// '{' onwards. parseJSON decodes only the first value of each candidate, so
// prose after the object is ignored and braces in prose before it only cost
// a failed attempt.
func jsonCandidates(text string) []string {
	var out []string
	if block, ok := fencedJSON(text); ok {
		out = append(out, block)
	}
	for i := strings.IndexByte(text, '{'); i >= 0; {
		out = append(out, text[i:])
		next := strings.IndexByte(text[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return out
}

// fencedJSON returns the body of the first ```json block in text.
func fencedJSON(text string) (string, bool) {
	var buf bytes.Buffer
	inBlock := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inBlock && (trimmed == "```json" || trimmed == "```JSON") {
			inBlock = true
			continue
		}
		if inBlock && trimmed == "```" {
			break
		}
		if inBlock {
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			buf.WriteString(line)
		}
	}
	return strings.TrimSpace(buf.String()), inBlock
}
