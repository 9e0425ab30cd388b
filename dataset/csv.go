/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package dataset loads evaluation cases from CSV files.
//
// A dataset has a header row naming its columns. The question, llm_answer
// and expected_answer columns are required; id and context are optional.
// Context snippets are separated by "|||" within a single cell.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"chainguard.dev/geval/judge"
)

// Column names recognized in the header row.
const (
	ColumnID             = "id"
	ColumnQuestion       = "question"
	ColumnAnswer         = "llm_answer"
	ColumnExpectedAnswer = "expected_answer"
	ColumnContext        = "context"
)

// ContextSeparator splits the context column into snippets.
const ContextSeparator = "|||"

var requiredColumns = []string{ColumnQuestion, ColumnAnswer, ColumnExpectedAnswer}

// LoadCSV reads cases from the CSV file at path.
func LoadCSV(path string) ([]judge.Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	cases, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return cases, nil
}

// ReadCSV reads cases from r. Rows keep their file order; a row without an
// id leaves Case.ID empty so the runner can assign one. Question and answer
// text is not trimmed.
func ReadCSV(r io.Reader) ([]judge.Case, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("dataset is empty")
	} else if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := columns[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		columns[name] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	// Cell text is kept byte for byte; only ids and context snippets are trimmed.
	get := func(record []string, name string) string {
		if i, ok := columns[name]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}

	var cases []judge.Case
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(cases)+2, err)
		}
		cases = append(cases, judge.Case{
			ID:               strings.TrimSpace(get(record, ColumnID)),
			Input:            get(record, ColumnQuestion),
			ActualOutput:     get(record, ColumnAnswer),
			ExpectedOutput:   get(record, ColumnExpectedAnswer),
			RetrievalContext: splitContext(get(record, ColumnContext)),
		})
	}
	return cases, nil
}

func splitContext(cell string) []string {
	if cell == "" {
		return nil
	}
	var snippets []string
	for _, s := range strings.Split(cell, ContextSeparator) {
		if s = strings.TrimSpace(s); s != "" {
			snippets = append(snippets, s)
		}
	}
	return snippets
}
