/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// markdownTable buffers a left-aligned Markdown table. Rows are appended
// until the first error, which render reports.
type markdownTable struct {
	name  string
	buf   bytes.Buffer
	table *tablewriter.Table
	err   error
}

func newMarkdownTable(name string, headers ...string) *markdownTable {
	mt := &markdownTable{name: name}
	mt.table = tablewriter.NewTable(&mt.buf,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Behavior: tw.Behavior{TrimSpace: tw.Off},
		}),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Right: tw.On, Top: tw.Off, Bottom: tw.Off},
		}),
		// Cells are flattened by row, so wrapping would only split words.
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
	return mt
}

// row appends one row, flattening every cell to a single line.
func (mt *markdownTable) row(cells ...string) {
	if mt.err != nil {
		return
	}
	flat := make([]string, len(cells))
	for i, c := range cells {
		flat[i] = oneLine(c)
	}
	if err := mt.table.Append(flat); err != nil {
		mt.err = fmt.Errorf("failed to append %s row: %w", mt.name, err)
	}
}

// writeTo renders the table into out.
func (mt *markdownTable) writeTo(out *strings.Builder) error {
	if mt.err != nil {
		return mt.err
	}
	if err := mt.table.Render(); err != nil {
		return fmt.Errorf("failed to render %s table: %w", mt.name, err)
	}
	out.Write(mt.buf.Bytes())
	return nil
}

// oneLine collapses whitespace and escapes pipes so free text stays in its
// cell.
func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
