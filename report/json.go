/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"encoding/json"
	"io"

	"chainguard.dev/geval/batch"
)

// JSON writes the report as indented JSON.
func JSON(w io.Writer, r *batch.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
