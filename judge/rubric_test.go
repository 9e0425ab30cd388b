/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewRubricErrors(t *testing.T) {
	valid := correctness(0.5, FivePointScale)

	tests := []struct {
		name    string
		mutate  func(*Definition)
		wantErr string
	}{{
		name:    "no name",
		mutate:  func(d *Definition) { d.Name = " " },
		wantErr: "name is required",
	}, {
		name:    "no criteria",
		mutate:  func(d *Definition) { d.Criteria = "" },
		wantErr: "criteria is required",
	}, {
		name:    "no steps",
		mutate:  func(d *Definition) { d.Steps = nil },
		wantErr: "at least one step is required",
	}, {
		name:    "empty step",
		mutate:  func(d *Definition) { d.Steps = []string{"ok", ""} },
		wantErr: "step 2 is empty",
	}, {
		name:    "no fields",
		mutate:  func(d *Definition) { d.Fields = nil },
		wantErr: "at least one field is required",
	}, {
		name:    "unknown field",
		mutate:  func(d *Definition) { d.Fields = []Field{Input, Field(9)} },
		wantErr: "unknown field 9",
	}, {
		name:    "threshold above one",
		mutate:  func(d *Definition) { d.Threshold = 1.5 },
		wantErr: "threshold 1.5 must be within [0, 1]",
	}, {
		name:    "negative threshold",
		mutate:  func(d *Definition) { d.Threshold = -0.1 },
		wantErr: "threshold -0.1 must be within [0, 1]",
	}, {
		name:    "nan threshold",
		mutate:  func(d *Definition) { d.Threshold = math.NaN() },
		wantErr: "must be within [0, 1]",
	}, {
		name:    "inverted scale",
		mutate:  func(d *Definition) { d.Scale = Scale{Min: 5, Max: 1} },
		wantErr: "scale max 1 must be greater than min 5",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			d.Steps = append([]string(nil), valid.Steps...)
			tt.mutate(&d)
			_, err := NewRubric(d)
			if err == nil {
				t.Fatal("NewRubric(): got = nil, wanted error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewRubric() error = %q, wanted it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestRubricImmutable(t *testing.T) {
	steps := []string{"one", "two"}
	fields := []Field{ExpectedOutput, Input, ActualOutput, Input}
	r := mustRubric(t, Definition{
		Name:      "r",
		Criteria:  "c",
		Steps:     steps,
		Fields:    fields,
		Threshold: 0.5,
	})

	// Mutating the inputs or the accessor results does not leak into the rubric.
	steps[0] = "changed"
	fields[0] = RetrievalContext
	r.Steps()[1] = "changed"
	r.Fields()[0] = RetrievalContext

	if diff := cmp.Diff([]string{"one", "two"}, r.Steps()); diff != "" {
		t.Errorf("Steps (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Field{Input, ActualOutput, ExpectedOutput}, r.Fields()); diff != "" {
		t.Errorf("Fields (-want +got):\n%s", diff)
	}
	if r.Scale() != TenPointScale {
		t.Errorf("Scale: got = %v, wanted = %v", r.Scale(), TenPointScale)
	}
	if r.Uses(RetrievalContext) {
		t.Error("Uses(RetrievalContext): got = true, wanted = false")
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		scale Scale
		raw   float64
		want  float64
	}{
		{UnitScale, 0.5, 0.5},
		{FivePointScale, 4, 0.8},
		{FivePointScale, 5, 1},
		{TenPointScale, 0, 0},
		{Scale{Min: 1, Max: 5}, 3, 0.5},
	}
	for _, tt := range tests {
		if got := tt.scale.Normalize(tt.raw); got != tt.want {
			t.Errorf("%v.Normalize(%g): got = %g, wanted = %g", tt.scale, tt.raw, got, tt.want)
		}
		if !tt.scale.Contains(tt.raw) {
			t.Errorf("%v.Contains(%g): got = false, wanted = true", tt.scale, tt.raw)
		}
	}
	if FivePointScale.Contains(5.01) {
		t.Error("FivePointScale.Contains(5.01): got = true, wanted = false")
	}
}

func TestField(t *testing.T) {
	for _, f := range []Field{Input, ActualOutput, ExpectedOutput, RetrievalContext} {
		got, err := ParseField(f.String())
		if err != nil {
			t.Fatalf("ParseField(%q) = %v", f, err)
		}
		if got != f {
			t.Errorf("ParseField(%q): got = %v, wanted = %v", f, got, f)
		}
	}
	if _, err := ParseField("answer"); err == nil {
		t.Error(`ParseField("answer"): got = nil, wanted error`)
	}
	if got := Field(42).String(); got != "Field(42)" {
		t.Errorf("String: got = %q, wanted = %q", got, "Field(42)")
	}
}
