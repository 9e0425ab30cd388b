/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package judge scores question/answer cases against a rubric using a language
model as the judge.

A Rubric describes what a good answer looks like: natural-language criteria,
ordered evaluation steps, the case fields the model may see, the numeric scale
it scores on and the pass threshold. A Judge pairs an immutable Rubric with a
model.Interface and is safe for concurrent use.

	rubric, err := judge.NewRubric(judge.Definition{
		Name:      "correctness",
		Criteria:  "The answer states the same facts as the expected answer.",
		Steps:     []string{"Compare the facts", "Penalize contradictions"},
		Fields:    []judge.Field{judge.Input, judge.ActualOutput, judge.ExpectedOutput},
		Threshold: 0.7,
		Scale:     judge.FivePointScale,
	})
	if err != nil {
		return err
	}
	j, err := judge.New(rubric, m)
	if err != nil {
		return err
	}
	result, err := j.Evaluate(ctx, judge.Case{
		Input:          "What is the capital of Japan?",
		ActualOutput:   "Tokyo.",
		ExpectedOutput: "Tokyo is the capital of Japan.",
	})

Evaluate fails fast with *ValidationError when the case lacks a field the
rubric needs, returns the adapter's *model.TransportError unchanged (wrapped
with %w), and reports unparseable replies as *ParseError. It never retries.

Rubric suites can be loaded from YAML with LoadSuite.
*/
package judge
