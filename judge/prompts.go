/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"fmt"
	"strconv"

	"chainguard.dev/geval/promptbuilder"
)

// evaluationPrompt is shared by every Judge; binding never mutates it.
var evaluationPrompt = promptbuilder.MustNewPrompt(`<task>
You are an impartial evaluator. Judge the case below against the criteria,
working through the evaluation steps in the order given.
</task>

{{criteria}}

{{steps}}

{{case}}

{{scale}}
{{language}}
<output_format>
Respond with a single fenced JSON block and nothing else:

` + "```json" + `
{"score": <number>, "reason": "<text>"}
` + "```" + `

- "score" is a number between the min and max of the scale, inclusive.
- "reason" explains the score in one or two sentences.
</output_format>`)

type cdata struct {
	Text string `xml:",cdata"`
}

type stepXML struct {
	Index int    `xml:"index,attr"`
	Text  string `xml:",cdata"`
}

type snippetXML struct {
	Index int    `xml:"index,attr"`
	Text  string `xml:",cdata"`
}

// caseXML labels each visible field; nil fields are omitted entirely.
type caseXML struct {
	XMLName        struct{} `xml:"case"`
	Question       *cdata   `xml:"question,omitempty"`
	Answer         *cdata   `xml:"answer,omitempty"`
	ExpectedAnswer *cdata   `xml:"expected_answer,omitempty"`
	Context        *struct {
		Snippets []snippetXML `xml:"snippet"`
	} `xml:"context,omitempty"`
}

func bindRubric(p *promptbuilder.Prompt, r *Rubric) (*promptbuilder.Prompt, error) {
	p, err := p.BindXML("criteria", struct {
		XMLName struct{} `xml:"criteria"`
		Text    string   `xml:",cdata"`
	}{Text: r.criteria})
	if err != nil {
		return nil, err
	}

	steps := make([]stepXML, 0, len(r.steps))
	for i, s := range r.steps {
		steps = append(steps, stepXML{Index: i + 1, Text: s})
	}
	if p, err = p.BindXML("steps", struct {
		XMLName struct{}  `xml:"evaluation_steps"`
		Steps   []stepXML `xml:"step"`
	}{Steps: steps}); err != nil {
		return nil, err
	}

	if p, err = p.BindXML("scale", struct {
		XMLName struct{} `xml:"scale"`
		Min     string   `xml:"min,attr"`
		Max     string   `xml:"max,attr"`
		Text    string   `xml:",chardata"`
	}{
		Min:  formatScore(r.scale.Min),
		Max:  formatScore(r.scale.Max),
		Text: fmt.Sprintf("Score from %s (worst) to %s (best).", formatScore(r.scale.Min), formatScore(r.scale.Max)),
	}); err != nil {
		return nil, err
	}

	if r.language == "" {
		return p.BindStringLiteral("language", "")
	}
	return p.BindXML("language", struct {
		XMLName struct{} `xml:"reason_language"`
		Text    string   `xml:",chardata"`
	}{Text: fmt.Sprintf("Write the reason in %s.", r.language)})
}

func bindCase(p *promptbuilder.Prompt, r *Rubric, c Case) (*promptbuilder.Prompt, error) {
	var x caseXML
	if r.Uses(Input) {
		x.Question = &cdata{Text: c.Input}
	}
	if r.Uses(ActualOutput) {
		x.Answer = &cdata{Text: c.ActualOutput}
	}
	if r.Uses(ExpectedOutput) {
		x.ExpectedAnswer = &cdata{Text: c.ExpectedOutput}
	}
	if r.Uses(RetrievalContext) {
		x.Context = &struct {
			Snippets []snippetXML `xml:"snippet"`
		}{}
		for i, s := range c.RetrievalContext {
			x.Context.Snippets = append(x.Context.Snippets, snippetXML{Index: i + 1, Text: s})
		}
	}
	return p.BindXML("case", x)
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
