/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package promptbuilder builds LLM prompts from developer-written templates and
caller-supplied data without letting that data rewrite the template.

Templates are string literals containing {{name}} placeholders. Developer text
can be bound verbatim with BindStringLiteral, which only accepts untyped string
constants. Everything else goes through BindXML, which marshals the value with
encoding/xml so the caller's data always lands inside a well-formed element.
Struct fields tagged `xml:",cdata"` keep their text verbatim (newlines, quotes
and non-ASCII included) inside a CDATA section.

	var p = promptbuilder.MustNewPrompt(`<task>Grade the answer.</task>

	{{answer}}`)

	bound, err := p.BindXML("answer", struct {
		XMLName struct{} `xml:"answer"`
		Text    string   `xml:",cdata"`
	}{Text: userAnswer})
	if err != nil {
		return err
	}
	text, err := bound.Build()

Placeholders are resolved in a single pass, so bound values containing "{{x}}"
are never expanded again. Binding is copy-on-write: every Bind call returns a
new Prompt and leaves the receiver untouched, which makes package-level
templates safe to share between goroutines.
*/
package promptbuilder
