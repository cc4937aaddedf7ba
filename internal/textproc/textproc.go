// Package textproc renders the draft description for the review panel:
// a restricted markdown subset converted to HTML and sanitized.
package textproc

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

type TextProcessor struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *TextProcessor {
	// A deliberately small parser: emphasis, code spans and fenced code
	// blocks. Headings, raw HTML and links stay plain text.
	p := parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewFencedCodeBlockParser(), 700),
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewCodeSpanParser(), 100),
			util.Prioritized(parser.NewEmphasisParser(), 500),
		),
	)

	md := goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithRendererOptions(html.WithHardWraps()),
		goldmark.WithExtensions(extension.Strikethrough),
	)

	return &TextProcessor{
		md:     md,
		policy: bluemonday.UGCPolicy(),
	}
}

// RenderDescription converts the description to sanitized HTML safe to
// embed in the form page.
func (tp *TextProcessor) RenderDescription(text string) template.HTML {
	var buf bytes.Buffer
	if err := tp.md.Convert([]byte(text), &buf); err != nil {
		// Fall back to the escaped plain text.
		return template.HTML(template.HTMLEscapeString(text))
	}
	safe := tp.policy.Sanitize(strings.TrimSpace(buf.String()))
	return template.HTML(safe)
}
