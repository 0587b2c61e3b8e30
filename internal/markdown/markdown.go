// Package markdown converts Markdown prose bodies to HTML with goldmark.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// HighlightFunc returns highlighted HTML for a code block. Returning "" or the
// unchanged code falls back to escaped plain text.
type HighlightFunc func(code, lang string) (string, error)

// Options controls Markdown rendering.
type Options struct {
	// Breaks renders single newlines inside paragraphs as <br>.
	Breaks bool
	// Smartypants substitutes typographic quotes, dashes and ellipses.
	Smartypants bool
	// Highlight, when set, renders fenced and indented code blocks.
	Highlight HighlightFunc
}

// Renderer converts Markdown bodies to HTML. It is reusable across documents.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a Renderer for opts. GitHub-flavored extensions are always on and
// raw HTML in the source is passed through.
func New(opts Options) *Renderer {
	exts := []goldmark.Extender{extension.GFM}
	if opts.Smartypants {
		exts = append(exts, extension.Typographer)
	}

	rendererOpts := []renderer.Option{html.WithUnsafe()}
	if opts.Breaks {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	if opts.Highlight != nil {
		rendererOpts = append(rendererOpts, renderer.WithNodeRenderers(
			util.Prioritized(&codeBlockRenderer{highlight: opts.Highlight}, 200),
		))
	}

	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)}
}

// Render converts body to HTML.
func (r *Renderer) Render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
