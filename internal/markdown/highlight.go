package markdown

import (
	"bytes"
	"fmt"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// codeBlockRenderer replaces goldmark's code block output with the result of a
// HighlightFunc, keeping the <pre><code class="language-x"> wrapper.
type codeBlockRenderer struct {
	highlight HighlightFunc
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(gmast.KindFencedCodeBlock, r.render)
	reg.Register(gmast.KindCodeBlock, r.render)
}

func (r *codeBlockRenderer) render(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}

	var lang []byte
	if fenced, ok := node.(*gmast.FencedCodeBlock); ok {
		lang = fenced.Language(source)
	}

	var code bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}
	plain := string(bytes.TrimSuffix(code.Bytes(), []byte("\n")))

	out, err := r.highlight(plain, string(lang))
	if err != nil {
		return gmast.WalkStop, fmt.Errorf("highlight %q block: %w", lang, err)
	}

	_, _ = w.WriteString("<pre><code")
	if len(lang) > 0 {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML(lang))
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('>')
	if out == "" || out == plain {
		_, _ = w.Write(util.EscapeHTML([]byte(plain)))
	} else {
		_, _ = w.WriteString(out)
	}
	_, _ = w.WriteString("\n</code></pre>\n")
	return gmast.WalkSkipChildren, nil
}
