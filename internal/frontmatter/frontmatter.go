// Package frontmatter splits prose documents into a YAML front matter block and
// a body, and decodes the block for merging into the context tree.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ReservedKey is the attribute name the rendered body is stored under. Front
// matter may not define it.
const ReservedKey = "body"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a prose file split into its parts.
type Document struct {
	// Raw is the front matter block without delimiters.
	Raw []byte
	// Attributes is the decoded front matter; nil when the block is absent or empty.
	Attributes *yaml.Node
	Body       []byte
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// ErrNotMapping indicates the front matter block holds a scalar or a sequence.
var ErrNotMapping = errors.New("front matter must be a mapping")

// ErrReservedKey indicates the front matter defines ReservedKey.
var ErrReservedKey = fmt.Errorf("can't use reserved keyword %q as a front matter property", ReservedKey)

// Parse splits content and decodes its front matter. A document without a
// front matter block yields a Document whose Body is the full input.
func Parse(content []byte) (Document, error) {
	fm, body, _, err := Split(content)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Raw: fm, Body: body}
	if len(bytes.TrimSpace(fm)) == 0 {
		return doc, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(fm, &node); err != nil {
		return Document{}, fmt.Errorf("parse front matter: %w", err)
	}
	if len(node.Content) == 0 {
		return doc, nil
	}
	top := node.Content[0]
	if top.Kind != yaml.MappingNode {
		return Document{}, ErrNotMapping
	}
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value == ReservedKey {
			return Document{}, ErrReservedKey
		}
	}
	doc.Attributes = &node
	return doc, nil
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input. A leading UTF-8 byte order mark is ignored and the
// delimiters follow the document's first line ending.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	nl := newline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	frontmatterStart := len(open)
	rest := content[frontmatterStart:]
	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(rest, closeLine) {
		bodyStart := frontmatterStart + len(closeLine)
		return []byte{}, content[bodyStart:], true, nil
	}
	if bytes.Equal(rest, []byte("---")) {
		return []byte{}, []byte{}, true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// The closing delimiter may be the last line without a newline.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(rest, tail) {
			end := len(rest) - len(tail) + len(nl)
			return rest[:end], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	frontmatterEnd := frontmatterStart + idx + len(nl)
	bodyStart := frontmatterStart + idx + len(closeSeq)
	return content[frontmatterStart:frontmatterEnd], content[bodyStart:], true, nil
}

// newline returns the line ending of the first line: "\r\n" or "\n".
func newline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
