// Package classify decides the role of a source tree entry from its name and
// computes the names and output-relative paths derived from it.
package classify

import (
	"path"
	"strings"
)

// Kind is the role an entry plays in a generation run.
type Kind int

const (
	KindSkip Kind = iota
	KindDirectory
	KindMarkdown
	KindYAML
	KindTemplate
	KindInclude
	KindStatic
)

// TemplateExt is the extension of page and include templates.
const TemplateExt = ".tmpl"

// DefaultPageExt is appended to template output names that carry no extension of their own.
const DefaultPageExt = ".html"

// CollectionName is the template stem that expands once per sibling entry.
const CollectionName = "item"

var kindNames = map[Kind]string{
	KindSkip:      "skip",
	KindDirectory: "directory",
	KindMarkdown:  "markdown",
	KindYAML:      "yaml",
	KindTemplate:  "template",
	KindInclude:   "include",
	KindStatic:    "static",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Entry is the classification of one directory entry.
type Entry struct {
	Kind Kind
	// Name is the entry name with its final extension stripped. Directories and
	// static files keep their full name.
	Name string
	// Ext is the final extension of the source file, including the dot.
	Ext string
	// RelPath is the slash-separated source path relative to the source root.
	RelPath string
	// OutExt is the extension appended to Name for template output.
	OutExt string
	// Collection marks an item template.
	Collection bool
}

// OutputPath returns the slash-separated output path relative to the output root.
// For templates this is the rendered page; for everything else it mirrors RelPath.
func (e Entry) OutputPath() string {
	if e.Kind != KindTemplate {
		return e.RelPath
	}
	return path.Join(path.Dir(e.RelPath), e.Name) + e.OutExt
}

// Classify decides the role of the entry called name found in the slash-separated
// directory relDir ("" or "." for the source root).
func Classify(name string, isDir bool, relDir string) Entry {
	rel := path.Join(relDir, name)
	if relDir == "" || relDir == "." {
		rel = name
	}
	e := Entry{Name: name, RelPath: rel}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	if Skipped(name, isDir) {
		e.Kind = KindSkip
		return e
	}
	if isDir {
		e.Kind = KindDirectory
		return e
	}

	e.Ext = ext
	switch ext {
	case ".md":
		e.Kind = KindMarkdown
		e.Name = stem
	case ".yml", ".yaml":
		e.Kind = KindYAML
		e.Name = stem
	case TemplateExt:
		e.Name = stem
		if strings.HasPrefix(stem, "_") {
			e.Kind = KindInclude
			return e
		}
		e.Kind = KindTemplate
		e.OutExt = OutputExt(stem)
		e.Collection = stem == CollectionName
	default:
		e.Kind = KindStatic
	}
	return e
}

// Skipped reports whether an entry never takes part in a run: hidden entries,
// dependency directories and lock files.
func Skipped(name string, isDir bool) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if isDir {
		return name == "node_modules"
	}
	ext := path.Ext(name)
	if ext == ".lock" {
		return true
	}
	return strings.HasSuffix(strings.TrimSuffix(name, ext), "-lock")
}

// OutputExt returns the extension for a template's stripped name: none when the
// author already spelled one out (feed.xml), DefaultPageExt otherwise.
func OutputExt(stem string) string {
	if path.Ext(stem) != "" {
		return ""
	}
	return DefaultPageExt
}
