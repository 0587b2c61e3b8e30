// Package templates compiles and executes the Go text templates of a source tree
// and writes their output.
//
// Templates see their data as dot and five helper functions:
//
//	root      the template view of the root context node
//	rootPath  the relative path from the page back to the output root
//	destPath  the output-relative path of the page being written
//	include   renders another template file, resolved relative to the caller
//	keys      the entry names of a mapping in source order
//
// Optional keys are read with index, which yields nil for missing keys instead
// of failing the render: {{ with index . "subtitle" }}{{ . }}{{ end }}. range
// over a mapping visits keys sorted; {{ range keys . }} keeps source order.
package templates

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"git.home.luguber.info/inful/sitejam/internal/classify"
)

// maxIncludeDepth bounds include nesting so a self-including template fails
// instead of exhausting the stack.
const maxIncludeDepth = 32

// Env is the per-execution state templates reach through the root, rootPath,
// destPath and keys functions. Keys lists the entry names of a mapping view in
// the order the data model holds them; when nil, keys falls back to sorted order.
type Env struct {
	Root     any
	RootPath string
	DestPath string
	Keys     func(view any) ([]string, error)
}

// Template is a compiled page or include.
type Template struct {
	path string
	tpl  *template.Template
}

// Path returns the absolute source path of the template.
func (t *Template) Path() string { return t.path }

// Engine compiles and executes templates for one generation run. Includes are
// resolved relative to the file that contains the include call and memoized by
// absolute path. An Engine is not safe for concurrent use.
type Engine struct {
	includes map[string]*Template
	readFile func(string) ([]byte, error)
	env      Env
	depth    int
}

// NewEngine returns an Engine with an empty include cache.
func NewEngine() *Engine {
	return &Engine{
		includes: make(map[string]*Template),
		readFile: os.ReadFile,
	}
}

// Compile reads and parses the template at path without executing it.
func (e *Engine) Compile(path string) (*Template, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve template path: %w", err)
	}
	// #nosec G304 -- templates are read from the configured source tree.
	src, err := e.readFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return e.parse(abs, string(src))
}

func (e *Engine) parse(abs, src string) (*Template, error) {
	tpl, err := template.New(filepath.Base(abs)).
		Funcs(e.funcs(filepath.Dir(abs))).
		Option("missingkey=error").
		Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Template{path: abs, tpl: tpl}, nil
}

// funcs binds the helper functions for a template living in dir. include is
// bound lexically; root, rootPath and destPath read the current execution.
func (e *Engine) funcs(dir string) template.FuncMap {
	return template.FuncMap{
		"root":     func() any { return e.env.Root },
		"rootPath": func() string { return e.env.RootPath },
		"destPath": func() string { return e.env.DestPath },
		"keys":     e.keys,
		"include": func(name string, data ...any) (string, error) {
			return e.include(dir, name, data)
		},
	}
}

// Resolve returns the absolute path an include name refers to when written in a
// template located in dir. A name without extension gets the template extension.
func Resolve(dir, name string) string {
	if filepath.Ext(name) == "" {
		name += classify.TemplateExt
	}
	p := filepath.FromSlash(name)
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	return filepath.Clean(p)
}

// Include returns the compiled include name as seen from dir, compiling it on
// first use.
func (e *Engine) Include(dir, name string) (*Template, error) {
	abs := Resolve(dir, name)
	if t, ok := e.includes[abs]; ok {
		return t, nil
	}
	t, err := e.Compile(abs)
	if err != nil {
		return nil, fmt.Errorf("include %q: %w", name, err)
	}
	e.includes[abs] = t
	return t, nil
}

// CachedIncludes reports how many distinct includes have been compiled.
func (e *Engine) CachedIncludes() int { return len(e.includes) }

func (e *Engine) include(dir, name string, data []any) (string, error) {
	if len(data) > 1 {
		return "", errors.New("include takes at most one data argument")
	}
	if e.depth >= maxIncludeDepth {
		return "", fmt.Errorf("include %q: nesting deeper than %d", name, maxIncludeDepth)
	}
	t, err := e.Include(dir, name)
	if err != nil {
		return "", err
	}
	var dot any
	if len(data) == 1 {
		dot = data[0]
	}

	e.depth++
	defer func() { e.depth-- }()

	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, dot); err != nil {
		return "", fmt.Errorf("include %q: %w", name, err)
	}
	return buf.String(), nil
}

// keys backs the keys function. range over a map visits keys in sorted order,
// so templates that care about entry order range over keys instead.
func (e *Engine) keys(view any) ([]string, error) {
	if e.env.Keys != nil {
		return e.env.Keys(view)
	}
	m, ok := view.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("keys: %T has no named entries", view)
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Execute renders t against data with env visible to the helper functions.
func (e *Engine) Execute(t *Template, data any, env Env) (string, error) {
	e.env = env
	defer func() { e.env = Env{} }()

	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}
