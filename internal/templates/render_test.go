package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestEngine_ExecuteWithEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.tmpl"),
		`{{ .title }}|{{ (root).site }}|{{ rootPath }}|{{ destPath }}`)

	e := NewEngine()
	tpl, err := e.Compile(filepath.Join(dir, "page.tmpl"))
	require.NoError(t, err)

	out, err := e.Execute(tpl, map[string]any{"title": "Hello"}, Env{
		Root:     map[string]any{"site": "jam"},
		RootPath: "..",
		DestPath: "docs/page.html",
	})
	require.NoError(t, err)
	require.Equal(t, "Hello|jam|..|docs/page.html", out)
}

func TestEngine_MissingKeyFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.tmpl"), `{{ .nope }}`)

	e := NewEngine()
	tpl, err := e.Compile(filepath.Join(dir, "page.tmpl"))
	require.NoError(t, err)

	_, err = e.Execute(tpl, map[string]any{"title": "x"}, Env{RootPath: "."})
	require.Error(t, err)

	// index tolerates optional keys.
	writeFile(t, filepath.Join(dir, "opt.tmpl"), `{{ with index . "nope" }}{{ . }}{{ else }}none{{ end }}`)
	tpl, err = e.Compile(filepath.Join(dir, "opt.tmpl"))
	require.NoError(t, err)
	out, err := e.Execute(tpl, map[string]any{"title": "x"}, Env{RootPath: "."})
	require.NoError(t, err)
	require.Equal(t, "none", out)
}

func TestEngine_Keys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "list.tmpl"), `{{ range keys . }}{{ . }} {{ end }}`)

	e := NewEngine()
	tpl, err := e.Compile(filepath.Join(dir, "list.tmpl"))
	require.NoError(t, err)
	data := map[string]any{"zeta": 1, "alpha": 2, "mid": 3}

	out, err := e.Execute(tpl, data, Env{
		Keys: func(any) ([]string, error) { return []string{"zeta", "alpha", "mid"}, nil },
	})
	require.NoError(t, err)
	require.Equal(t, "zeta alpha mid ", out)

	out, err = e.Execute(tpl, data, Env{})
	require.NoError(t, err)
	require.Equal(t, "alpha mid zeta ", out)

	_, err = e.Execute(tpl, []any{1}, Env{})
	require.Error(t, err)
}

func TestEngine_CompileSyntaxError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.tmpl"), `{{ if .x }}`)

	_, err := NewEngine().Compile(filepath.Join(dir, "broken.tmpl"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse template")
}

func TestEngine_IncludeResolvesLexically(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "blog", "index.tmpl"), `<{{ include "partials/_card" .post }}>`)
	writeFile(t, filepath.Join(dir, "blog", "partials", "_card.tmpl"), `{{ .title }}:{{ include "_footer.tmpl" }}`)
	writeFile(t, filepath.Join(dir, "blog", "partials", "_footer.tmpl"), `foot {{ rootPath }}`)
	// Same name one directory up must not be picked.
	writeFile(t, filepath.Join(dir, "blog", "_footer.tmpl"), `wrong`)

	e := NewEngine()
	tpl, err := e.Compile(filepath.Join(dir, "blog", "index.tmpl"))
	require.NoError(t, err)

	out, err := e.Execute(tpl, map[string]any{"post": map[string]any{"title": "Post"}}, Env{RootPath: ".."})
	require.NoError(t, err)
	require.Equal(t, "<Post:foot ..>", out)
	require.Equal(t, 2, e.CachedIncludes())
}

func TestEngine_IncludeCompiledOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.tmpl"), `{{ include "_a" }}{{ include "_a.tmpl" }}{{ include "./_a" }}`)
	writeFile(t, filepath.Join(dir, "_a.tmpl"), `a`)

	reads := map[string]int{}
	e := NewEngine()
	e.readFile = func(p string) ([]byte, error) {
		reads[p]++
		// #nosec G304 -- path is controlled by test.
		return os.ReadFile(p)
	}

	tpl, err := e.Compile(filepath.Join(dir, "page.tmpl"))
	require.NoError(t, err)

	for range 2 {
		out, err := e.Execute(tpl, nil, Env{RootPath: "."})
		require.NoError(t, err)
		require.Equal(t, "aaa", out)
	}
	require.Equal(t, 1, reads[filepath.Join(dir, "_a.tmpl")])
	require.Equal(t, 1, e.CachedIncludes())
}

func TestEngine_IncludeErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "missing.tmpl"), `{{ include "_nope" }}`)
	writeFile(t, filepath.Join(dir, "loop.tmpl"), `{{ include "_loop" }}`)
	writeFile(t, filepath.Join(dir, "_loop.tmpl"), `x{{ include "_loop" }}`)
	writeFile(t, filepath.Join(dir, "args.tmpl"), `{{ include "_loop" 1 2 }}`)

	e := NewEngine()
	for name, want := range map[string]string{
		"missing.tmpl": `include "_nope"`,
		"loop.tmpl":    "nesting deeper than 32",
		"args.tmpl":    "at most one data argument",
	} {
		tpl, err := e.Compile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		_, err = e.Execute(tpl, nil, Env{RootPath: "."})
		require.Error(t, err, name)
		require.True(t, strings.Contains(err.Error(), want), "%s: %v", name, err)
	}
}

func TestResolve(t *testing.T) {
	base := filepath.FromSlash("/src/blog")
	require.Equal(t, filepath.FromSlash("/src/blog/_card.tmpl"), Resolve(base, "_card"))
	require.Equal(t, filepath.FromSlash("/src/_layout.tmpl"), Resolve(base, "../_layout.tmpl"))
	require.Equal(t, filepath.FromSlash("/src/blog/_feed.xml"), Resolve(base, "_feed.xml"))
}
