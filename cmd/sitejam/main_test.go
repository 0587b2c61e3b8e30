package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitejam/cmd/sitejam/commands"
	ferrors "git.home.luguber.info/inful/sitejam/internal/foundation/errors"
	"git.home.luguber.info/inful/sitejam/internal/site"
)

func writeSource(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &commands.CLI{Stdout: &out, Stderr: io.Discard})
	return out.String(), err
}

func exitCode(err error) int {
	return ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err)
}

var blogSource = map[string]string{
	"index.tmpl":     `{{ range $k, $v := .blog }}{{ $k }} {{ end }}`,
	"blog/a.md":      "---\ntitle: A \"quoted\" title\n---\nHello\n",
	"blog/b.md":      "---\ntitle: B\n---\nWorld\n",
	"blog/item.tmpl": `<h1>{{ .title }}</h1>{{ .body }}<a href="{{ rootPath }}/index.html">home</a>`,
	"style.css":      "body{}",
}

func TestBuild_DefaultCommand(t *testing.T) {
	src := writeSource(t, blogSource)
	dest := filepath.Join(t.TempDir(), "public")

	out, err := runCLI(t, src, dest)
	require.NoError(t, err)
	require.Contains(t, out, "sitejam ")
	require.Contains(t, out, "Done in")

	// #nosec G304 -- test path
	page, err := os.ReadFile(filepath.Join(dest, "blog", "a.html"))
	require.NoError(t, err)
	require.Equal(t, "<h1>A \"quoted\" title</h1><p>Hello</p>\n<a href=\"../index.html\">home</a>", string(page))

	// #nosec G304 -- test path
	index, err := os.ReadFile(filepath.Join(dest, "index.html"))
	require.NoError(t, err)
	require.Equal(t, "a b ", string(index))

	_, err = os.Stat(filepath.Join(dest, "style.css"))
	require.NoError(t, err)
}

func TestBuild_FlagsAndQuiet(t *testing.T) {
	src := writeSource(t, blogSource)
	dest := t.TempDir()
	reports := t.TempDir()
	metricsFile := filepath.Join(t.TempDir(), "sitejam.prom")

	out, err := runCLI(t, "build", "--quiet", "--smartypants",
		"--report-dir", reports, "--metrics-file", metricsFile, src, dest)
	require.NoError(t, err)
	require.Empty(t, out)

	// #nosec G304 -- test path
	page, err := os.ReadFile(filepath.Join(dest, "blog", "a.html"))
	require.NoError(t, err)
	require.Contains(t, string(page), "<h1>A \"quoted\" title</h1>", "front matter is not typographed")

	_, err = os.Stat(filepath.Join(reports, site.ReportJSONName))
	require.NoError(t, err)

	// #nosec G304 -- test path
	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	require.Contains(t, string(prom), `sitejam_rendered_pages_total{mode="collection"} 2`)
}

func TestBuild_ConfigFile(t *testing.T) {
	src := writeSource(t, map[string]string{"p.md": "\"hi\" -- there\n", "index.tmpl": "{{ .p.body }}"})
	dest := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "sitejam.yaml")
	t.Setenv("SITEJAM_TEST_DEST", dest)
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"source: "+src+"\ndest: ${SITEJAM_TEST_DEST}\nlog: false\nmarkdown:\n  smartypants: true\n"), 0o644))

	out, err := runCLI(t, "-c", cfgPath, "build")
	require.NoError(t, err)
	require.Empty(t, out)

	// #nosec G304 -- test path
	page, err := os.ReadFile(filepath.Join(dest, "index.html"))
	require.NoError(t, err)
	require.Equal(t, "<p>&ldquo;hi&rdquo; &ndash; there</p>\n", string(page))
}

func TestBuild_ExitCodes(t *testing.T) {
	t.Run("missing source", func(t *testing.T) {
		_, err := runCLI(t, "build", filepath.Join(t.TempDir(), "nope"))
		require.Equal(t, 3, exitCode(err))
	})

	t.Run("reserved body", func(t *testing.T) {
		src := writeSource(t, map[string]string{"a.md": "---\nbody: x\n---\n"})
		_, err := runCLI(t, src, t.TempDir())
		require.Equal(t, 9, exitCode(err))
		require.Contains(t, ferrors.NewCLIErrorAdapter(false, nil).FormatError(err), "a.md")
	})

	t.Run("template error", func(t *testing.T) {
		src := writeSource(t, map[string]string{"index.tmpl": "{{ .missing }}"})
		_, err := runCLI(t, src, t.TempDir())
		require.Equal(t, 11, exitCode(err))
	})

	t.Run("bad config", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("nonsense: true\n"), 0o644))
		_, err := runCLI(t, "-c", cfgPath, "build", t.TempDir())
		require.Equal(t, 7, exitCode(err))
	})

	t.Run("no source", func(t *testing.T) {
		_, err := runCLI(t, "build")
		require.Equal(t, 2, exitCode(err))
	})
}

func TestTree(t *testing.T) {
	src := writeSource(t, blogSource)

	out, err := runCLI(t, "tree", src, t.TempDir())
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Equal(t, ". (directory, rootPath=.)", lines[0])
	require.Contains(t, out, "  blog/ (directory, rootPath=..)\n")
	require.Contains(t, out, "    a (data: title, body)\n")
	require.Contains(t, out, "  blog/item.tmpl (collection) -> blog/a.html, blog/b.html\n")
	require.Contains(t, out, "  index.tmpl -> index.html\n")
	require.Contains(t, out, "static files: 1, directories: 1")

	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	require.Len(t, entries, 3, "tree writes nothing")

	// Without a destination the build renders in place, so statics are not copied.
	out, err = runCLI(t, "tree", src)
	require.NoError(t, err)
	require.Contains(t, out, "static files: 0, directories: 1")
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "sitejam "))
}
