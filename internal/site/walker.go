package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitejam/internal/classify"
	"git.home.luguber.info/inful/sitejam/internal/ctxtree"
	ferrors "git.home.luguber.info/inful/sitejam/internal/foundation/errors"
	"git.home.luguber.info/inful/sitejam/internal/frontmatter"
	"git.home.luguber.info/inful/sitejam/internal/logfields"
	"git.home.luguber.info/inful/sitejam/internal/markdown"
	"git.home.luguber.info/inful/sitejam/internal/metrics"
	"git.home.luguber.info/inful/sitejam/internal/templates"
)

// walker builds the context tree and the plan for one run. It reads the source
// tree but never writes.
type walker struct {
	src, dest string
	md        *markdown.Renderer
	engine    *templates.Engine
	logger    *slog.Logger
	progress  slog.Level
	recorder  metrics.Recorder
	plan      *Plan
}

func (w *walker) run(ctx context.Context) (*Plan, error) {
	w.plan = newPlan()
	if err := w.walkDir(ctx, w.src, ".", w.plan.Root); err != nil {
		return nil, err
	}
	return w.plan, nil
}

// walkDir visits the entries of dir depth-first in lexicographic order. rel is
// the slash-separated path of dir relative to the source root.
func (w *walker) walkDir(ctx context.Context, dir, rel string, node *ctxtree.Node) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read source directory").
			Fatal().WithContext(logfields.KeyPath, dir).Build()
	}

	for _, de := range entries {
		full := filepath.Join(dir, de.Name())
		isDir, err := entryIsDir(full, de)
		if errors.Is(err, errSymlinkedDir) {
			w.log(ctx, "skipping", logfields.Path(path.Join(rel, de.Name())), logfields.Kind("symlink"))
			continue
		}
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat source entry").
				Fatal().WithContext(logfields.KeyPath, full).Build()
		}

		e := classify.Classify(de.Name(), isDir, rel)
		if isDir && full == w.dest && w.dest != w.src {
			w.log(ctx, "skipping", logfields.Path(e.RelPath), logfields.Kind("output"))
			continue
		}
		w.plan.Entries[e.Kind.String()]++
		w.recorder.IncEntry(e.Kind.String())

		if err := w.visit(ctx, full, e, node); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) visit(ctx context.Context, full string, e classify.Entry, node *ctxtree.Node) error {
	switch e.Kind {
	case classify.KindSkip:
		w.logger.DebugContext(ctx, "ignoring", logfields.Path(e.RelPath))
		return nil

	case classify.KindDirectory:
		child := node.NewDirectory()
		if err := node.Set(e.Name, child); err != nil {
			return contentError(err, "cannot add directory", e.RelPath)
		}
		w.plan.Dirs = append(w.plan.Dirs, e.RelPath)
		return w.walkDir(ctx, full, e.RelPath, child)

	case classify.KindMarkdown:
		w.log(ctx, "reading", logfields.File(e.RelPath), logfields.Kind(e.Kind.String()))
		data, err := w.readMarkdown(full, e.RelPath, node)
		if err != nil {
			return err
		}
		return setEntry(node, e, data)

	case classify.KindYAML:
		w.log(ctx, "reading", logfields.File(e.RelPath), logfields.Kind(e.Kind.String()))
		src, err := readSource(full)
		if err != nil {
			return err
		}
		data, err := node.ParseYAML(src)
		if err != nil {
			return contentError(err, "invalid YAML", e.RelPath)
		}
		return setEntry(node, e, data)

	case classify.KindTemplate:
		w.log(ctx, "compiling", logfields.File(e.RelPath), logfields.Kind(e.Kind.String()))
		tpl, err := w.engine.Compile(full)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryTemplate, "cannot compile "+e.RelPath).
				Fatal().WithContext(logfields.KeyTemplate, e.RelPath).Build()
		}
		w.plan.Jobs = append(w.plan.Jobs, Job{
			Template:   tpl,
			Source:     e.RelPath,
			Dir:        node,
			Name:       e.Name,
			OutExt:     e.OutExt,
			OutDir:     path.Dir(e.RelPath),
			Collection: e.Collection,
		})
		return nil

	case classify.KindInclude:
		w.log(ctx, "skipping", logfields.File(e.RelPath), logfields.Kind(e.Kind.String()))
		return nil

	default:
		to := filepath.Join(w.dest, filepath.FromSlash(e.RelPath))
		if to == full {
			return nil
		}
		w.plan.Copies = append(w.plan.Copies, Copy{Rel: e.RelPath, From: full, To: to})
		return nil
	}
}

// readMarkdown turns a prose file into a data node holding the front matter
// attributes followed by the rendered body.
func (w *walker) readMarkdown(full, rel string, node *ctxtree.Node) (*ctxtree.Node, error) {
	src, err := readSource(full)
	if err != nil {
		return nil, err
	}
	doc, err := frontmatter.Parse(src)
	if err != nil {
		return nil, contentError(err, "invalid front matter in", rel)
	}

	data := node.NewData()
	if doc.Attributes != nil {
		attrs, err := node.DecodeYAML(doc.Attributes)
		if err != nil {
			return nil, contentError(err, "invalid front matter in", rel)
		}
		if err := data.Assign(attrs); err != nil {
			return nil, contentError(err, "invalid front matter in", rel)
		}
	}

	body, err := w.md.Render(doc.Body)
	if err != nil {
		return nil, contentError(err, "cannot render", rel)
	}
	if err := data.Set(frontmatter.ReservedKey, node.NewScalar(body)); err != nil {
		return nil, contentError(err, "invalid front matter in", rel)
	}

	w.plan.Fingerprints[rel] = mdfp.CalculateFingerprintFromParts(string(doc.Raw), string(doc.Body))
	return data, nil
}

func (w *walker) log(ctx context.Context, msg string, attrs ...slog.Attr) {
	w.logger.LogAttrs(ctx, w.progress, msg, attrs...)
}

func setEntry(node *ctxtree.Node, e classify.Entry, data *ctxtree.Node) error {
	if err := node.Set(e.Name, data); err != nil {
		return contentError(err, "cannot add", e.RelPath)
	}
	return nil
}

func contentError(err error, msg, rel string) error {
	return ferrors.WrapError(err, ferrors.CategoryContent, msg+" "+rel).
		Fatal().WithContext(logfields.KeyFile, rel).Build()
}

func readSource(full string) ([]byte, error) {
	// #nosec G304 -- full is an entry of the configured source tree.
	b, err := os.ReadFile(full)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read source file").
			Fatal().WithContext(logfields.KeyPath, full).Build()
	}
	return b, nil
}

// errSymlinkedDir marks a symlink that resolves to a directory. Such links are
// not followed so a link cycle cannot recurse forever.
var errSymlinkedDir = errors.New("symlinked directory")

// entryIsDir reports whether de is a directory. Symlinks to files count as files.
func entryIsDir(full string, de fs.DirEntry) (bool, error) {
	if de.Type()&fs.ModeSymlink == 0 {
		return de.IsDir(), nil
	}
	info, err := os.Stat(full)
	if err != nil {
		return false, fmt.Errorf("resolve symlink: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%w: %s", errSymlinkedDir, de.Name())
	}
	return false, nil
}
