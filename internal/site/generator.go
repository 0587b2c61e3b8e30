// Package site runs a generation: it walks a source tree into a context tree
// and a plan, mirrors the directory structure, copies static files and renders
// every page template once the whole tree is known.
package site

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ferrors "git.home.luguber.info/inful/sitejam/internal/foundation/errors"
	"git.home.luguber.info/inful/sitejam/internal/logfields"
	"git.home.luguber.info/inful/sitejam/internal/markdown"
	"git.home.luguber.info/inful/sitejam/internal/metrics"
	"git.home.luguber.info/inful/sitejam/internal/observability"
	"git.home.luguber.info/inful/sitejam/internal/templates"
)

// Options configures a Generator.
type Options struct {
	Source string
	// Dest defaults to Source.
	Dest string
	// Log reports progress messages at Info instead of Debug.
	Log         bool
	Breaks      bool
	Smartypants bool
	Highlight   markdown.HighlightFunc
	Logger      *slog.Logger
	Recorder    metrics.Recorder
}

// Generator turns a source tree into an output tree.
type Generator struct {
	src, dest string
	md        *markdown.Renderer
	engine    *templates.Engine
	logger    *slog.Logger
	progress  slog.Level
	recorder  metrics.Recorder
}

// New returns a Generator for opts. Paths are resolved when Generate or Plan runs.
func New(opts Options) *Generator {
	g := &Generator{
		src:      opts.Source,
		dest:     opts.Dest,
		logger:   opts.Logger,
		recorder: opts.Recorder,
		progress: slog.LevelDebug,
		md: markdown.New(markdown.Options{
			Breaks:      opts.Breaks,
			Smartypants: opts.Smartypants,
			Highlight:   opts.Highlight,
		}),
	}
	if g.dest == "" {
		g.dest = g.src
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if g.recorder == nil {
		g.recorder = metrics.NoopRecorder{}
	}
	if opts.Log {
		g.progress = slog.LevelInfo
	}
	return g
}

// Generate builds the output tree. The returned report is never nil and
// describes the run even when it failed.
func (g *Generator) Generate(ctx context.Context) (*BuildReport, error) {
	start := time.Now()
	report := newBuildReport(g.src, g.dest)
	ctx = observability.WithBuildID(ctx, report.BuildID)

	err := g.resolvePaths()
	if err == nil {
		report.Source, report.Dest = g.src, g.dest
		bs := &BuildState{Generator: g, Report: report, Timings: make(map[StageName]time.Duration)}
		err = runStages(ctx, bs, []namedStage{
			{StageWalk, stageWalk},
			{StageMaterialize, stageMaterialize},
			{StageRender, stageRender},
		})
	} else {
		report.Errors = append(report.Errors, err)
	}

	report.finish()
	g.recorder.ObserveBuildDuration(time.Since(start))
	g.recorder.IncBuildOutcome(string(report.Outcome))
	g.logger.InfoContext(ctx, "build finished",
		logfields.Outcome(string(report.Outcome)),
		logfields.Count(report.RenderedPages),
		logfields.DurationMS(float64(time.Since(start))/float64(time.Millisecond)))
	return report, err
}

// Plan walks the source tree without writing anything and returns the complete
// context tree together with the pending work.
func (g *Generator) Plan(ctx context.Context) (*Plan, error) {
	if err := g.resolvePaths(); err != nil {
		return nil, err
	}
	return g.walk(ctx)
}

// walk runs the tree walker with a fresh template engine, so include caching is
// scoped to a single run.
func (g *Generator) walk(ctx context.Context) (*Plan, error) {
	g.engine = templates.NewEngine()
	w := &walker{
		src:      g.src,
		dest:     g.dest,
		md:       g.md,
		engine:   g.engine,
		logger:   g.logger,
		progress: g.progress,
		recorder: g.recorder,
	}
	return w.run(ctx)
}

func (g *Generator) resolvePaths() error {
	if g.src == "" {
		return ferrors.ValidationError("source directory is required").Build()
	}
	src, err := filepath.Abs(g.src)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "resolve source directory").Fatal().Build()
	}
	info, err := os.Stat(src)
	if err != nil {
		return ferrors.NotFoundError("source directory not found: "+g.src).
			WithCause(err).WithContext(logfields.KeyPath, src).Build()
	}
	if !info.IsDir() {
		return ferrors.ValidationError("source is not a directory: "+g.src).
			WithContext(logfields.KeyPath, src).Build()
	}
	dest, err := filepath.Abs(g.dest)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "resolve destination directory").Fatal().Build()
	}
	g.src, g.dest = src, dest
	return nil
}

func (g *Generator) outputPath(rel string) string {
	return filepath.Join(g.dest, filepath.FromSlash(rel))
}
