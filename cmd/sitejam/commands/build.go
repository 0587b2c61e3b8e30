package commands

import (
	"context"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitejam/internal/config"
	ferrors "git.home.luguber.info/inful/sitejam/internal/foundation/errors"
	"git.home.luguber.info/inful/sitejam/internal/logfields"
	"git.home.luguber.info/inful/sitejam/internal/metrics"
	"git.home.luguber.info/inful/sitejam/internal/site"
	"git.home.luguber.info/inful/sitejam/internal/version"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Source      string `arg:"" optional:"" type:"path" help:"Source directory (overrides config source)"`
	Dest        string `arg:"" optional:"" type:"path" help:"Output directory; defaults to the source directory"`
	Quiet       bool   `short:"q" help:"Do not print progress messages"`
	Breaks      bool   `help:"Render single newlines in Markdown paragraphs as <br>"`
	Smartypants bool   `help:"Use typographic quotes, dashes and ellipses in Markdown"`
	ReportDir   string `name:"report-dir" type:"path" help:"Write build-report.json and build-report.txt to this directory"`
	MetricsFile string `name:"metrics-file" type:"path" help:"Write Prometheus metrics in text format to this file"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg := g.Config
	cfg.Apply(config.Overrides{
		Source:      b.Source,
		Dest:        b.Dest,
		Quiet:       b.Quiet,
		Breaks:      b.Breaks,
		Smartypants: b.Smartypants,
		ReportDir:   b.ReportDir,
		MetricsFile: b.MetricsFile,
	})
	if cfg.Source == "" {
		return ferrors.ValidationError("source directory is required (argument or config source)").Build()
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var registry *prom.Registry
	if cfg.Output.MetricsFile != "" {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	if cfg.LogEnabled() {
		_, _ = fmt.Fprintf(root.Stdout, "sitejam %s\n\n", version.Resolved())
	}
	start := time.Now()

	gen := site.New(site.Options{
		Source:      cfg.Source,
		Dest:        cfg.Dest,
		Log:         cfg.LogEnabled(),
		Breaks:      cfg.Markdown.Breaks,
		Smartypants: cfg.Markdown.Smartypants,
		Logger:      g.Logger,
		Recorder:    recorder,
	})
	report, err := gen.Generate(ctx)

	if cfg.Output.ReportDir != "" {
		if perr := report.Persist(cfg.Output.ReportDir); perr != nil {
			g.Logger.Warn("Failed to persist build report", logfields.Path(cfg.Output.ReportDir), logfields.Error(perr))
		}
	}
	if registry != nil {
		if merr := metrics.WriteTextfile(cfg.Output.MetricsFile, registry); merr != nil {
			g.Logger.Warn("Failed to write metrics file", logfields.Path(cfg.Output.MetricsFile), logfields.Error(merr))
		}
	}
	if err != nil {
		return err
	}

	if cfg.LogEnabled() {
		_, _ = fmt.Fprintf(root.Stdout, "\nDone in %s.\n", time.Since(start).Truncate(time.Millisecond))
	}
	return nil
}
