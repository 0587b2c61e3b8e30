// Package commands holds the kong command tree of the sitejam CLI.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitejam/internal/config"
)

// Global carries state shared by all commands once flags are applied.
type Global struct {
	Logger *slog.Logger
	Config *config.Config
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (YAML)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd   `cmd:"" default:"withargs" help:"Generate a site from a source directory (default command)"`
	Tree  TreeCmd    `cmd:"" help:"Print the context tree and pending pages without writing anything"`
	Info  VersionCmd `cmd:"" name:"version" help:"Print version information"`

	// Stdout receives user-facing output; logs go to stderr.
	Stdout io.Writer `kong:"-"`
	// Stderr receives logs.
	Stderr io.Writer `kong:"-"`
}

// AfterApply runs after flag parsing: it loads the configuration file and sets
// up logging once.
func (c *CLI) AfterApply(g *Global) error {
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}

	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	logger := cfg.Logging.NewLogger(c.Stderr, c.Verbose)
	slog.SetDefault(logger)

	g.Logger = logger
	g.Config = cfg
	return nil
}
