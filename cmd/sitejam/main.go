package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitejam/cmd/sitejam/commands"
	ferrors "git.home.luguber.info/inful/sitejam/internal/foundation/errors"
	"git.home.luguber.info/inful/sitejam/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	cli := &commands.CLI{}
	err := run(ctx, os.Args[1:], cli)
	cancel()

	if err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}

// run parses args into cli and executes the selected command.
func run(ctx context.Context, args []string, cli *commands.CLI) error {
	globals := &commands.Global{}
	parser, err := kong.New(cli,
		kong.Name("sitejam"),
		kong.Description("Generate a static site from a tree of Markdown, YAML, templates and assets."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(globals),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "build command line parser").Fatal().Build()
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		if ferrors.IsClassified(err) {
			return err
		}
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid arguments").Fatal().Build()
	}
	return kctx.Run(cli)
}
