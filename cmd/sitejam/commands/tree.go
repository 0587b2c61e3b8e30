package commands

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/sitejam/internal/ctxtree"
	"git.home.luguber.info/inful/sitejam/internal/site"
)

// TreeCmd implements the 'tree' command.
type TreeCmd struct {
	Source string `arg:"" type:"existingdir" help:"Source directory"`
	Dest   string `arg:"" optional:"" type:"path" help:"Output directory a build would use; skipped when nested in the source"`
}

func (t *TreeCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	plan, err := site.New(site.Options{
		Source: t.Source,
		Dest:   t.Dest,
		Logger: g.Logger,
	}).Plan(ctx)
	if err != nil {
		return err
	}

	if err := ctxtree.Dump(root.Stdout, plan.Root); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(root.Stdout, "\npages (%d templates):\n", len(plan.Jobs))
	for _, job := range plan.Jobs {
		mode := ""
		if job.Collection {
			mode = " (collection)"
		}
		_, _ = fmt.Fprintf(root.Stdout, "  %s%s -> %s\n", job.Source, mode, strings.Join(job.Outputs(), ", "))
	}
	_, _ = fmt.Fprintf(root.Stdout, "\nstatic files: %d, directories: %d\n", len(plan.Copies), len(plan.Dirs))
	return nil
}
