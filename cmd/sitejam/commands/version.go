package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitejam/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(root *CLI) error {
	_, err := fmt.Fprintln(root.Stdout, version.String())
	return err
}
