// Package version exposes build metadata set at link time:
//
//	go build -ldflags "-X git.home.luguber.info/inful/sitejam/internal/version.Version=v0.3.0 \
//	  -X git.home.luguber.info/inful/sitejam/internal/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version contains the application version information.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Resolved returns Version, falling back to the module version recorded by
// `go install` when no ldflags were given.
func Resolved() string {
	if Version != "unknown" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// String renders the full version line printed by the CLI.
func String() string {
	return fmt.Sprintf("sitejam %s (commit %s, built %s, %s)", Resolved(), GitCommit, BuildTime, runtime.Version())
}
