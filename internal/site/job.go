package site

import (
	"path"

	"git.home.luguber.info/inful/sitejam/internal/ctxtree"
	"git.home.luguber.info/inful/sitejam/internal/templates"
)

// Job is a compiled page template waiting for the context tree to be complete.
type Job struct {
	Template *templates.Template
	// Source is the slash-separated template path relative to the source root.
	Source string
	// Dir is the context node of the directory holding the template.
	Dir *ctxtree.Node
	// Name is the template name without its template extension.
	Name   string
	OutExt string
	// OutDir is the slash-separated output directory relative to the output root.
	OutDir string
	// Collection jobs render once per entry of Dir instead of once for Dir.
	Collection bool
}

// DestPath returns the output-relative path for a page called name.
func (j Job) DestPath(name string) string {
	return path.Join(j.OutDir, name) + j.OutExt
}

// Outputs lists the output-relative paths the job writes, in render order.
// Collection outputs are only known once the walk has finished.
func (j Job) Outputs() []string {
	if !j.Collection {
		return []string{j.DestPath(j.Name)}
	}
	keys := j.Dir.Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, j.DestPath(k))
	}
	return out
}

// Copy is a planned static file copy.
type Copy struct {
	// Rel is the slash-separated path relative to both roots.
	Rel  string
	From string
	To   string
}

// Plan is the result of walking a source tree: the complete context tree and
// everything the later stages have to do, in discovery order.
type Plan struct {
	Root *ctxtree.Node
	// Dirs are the slash-separated output directories to mirror.
	Dirs   []string
	Copies []Copy
	Jobs   []Job
	// Entries counts visited source entries by classified kind.
	Entries map[string]int
	// Fingerprints maps Markdown source paths to their content fingerprint.
	Fingerprints map[string]string
}

func newPlan() *Plan {
	return &Plan{
		Root:         ctxtree.NewRoot(),
		Entries:      make(map[string]int),
		Fingerprints: make(map[string]string),
	}
}
