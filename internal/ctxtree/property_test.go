package ctxtree

import (
	"path"
	"slices"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestScopeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// rootPath joined with a node's own output directory always lands on the output root.
	properties.Property("rootPath locates the output root at any depth", prop.ForAll(
		func(depth int) bool {
			root := NewRoot()
			cur := root
			var dirs []string
			for i := 0; i < depth; i++ {
				child := cur.NewDirectory()
				name := "d" + strings.Repeat("x", i)
				if err := cur.Set(name, child); err != nil {
					return false
				}
				dirs = append(dirs, name)
				cur = child
			}
			out := path.Join(append(dirs, cur.RootPath())...)
			return out == "." && cur.Root() == root && cur.NewData().Root() == root
		},
		gen.IntRange(0, 40),
	))

	properties.Property("keys are own entries in insertion order and never scope names", prop.ForAll(
		func(names []string) bool {
			root := NewRoot()
			dir := root.NewDirectory()
			var want []string
			for _, name := range names {
				err := dir.Set(name, dir.NewScalar(name))
				reserved := name == NameRoot || name == NameRootPath
				dup := slices.Contains(want, name)
				if reserved || dup {
					if err == nil {
						return false
					}
					continue
				}
				if err != nil {
					return false
				}
				want = append(want, name)
			}
			keys := dir.Keys()
			if !slices.Equal(keys, want) {
				return false
			}
			view := dir.Data().(map[string]any)
			_, hasRoot := view[NameRoot]
			_, hasRootPath := view[NameRootPath]
			return len(view) == len(want) && !hasRoot && !hasRootPath
		},
		gen.SliceOf(gen.OneGenOf(gen.Identifier(), gen.Const(NameRoot), gen.Const(NameRootPath))),
	))

	properties.TestingRun(t)
}
