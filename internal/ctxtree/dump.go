package ctxtree

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented outline of the tree below n, one entry per line.
// Directories show their rootPath, data nodes their keys, scalars their value.
func Dump(w io.Writer, n *Node) error {
	if _, err := fmt.Fprintf(w, ". (directory, rootPath=%s)\n", n.RootPath()); err != nil {
		return err
	}
	return dumpEntries(w, n, 1)
}

func dumpEntries(w io.Writer, n *Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, k := range n.keys {
		c := n.entries[k]
		var line string
		switch c.kind {
		case KindDirectory:
			line = fmt.Sprintf("%s%s/ (directory, rootPath=%s)", indent, k, c.RootPath())
		case KindData:
			line = fmt.Sprintf("%s%s (data: %s)", indent, k, strings.Join(c.keys, ", "))
		case KindSequence:
			line = fmt.Sprintf("%s%s (sequence, %d items)", indent, k, len(c.items))
		default:
			line = fmt.Sprintf("%s%s = %s", indent, k, summarize(c.value))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if c.kind == KindDirectory {
			if err := dumpEntries(w, c, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func summarize(v any) string {
	s := fmt.Sprintf("%v", v)
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
