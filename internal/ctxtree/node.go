// Package ctxtree implements the hierarchical data model a generation run builds
// from the source tree.
//
// A Node is a tagged variant: a directory, a data mapping, a sequence or a scalar.
// Directory and data nodes hold named entries in insertion order. Every node also
// carries a hidden scope, shared by pointer with the directory it belongs to, that
// records the single root node of the run and the relative path from the node's
// output location back to the output root. The scope is reachable through Root,
// RootPath and Lookup, but never through Keys or the template view returned by Data.
package ctxtree

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"sort"
	"strings"
)

// Names of the hidden scope attributes. They can be looked up on every node and
// can never be used as entry names.
const (
	NameRoot     = "root"
	NameRootPath = "rootPath"
)

var (
	ErrReservedName = errors.New("reserved name")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotKeyed     = errors.New("node does not hold named entries")
)

// Kind tags the variant a Node holds.
type Kind int

const (
	KindDirectory Kind = iota
	KindData
	KindSequence
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindData:
		return "data"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

type scope struct {
	root     *Node
	rootPath string
}

// Node is one value in the context tree.
type Node struct {
	kind  Kind
	scope *scope

	keys    []string
	entries map[string]*Node
	items   []*Node
	value   any

	view any
	// views indexes every keyed view handed out in the run; set on the root only.
	views map[uintptr]*Node
}

// NewRoot creates the root directory node of a run. Its rootPath is ".".
func NewRoot() *Node {
	n := &Node{
		kind:    KindDirectory,
		entries: make(map[string]*Node),
		views:   make(map[uintptr]*Node),
	}
	n.scope = &scope{root: n, rootPath: "."}
	return n
}

// NewDirectory creates a directory node one level below n. The new node shares
// n's root and its rootPath is one "../" hop further from it. The node is not
// attached; use Set.
func (n *Node) NewDirectory() *Node {
	return &Node{
		kind:    KindDirectory,
		entries: make(map[string]*Node),
		scope: &scope{
			root:     n.scope.root,
			rootPath: path.Join(n.scope.rootPath, ".."),
		},
	}
}

// NewData creates an empty mapping node in n's scope.
func (n *Node) NewData() *Node {
	return &Node{kind: KindData, entries: make(map[string]*Node), scope: n.scope}
}

// NewSequence creates a sequence node in n's scope.
func (n *Node) NewSequence(items []*Node) *Node {
	return &Node{kind: KindSequence, items: items, scope: n.scope}
}

// NewScalar creates a scalar node in n's scope.
func (n *Node) NewScalar(v any) *Node {
	return &Node{kind: KindScalar, value: v, scope: n.scope}
}

// Kind returns the variant tag.
func (n *Node) Kind() Kind { return n.kind }

// Root returns the single root node of the run.
func (n *Node) Root() *Node { return n.scope.root }

// RootPath returns the slash-separated relative path from the node's output
// directory back to the output root.
func (n *Node) RootPath() string { return n.scope.rootPath }

// Keyed reports whether the node holds named entries.
func (n *Node) Keyed() bool { return n.entries != nil }

// Set stores child under name. Internal names and names already present are rejected.
func (n *Node) Set(name string, child *Node) error {
	if name == NameRoot || name == NameRootPath {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	return n.insert(name, child)
}

// insert stores child under name without the internal name check. Parsed YAML
// mappings below an entry are plain values and may use any key.
func (n *Node) insert(name string, child *Node) error {
	if !n.Keyed() {
		return fmt.Errorf("%w: %s", ErrNotKeyed, n.kind)
	}
	if _, exists := n.entries[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, name)
	}
	n.keys = append(n.keys, name)
	n.entries[name] = child
	n.view = nil
	return nil
}

// Assign merges the entries of props into n, in props' key order.
func (n *Node) Assign(props *Node) error {
	if !props.Keyed() {
		return fmt.Errorf("%w: cannot assign %s", ErrNotKeyed, props.kind)
	}
	for _, k := range props.keys {
		if err := n.Set(k, props.entries[k]); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns the node's own entry names in insertion order. Scope attributes
// are never included.
func (n *Node) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Len returns the number of entries or items.
func (n *Node) Len() int {
	if n.kind == KindSequence {
		return len(n.items)
	}
	return len(n.keys)
}

// Get returns the own entry stored under name.
func (n *Node) Get(name string) (*Node, bool) {
	c, ok := n.entries[name]
	return c, ok
}

// Lookup resolves name the way a template scope does: own entries first, then
// the hidden scope attributes. The result is a *Node for entries and root, and a
// string for rootPath.
func (n *Node) Lookup(name string) (any, bool) {
	if c, ok := n.entries[name]; ok {
		return c, true
	}
	switch name {
	case NameRoot:
		return n.scope.root, true
	case NameRootPath:
		return n.scope.rootPath, true
	}
	return nil, false
}

// Path resolves a slash-separated chain of entry names ("blog/posts").
func (n *Node) Path(p string) (*Node, bool) {
	cur := n
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." {
			continue
		}
		next, ok := cur.Get(part)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Items returns the items of a sequence node.
func (n *Node) Items() []*Node { return n.items }

// Value returns the value of a scalar node.
func (n *Node) Value() any { return n.value }

// Data returns the template view of the node: map[string]any for directories and
// mappings, []any for sequences, the raw value for scalars. Views are memoized;
// call Data once the tree is complete.
func (n *Node) Data() any {
	switch n.kind {
	case KindScalar:
		return n.value
	case KindSequence:
		if n.view == nil {
			out := make([]any, len(n.items))
			for i, it := range n.items {
				out[i] = it.Data()
			}
			n.view = out
		}
	default:
		if n.view == nil {
			out := make(map[string]any, len(n.keys))
			for _, k := range n.keys {
				out[k] = n.entries[k].Data()
			}
			n.view = out
			if idx := n.scope.root.views; idx != nil {
				idx[reflect.ValueOf(out).Pointer()] = n
			}
		}
	}
	return n.view
}

// KeysOf returns the entry names behind a template view in insertion order.
// view must be a mapping view produced by Data on a node of this run; other
// maps with string keys fall back to sorted order.
func (n *Node) KeysOf(view any) ([]string, error) {
	v := reflect.ValueOf(view)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%w: %T", ErrNotKeyed, view)
	}
	if owner, ok := n.scope.root.views[v.Pointer()]; ok {
		return owner.Keys(), nil
	}
	keys := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys, nil
}
