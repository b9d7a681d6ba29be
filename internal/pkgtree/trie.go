package pkgtree

import (
	"sort"

	"github.com/dshills/pkgtree-mcp/pkg/types"
)

// node is one segment position in the union of all registered namespaces.
// Each node is owned by exactly one parent; the root stands for the empty
// namespace and is never registered.
type node struct {
	children   map[string]*node
	registered bool
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// Trie answers longest-prefix queries over a fixed set of namespaces.
// It is immutable after Build and safe for concurrent readers.
type Trie struct {
	root  *node
	size  int // distinct registered namespaces
	depth int // segments in the longest registered namespace
}

// Build creates a trie holding every namespace in the input.
// Order and duplicates do not affect the result; empty namespaces are
// ignored because the root is never registered.
func Build(namespaces []types.Namespace) *Trie {
	t := &Trie{root: newNode()}
	for _, ns := range namespaces {
		t.insert(ns)
	}
	return t
}

// insert walks the full namespace, creating intermediate nodes as needed,
// and marks the last node registered.
func (t *Trie) insert(ns types.Namespace) {
	if len(ns) == 0 {
		return
	}

	n := t.root
	for _, seg := range ns {
		child, ok := n.children[seg]
		if !ok {
			child = newNode()
			n.children[seg] = child
		}
		n = child
	}

	if !n.registered {
		n.registered = true
		t.size++
	}
	if len(ns) > t.depth {
		t.depth = len(ns)
	}
}

// Longest returns the deepest registered namespace that is an
// ancestor-or-self of ns. The walk follows a single path and halts at the
// first segment without a matching child.
func (t *Trie) Longest(ns types.Namespace) (types.Namespace, bool) {
	n := t.root
	best := 0 // segments consumed at the deepest registered node

	for i, seg := range ns {
		child, ok := n.children[seg]
		if !ok {
			break
		}
		n = child
		if n.registered {
			best = i + 1
		}
	}

	if best == 0 {
		return nil, false
	}
	return ns[:best].Clone(), true
}

// Contains reports whether ns itself was registered
func (t *Trie) Contains(ns types.Namespace) bool {
	if len(ns) == 0 {
		return false
	}
	n := t.root
	for _, seg := range ns {
		child, ok := n.children[seg]
		if !ok {
			return false
		}
		n = child
	}
	return n.registered
}

// Len returns the number of distinct registered namespaces
func (t *Trie) Len() int {
	return t.size
}

// Depth returns the segment count of the longest registered namespace,
// which bounds the cost of any query.
func (t *Trie) Depth() int {
	return t.depth
}

// Namespaces lists the registered namespaces in lexical segment order
func (t *Trie) Namespaces() []types.Namespace {
	out := make([]types.Namespace, 0, t.size)
	var walk func(n *node, path types.Namespace)
	walk = func(n *node, path types.Namespace) {
		if n.registered {
			out = append(out, path.Clone())
		}
		keys := make([]string, 0, len(n.children))
		for k := range n.children {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(n.children[k], append(path, k))
		}
	}
	walk(t.root, make(types.Namespace, 0, t.depth))
	return out
}
