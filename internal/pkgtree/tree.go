package pkgtree

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/pkgtree-mcp/pkg/types"
)

// ErrNilResolver is returned when a Tree is constructed without a resolver
var ErrNilResolver = errors.New("pkgtree: resolver is required")

// Resolver is the collaborator that connects identifiers to namespaces.
//
// NamespaceOf returns the namespace an identifier lives in; an empty
// namespace means the identifier has none. Resolve maps a namespace to its
// canonical handle and returns nil when the namespace does not resolve.
type Resolver interface {
	NamespaceOf(ctx context.Context, identifier string) (types.Namespace, error)
	Resolve(ctx context.Context, ns types.Namespace) (*types.Handle, error)
}

// Options configures a Tree
type Options struct {
	// Separator splits registered namespace strings and joins matched ones.
	Separator string
}

// Option mutates Options
type Option func(*Options)

// WithSeparator sets the segment separator (default ".")
func WithSeparator(sep string) Option {
	return func(o *Options) {
		o.Separator = sep
	}
}

func buildOptions(opts []Option) Options {
	o := Options{Separator: types.DefaultSeparator}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Tree finds the most specific registered namespace owning an identifier.
//
// Given the registered set {"com.workday", "com.workday.model",
// "com.workday.model.xml.base"}:
//
//	com.workday.model.xml.GridModel -> com.workday.model
//	com.workday.util.GridHelper     -> com.workday
//	org.chart.DataSet               -> no match
//
// A Tree is read-only once New returns and may be shared across goroutines,
// provided its Resolver is safe for concurrent use.
type Tree struct {
	trie     *Trie
	resolver Resolver
	sep      string
}

// New parses every registered namespace string with the configured
// separator and builds the tree. Malformed input is rejected with
// types.ErrMalformedNamespace.
func New(resolver Resolver, namespaces []string, opts ...Option) (*Tree, error) {
	o := buildOptions(opts)
	if o.Separator == "" {
		return nil, types.ErrEmptySeparator
	}

	parsed := make([]types.Namespace, 0, len(namespaces))
	for i, s := range namespaces {
		ns, err := types.ParseNamespace(s, o.Separator)
		if err != nil {
			return nil, fmt.Errorf("registered namespace %d: %w", i, err)
		}
		parsed = append(parsed, ns)
	}

	return newTree(resolver, parsed, o)
}

// NewFromNamespaces builds a tree from already split namespaces
func NewFromNamespaces(resolver Resolver, namespaces []types.Namespace, opts ...Option) (*Tree, error) {
	o := buildOptions(opts)
	if o.Separator == "" {
		return nil, types.ErrEmptySeparator
	}

	for i, ns := range namespaces {
		if err := ns.Validate(o.Separator); err != nil {
			return nil, fmt.Errorf("registered namespace %d (%q): %w", i, ns.Join(o.Separator), err)
		}
	}

	return newTree(resolver, namespaces, o)
}

func newTree(resolver Resolver, namespaces []types.Namespace, o Options) (*Tree, error) {
	if resolver == nil {
		return nil, ErrNilResolver
	}
	return &Tree{
		trie:     Build(namespaces),
		resolver: resolver,
		sep:      o.Separator,
	}, nil
}

// Match returns the handle of the most specific registered namespace that
// owns identifier, or nil when nothing matches. A matched namespace the
// resolver cannot resolve is reported as no match.
func (t *Tree) Match(ctx context.Context, identifier string) (*types.Handle, error) {
	ns, err := t.resolver.NamespaceOf(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("namespace of %q: %w", identifier, err)
	}

	matched, err := t.FindMatchingNamespace(ns)
	if err != nil {
		return nil, fmt.Errorf("identifier %q: %w", identifier, err)
	}
	if matched == nil {
		return nil, nil
	}

	handle, err := t.resolver.Resolve(ctx, matched)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", matched.Join(t.sep), err)
	}
	return handle, nil
}

// FindMatchingNamespace runs the trie walk directly. It returns nil when no
// registered namespace is an ancestor-or-self of ns.
func (t *Tree) FindMatchingNamespace(ns types.Namespace) (types.Namespace, error) {
	if err := ns.Validate(t.sep); err != nil {
		return nil, err
	}
	matched, ok := t.trie.Longest(ns)
	if !ok {
		return nil, nil
	}
	return matched, nil
}

// Separator returns the configured segment separator
func (t *Tree) Separator() string {
	return t.sep
}

// Len returns the number of distinct registered namespaces
func (t *Tree) Len() int {
	return t.trie.Len()
}

// Namespaces returns the registered set joined with the separator, in
// lexical segment order
func (t *Tree) Namespaces() []string {
	all := t.trie.Namespaces()
	out := make([]string, len(all))
	for i, ns := range all {
		out[i] = ns.Join(t.sep)
	}
	return out
}
