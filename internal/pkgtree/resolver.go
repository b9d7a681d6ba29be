package pkgtree

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/pkgtree-mcp/pkg/types"
)

// QualifiedNameResolver resolves fully qualified names held entirely in
// memory. The namespace of "com.acme.model.Order" is "com.acme.model"; an
// identifier without a separator has no namespace.
type QualifiedNameResolver struct {
	sep   string
	known *Trie // nil resolves every valid namespace
}

// NewQualifiedNameResolver creates a resolver for sep-delimited names.
// When known is non-empty only those namespaces resolve to a handle.
func NewQualifiedNameResolver(sep string, known ...types.Namespace) (*QualifiedNameResolver, error) {
	if sep == "" {
		return nil, types.ErrEmptySeparator
	}
	for _, ns := range known {
		if err := ns.Validate(sep); err != nil {
			return nil, err
		}
	}

	r := &QualifiedNameResolver{sep: sep}
	if len(known) > 0 {
		r.known = Build(known)
	}
	return r, nil
}

// NamespaceOf strips the last segment of the identifier
func (r *QualifiedNameResolver) NamespaceOf(_ context.Context, identifier string) (types.Namespace, error) {
	identifier = strings.TrimSpace(identifier)
	idx := strings.LastIndex(identifier, r.sep)
	if idx < 0 {
		return types.Namespace{}, nil
	}
	if idx == 0 || idx+len(r.sep) == len(identifier) {
		return nil, fmt.Errorf("%w: %q", types.ErrMalformedNamespace, identifier)
	}
	return types.ParseNamespace(identifier[:idx], r.sep)
}

// Resolve returns a handle named after the joined namespace
func (r *QualifiedNameResolver) Resolve(_ context.Context, ns types.Namespace) (*types.Handle, error) {
	if ns.IsEmpty() {
		return nil, nil
	}
	if r.known != nil && !r.known.Contains(ns) {
		return nil, nil
	}
	return &types.Handle{
		Name:      ns.Join(r.sep),
		Namespace: ns.Clone(),
	}, nil
}
