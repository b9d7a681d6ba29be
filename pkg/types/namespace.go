package types

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultSeparator splits dotted namespaces such as "com.acme.model"
const DefaultSeparator = "."

// ImportPathSeparator splits Go import paths such as "github.com/acme/shop"
const ImportPathSeparator = "/"

// Namespace is an ordered sequence of path segments, e.g. ["com", "acme", "model"].
// The zero value is the empty namespace.
type Namespace []string

// ParseNamespace splits s on sep and validates the result.
// The empty string parses to the empty namespace.
func ParseNamespace(s, sep string) (Namespace, error) {
	if sep == "" {
		return nil, ErrEmptySeparator
	}
	if s == "" {
		return Namespace{}, nil
	}

	ns := Namespace(strings.Split(s, sep))
	if err := ns.Validate(sep); err != nil {
		return nil, fmt.Errorf("%w: %q", err, s)
	}
	return ns, nil
}

// MustParseNamespace is like ParseNamespace but panics on malformed input.
// Intended for tests and package-level literals.
func MustParseNamespace(s, sep string) Namespace {
	ns, err := ParseNamespace(s, sep)
	if err != nil {
		panic(err)
	}
	return ns
}

// Validate checks that every segment is non-empty and free of sep
func (ns Namespace) Validate(sep string) error {
	for i, seg := range ns {
		if seg == "" {
			return fmt.Errorf("%w: empty segment at position %d", ErrMalformedNamespace, i)
		}
		if sep != "" && strings.Contains(seg, sep) {
			return fmt.Errorf("%w: segment %q at position %d contains separator %q",
				ErrMalformedNamespace, seg, i, sep)
		}
	}
	return nil
}

// Join renders the namespace with the given separator
func (ns Namespace) Join(sep string) string {
	return strings.Join(ns, sep)
}

// String renders the namespace with DefaultSeparator
func (ns Namespace) String() string {
	return ns.Join(DefaultSeparator)
}

// IsEmpty reports whether the namespace has no segments
func (ns Namespace) IsEmpty() bool {
	return len(ns) == 0
}

// Equal reports whether both namespaces have the same segment sequence
func (ns Namespace) Equal(other Namespace) bool {
	return slices.Equal(ns, other)
}

// IsAncestorOrSelf reports whether ns is a segment prefix of other
func (ns Namespace) IsAncestorOrSelf(other Namespace) bool {
	if len(ns) > len(other) {
		return false
	}
	return slices.Equal(ns, other[:len(ns)])
}

// Parent returns the namespace without its last segment.
// The parent of the empty namespace is the empty namespace.
func (ns Namespace) Parent() Namespace {
	if len(ns) == 0 {
		return Namespace{}
	}
	return slices.Clone(ns[:len(ns)-1])
}

// Clone returns an independent copy
func (ns Namespace) Clone() Namespace {
	if ns == nil {
		return nil
	}
	return slices.Clone(ns)
}
