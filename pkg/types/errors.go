package types

import "errors"

// Domain errors for namespace handling
var (
	// ErrMalformedNamespace marks a namespace with an empty segment or a
	// segment that contains the separator, e.g. "com..acme"
	ErrMalformedNamespace = errors.New("malformed namespace")
	ErrEmptySeparator     = errors.New("separator cannot be empty")
)

// Symbol validation errors
var (
	ErrSymbolNameRequired    = errors.New("symbol name is required")
	ErrSymbolPackageRequired = errors.New("symbol package is required")
	ErrInvalidSymbolKind     = errors.New("invalid symbol kind")
	ErrInvalidSymbolScope    = errors.New("invalid symbol scope")
)
