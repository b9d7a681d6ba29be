package types

import (
	"go/token"
)

// SymbolKind represents the type of Go language symbol
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindStruct    SymbolKind = "struct"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
	KindConst     SymbolKind = "const"
	KindVar       SymbolKind = "var"
	KindField     SymbolKind = "field"
)

// SymbolScope represents the visibility scope of a symbol
type SymbolScope string

const (
	ScopeExported   SymbolScope = "exported"
	ScopeUnexported SymbolScope = "unexported"
)

// Position represents a location in source code
type Position struct {
	Line   int
	Column int
}

// Symbol is a top-level declaration extracted from Go source
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Package string // Package clause name, not the import path

	Signature  string
	DocComment string

	Scope    SymbolScope
	Receiver string // Receiver type for methods, owning struct for fields

	Start Position
	End   Position
}

// QualifiedName returns the name as it is written from outside the
// package: "Name" or "Receiver.Name"
func (s *Symbol) QualifiedName() string {
	if s.Receiver == "" {
		return s.Name
	}
	return s.Receiver + "." + s.Name
}

// IsExported returns true if the symbol is visible outside its package
func (s *Symbol) IsExported() bool {
	return s.Scope == ScopeExported && token.IsExported(s.Name)
}

// Validate performs structural validation of the symbol
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return ErrSymbolNameRequired
	}

	switch s.Kind {
	case KindFunction, KindMethod, KindStruct, KindInterface, KindType, KindConst, KindVar, KindField:
	default:
		return ErrInvalidSymbolKind
	}

	switch s.Scope {
	case ScopeExported, ScopeUnexported:
	default:
		return ErrInvalidSymbolScope
	}

	if s.Package == "" {
		return ErrSymbolPackageRequired
	}

	return nil
}
