package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/pkgtree-mcp/pkg/types"
)

func findSymbol(t *testing.T, result *types.ParseResult, qualified string) types.Symbol {
	t.Helper()
	for _, sym := range result.Symbols {
		if sym.QualifiedName() == qualified {
			return sym
		}
	}
	require.Failf(t, "symbol not found", "%s not in %d symbols", qualified, len(result.Symbols))
	return types.Symbol{}
}

func TestNew(t *testing.T) {
	p := New()
	require.NotNil(t, p)
	assert.NotNil(t, p.fset)
}

func TestParseFile_FromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cart.go")
	content := `package cart

import (
	"context"
	"errors"
)

// ErrEmpty is returned when checking out an empty cart
var ErrEmpty = errors.New("cart: empty")

// Cart holds line items
type Cart struct {
	Items []Item
	owner string
}

// Checkout places the order
func (c *Cart) Checkout(ctx context.Context) (string, error) {
	return "", nil
}

// New creates an empty cart
func New(owner string) *Cart {
	return &Cart{owner: owner}
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	result, err := New().ParseFile(path)
	require.NoError(t, err)
	assert.False(t, result.HasErrors())
	assert.Equal(t, "cart", result.PackageName)

	paths := make([]string, 0, len(result.Imports))
	for _, imp := range result.Imports {
		paths = append(paths, imp.Path)
	}
	assert.ElementsMatch(t, []string{"context", "errors"}, paths)

	cart := findSymbol(t, result, "Cart")
	assert.Equal(t, types.KindStruct, cart.Kind)
	assert.Equal(t, "Cart holds line items", cart.DocComment)
	assert.Equal(t, "type Cart struct { ... } // 2 fields", cart.Signature)

	checkout := findSymbol(t, result, "Cart.Checkout")
	assert.Equal(t, types.KindMethod, checkout.Kind)
	assert.Equal(t, "func (*Cart) Checkout(ctx context.Context) (string, error)", checkout.Signature)
	assert.Equal(t, 18, checkout.Start.Line)

	ctor := findSymbol(t, result, "New")
	assert.Equal(t, types.KindFunction, ctor.Kind)
	assert.Equal(t, "func New(owner string) *Cart", ctor.Signature)

	errEmpty := findSymbol(t, result, "ErrEmpty")
	assert.Equal(t, types.KindVar, errEmpty.Kind)
	assert.Equal(t, "var ErrEmpty = ...", errEmpty.Signature)

	owner := findSymbol(t, result, "Cart.owner")
	assert.Equal(t, types.KindField, owner.Kind)
	assert.Equal(t, types.ScopeUnexported, owner.Scope)

	for _, sym := range result.Symbols {
		assert.NoError(t, sym.Validate(), sym.QualifiedName())
	}
}

func TestParseFile_NonExistentFile(t *testing.T) {
	_, err := New().ParseFile(filepath.Join(t.TempDir(), "missing.go"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestParseSource_ImportAliases(t *testing.T) {
	src := `package main

import (
	. "fmt"
	str "strings"
	_ "modernc.org/sqlite"
	"net/http"
)
`
	result := New().ParseSource("main.go", []byte(src))
	require.False(t, result.HasErrors())

	aliases := make(map[string]string)
	for _, imp := range result.Imports {
		aliases[imp.Path] = imp.Alias
	}
	assert.Equal(t, map[string]string{
		"fmt":                ".",
		"strings":            "str",
		"modernc.org/sqlite": "_",
		"net/http":           "",
	}, aliases)
}

func TestParseSource_SyntaxError(t *testing.T) {
	src := `package broken

func Good() {}

func bad( {
}
`
	result := New().ParseSource("broken.go", []byte(src))

	require.True(t, result.HasErrors())
	assert.Contains(t, result.Errors[0].Message, "syntax error")
	assert.Equal(t, "broken.go", result.Errors[0].File)
	assert.GreaterOrEqual(t, result.Errors[0].Line, 5)
	assert.Equal(t, "broken", result.PackageName)
}

func TestParseSource_EmptyFile(t *testing.T) {
	result := New().ParseSource("empty.go", nil)
	assert.True(t, result.HasErrors())
	assert.Empty(t, result.Symbols)
}

func TestParseSource_TopLevelOnly(t *testing.T) {
	src := `package svc

func Handler() {
	type local struct{ x int }
	const inner = 1
	var tmp = local{}
	_ = tmp
}
`
	result := New().ParseSource("svc.go", []byte(src))
	require.False(t, result.HasErrors())
	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "Handler", result.Symbols[0].Name)
}

func TestParseSource_Kinds(t *testing.T) {
	src := `package shapes

// Shape is anything with an area
type Shape interface {
	Area() float64
	Perimeter() float64
}

type Meters float64

type Alias = Meters

const (
	// Pi approximates pi
	Pi    = 3.14159
	Sides int = 4
)

var _ Shape = (*Square)(nil)

var registry map[string]Shape

type Square struct {
	Meters
	side float64
}

type List[T any] struct {
	items []T
}

func (l *List[T]) Push(v T) {}
`
	result := New().ParseSource("shapes.go", []byte(src))
	require.False(t, result.HasErrors())

	tests := []struct {
		name      string
		kind      types.SymbolKind
		signature string
	}{
		{"Shape", types.KindInterface, "type Shape interface { ... } // 2 methods"},
		{"Meters", types.KindType, "type Meters float64"},
		{"Alias", types.KindType, "type Alias = Meters"},
		{"Pi", types.KindConst, "const Pi = ..."},
		{"Sides", types.KindConst, "const Sides int"},
		{"registry", types.KindVar, "var registry map[string]Shape"},
		{"Square", types.KindStruct, "type Square struct { ... } // 2 fields"},
		{"Square.Meters", types.KindField, "Meters Meters"},
		{"List.Push", types.KindMethod, "func (*List[T]) Push(v T)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym := findSymbol(t, result, tt.name)
			assert.Equal(t, tt.kind, sym.Kind)
			assert.Equal(t, tt.signature, sym.Signature)
		})
	}

	assert.Equal(t, "Pi approximates pi", findSymbol(t, result, "Pi").DocComment)

	for _, sym := range result.Symbols {
		assert.NotEqual(t, "_", sym.Name, "blank identifiers are not symbols")
	}
}

func TestIsTestFile(t *testing.T) {
	assert.True(t, IsTestFile("cart_test.go"))
	assert.False(t, IsTestFile("cart.go"))
	assert.False(t, IsTestFile("testing.go"))
}
