package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNamespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		sep   string
		want  Namespace
	}{
		{"dotted", "com.acme.model", ".", Namespace{"com", "acme", "model"}},
		{"single segment", "org", ".", Namespace{"org"}},
		{"empty string", "", ".", Namespace{}},
		{"import path", "github.com/acme/shop", "/", Namespace{"github.com", "acme", "shop"}},
		{"multi-char separator", "a::b::c", "::", Namespace{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNamespace(tt.input, tt.sep)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNamespace_Malformed(t *testing.T) {
	inputs := []string{"com..acme", ".com", "com.", "."}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseNamespace(input, ".")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedNamespace)
			assert.Contains(t, err.Error(), input)
		})
	}
}

func TestParseNamespace_EmptySeparator(t *testing.T) {
	_, err := ParseNamespace("com.acme", "")
	assert.ErrorIs(t, err, ErrEmptySeparator)
}

func TestNamespace_Validate(t *testing.T) {
	assert.NoError(t, Namespace{"com", "acme"}.Validate("."))
	assert.NoError(t, Namespace{}.Validate("."))

	err := Namespace{"com", ""}.Validate(".")
	assert.ErrorIs(t, err, ErrMalformedNamespace)

	err = Namespace{"com", "acme.model"}.Validate(".")
	assert.ErrorIs(t, err, ErrMalformedNamespace)

	// A dot is an ordinary character in an import path segment
	assert.NoError(t, Namespace{"github.com", "acme"}.Validate("/"))
}

func TestNamespace_Join(t *testing.T) {
	ns := Namespace{"com", "acme", "model"}
	assert.Equal(t, "com.acme.model", ns.Join("."))
	assert.Equal(t, "com/acme/model", ns.Join("/"))
	assert.Equal(t, "com.acme.model", ns.String())
	assert.Equal(t, "", Namespace{}.String())
}

func TestNamespace_IsAncestorOrSelf(t *testing.T) {
	a := MustParseNamespace("com.acme", ".")
	ab := MustParseNamespace("com.acme.model", ".")
	other := MustParseNamespace("com.acmex", ".")

	assert.True(t, a.IsAncestorOrSelf(ab))
	assert.True(t, a.IsAncestorOrSelf(a))
	assert.True(t, Namespace{}.IsAncestorOrSelf(a))
	assert.False(t, ab.IsAncestorOrSelf(a))
	assert.False(t, a.IsAncestorOrSelf(other), "prefix must hold on segment boundaries")
}

func TestNamespace_EqualAndParent(t *testing.T) {
	ns := MustParseNamespace("com.acme.model", ".")

	assert.True(t, ns.Equal(Namespace{"com", "acme", "model"}))
	assert.False(t, ns.Equal(Namespace{"com", "acme"}))
	assert.Equal(t, Namespace{"com", "acme"}, ns.Parent())
	assert.Equal(t, Namespace{}, Namespace{}.Parent())
	assert.True(t, Namespace{}.IsEmpty())
}

func TestNamespace_CloneIsIndependent(t *testing.T) {
	ns := Namespace{"com", "acme"}
	c := ns.Clone()
	c[0] = "org"
	assert.Equal(t, "com", ns[0])
	assert.Nil(t, Namespace(nil).Clone())
}

func TestMustParseNamespace_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseNamespace("a..b", ".") })
}

func TestHandle_Clone(t *testing.T) {
	h := &Handle{Name: "com.acme", Namespace: Namespace{"com", "acme"}, ID: 3}
	c := h.Clone()
	c.Namespace[0] = "org"
	c.Name = "changed"

	assert.Equal(t, "com", h.Namespace[0])
	assert.Equal(t, "com.acme", h.Name)
	assert.Equal(t, int64(3), c.ID)

	var nilHandle *Handle
	assert.Nil(t, nilHandle.Clone())
}

func TestSymbol_Validate(t *testing.T) {
	valid := Symbol{Name: "Cart", Kind: KindStruct, Package: "cart", Scope: ScopeExported}
	assert.NoError(t, valid.Validate())

	noName := valid
	noName.Name = ""
	assert.ErrorIs(t, noName.Validate(), ErrSymbolNameRequired)

	badKind := valid
	badKind.Kind = "widget"
	assert.ErrorIs(t, badKind.Validate(), ErrInvalidSymbolKind)

	badScope := valid
	badScope.Scope = "public"
	assert.ErrorIs(t, badScope.Validate(), ErrInvalidSymbolScope)

	noPkg := valid
	noPkg.Package = ""
	assert.ErrorIs(t, noPkg.Validate(), ErrSymbolPackageRequired)
}

func TestSymbol_QualifiedName(t *testing.T) {
	fn := Symbol{Name: "NewCart"}
	method := Symbol{Name: "Checkout", Receiver: "Cart"}

	assert.Equal(t, "NewCart", fn.QualifiedName())
	assert.Equal(t, "Cart.Checkout", method.QualifiedName())
}
