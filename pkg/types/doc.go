// Package types provides shared type definitions for pkgtree.
//
// # Namespaces
//
// A Namespace is an ordered list of segments. The same value can describe a
// dotted name such as "com.acme.model" or a Go import path such as
// "github.com/acme/shop/internal"; only the separator used to split and join
// it differs:
//
//	ns, err := types.ParseNamespace("com.acme.model", types.DefaultSeparator)
//	// ns == types.Namespace{"com", "acme", "model"}
//
//	pkg, err := types.ParseNamespace("github.com/acme/shop", types.ImportPathSeparator)
//	// pkg == types.Namespace{"github.com", "acme", "shop"}
//
// Empty segments are rejected with ErrMalformedNamespace:
//
//	_, err := types.ParseNamespace("com..acme", ".")
//	errors.Is(err, types.ErrMalformedNamespace) // true
//
// # Handles
//
// A Handle is what a resolver returns for a namespace it knows about: the
// canonical name plus, for indexed projects, the package row it came from.
//
// # Symbols
//
// Symbol and ParseResult carry the output of the Go source parser:
//
//	symbol := &types.Symbol{
//	    Name:      "Checkout",
//	    Kind:      types.KindMethod,
//	    Package:   "cart",
//	    Receiver:  "Cart",
//	    Signature: "func (c *Cart) Checkout(ctx context.Context) error",
//	}
//	symbol.QualifiedName() // "Cart.Checkout"
package types
