// Package parser extracts the package clause, imports and top-level
// declarations of Go source files.
//
// The indexer uses it to learn which symbols each package directory
// defines, so identifiers such as "github.com/acme/shop/cart.Cart.Checkout"
// or a bare "Checkout" can later be traced back to their package.
//
//	p := parser.New()
//	result, err := p.ParseFile("/path/to/cart.go")
//	if err != nil {
//	    return err
//	}
//	for _, sym := range result.Symbols {
//	    fmt.Println(sym.Kind, sym.QualifiedName())
//	}
//
// Only declarations at file scope are reported: functions, methods, types,
// constants, variables and struct fields. Locals declared inside function
// bodies are skipped.
//
// Syntax errors do not fail ParseFile. They are recorded on the result and
// whatever the partial AST holds is still extracted, so one broken file does
// not stop a project from being indexed.
package parser
