// Package pkgtree finds the most specific registered namespace that owns an
// identifier.
//
// A Trie is built once from a set of namespaces (segment lists) and then
// answers longest-prefix queries by walking one segment at a time, keeping
// the deepest registered node it passes. Intermediate nodes created only to
// reach a deeper namespace are not matches:
//
//	trie := pkgtree.Build([]types.Namespace{{"a", "b", "c"}})
//	trie.Longest(types.Namespace{"a", "b"})           // no match
//	trie.Longest(types.Namespace{"a", "b", "c", "d"}) // a.b.c
//
// # Trees and resolvers
//
// Tree wraps a Trie with a Resolver, the collaborator that knows how to
// find the namespace of an identifier and how to turn a matched namespace
// back into a Handle:
//
//	resolver, _ := pkgtree.NewQualifiedNameResolver(".")
//	tree, err := pkgtree.New(resolver, []string{
//	    "com.workday",
//	    "com.workday.model",
//	    "com.workday.model.xml.base",
//	})
//
//	h, _ := tree.Match(ctx, "com.workday.util.GridHelper")
//	h.Name // "com.workday"
//
//	h, _ = tree.Match(ctx, "org.chart.DataSet")
//	h == nil // no match is not an error
//
// The separator is the only option and defaults to ".":
//
//	tree, err := pkgtree.New(resolver, paths, pkgtree.WithSeparator("/"))
//
// CachingResolver puts an LRU cache in front of a slow Resolve, typically
// the storage-backed project resolver.
//
// # Concurrency
//
// Trees never change after construction. Any number of goroutines may call
// Match concurrently as long as the Resolver allows it. A new registered set
// means building a new Tree.
package pkgtree
