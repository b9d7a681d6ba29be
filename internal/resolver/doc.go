// Package resolver implements pkgtree.Resolver over an indexed Go module.
//
// The namespace of an identifier is the import path of the package that
// declares it, split on "/". Resolve answers only for import paths the
// indexer recorded, so a registered namespace with no package behind it
// never produces a handle.
package resolver
