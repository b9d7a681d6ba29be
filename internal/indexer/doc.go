// Package indexer records the packages of a Go module in storage.
//
// A run reads go.mod for the module path, walks the module for directories
// holding Go files and derives each directory's import path from its
// location. Packages are indexed concurrently, one transaction per package:
//
//	idx := indexer.New(store, logger)
//	stats, err := idx.IndexProject(ctx, "/src/shop", indexer.DefaultConfig())
//
// # Incremental Indexing
//
// Files are compared by SHA-256 content hash against the previous run. A
// package whose files are all unchanged is skipped without opening a
// transaction. Packages whose directory no longer holds Go files are removed
// together with their files, symbols and imports.
//
// # Skipped Directories
//
// Hidden and underscore-prefixed directories, testdata, nested modules and
// vendor (unless Config.IncludeVendor is set) are never walked.
//
// # Errors
//
// A file that cannot be read is counted in Statistics.FilesFailed and left
// as it was in the index. Syntax errors are not failures: the partial
// result is stored and the file's ParseError is set. Storage failures abort
// the run.
package indexer
