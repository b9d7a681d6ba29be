// Package storage provides SQLite-based persistence for indexed Go packages
// and the namespace sets registered against them.
//
// # Database Schema
//
// Tables:
//   - projects: one row per indexed module root (module path, Go version)
//   - packages: one row per package directory, keyed by import path
//   - files: file paths, owning package and SHA-256 content hashes
//   - symbols: top-level declarations, mirrored into the symbols_fts FTS5 index
//   - imports: import statements per file
//   - namespace_sets, namespace_set_entries: named registered namespace sets
//   - schema_version: applied migrations
//
// Migrations are ordered by semantic version and applied automatically by
// NewSQLiteStorage. RollbackMigration undoes the most recent one.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("/home/me/.pkgtree/index.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	project, err := store.GetProject(ctx, "/src/shop")
//	pkg, err := store.GetPackage(ctx, project.ID, "github.com/acme/shop/cart")
//
// Lookups of missing rows return ErrNotFound.
//
// # Transactions
//
// BeginTx returns a Tx exposing the full Storage interface on the
// transaction's connection:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = tx.Rollback() }()
//
//	if err := tx.UpsertPackage(ctx, pkg); err != nil {
//	    return err
//	}
//	file.PackageID = pkg.ID
//	if err := tx.UpsertFile(ctx, file); err != nil {
//	    return err
//	}
//	return tx.Commit()
//
// The pool holds a single connection, so code inside a transaction must not
// call the non-transactional Storage at the same time.
//
// # Namespace sets
//
// SaveNamespaceSet replaces the entries of a set atomically; saving under an
// existing name overwrites it:
//
//	err := store.SaveNamespaceSet(ctx, &storage.NamespaceSet{
//	    ProjectID:  project.ID,
//	    Name:       "owners",
//	    Separator:  "/",
//	    Namespaces: []string{"github.com/acme/shop", "github.com/acme/shop/internal"},
//	})
//
// # Build modes
//
// The default build uses the pure Go modernc.org/sqlite driver. Building
// with the sqlite_cgo tag switches to the CGO github.com/mattn/go-sqlite3
// driver (add the fts5 tag so FTS5 is compiled in):
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo,fts5" ./...
package storage
