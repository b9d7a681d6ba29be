//go:build purego || !sqlite_cgo

package storage

// The default build links modernc.org/sqlite, a C-free translation of
// SQLite with FTS5 compiled in, so pkgtree cross-compiles with
// CGO_ENABLED=0.

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the database/sql driver registered by modernc.org/sqlite
	DriverName = "sqlite"

	// BuildMode is reported by the version string and the serve banner
	BuildMode = "purego"
)
