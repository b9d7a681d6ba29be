//go:build sqlite_cgo && !purego

package storage

// sqlite_cgo builds link the C SQLite through github.com/mattn/go-sqlite3.
// Namespace sets and packages need nothing beyond core SQLite, but
// search_symbols needs FTS5, which mattn only compiles in with its fts5 tag:
//
//   CGO_ENABLED=1 go build -tags "sqlite_cgo,fts5" ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the database/sql driver registered by go-sqlite3
	DriverName = "sqlite3"

	// BuildMode is reported by the version string and the serve banner
	BuildMode = "cgo"
)
