package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
	// ErrEmptyQuery is returned when a search query has no searchable terms
	ErrEmptyQuery = errors.New("empty search query")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single writer; also keeps ":memory:" databases on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Project operations

const projectColumns = `
	id, root_path, module_name, go_version, total_files, total_packages,
	index_version, last_indexed_at, created_at, updated_at`

func scanProject(row rowScanner) (*Project, error) {
	var project Project
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&project.ID, &project.RootPath, &project.ModuleName, &project.GoVersion,
		&project.TotalFiles, &project.TotalPackages, &project.IndexVersion,
		&lastIndexedAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		project.LastIndexedAt = lastIndexedAt.Time
	}
	return &project, nil
}

func (s *SQLiteStorage) createProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		INSERT INTO projects (root_path, module_name, go_version, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		project.RootPath, project.ModuleName, project.GoVersion,
		project.IndexVersion, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project %s: %w", project.RootPath, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	project.ID = id
	project.CreatedAt = now
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateProject(ctx context.Context, project *Project) error {
	return s.createProjectWithQuerier(ctx, s.querier(), project)
}

func (s *SQLiteStorage) getProjectWithQuerier(ctx context.Context, q querier, rootPath string) (*Project, error) {
	query := `SELECT` + projectColumns + ` FROM projects WHERE root_path = ?`
	return scanProject(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return s.getProjectWithQuerier(ctx, s.querier(), rootPath)
}

func (s *SQLiteStorage) getProjectByIDWithQuerier(ctx context.Context, q querier, projectID int64) (*Project, error) {
	query := `SELECT` + projectColumns + ` FROM projects WHERE id = ?`
	return scanProject(q.QueryRowContext(ctx, query, projectID))
}

func (s *SQLiteStorage) GetProjectByID(ctx context.Context, projectID int64) (*Project, error) {
	return s.getProjectByIDWithQuerier(ctx, s.querier(), projectID)
}

func (s *SQLiteStorage) updateProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		UPDATE projects
		SET module_name = ?, go_version = ?, total_files = ?, total_packages = ?,
		    index_version = ?, last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		project.ModuleName, project.GoVersion, project.TotalFiles, project.TotalPackages,
		project.IndexVersion, nullTime(project.LastIndexedAt), now, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateProject(ctx context.Context, project *Project) error {
	return s.updateProjectWithQuerier(ctx, s.querier(), project)
}

// Package operations

const packageColumns = `
	id, project_id, import_path, name, dir, file_count, created_at, updated_at`

func scanPackage(row rowScanner) (*Package, error) {
	var pkg Package
	err := row.Scan(
		&pkg.ID, &pkg.ProjectID, &pkg.ImportPath, &pkg.Name, &pkg.Dir,
		&pkg.FileCount, &pkg.CreatedAt, &pkg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (s *SQLiteStorage) upsertPackageWithQuerier(ctx context.Context, q querier, pkg *Package) error {
	query := `
		INSERT INTO packages (project_id, import_path, name, dir, file_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, import_path) DO UPDATE SET
			name = excluded.name,
			dir = excluded.dir,
			file_count = excluded.file_count,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		pkg.ProjectID, pkg.ImportPath, pkg.Name, pkg.Dir, pkg.FileCount, now, now).Scan(&pkg.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert package %s: %w", pkg.ImportPath, err)
	}
	if pkg.CreatedAt.IsZero() {
		pkg.CreatedAt = now
	}
	pkg.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertPackage(ctx context.Context, pkg *Package) error {
	return s.upsertPackageWithQuerier(ctx, s.querier(), pkg)
}

func (s *SQLiteStorage) getPackageWithQuerier(ctx context.Context, q querier, projectID int64, importPath string) (*Package, error) {
	query := `SELECT` + packageColumns + ` FROM packages WHERE project_id = ? AND import_path = ?`
	return scanPackage(q.QueryRowContext(ctx, query, projectID, importPath))
}

func (s *SQLiteStorage) GetPackage(ctx context.Context, projectID int64, importPath string) (*Package, error) {
	return s.getPackageWithQuerier(ctx, s.querier(), projectID, importPath)
}

func (s *SQLiteStorage) listPackagesWithQuerier(ctx context.Context, q querier, projectID int64) ([]*Package, error) {
	query := `SELECT` + packageColumns + ` FROM packages WHERE project_id = ? ORDER BY import_path`
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	packages := make([]*Package, 0)
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	return packages, rows.Err()
}

func (s *SQLiteStorage) ListPackages(ctx context.Context, projectID int64) ([]*Package, error) {
	return s.listPackagesWithQuerier(ctx, s.querier(), projectID)
}

func (s *SQLiteStorage) deletePackageWithQuerier(ctx context.Context, q querier, packageID int64) error {
	_, err := q.ExecContext(ctx, "DELETE FROM packages WHERE id = ?", packageID)
	return err
}

func (s *SQLiteStorage) DeletePackage(ctx context.Context, packageID int64) error {
	return s.deletePackageWithQuerier(ctx, s.querier(), packageID)
}

// File operations

const fileColumns = `
	id, project_id, package_id, file_path, package_name, content_hash, mod_time,
	size_bytes, parse_error, last_indexed_at, created_at, updated_at`

func scanFile(row rowScanner) (*File, error) {
	var file File
	var hash []byte
	var modTime, lastIndexedAt sql.NullTime
	var parseError sql.NullString
	err := row.Scan(
		&file.ID, &file.ProjectID, &file.PackageID, &file.FilePath, &file.PackageName,
		&hash, &modTime, &file.SizeBytes, &parseError, &lastIndexedAt,
		&file.CreatedAt, &file.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(file.ContentHash[:], hash)
	if modTime.Valid {
		file.ModTime = modTime.Time
	}
	if lastIndexedAt.Valid {
		file.LastIndexedAt = lastIndexedAt.Time
	}
	if parseError.Valid {
		msg := parseError.String
		file.ParseError = &msg
	}
	return &file, nil
}

func (s *SQLiteStorage) upsertFileWithQuerier(ctx context.Context, q querier, file *File) error {
	query := `
		INSERT INTO files (project_id, package_id, file_path, package_name, content_hash, mod_time, size_bytes, parse_error, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, file_path) DO UPDATE SET
			package_id = excluded.package_id,
			package_name = excluded.package_name,
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			parse_error = excluded.parse_error,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.ProjectID, file.PackageID, file.FilePath, file.PackageName, file.ContentHash[:],
		nullTime(file.ModTime), file.SizeBytes, file.ParseError, now, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	file.LastIndexedAt = now
	file.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	return s.upsertFileWithQuerier(ctx, s.querier(), file)
}

func (s *SQLiteStorage) getFileWithQuerier(ctx context.Context, q querier, projectID int64, filePath string) (*File, error) {
	query := `SELECT` + fileColumns + ` FROM files WHERE project_id = ? AND file_path = ?`
	return scanFile(q.QueryRowContext(ctx, query, projectID, filePath))
}

func (s *SQLiteStorage) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return s.getFileWithQuerier(ctx, s.querier(), projectID, filePath)
}

func (s *SQLiteStorage) deleteFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, "DELETE FROM files WHERE id = ?", fileID)
	return err
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, fileID int64) error {
	return s.deleteFileWithQuerier(ctx, s.querier(), fileID)
}

func (s *SQLiteStorage) listFilesWithQuerier(ctx context.Context, q querier, projectID int64) ([]*File, error) {
	query := `SELECT` + fileColumns + ` FROM files WHERE project_id = ? ORDER BY file_path`
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return s.listFilesWithQuerier(ctx, s.querier(), projectID)
}

// Symbol operations

const symbolColumns = `
	s.id, s.file_id, s.name, s.kind, s.package_name, s.signature, s.doc_comment,
	s.scope, s.receiver, s.start_line, s.start_col, s.end_line, s.end_col, s.created_at`

func symbolDest(symbol *Symbol) []interface{} {
	return []interface{}{
		&symbol.ID, &symbol.FileID, &symbol.Name, &symbol.Kind, &symbol.PackageName,
		&symbol.Signature, &symbol.DocComment, &symbol.Scope, &symbol.Receiver,
		&symbol.StartLine, &symbol.StartCol, &symbol.EndLine, &symbol.EndCol, &symbol.CreatedAt,
	}
}

func (s *SQLiteStorage) upsertSymbolWithQuerier(ctx context.Context, q querier, symbol *Symbol) error {
	query := `
		INSERT INTO symbols (
			file_id, name, kind, package_name, signature, doc_comment, scope, receiver,
			start_line, start_col, end_line, end_col, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id, receiver, name, start_line, start_col)
		DO UPDATE SET
			kind = excluded.kind,
			package_name = excluded.package_name,
			signature = excluded.signature,
			doc_comment = excluded.doc_comment,
			scope = excluded.scope,
			end_line = excluded.end_line,
			end_col = excluded.end_col
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		symbol.FileID, symbol.Name, symbol.Kind, symbol.PackageName,
		symbol.Signature, symbol.DocComment, symbol.Scope, symbol.Receiver,
		symbol.StartLine, symbol.StartCol, symbol.EndLine, symbol.EndCol, now,
	).Scan(&symbol.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert symbol %s: %w", symbol.Name, err)
	}
	symbol.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertSymbol(ctx context.Context, symbol *Symbol) error {
	return s.upsertSymbolWithQuerier(ctx, s.querier(), symbol)
}

func (s *SQLiteStorage) listSymbolsByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Symbol, error) {
	query := `SELECT` + symbolColumns + ` FROM symbols s WHERE s.file_id = ? ORDER BY s.start_line, s.start_col`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	symbols := make([]*Symbol, 0)
	for rows.Next() {
		var symbol Symbol
		if err := rows.Scan(symbolDest(&symbol)...); err != nil {
			return nil, err
		}
		symbols = append(symbols, &symbol)
	}
	return symbols, rows.Err()
}

func (s *SQLiteStorage) ListSymbolsByFile(ctx context.Context, fileID int64) ([]*Symbol, error) {
	return s.listSymbolsByFileWithQuerier(ctx, s.querier(), fileID)
}

func (s *SQLiteStorage) deleteSymbolsByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, "DELETE FROM symbols WHERE file_id = ?", fileID)
	return err
}

func (s *SQLiteStorage) DeleteSymbolsByFile(ctx context.Context, fileID int64) error {
	return s.deleteSymbolsByFileWithQuerier(ctx, s.querier(), fileID)
}

func scanSymbolMatches(rows *sql.Rows) ([]*SymbolMatch, error) {
	matches := make([]*SymbolMatch, 0)
	for rows.Next() {
		var m SymbolMatch
		dest := append(symbolDest(&m.Symbol), &m.ImportPath, &m.FilePath, &m.Rank)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

func (s *SQLiteStorage) searchSymbolsWithQuerier(ctx context.Context, q querier, projectID int64, query string, limit int) ([]*SymbolMatch, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 20
	}

	// rank is the FTS5 BM25 column; more negative is a better match
	sqlQuery := `
		SELECT` + symbolColumns + `, p.import_path, f.file_path, symbols_fts.rank
		FROM symbols_fts
		JOIN symbols s ON s.id = symbols_fts.rowid
		JOIN files f ON f.id = s.file_id
		JOIN packages p ON p.id = f.package_id
		WHERE symbols_fts MATCH ? AND f.project_id = ?
		ORDER BY symbols_fts.rank
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, sqlQuery, match, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("symbol search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanSymbolMatches(rows)
}

func (s *SQLiteStorage) SearchSymbols(ctx context.Context, projectID int64, query string, limit int) ([]*SymbolMatch, error) {
	return s.searchSymbolsWithQuerier(ctx, s.querier(), projectID, query, limit)
}

func (s *SQLiteStorage) findSymbolsByNameWithQuerier(ctx context.Context, q querier, projectID int64, name, receiver string) ([]*SymbolMatch, error) {
	sqlQuery := `
		SELECT` + symbolColumns + `, p.import_path, f.file_path, 0.0
		FROM symbols s
		JOIN files f ON f.id = s.file_id
		JOIN packages p ON p.id = f.package_id
		WHERE s.name = ? AND s.receiver = ? AND f.project_id = ?
		ORDER BY p.import_path, f.file_path, s.start_line
	`
	rows, err := q.QueryContext(ctx, sqlQuery, name, receiver, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanSymbolMatches(rows)
}

func (s *SQLiteStorage) FindSymbolsByName(ctx context.Context, projectID int64, name, receiver string) ([]*SymbolMatch, error) {
	return s.findSymbolsByNameWithQuerier(ctx, s.querier(), projectID, name, receiver)
}

// ftsQuery turns free text into an FTS5 expression of quoted prefix terms,
// so user input can never be parsed as FTS5 syntax
func ftsQuery(input string) string {
	terms := strings.FieldsFunc(input, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for i, term := range terms {
		terms[i] = `"` + term + `"*`
	}
	return strings.Join(terms, " ")
}

// Import operations

func (s *SQLiteStorage) upsertImportWithQuerier(ctx context.Context, q querier, imp *Import) error {
	query := `
		INSERT INTO imports (file_id, import_path, alias, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(file_id, import_path, alias) DO UPDATE SET created_at = created_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query, imp.FileID, imp.ImportPath, imp.Alias, now).Scan(&imp.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert import: %w", err)
	}
	imp.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertImport(ctx context.Context, imp *Import) error {
	return s.upsertImportWithQuerier(ctx, s.querier(), imp)
}

func (s *SQLiteStorage) listImportsByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Import, error) {
	query := `
		SELECT id, file_id, import_path, alias, created_at
		FROM imports
		WHERE file_id = ?
		ORDER BY import_path
	`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	imports := make([]*Import, 0)
	for rows.Next() {
		var imp Import
		if err := rows.Scan(&imp.ID, &imp.FileID, &imp.ImportPath, &imp.Alias, &imp.CreatedAt); err != nil {
			return nil, err
		}
		imports = append(imports, &imp)
	}
	return imports, rows.Err()
}

func (s *SQLiteStorage) ListImportsByFile(ctx context.Context, fileID int64) ([]*Import, error) {
	return s.listImportsByFileWithQuerier(ctx, s.querier(), fileID)
}

func (s *SQLiteStorage) deleteImportsByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, "DELETE FROM imports WHERE file_id = ?", fileID)
	return err
}

func (s *SQLiteStorage) DeleteImportsByFile(ctx context.Context, fileID int64) error {
	return s.deleteImportsByFileWithQuerier(ctx, s.querier(), fileID)
}

// Namespace set operations

// saveNamespaceSetWithQuerier replaces the set's entries. Callers outside a
// transaction go through SaveNamespaceSet, which wraps this in one.
func (s *SQLiteStorage) saveNamespaceSetWithQuerier(ctx context.Context, q querier, set *NamespaceSet) error {
	query := `
		INSERT INTO namespace_sets (project_id, name, separator, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, name) DO UPDATE SET
			separator = excluded.separator,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	if err := q.QueryRowContext(ctx, query, set.ProjectID, set.Name, set.Separator, now, now).Scan(&set.ID); err != nil {
		return fmt.Errorf("failed to save namespace set %s: %w", set.Name, err)
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM namespace_set_entries WHERE set_id = ?", set.ID); err != nil {
		return fmt.Errorf("failed to clear namespace set %s: %w", set.Name, err)
	}
	for _, ns := range set.Namespaces {
		_, err := q.ExecContext(ctx,
			"INSERT OR IGNORE INTO namespace_set_entries (set_id, namespace) VALUES (?, ?)",
			set.ID, ns)
		if err != nil {
			return fmt.Errorf("failed to add %q to namespace set %s: %w", ns, set.Name, err)
		}
	}

	if set.CreatedAt.IsZero() {
		set.CreatedAt = now
	}
	set.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) SaveNamespaceSet(ctx context.Context, set *NamespaceSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := s.saveNamespaceSetWithQuerier(ctx, tx, set); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStorage) loadSetEntries(ctx context.Context, q querier, set *NamespaceSet) error {
	rows, err := q.QueryContext(ctx,
		"SELECT namespace FROM namespace_set_entries WHERE set_id = ? ORDER BY namespace", set.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	set.Namespaces = make([]string, 0)
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return err
		}
		set.Namespaces = append(set.Namespaces, ns)
	}
	return rows.Err()
}

func (s *SQLiteStorage) getNamespaceSetWithQuerier(ctx context.Context, q querier, projectID int64, name string) (*NamespaceSet, error) {
	query := `
		SELECT id, project_id, name, separator, created_at, updated_at
		FROM namespace_sets
		WHERE project_id = ? AND name = ?
	`
	var set NamespaceSet
	err := q.QueryRowContext(ctx, query, projectID, name).Scan(
		&set.ID, &set.ProjectID, &set.Name, &set.Separator, &set.CreatedAt, &set.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadSetEntries(ctx, q, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *SQLiteStorage) GetNamespaceSet(ctx context.Context, projectID int64, name string) (*NamespaceSet, error) {
	return s.getNamespaceSetWithQuerier(ctx, s.querier(), projectID, name)
}

// listSetHeaders reads set rows without entries. It must finish before
// entries are loaded: the pool holds a single connection.
func (s *SQLiteStorage) listSetHeaders(ctx context.Context, q querier, projectID int64) ([]*NamespaceSet, error) {
	query := `
		SELECT id, project_id, name, separator, created_at, updated_at
		FROM namespace_sets
		WHERE project_id = ?
		ORDER BY name
	`
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sets := make([]*NamespaceSet, 0)
	for rows.Next() {
		var set NamespaceSet
		if err := rows.Scan(&set.ID, &set.ProjectID, &set.Name, &set.Separator, &set.CreatedAt, &set.UpdatedAt); err != nil {
			return nil, err
		}
		sets = append(sets, &set)
	}
	return sets, rows.Err()
}

func (s *SQLiteStorage) listNamespaceSetsWithQuerier(ctx context.Context, q querier, projectID int64) ([]*NamespaceSet, error) {
	sets, err := s.listSetHeaders(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	for _, set := range sets {
		if err := s.loadSetEntries(ctx, q, set); err != nil {
			return nil, err
		}
	}
	return sets, nil
}

func (s *SQLiteStorage) ListNamespaceSets(ctx context.Context, projectID int64) ([]*NamespaceSet, error) {
	return s.listNamespaceSetsWithQuerier(ctx, s.querier(), projectID)
}

func (s *SQLiteStorage) deleteNamespaceSetWithQuerier(ctx context.Context, q querier, projectID int64, name string) error {
	result, err := q.ExecContext(ctx, "DELETE FROM namespace_sets WHERE project_id = ? AND name = ?", projectID, name)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteNamespaceSet(ctx context.Context, projectID int64, name string) error {
	return s.deleteNamespaceSetWithQuerier(ctx, s.querier(), projectID, name)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, projectID int64) (*ProjectStatus, error) {
	project, err := s.getProjectByIDWithQuerier(ctx, q, projectID)
	if err != nil {
		return nil, err
	}

	status := &ProjectStatus{
		Project:       project,
		LastIndexedAt: project.LastIndexedAt,
	}

	counts := []struct {
		dest  *int
		query string
	}{
		{&status.PackagesCount, "SELECT COUNT(*) FROM packages WHERE project_id = ?"},
		{&status.FilesCount, "SELECT COUNT(*) FROM files WHERE project_id = ?"},
		{&status.ParseErrorsCount, "SELECT COUNT(*) FROM files WHERE project_id = ? AND parse_error IS NOT NULL"},
		{&status.SymbolsCount, `
			SELECT COUNT(*) FROM symbols s
			JOIN files f ON s.file_id = f.id
			WHERE f.project_id = ?`},
		{&status.ImportsCount, `
			SELECT COUNT(*) FROM imports i
			JOIN files f ON i.file_id = f.id
			WHERE f.project_id = ?`},
		{&status.NamespaceSets, "SELECT COUNT(*) FROM namespace_sets WHERE project_id = ?"},
	}
	for _, c := range counts {
		if err := q.QueryRowContext(ctx, c.query, projectID).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	version, err := currentVersion(ctx, q)
	if err != nil {
		return nil, err
	}
	status.Health = HealthStatus{
		DatabaseAccessible: true,
		FTSIndexesBuilt:    true,
		SchemaVersion:      version.String(),
	}

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), projectID)
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Transaction implementations run every operation on the transaction's
// connection

func (t *sqliteTx) CreateProject(ctx context.Context, project *Project) error {
	return t.storage.createProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return t.storage.getProjectWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) GetProjectByID(ctx context.Context, projectID int64) (*Project, error) {
	return t.storage.getProjectByIDWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) UpdateProject(ctx context.Context, project *Project) error {
	return t.storage.updateProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) UpsertPackage(ctx context.Context, pkg *Package) error {
	return t.storage.upsertPackageWithQuerier(ctx, t.querier(), pkg)
}

func (t *sqliteTx) GetPackage(ctx context.Context, projectID int64, importPath string) (*Package, error) {
	return t.storage.getPackageWithQuerier(ctx, t.querier(), projectID, importPath)
}

func (t *sqliteTx) ListPackages(ctx context.Context, projectID int64) ([]*Package, error) {
	return t.storage.listPackagesWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) DeletePackage(ctx context.Context, packageID int64) error {
	return t.storage.deletePackageWithQuerier(ctx, t.querier(), packageID)
}

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return t.storage.upsertFileWithQuerier(ctx, t.querier(), file)
}

func (t *sqliteTx) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return t.storage.getFileWithQuerier(ctx, t.querier(), projectID, filePath)
}

func (t *sqliteTx) DeleteFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return t.storage.listFilesWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) UpsertSymbol(ctx context.Context, symbol *Symbol) error {
	return t.storage.upsertSymbolWithQuerier(ctx, t.querier(), symbol)
}

func (t *sqliteTx) ListSymbolsByFile(ctx context.Context, fileID int64) ([]*Symbol, error) {
	return t.storage.listSymbolsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteSymbolsByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteSymbolsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) SearchSymbols(ctx context.Context, projectID int64, query string, limit int) ([]*SymbolMatch, error) {
	return t.storage.searchSymbolsWithQuerier(ctx, t.querier(), projectID, query, limit)
}

func (t *sqliteTx) FindSymbolsByName(ctx context.Context, projectID int64, name, receiver string) ([]*SymbolMatch, error) {
	return t.storage.findSymbolsByNameWithQuerier(ctx, t.querier(), projectID, name, receiver)
}

func (t *sqliteTx) UpsertImport(ctx context.Context, imp *Import) error {
	return t.storage.upsertImportWithQuerier(ctx, t.querier(), imp)
}

func (t *sqliteTx) ListImportsByFile(ctx context.Context, fileID int64) ([]*Import, error) {
	return t.storage.listImportsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteImportsByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteImportsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) SaveNamespaceSet(ctx context.Context, set *NamespaceSet) error {
	return t.storage.saveNamespaceSetWithQuerier(ctx, t.querier(), set)
}

func (t *sqliteTx) GetNamespaceSet(ctx context.Context, projectID int64, name string) (*NamespaceSet, error) {
	return t.storage.getNamespaceSetWithQuerier(ctx, t.querier(), projectID, name)
}

func (t *sqliteTx) ListNamespaceSets(ctx context.Context, projectID int64) ([]*NamespaceSet, error) {
	return t.storage.listNamespaceSetsWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) DeleteNamespaceSet(ctx context.Context, projectID int64, name string) error {
	return t.storage.deleteNamespaceSetWithQuerier(ctx, t.querier(), projectID, name)
}

func (t *sqliteTx) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}
