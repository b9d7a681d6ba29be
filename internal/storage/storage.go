package storage

import (
	"context"
	"time"

	"github.com/dshills/pkgtree-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying indexed packages
// and registered namespace sets
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	GetProjectByID(ctx context.Context, projectID int64) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error

	// Package operations
	UpsertPackage(ctx context.Context, pkg *Package) error
	GetPackage(ctx context.Context, projectID int64, importPath string) (*Package, error)
	ListPackages(ctx context.Context, projectID int64) ([]*Package, error)
	DeletePackage(ctx context.Context, packageID int64) error

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, projectID int64, filePath string) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, projectID int64) ([]*File, error)

	// Symbol operations
	UpsertSymbol(ctx context.Context, symbol *Symbol) error
	ListSymbolsByFile(ctx context.Context, fileID int64) ([]*Symbol, error)
	DeleteSymbolsByFile(ctx context.Context, fileID int64) error
	SearchSymbols(ctx context.Context, projectID int64, query string, limit int) ([]*SymbolMatch, error)
	FindSymbolsByName(ctx context.Context, projectID int64, name, receiver string) ([]*SymbolMatch, error)

	// Import operations
	UpsertImport(ctx context.Context, imp *Import) error
	ListImportsByFile(ctx context.Context, fileID int64) ([]*Import, error)
	DeleteImportsByFile(ctx context.Context, fileID int64) error

	// Namespace set operations
	SaveNamespaceSet(ctx context.Context, set *NamespaceSet) error
	GetNamespaceSet(ctx context.Context, projectID int64, name string) (*NamespaceSet, error)
	ListNamespaceSets(ctx context.Context, projectID int64) ([]*NamespaceSet, error)
	DeleteNamespaceSet(ctx context.Context, projectID int64, name string) error

	// Status operations
	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Project represents an indexed Go module
type Project struct {
	ID            int64
	RootPath      string
	ModuleName    string
	GoVersion     string
	TotalFiles    int
	TotalPackages int
	IndexVersion  string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Package is one directory of Go files, identified by its import path
type Package struct {
	ID         int64
	ProjectID  int64
	ImportPath string
	Name       string // Package clause name
	Dir        string // Relative to project root, slash separated
	FileCount  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// File represents a tracked Go source file
type File struct {
	ID            int64
	ProjectID     int64
	PackageID     int64
	FilePath      string // Relative to project root
	PackageName   string
	ContentHash   [32]byte
	ModTime       time.Time
	SizeBytes     int64
	ParseError    *string // Nullable
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Symbol represents a top-level declaration from AST parsing
type Symbol struct {
	ID          int64
	FileID      int64
	Name        string
	Kind        string
	PackageName string
	Signature   string
	DocComment  string
	Scope       string
	Receiver    string
	StartLine   int
	StartCol    int
	EndLine     int
	EndCol      int
	CreatedAt   time.Time
}

// SymbolMatch is a symbol joined with the package and file that declare it
type SymbolMatch struct {
	Symbol
	ImportPath string
	FilePath   string
	Rank       float64 // BM25 rank from full-text search; lower is better
}

// Import represents an import statement in a Go file
type Import struct {
	ID         int64
	FileID     int64
	ImportPath string
	Alias      string
	CreatedAt  time.Time
}

// NamespaceSet is a named, persisted set of registered namespaces
type NamespaceSet struct {
	ID         int64
	ProjectID  int64
	Name       string
	Separator  string
	Namespaces []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProjectStatus contains statistics about an indexed project
type ProjectStatus struct {
	Project          *Project
	PackagesCount    int
	FilesCount       int
	SymbolsCount     int
	ImportsCount     int
	NamespaceSets    int
	ParseErrorsCount int
	IndexSizeMB      float64
	LastIndexedAt    time.Time
	Health           HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexesBuilt    bool
	SchemaVersion      string
}

// ToTypesSymbol converts storage Symbol to types.Symbol
func (s *Symbol) ToTypesSymbol() types.Symbol {
	return types.Symbol{
		Name:       s.Name,
		Kind:       types.SymbolKind(s.Kind),
		Package:    s.PackageName,
		Signature:  s.Signature,
		DocComment: s.DocComment,
		Scope:      types.SymbolScope(s.Scope),
		Receiver:   s.Receiver,
		Start:      types.Position{Line: s.StartLine, Column: s.StartCol},
		End:        types.Position{Line: s.EndLine, Column: s.EndCol},
	}
}

// FromTypesSymbol converts types.Symbol to storage Symbol
func FromTypesSymbol(s types.Symbol, fileID int64) *Symbol {
	return &Symbol{
		FileID:      fileID,
		Name:        s.Name,
		Kind:        string(s.Kind),
		PackageName: s.Package,
		Signature:   s.Signature,
		DocComment:  s.DocComment,
		Scope:       string(s.Scope),
		Receiver:    s.Receiver,
		StartLine:   s.Start.Line,
		StartCol:    s.Start.Column,
		EndLine:     s.End.Line,
		EndCol:      s.End.Column,
	}
}

// Handle converts a package row into the handle returned by resolvers
func (p *Package) Handle() *types.Handle {
	ns, err := types.ParseNamespace(p.ImportPath, types.ImportPathSeparator)
	if err != nil {
		ns = nil
	}
	return &types.Handle{
		Name:        p.ImportPath,
		Namespace:   ns,
		ID:          p.ID,
		PackageName: p.Name,
		Dir:         p.Dir,
	}
}
