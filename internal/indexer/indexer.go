package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/pkgtree-mcp/internal/logging"
	"github.com/dshills/pkgtree-mcp/internal/parser"
	"github.com/dshills/pkgtree-mcp/internal/storage"
	"github.com/dshills/pkgtree-mcp/pkg/types"
)

var (
	// ErrNoModule is returned when the project root has no go.mod
	ErrNoModule = errors.New("no go.mod found at project root")
	// ErrNotDirectory is returned when the project root is not a directory
	ErrNotDirectory = errors.New("project root is not a directory")
)

// Indexer walks a Go module and records its packages, files, symbols and
// imports
type Indexer struct {
	storage storage.Storage
	logger  *log.Logger
}

// Config contains configuration for the indexer
type Config struct {
	Workers       int  // Number of concurrent package workers (default: runtime.NumCPU())
	IncludeTests  bool // Whether to index _test.go files
	IncludeVendor bool // Whether to index the vendor directory
}

// DefaultConfig returns the configuration used when none is given
func DefaultConfig() *Config {
	return &Config{
		Workers:      runtime.NumCPU(),
		IncludeTests: true,
	}
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	RunID            string
	ModulePath       string
	PackagesIndexed  int
	PackagesSkipped  int
	PackagesRemoved  int
	FilesIndexed     int
	FilesSkipped     int
	FilesFailed      int
	FilesRemoved     int
	SymbolsExtracted int
	ImportsExtracted int
	Duration         time.Duration
	ErrorMessages    []string
}

// packageDir is a directory holding at least one indexable Go file
type packageDir struct {
	Dir        string // Relative to the root, slash separated; "." for the root
	ImportPath string
	Files      []string // Absolute paths, sorted
}

// counters are shared by the package workers of one run
type counters struct {
	packagesIndexed atomic.Int32
	packagesSkipped atomic.Int32
	filesIndexed    atomic.Int32
	filesSkipped    atomic.Int32
	filesFailed     atomic.Int32
	filesRemoved    atomic.Int32
	symbols         atomic.Int32
	imports         atomic.Int32

	mu     sync.Mutex
	errors []string
}

func (c *counters) fail(file string, err error) {
	c.filesFailed.Add(1)
	c.mu.Lock()
	c.errors = append(c.errors, fmt.Sprintf("%s: %v", file, err))
	c.mu.Unlock()
}

// New creates a new Indexer instance. A nil logger discards output.
func New(store storage.Storage, logger *log.Logger) *Indexer {
	return &Indexer{
		storage: store,
		logger:  logging.OrDiscard(logger),
	}
}

// IndexProject indexes the Go module rooted at rootPath. Unchanged files are
// skipped, so repeated runs only pay for what changed.
func (idx *Indexer) IndexProject(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	if config == nil {
		config = DefaultConfig()
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	startTime := time.Now()
	stats := &Statistics{
		RunID:         uuid.NewString(),
		ErrorMessages: make([]string, 0),
	}
	logger := idx.logger.With("run", stats.RunID)

	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", rootPath, ErrNotDirectory)
	}

	mod, err := readModule(rootPath)
	if err != nil {
		return nil, err
	}
	stats.ModulePath = mod.Module

	project, err := idx.getOrCreateProject(ctx, rootPath, mod)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	dirs, err := discoverPackages(rootPath, mod.Module, config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover packages: %w", err)
	}
	logger.Info("indexing module", "module", mod.Module, "root", rootPath, "packages", len(dirs), "workers", workers)

	existingPkgs, existingFiles, err := idx.loadExisting(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing index: %w", err)
	}

	c := &counters{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, dir := range dirs {
		g.Go(func() error {
			prev := existingPkgs[dir.ImportPath]
			var prevFiles []*storage.File
			if prev != nil {
				prevFiles = existingFiles[prev.ID]
			}
			return idx.indexPackage(gctx, project, dir, prev, prevFiles, config, c)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to index packages: %w", err)
	}

	removed, err := idx.removeStalePackages(ctx, dirs, existingPkgs)
	if err != nil {
		return nil, fmt.Errorf("failed to remove stale packages: %w", err)
	}

	if err := idx.updateProjectStats(ctx, project, mod); err != nil {
		return nil, fmt.Errorf("failed to update project stats: %w", err)
	}

	stats.PackagesIndexed = int(c.packagesIndexed.Load())
	stats.PackagesSkipped = int(c.packagesSkipped.Load())
	stats.PackagesRemoved = removed
	stats.FilesIndexed = int(c.filesIndexed.Load())
	stats.FilesSkipped = int(c.filesSkipped.Load())
	stats.FilesFailed = int(c.filesFailed.Load())
	stats.FilesRemoved = int(c.filesRemoved.Load())
	stats.SymbolsExtracted = int(c.symbols.Load())
	stats.ImportsExtracted = int(c.imports.Load())
	stats.ErrorMessages = append(stats.ErrorMessages, c.errors...)
	sort.Strings(stats.ErrorMessages)
	stats.Duration = time.Since(startTime)

	logger.Info("indexing complete",
		"packages", stats.PackagesIndexed,
		"skipped", stats.PackagesSkipped,
		"removed", stats.PackagesRemoved,
		"files", stats.FilesIndexed,
		"failed", stats.FilesFailed,
		"duration", stats.Duration)

	return stats, nil
}

// getOrCreateProject retrieves an existing project or creates a new one
func (idx *Indexer) getOrCreateProject(ctx context.Context, rootPath string, mod *moduleInfo) (*storage.Project, error) {
	project, err := idx.storage.GetProject(ctx, rootPath)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	project = &storage.Project{
		RootPath:     rootPath,
		ModuleName:   mod.Module,
		GoVersion:    mod.GoVersion,
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if err := idx.storage.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// loadExisting reads the previous index once, before workers start, so no
// worker reads outside its own transaction
func (idx *Indexer) loadExisting(ctx context.Context, projectID int64) (map[string]*storage.Package, map[int64][]*storage.File, error) {
	pkgs, err := idx.storage.ListPackages(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	files, err := idx.storage.ListFiles(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}

	byPath := make(map[string]*storage.Package, len(pkgs))
	for _, p := range pkgs {
		byPath[p.ImportPath] = p
	}
	byPackage := make(map[int64][]*storage.File)
	for _, f := range files {
		byPackage[f.PackageID] = append(byPackage[f.PackageID], f)
	}
	return byPath, byPackage, nil
}

// parsedFile is a file whose content changed since the last run
type parsedFile struct {
	relPath string
	hash    [32]byte
	modTime time.Time
	size    int64
	result  *types.ParseResult
}

// indexPackage hashes and parses the package's files outside any
// transaction, then writes all changes for the package in one
func (idx *Indexer) indexPackage(ctx context.Context, project *storage.Project, dir packageDir,
	prev *storage.Package, prevFiles []*storage.File, config *Config, c *counters) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	known := make(map[string]*storage.File, len(prevFiles))
	for _, f := range prevFiles {
		known[f.FilePath] = f
	}

	p := parser.New()
	seen := make(map[string]bool, len(dir.Files))
	var changed []parsedFile
	var pkgName string

	for _, absPath := range dir.Files {
		relPath, err := filepath.Rel(project.RootPath, absPath)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		seen[relPath] = true

		hash, modTime, size, err := computeFileHash(absPath)
		if err != nil {
			c.fail(relPath, err)
			continue
		}
		if old, ok := known[relPath]; ok && old.ContentHash == hash {
			c.filesSkipped.Add(1)
			continue
		}

		result, err := p.ParseFile(absPath)
		if err != nil {
			c.fail(relPath, err)
			continue
		}
		if pkgName == "" && !parser.IsTestFile(absPath) {
			pkgName = result.PackageName
		}
		changed = append(changed, parsedFile{
			relPath: relPath,
			hash:    hash,
			modTime: modTime,
			size:    size,
			result:  result,
		})
	}

	var removed []*storage.File
	for _, f := range prevFiles {
		if !seen[f.FilePath] {
			removed = append(removed, f)
		}
	}

	if prev != nil && len(changed) == 0 && len(removed) == 0 {
		c.packagesSkipped.Add(1)
		return nil
	}
	if len(changed) == 0 && len(removed) == 0 && prev == nil {
		// Every file failed to read or parse
		return nil
	}

	pkgName = packageName(pkgName, prev, changed)

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	pkg := &storage.Package{
		ProjectID:  project.ID,
		ImportPath: dir.ImportPath,
		Name:       pkgName,
		Dir:        dir.Dir,
		FileCount:  len(seen),
	}
	if err := tx.UpsertPackage(ctx, pkg); err != nil {
		return err
	}

	for _, f := range removed {
		if err := tx.DeleteFile(ctx, f.ID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", f.FilePath, err)
		}
		c.filesRemoved.Add(1)
	}

	for _, pf := range changed {
		if old, ok := known[pf.relPath]; ok {
			if err := tx.DeleteSymbolsByFile(ctx, old.ID); err != nil {
				return fmt.Errorf("failed to delete old symbols: %w", err)
			}
			if err := tx.DeleteImportsByFile(ctx, old.ID); err != nil {
				return fmt.Errorf("failed to delete old imports: %w", err)
			}
		}

		symbols, imports, err := idx.storeFile(ctx, tx, project, pkg, pf)
		if err != nil {
			return err
		}
		c.filesIndexed.Add(1)
		c.symbols.Add(int32(symbols))
		c.imports.Add(int32(imports))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.packagesIndexed.Add(1)
	idx.logger.Debug("indexed package", "package", dir.ImportPath, "changed", len(changed), "removed", len(removed))
	return nil
}

// storeFile writes one parsed file with its symbols and imports
func (idx *Indexer) storeFile(ctx context.Context, store storage.Storage, project *storage.Project,
	pkg *storage.Package, pf parsedFile) (int, int, error) {

	file := &storage.File{
		ProjectID:   project.ID,
		PackageID:   pkg.ID,
		FilePath:    pf.relPath,
		PackageName: pf.result.PackageName,
		ContentHash: pf.hash,
		ModTime:     pf.modTime,
		SizeBytes:   pf.size,
	}
	if pf.result.HasErrors() {
		msg := pf.result.Errors[0].Message
		file.ParseError = &msg
	}
	if err := store.UpsertFile(ctx, file); err != nil {
		return 0, 0, err
	}

	for _, imp := range pf.result.Imports {
		record := &storage.Import{
			FileID:     file.ID,
			ImportPath: imp.Path,
			Alias:      imp.Alias,
		}
		if err := store.UpsertImport(ctx, record); err != nil {
			return 0, 0, fmt.Errorf("failed to store import: %w", err)
		}
	}

	for i := range pf.result.Symbols {
		sym := storage.FromTypesSymbol(pf.result.Symbols[i], file.ID)
		if err := store.UpsertSymbol(ctx, sym); err != nil {
			return 0, 0, fmt.Errorf("failed to store symbol: %w", err)
		}
	}

	return len(pf.result.Symbols), len(pf.result.Imports), nil
}

// packageName prefers the clause of a non-test file, then the stored name,
// then the clause of an external test package without its _test suffix
func packageName(fromSource string, prev *storage.Package, changed []parsedFile) string {
	if fromSource != "" {
		return fromSource
	}
	if prev != nil && prev.Name != "" {
		return prev.Name
	}
	for _, pf := range changed {
		if pf.result.PackageName != "" {
			return strings.TrimSuffix(pf.result.PackageName, "_test")
		}
	}
	return ""
}

// removeStalePackages deletes packages whose directory no longer holds Go
// files. Their files, symbols and imports go with them.
func (idx *Indexer) removeStalePackages(ctx context.Context, dirs []packageDir, existing map[string]*storage.Package) (int, error) {
	live := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		live[d.ImportPath] = true
	}

	removed := 0
	for importPath, pkg := range existing {
		if live[importPath] {
			continue
		}
		if err := idx.storage.DeletePackage(ctx, pkg.ID); err != nil {
			return removed, err
		}
		idx.logger.Debug("removed package", "package", importPath)
		removed++
	}
	return removed, nil
}

// updateProjectStats updates the project's file and package counts
func (idx *Indexer) updateProjectStats(ctx context.Context, project *storage.Project, mod *moduleInfo) error {
	status, err := idx.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return err
	}

	project.ModuleName = mod.Module
	project.GoVersion = mod.GoVersion
	project.TotalFiles = status.FilesCount
	project.TotalPackages = status.PackagesCount
	project.IndexVersion = storage.CurrentSchemaVersion
	project.LastIndexedAt = time.Now()

	return idx.storage.UpdateProject(ctx, project)
}

// discoverPackages finds every directory holding indexable Go files.
// Hidden directories, testdata, nested modules and (unless included) vendor
// are skipped.
func discoverPackages(rootPath, modulePath string, config *Config) ([]packageDir, error) {
	byDir := make(map[string]*packageDir)

	err := filepath.WalkDir(rootPath, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if p == rootPath {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" {
				return filepath.SkipDir
			}
			if name == "vendor" && !config.IncludeVendor {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(p, ".go") || !d.Type().IsRegular() {
			return nil
		}
		if !config.IncludeTests && parser.IsTestFile(p) {
			return nil
		}

		rel, err := filepath.Rel(rootPath, filepath.Dir(p))
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		pd, ok := byDir[rel]
		if !ok {
			pd = &packageDir{Dir: rel, ImportPath: importPath(modulePath, rel)}
			byDir[rel] = pd
		}
		pd.Files = append(pd.Files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	dirs := make([]packageDir, 0, len(byDir))
	for _, pd := range byDir {
		sort.Strings(pd.Files)
		dirs = append(dirs, *pd)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].ImportPath < dirs[j].ImportPath })
	return dirs, nil
}

// importPath joins the module path with a slash separated relative dir.
// Packages under vendor/ keep the import path they are vendored as.
func importPath(modulePath, rel string) string {
	if rel == "." || rel == "" {
		return modulePath
	}
	if rel == "vendor" {
		return path.Join(modulePath, rel)
	}
	if strings.HasPrefix(rel, "vendor/") {
		return strings.TrimPrefix(rel, "vendor/")
	}
	return path.Join(modulePath, rel)
}

// computeFileHash computes SHA-256 hash of a file
func computeFileHash(filePath string) ([32]byte, time.Time, int64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return [32]byte{}, time.Time{}, 0, err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return [32]byte{}, time.Time{}, 0, err
	}

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return [32]byte{}, time.Time{}, 0, err
	}

	var result [32]byte
	copy(result[:], hash.Sum(nil))

	return result, info.ModTime(), info.Size(), nil
}

// moduleInfo contains parsed go.mod information
type moduleInfo struct {
	Module    string
	GoVersion string
}

// readModule parses the go.mod at the project root
func readModule(rootPath string) (*moduleInfo, error) {
	goModPath := filepath.Join(rootPath, "go.mod")
	content, err := os.ReadFile(goModPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", rootPath, ErrNoModule)
	}
	if err != nil {
		return nil, err
	}

	f, err := modfile.ParseLax(goModPath, content, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if f.Module == nil || f.Module.Mod.Path == "" {
		return nil, fmt.Errorf("%s: go.mod has no module directive", rootPath)
	}

	info := &moduleInfo{Module: f.Module.Mod.Path}
	if f.Go != nil {
		info.GoVersion = f.Go.Version
	}
	return info, nil
}
