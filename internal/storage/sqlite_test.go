package storage

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/pkgtree-mcp/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	t.Helper()
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

// seedProject creates a project with one package holding one file
func seedProject(t *testing.T, s *SQLiteStorage) (*Project, *Package, *File) {
	t.Helper()
	ctx := context.Background()

	project := &Project{RootPath: "/src/shop", ModuleName: "github.com/acme/shop", GoVersion: "1.22"}
	require.NoError(t, s.CreateProject(ctx, project))

	pkg := &Package{ProjectID: project.ID, ImportPath: "github.com/acme/shop/cart", Name: "cart", Dir: "cart", FileCount: 1}
	require.NoError(t, s.UpsertPackage(ctx, pkg))

	file := &File{
		ProjectID:   project.ID,
		PackageID:   pkg.ID,
		FilePath:    "cart/cart.go",
		PackageName: "cart",
		ContentHash: sha256.Sum256([]byte("package cart")),
		ModTime:     time.Now(),
		SizeBytes:   12,
	}
	require.NoError(t, s.UpsertFile(ctx, file))

	return project, pkg, file
}

func addSymbol(t *testing.T, s Storage, fileID int64, name, receiver, kind string, line int) *Symbol {
	t.Helper()
	sym := &Symbol{
		FileID:      fileID,
		Name:        name,
		Receiver:    receiver,
		Kind:        kind,
		PackageName: "cart",
		Scope:       string(types.ScopeExported),
		Signature:   "func " + name + "()",
		StartLine:   line,
		StartCol:    1,
		EndLine:     line + 2,
		EndCol:      2,
	}
	require.NoError(t, s.UpsertSymbol(context.Background(), sym))
	return sym
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	assert.NotNil(t, storage.db)

	version, err := SchemaVersion(context.Background(), storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestCreateProject(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	project := &Project{RootPath: "/src/shop", ModuleName: "github.com/acme/shop", GoVersion: "1.22"}
	require.NoError(t, storage.CreateProject(ctx, project))
	assert.Greater(t, project.ID, int64(0))

	err := storage.CreateProject(ctx, &Project{RootPath: "/src/shop"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetProject(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	project, _, _ := seedProject(t, storage)

	byPath, err := storage.GetProject(ctx, "/src/shop")
	require.NoError(t, err)
	assert.Equal(t, project.ID, byPath.ID)
	assert.Equal(t, "github.com/acme/shop", byPath.ModuleName)
	assert.True(t, byPath.LastIndexedAt.IsZero())

	byID, err := storage.GetProjectByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, byPath.RootPath, byID.RootPath)

	_, err = storage.GetProject(ctx, "/nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = storage.GetProjectByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProject(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	project, _, _ := seedProject(t, storage)

	project.TotalFiles = 10
	project.TotalPackages = 3
	project.GoVersion = "1.23"
	project.LastIndexedAt = time.Now()
	require.NoError(t, storage.UpdateProject(ctx, project))

	got, err := storage.GetProject(ctx, project.RootPath)
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalFiles)
	assert.Equal(t, 3, got.TotalPackages)
	assert.Equal(t, "1.23", got.GoVersion)
	assert.False(t, got.LastIndexedAt.IsZero())

	err = storage.UpdateProject(ctx, &Project{ID: 9999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPackages(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	project, pkg, _ := seedProject(t, storage)

	// Upsert on the same import path keeps the row id
	again := &Package{ProjectID: project.ID, ImportPath: pkg.ImportPath, Name: "cart", Dir: "cart", FileCount: 4}
	require.NoError(t, storage.UpsertPackage(ctx, again))
	assert.Equal(t, pkg.ID, again.ID)

	other := &Package{ProjectID: project.ID, ImportPath: "github.com/acme/shop", Name: "shop", Dir: "."}
	require.NoError(t, storage.UpsertPackage(ctx, other))

	got, err := storage.GetPackage(ctx, project.ID, pkg.ImportPath)
	require.NoError(t, err)
	assert.Equal(t, 4, got.FileCount)

	h := got.Handle()
	assert.Equal(t, "github.com/acme/shop/cart", h.Name)
	assert.Equal(t, types.Namespace{"github.com", "acme", "shop", "cart"}, h.Namespace)
	assert.Equal(t, got.ID, h.ID)
	assert.Equal(t, "cart", h.PackageName)

	list, err := storage.ListPackages(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "github.com/acme/shop", list[0].ImportPath)
	assert.Equal(t, "github.com/acme/shop/cart", list[1].ImportPath)

	_, err = storage.GetPackage(ctx, project.ID, "github.com/acme/other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFiles(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	project, pkg, file := seedProject(t, storage)

	got, err := storage.GetFile(ctx, project.ID, "cart/cart.go")
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	assert.Equal(t, pkg.ID, got.PackageID)
	assert.Equal(t, file.ContentHash, got.ContentHash)
	assert.Nil(t, got.ParseError)

	msg := "syntax error: expected ';'"
	file.ParseError = &msg
	file.ContentHash = sha256.Sum256([]byte("package cart // changed"))
	require.NoError(t, storage.UpsertFile(ctx, file))

	got, err = storage.GetFile(ctx, project.ID, "cart/cart.go")
	require.NoError(t, err)
	require.NotNil(t, got.ParseError)
	assert.Equal(t, msg, *got.ParseError)
	assert.Equal(t, file.ContentHash, got.ContentHash)

	files, err := storage.ListFiles(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	require.NoError(t, storage.DeleteFile(ctx, file.ID))
	_, err = storage.GetFile(ctx, project.ID, "cart/cart.go")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSymbols(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	_, _, file := seedProject(t, storage)

	cart := addSymbol(t, storage, file.ID, "Cart", "", string(types.KindStruct), 5)
	addSymbol(t, storage, file.ID, "Checkout", "Cart", string(types.KindMethod), 12)

	// Same position is an update, not a second row
	cart.DocComment = "Cart holds line items"
	require.NoError(t, storage.UpsertSymbol(ctx, cart))

	symbols, err := storage.ListSymbolsByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, symbols, 2)
	assert.Equal(t, "Cart", symbols[0].Name)
	assert.Equal(t, "Cart holds line items", symbols[0].DocComment)
	assert.Equal(t, "Cart.Checkout", symbols[1].ToTypesSymbol().QualifiedName())

	require.NoError(t, storage.DeleteSymbolsByFile(ctx, file.ID))
	symbols, err = storage.ListSymbolsByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestSymbolConversion(t *testing.T) {
	in := types.Symbol{
		Name:     "Checkout",
		Kind:     types.KindMethod,
		Package:  "cart",
		Scope:    types.ScopeExported,
		Receiver: "Cart",
		Start:    types.Position{Line: 3, Column: 1},
		End:      types.Position{Line: 9, Column: 2},
	}
	assert.Equal(t, in, FromTypesSymbol(in, 7).ToTypesSymbol())
	assert.Equal(t, int64(7), FromTypesSymbol(in, 7).FileID)
}

func TestSearchSymbols(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	project, _, file := seedProject(t, storage)

	addSymbol(t, storage, file.ID, "Checkout", "Cart", string(types.KindMethod), 12)
	addSymbol(t, storage, file.ID, "Total", "Cart", string(types.KindMethod), 20)

	results, err := storage.SearchSymbols(ctx, project.ID, "check", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Checkout", results[0].Name)
	assert.Equal(t, "github.com/acme/shop/cart", results[0].ImportPath)
	assert.Equal(t, "cart/cart.go", results[0].FilePath)

	// FTS syntax in user input is neutralised
	_, err = storage.SearchSymbols(ctx, project.ID, `Check" OR (`, 10)
	require.NoError(t, err)

	_, err = storage.SearchSymbols(ctx, project.ID, "  ()  ", 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	results, err = storage.SearchSymbols(ctx, project.ID+1, "check", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSymbolsByName(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	project, _, file := seedProject(t, storage)

	addSymbol(t, storage, file.ID, "New", "", string(types.KindFunction), 3)
	addSymbol(t, storage, file.ID, "Checkout", "Cart", string(types.KindMethod), 12)

	found, err := storage.FindSymbolsByName(ctx, project.ID, "New", "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "github.com/acme/shop/cart", found[0].ImportPath)

	found, err = storage.FindSymbolsByName(ctx, project.ID, "Checkout", "")
	require.NoError(t, err)
	assert.Empty(t, found, "methods only match with their receiver")

	found, err = storage.FindSymbolsByName(ctx, project.ID, "Checkout", "Cart")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestImports(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	_, _, file := seedProject(t, storage)

	for _, imp := range []*Import{
		{FileID: file.ID, ImportPath: "fmt"},
		{FileID: file.ID, ImportPath: "context"},
		{FileID: file.ID, ImportPath: "fmt"},
		{FileID: file.ID, ImportPath: "modernc.org/sqlite", Alias: "_"},
	} {
		require.NoError(t, storage.UpsertImport(ctx, imp))
	}

	imports, err := storage.ListImportsByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, imports, 3)
	assert.Equal(t, "context", imports[0].ImportPath)
	assert.Equal(t, "_", imports[2].Alias)

	require.NoError(t, storage.DeleteImportsByFile(ctx, file.ID))
	imports, err = storage.ListImportsByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, imports)
}

func TestDeletePackage_Cascades(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	project, pkg, file := seedProject(t, storage)

	addSymbol(t, storage, file.ID, "Checkout", "Cart", string(types.KindMethod), 12)
	require.NoError(t, storage.UpsertImport(ctx, &Import{FileID: file.ID, ImportPath: "fmt"}))

	require.NoError(t, storage.DeletePackage(ctx, pkg.ID))

	files, err := storage.ListFiles(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, files)

	results, err := storage.SearchSymbols(ctx, project.ID, "checkout", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	status, err := storage.GetStatus(ctx, project.ID)
	require.NoError(t, err)
	assert.Zero(t, status.SymbolsCount)
	assert.Zero(t, status.ImportsCount)
}

func TestBeginTx_CommitRollback(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	project, _, _ := seedProject(t, storage)

	t.Run("rollback discards", func(t *testing.T) {
		tx, err := storage.BeginTx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.UpsertPackage(ctx, &Package{ProjectID: project.ID, ImportPath: "github.com/acme/shop/tmp"}))
		require.NoError(t, tx.Rollback())

		_, err = storage.GetPackage(ctx, project.ID, "github.com/acme/shop/tmp")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("commit persists", func(t *testing.T) {
		tx, err := storage.BeginTx(ctx)
		require.NoError(t, err)

		pkg := &Package{ProjectID: project.ID, ImportPath: "github.com/acme/shop/billing", Name: "billing", Dir: "billing"}
		require.NoError(t, tx.UpsertPackage(ctx, pkg))
		file := &File{ProjectID: project.ID, PackageID: pkg.ID, FilePath: "billing/pay.go", PackageName: "billing"}
		require.NoError(t, tx.UpsertFile(ctx, file))
		addSymbol(t, tx, file.ID, "Pay", "", string(types.KindFunction), 3)

		// Reads inside the transaction see its own writes
		got, err := tx.GetPackage(ctx, project.ID, pkg.ImportPath)
		require.NoError(t, err)
		assert.Equal(t, pkg.ID, got.ID)

		require.NoError(t, tx.Commit())

		found, err := storage.FindSymbolsByName(ctx, project.ID, "Pay", "")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "github.com/acme/shop/billing", found[0].ImportPath)
	})

	t.Run("no nesting", func(t *testing.T) {
		tx, err := storage.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		_, err = tx.BeginTx(ctx)
		assert.Error(t, err)
		assert.NoError(t, tx.Close())
	})
}

func TestGetStatus(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	project, _, file := seedProject(t, storage)

	addSymbol(t, storage, file.ID, "Cart", "", string(types.KindStruct), 5)
	require.NoError(t, storage.UpsertImport(ctx, &Import{FileID: file.ID, ImportPath: "fmt"}))
	require.NoError(t, storage.SaveNamespaceSet(ctx, &NamespaceSet{
		ProjectID: project.ID, Name: "owners", Separator: "/", Namespaces: []string{"github.com/acme/shop"},
	}))

	status, err := storage.GetStatus(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.PackagesCount)
	assert.Equal(t, 1, status.FilesCount)
	assert.Equal(t, 1, status.SymbolsCount)
	assert.Equal(t, 1, status.ImportsCount)
	assert.Equal(t, 1, status.NamespaceSets)
	assert.Zero(t, status.ParseErrorsCount)
	assert.True(t, status.Health.DatabaseAccessible)
	assert.Equal(t, CurrentSchemaVersion, status.Health.SchemaVersion)

	_, err = storage.GetStatus(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"Cart"* "Checkout"*`, ftsQuery("Cart.Checkout"))
	assert.Equal(t, `"new_cart"*`, ftsQuery(`"new_cart"`))
	assert.Equal(t, "", ftsQuery(" -- "))
}
