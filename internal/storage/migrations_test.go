package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, s *SQLiteStorage, name string) bool {
	t.Helper()
	var count int
	err := s.db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	require.NoError(t, err)
	return count > 0
}

func TestMigrations_ApplyIsIdempotent(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, ApplyMigrations(ctx, storage.db))

	var rows int
	require.NoError(t, storage.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&rows))
	assert.Equal(t, len(AllMigrations), rows)
}

func TestMigrations_RollbackInVersionOrder(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.True(t, tableExists(t, storage, "namespace_sets"))

	require.NoError(t, RollbackMigration(ctx, storage.db))
	assert.False(t, tableExists(t, storage, "namespace_sets"))
	assert.True(t, tableExists(t, storage, "packages"))

	version, err := SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)

	require.NoError(t, RollbackMigration(ctx, storage.db))
	assert.False(t, tableExists(t, storage, "packages"))
	assert.False(t, tableExists(t, storage, "schema_version"))

	assert.Error(t, RollbackMigration(ctx, storage.db))

	// A rolled back database migrates forward again
	require.NoError(t, ApplyMigrations(ctx, storage.db))
	version, err = SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}
