package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/pkgtree-mcp/internal/pkgtree"
	"github.com/dshills/pkgtree-mcp/pkg/types"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, path, err := Load(LoadOptions{SearchPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Empty(t, path)
	assert.Equal(t, types.DefaultSeparator, cfg.Separator)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, pkgtree.DefaultCacheSize, cfg.CacheSize)
	assert.True(t, cfg.Indexer.IncludeTests)
	assert.False(t, cfg.Indexer.IncludeVendor)
	assert.GreaterOrEqual(t, cfg.Indexer.Workers, 1)
	assert.Equal(t, DefaultDBPath(), cfg.DBPath)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
db_path: /tmp/pkgtree-test.db
separator: /
log_level: debug
indexer:
  workers: 2
  include_vendor: true
`)

	cfg, path, err := Load(LoadOptions{SearchPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)
	assert.Equal(t, "/tmp/pkgtree-test.db", cfg.DBPath)
	assert.Equal(t, "/", cfg.Separator)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Indexer.Workers)
	assert.True(t, cfg.Indexer.IncludeVendor)
	assert.True(t, cfg.Indexer.IncludeTests, "unset keys keep their defaults")
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, "pkgtree.json", `{"cache_size": 0, "log_format": "json"}`)

	cfg, path, err := Load(LoadOptions{ConfigFile: p})
	require.NoError(t, err)
	assert.Equal(t, p, path)
	assert.Equal(t, 0, cfg.CacheSize)
	assert.Equal(t, "json", cfg.LogFormat)

	_, _, err = Load(LoadOptions{ConfigFile: filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", "indexer:\n  workers: 2\nseparator: /\n")

	t.Setenv("PKGTREE_INDEXER_WORKERS", "7")
	t.Setenv("PKGTREE_DB_PATH", "/var/lib/pkgtree.db")

	cfg, _, err := Load(LoadOptions{SearchPaths: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Indexer.Workers)
	assert.Equal(t, "/var/lib/pkgtree.db", cfg.DBPath)
	assert.Equal(t, "/", cfg.Separator)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty separator", `separator: ""`, "separator"},
		{"bad level", "log_level: loud", "log_level"},
		{"bad format", "log_format: xml", "log_format"},
		{"negative cache", "cache_size: -1", "cache_size"},
		{"no workers", "indexer:\n  workers: 0", "indexer.workers"},
		{"bad yaml", "indexer: [", "failed to read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.yaml", tt.content)

			_, _, err := Load(LoadOptions{SearchPaths: []string{dir}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_LoggingOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"

	opts := cfg.LoggingOptions("index")
	assert.Equal(t, "warn", opts.Level)
	assert.Equal(t, "index", opts.Prefix)
	assert.EqualValues(t, "text", opts.Format)
}
