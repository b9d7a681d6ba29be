package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/dshills/pkgtree-mcp/internal/logging"
	"github.com/dshills/pkgtree-mcp/internal/pkgtree"
	"github.com/dshills/pkgtree-mcp/pkg/types"
)

const (
	// AppName is the application name
	AppName = "pkgtree"
	// EnvPrefix prefixes every environment override, e.g. PKGTREE_DB_PATH
	EnvPrefix = "PKGTREE"
	// ConfigFileName is the name of the config file (without extension)
	ConfigFileName = "config"
)

// Config holds every setting of the CLI and the MCP server
type Config struct {
	DBPath    string        `mapstructure:"db_path"`
	Separator string        `mapstructure:"separator"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	CacheSize int           `mapstructure:"cache_size"`
	Indexer   IndexerConfig `mapstructure:"indexer"`
}

// IndexerConfig holds the settings of an indexing run
type IndexerConfig struct {
	Workers       int  `mapstructure:"workers"`
	IncludeTests  bool `mapstructure:"include_tests"`
	IncludeVendor bool `mapstructure:"include_vendor"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	return &Config{
		DBPath:    DefaultDBPath(),
		Separator: types.DefaultSeparator,
		LogLevel:  "info",
		LogFormat: string(logging.FormatText),
		CacheSize: pkgtree.DefaultCacheSize,
		Indexer: IndexerConfig{
			Workers:      runtime.NumCPU(),
			IncludeTests: true,
		},
	}
}

// DefaultDBPath returns ~/.pkgtree/index.db, or a relative path when the
// home directory is unknown
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("."+AppName, "index.db")
	}
	return filepath.Join(home, "."+AppName, "index.db")
}

// LoadOptions control where Load looks for a config file
type LoadOptions struct {
	// ConfigFile is used exclusively when set and must exist
	ConfigFile string
	// SearchPaths are scanned for config.{yaml,json,toml,...} otherwise
	SearchPaths []string
}

// Load layers defaults, an optional config file and PKGTREE_* environment
// variables, in increasing precedence. The returned path is the config
// file that was read, if any.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("separator", defaults.Separator)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("cache_size", defaults.CacheSize)
	v.SetDefault("indexer.workers", defaults.Indexer.Workers)
	v.SetDefault("indexer.include_tests", defaults.Indexer.IncludeTests)
	v.SetDefault("indexer.include_vendor", defaults.Indexer.IncludeVendor)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return nil, "", fmt.Errorf("config file not found: %w", err)
		}
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(ConfigFileName)
		for _, p := range opts.SearchPaths {
			v.AddConfigPath(p)
		}
	}

	resolvedPath := ""
	if opts.ConfigFile != "" || len(opts.SearchPaths) > 0 {
		err := v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		switch {
		case err == nil:
			resolvedPath = v.ConfigFileUsed()
		case errors.As(err, &notFound):
			// No config file, defaults and environment only
		default:
			return nil, "", fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolvedPath, nil
}

// DefaultSearchPaths returns the current directory and ~/.pkgtree
func DefaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "."+AppName))
	}
	return paths
}

// Validate checks values that unmarshalling cannot
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path cannot be empty")
	}
	if c.Separator == "" {
		return fmt.Errorf("separator: %w", types.ErrEmptySeparator)
	}
	if _, err := log.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch logging.Format(c.LogFormat) {
	case logging.FormatText, logging.FormatJSON, logging.FormatLogfmt:
	default:
		return fmt.Errorf("log_format: unknown format %q", c.LogFormat)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be >= 0, got %d", c.CacheSize)
	}
	if c.Indexer.Workers < 1 {
		return fmt.Errorf("indexer.workers must be >= 1, got %d", c.Indexer.Workers)
	}
	return nil
}

// LoggingOptions returns the logger settings for a component
func (c *Config) LoggingOptions(prefix string) logging.Options {
	return logging.Options{
		Level:  c.LogLevel,
		Format: logging.Format(c.LogFormat),
		Prefix: prefix,
	}
}
