package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dshills/pkgtree-mcp/internal/config"
	"github.com/dshills/pkgtree-mcp/internal/logging"
	"github.com/dshills/pkgtree-mcp/internal/storage"
)

// app carries what every subcommand needs once flags and config are loaded
type app struct {
	cfgFile  string
	dbPath   string
	logLevel string

	cfg    *config.Config
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pkgtree",
		Short: "Match identifiers to their most specific registered namespace",
		Long: `pkgtree finds, for any identifier, the most specific registered namespace
that owns it: the longest registered segment-prefix of the identifier's
namespace.

Namespaces are either dotted names matched in memory, or import paths of
an indexed Go module registered as named sets.

Examples:
  pkgtree match --namespaces com.acme,com.acme.model com.acme.model.xml.Grid
  pkgtree index ~/src/shop
  pkgtree set save --project ~/src/shop layers github.com/acme/shop github.com/acme/shop/internal
  pkgtree match --project ~/src/shop --set layers Cart.Add
  pkgtree serve`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml or ~/.pkgtree/config.yaml)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path (overrides db_path)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log_level)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newIndexCmd(a))
	root.AddCommand(newMatchCmd(a))
	root.AddCommand(newSetCmd(a))
	return root
}

// load reads configuration, applies flag overrides and builds the logger
func (a *app) load(cmd *cobra.Command) error {
	opts := config.LoadOptions{ConfigFile: a.cfgFile}
	if a.cfgFile == "" {
		opts.SearchPaths = config.DefaultSearchPaths()
	}

	cfg, path, err := config.Load(opts)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LoggingOptions(cmd.Name()))
	if err != nil {
		return err
	}
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// openStorage opens the configured database, creating its directory
func (a *app) openStorage() (*storage.SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	store, err := storage.NewSQLiteStorage(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", a.cfg.DBPath, err)
	}
	return store, nil
}
