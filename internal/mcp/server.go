package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/pkgtree-mcp/internal/config"
	"github.com/dshills/pkgtree-mcp/internal/indexer"
	"github.com/dshills/pkgtree-mcp/internal/logging"
	"github.com/dshills/pkgtree-mcp/internal/owner"
	"github.com/dshills/pkgtree-mcp/internal/storage"
	"github.com/dshills/pkgtree-mcp/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "pkgtree-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Options configures a Server built over an existing store
type Options struct {
	Separator string // Default separator of in-memory matching
	CacheSize int    // Resolve cache size of project trees; 0 disables it
	Indexer   indexer.Config
	Logger    *log.Logger
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp         *server.MCPServer
	storage     storage.Storage
	indexer     *indexer.Indexer
	owner       *owner.Service
	logger      *log.Logger
	indexConfig indexer.Config
	separator   string
	indexLock   indexer.IndexLock
}

// NewServer opens the database named by cfg and creates a server over it
func NewServer(cfg *config.Config, logger *log.Logger) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return New(store, Options{
		Separator: cfg.Separator,
		CacheSize: cfg.CacheSize,
		Indexer: indexer.Config{
			Workers:       cfg.Indexer.Workers,
			IncludeTests:  cfg.Indexer.IncludeTests,
			IncludeVendor: cfg.Indexer.IncludeVendor,
		},
		Logger: logger,
	}), nil
}

// New creates a server over store. The server owns store from here on and
// closes it when Serve returns.
func New(store storage.Storage, opts Options) *Server {
	logger := logging.OrDiscard(opts.Logger)
	sep := opts.Separator
	if sep == "" {
		sep = types.DefaultSeparator
	}

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		storage: store,
		indexer: indexer.New(store, logger.WithPrefix("indexer")),
		owner: owner.NewService(store, owner.Options{
			CacheSize: opts.CacheSize,
			Separator: sep,
			Logger:    logger.WithPrefix("owner"),
		}),
		logger:      logger,
		indexConfig: opts.Indexer,
		separator:   sep,
	}
	s.registerTools()
	return s
}

// Serve runs the MCP protocol on stdio until ctx is canceled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}))

	s.logger.Info("MCP server ready, listening on stdio", "build", storage.BuildMode, "driver", storage.DriverName)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// Close releases the store without serving
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)
	s.mcp.AddTool(registerNamespaceSetTool(), s.handleRegisterNamespaceSet)
	s.mcp.AddTool(matchNamespaceTool(), s.handleMatchNamespace)
	s.mcp.AddTool(searchSymbolsTool(), s.handleSearchSymbols)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
