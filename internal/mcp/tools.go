package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/pkgtree-mcp/internal/indexer"
	"github.com/dshills/pkgtree-mcp/internal/owner"
	"github.com/dshills/pkgtree-mcp/internal/pkgtree"
	"github.com/dshills/pkgtree-mcp/internal/storage"
	"github.com/dshills/pkgtree-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeProjectNotFound    = -32001 // Specified path does not contain a Go module
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Project not indexed
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
	ErrorCodeSetNotFound        = -32005 // Namespace set is not registered
)

// maxIdentifiers bounds one match_namespace call
const maxIdentifiers = 1000

// handleIndexCodebase handles the index_codebase tool invocation
func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	if !s.indexLock.TryAcquire() {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", map[string]interface{}{
			"path": path,
		})
	}
	defer s.indexLock.Release()

	config := s.indexConfig
	config.IncludeTests = getBoolDefault(args, "include_tests", config.IncludeTests)
	config.IncludeVendor = getBoolDefault(args, "include_vendor", config.IncludeVendor)

	stats, err := s.indexer.IndexProject(ctx, path, &config)
	if errors.Is(err, indexer.ErrNoModule) {
		return nil, newMCPError(ErrorCodeProjectNotFound, "path is not a Go module", map[string]interface{}{
			"path":   path,
			"reason": err.Error(),
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Published trees hold handles from the previous index
	if project, err := s.owner.Project(ctx, path); err == nil {
		s.owner.InvalidateProject(project.ID)
	}

	response := map[string]interface{}{
		"indexed":           true,
		"run_id":            stats.RunID,
		"module":            stats.ModulePath,
		"packages_indexed":  stats.PackagesIndexed,
		"packages_skipped":  stats.PackagesSkipped,
		"packages_removed":  stats.PackagesRemoved,
		"files_indexed":     stats.FilesIndexed,
		"files_skipped":     stats.FilesSkipped,
		"files_failed":      stats.FilesFailed,
		"files_removed":     stats.FilesRemoved,
		"symbols_extracted": stats.SymbolsExtracted,
		"imports_extracted": stats.ImportsExtracted,
		"duration_ms":       stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRegisterNamespaceSet handles the register_namespace_set tool invocation
func (s *Server) handleRegisterNamespaceSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	name := getStringDefault(args, "name", "")
	namespaces, ok := getStringSlice(args, "namespaces")
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "namespaces must be an array of strings", map[string]interface{}{
			"param": "namespaces",
		})
	}

	set, err := s.owner.SaveSet(ctx, path, name, namespaces)
	if err != nil {
		return nil, toolError(err, "failed to register namespace set")
	}

	response := map[string]interface{}{
		"registered": true,
		"name":       set.Name,
		"separator":  set.Separator,
		"namespaces": set.Namespaces,
		"count":      len(set.Namespaces),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleMatchNamespace handles the match_namespace tool invocation
func (s *Server) handleMatchNamespace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	identifiers, ok := getStringSlice(args, "identifiers")
	if !ok || len(identifiers) == 0 || len(identifiers) > maxIdentifiers {
		return nil, newMCPError(ErrorCodeInvalidParams,
			fmt.Sprintf("identifiers must be an array of 1 to %d strings", maxIdentifiers),
			map[string]interface{}{"param": "identifiers"})
	}

	namespaces, inMemory := getStringSlice(args, "namespaces")
	path := getStringDefault(args, "path", "")
	setName := getStringDefault(args, "set", "")

	var (
		tree *pkgtree.Tree
		mode string
		err  error
	)
	switch {
	case inMemory && (path != "" || setName != ""):
		return nil, newMCPError(ErrorCodeInvalidParams, "pass either namespaces or path and set, not both", nil)
	case inMemory:
		mode = "memory"
		tree, err = s.owner.MemoryTree(namespaces, getStringDefault(args, "separator", s.separator))
	case path != "" && setName != "":
		mode = "project"
		if verr := validatePath(path); verr != nil {
			return nil, invalidPath(verr)
		}
		tree, err = s.owner.ProjectTree(ctx, path, setName)
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "namespaces, or path and set, are required", map[string]interface{}{
			"param": "namespaces",
		})
	}
	if err != nil {
		return nil, toolError(err, "failed to build namespace tree")
	}

	matches, err := s.owner.MatchAll(ctx, tree, identifiers)
	if err != nil {
		return nil, toolError(err, "matching failed")
	}

	matched := 0
	results := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		result := map[string]interface{}{
			"identifier": m.Identifier,
			"matched":    m.Matched(),
		}
		if m.Err != nil {
			result["error"] = m.Err.Error()
		}
		if m.Handle != nil {
			matched++
			result["namespace"] = m.Handle.Name
			if m.Handle.ID != 0 {
				result["package_name"] = m.Handle.PackageName
				result["dir"] = m.Handle.Dir
			}
		}
		results = append(results, result)
	}

	response := map[string]interface{}{
		"mode":      mode,
		"separator": tree.Separator(),
		"matched":   matched,
		"total":     len(matches),
		"results":   results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchSymbols handles the search_symbols tool invocation
func (s *Server) handleSearchSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	project, err := s.owner.Project(ctx, path)
	if err != nil {
		return nil, toolError(err, "failed to get project")
	}

	var tree *pkgtree.Tree
	if setName := getStringDefault(args, "set", ""); setName != "" {
		tree, err = s.owner.ProjectTree(ctx, path, setName)
		if err != nil {
			return nil, toolError(err, "failed to build namespace tree")
		}
	}

	matches, err := s.storage.SearchSymbols(ctx, project.ID, query, limit)
	if errors.Is(err, storage.ErrEmptyQuery) {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query has no searchable terms", map[string]interface{}{
			"param": "query",
			"value": query,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		name := m.Name
		if m.Receiver != "" {
			name = m.Receiver + "." + m.Name
		}
		result := map[string]interface{}{
			"name":        name,
			"kind":        m.Kind,
			"package":     m.ImportPath,
			"file":        m.FilePath,
			"line":        m.StartLine,
			"signature":   m.Signature,
			"doc_comment": m.DocComment,
		}
		if tree != nil {
			ownerNS, err := owner.OwnerOf(tree, m.ImportPath)
			if err == nil && ownerNS != "" {
				result["owner"] = ownerNS
			}
		}
		results = append(results, result)
	}

	response := map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	project, err := s.owner.Project(ctx, path)
	if errors.Is(err, owner.ErrProjectNotFound) {
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Project not indexed. Use index_codebase tool to index this project.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	sets, err := s.storage.ListNamespaceSets(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list namespace sets", map[string]interface{}{
			"error": err.Error(),
		})
	}
	setNames := make([]string, len(sets))
	for i, set := range sets {
		setNames[i] = set.Name
	}

	response := map[string]interface{}{
		"indexed": true,
		"project": map[string]interface{}{
			"path":            project.RootPath,
			"module_name":     project.ModuleName,
			"go_version":      project.GoVersion,
			"last_indexed_at": project.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		"statistics": map[string]interface{}{
			"packages_count":     status.PackagesCount,
			"files_count":        status.FilesCount,
			"symbols_count":      status.SymbolsCount,
			"imports_count":      status.ImportsCount,
			"parse_errors_count": status.ParseErrorsCount,
			"index_size_mb":      fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"namespace_sets": setNames,
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"fts_indexes_built":   status.Health.FTSIndexesBuilt,
			"schema_version":      status.Health.SchemaVersion,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// toolError maps service errors onto MCP error codes
func toolError(err error, message string) error {
	data := map[string]interface{}{"error": err.Error()}
	switch {
	case errors.Is(err, owner.ErrProjectNotFound):
		return newMCPError(ErrorCodeNotIndexed, "project not indexed", data)
	case errors.Is(err, owner.ErrSetNotFound):
		return newMCPError(ErrorCodeSetNotFound, "namespace set not found", data)
	case errors.Is(err, owner.ErrInvalidSetName),
		errors.Is(err, types.ErrMalformedNamespace),
		errors.Is(err, types.ErrEmptySeparator):
		return newMCPError(ErrorCodeInvalidParams, message, data)
	default:
		return newMCPError(ErrorCodeInternalError, message, data)
	}
}

// requirePath extracts and validates the path parameter
func requirePath(args map[string]interface{}) (string, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return "", invalidPath(err)
	}
	return filepath.Clean(path), nil
}

func invalidPath(err error) error {
	return newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
		"param":  "path",
		"reason": err.Error(),
	})
}

// validatePath checks if a path exists and is accessible
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts an array of strings. ok is false when the key is
// missing or holds anything else.
func getStringSlice(args map[string]interface{}, key string) ([]string, bool) {
	switch val := args[key].(type) {
	case []string:
		return val, true
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
