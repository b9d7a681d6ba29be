package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexCodebaseTool returns the tool definition for index_codebase
func indexCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_codebase",
		Description: "Index the packages of a Go module so identifiers can be matched to registered namespaces",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the Go module root (must contain go.mod)",
				},
				"include_tests": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index *_test.go files (defaults to the server configuration)",
				},
				"include_vendor": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index vendor/ directory (defaults to the server configuration)",
				},
			},
			Required: []string{"path"},
		},
	}
}

// registerNamespaceSetTool returns the tool definition for register_namespace_set
func registerNamespaceSetTool() mcp.Tool {
	return mcp.Tool{
		Name:        "register_namespace_set",
		Description: "Register a named set of import paths for an indexed project, replacing any set with the same name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed Go module",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the namespace set (e.g. 'layers')",
				},
				"namespaces": map[string]interface{}{
					"type":        "array",
					"description": "Import paths to register (e.g. 'github.com/acme/shop/internal')",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"path", "name", "namespaces"},
		},
	}
}

// matchNamespaceTool returns the tool definition for match_namespace
func matchNamespaceTool() mcp.Tool {
	return mcp.Tool{
		Name: "match_namespace",
		Description: "Find the most specific registered namespace owning each identifier. " +
			"Pass 'namespaces' to match fully qualified names in memory, or 'path' and 'set' " +
			"to match Go identifiers against a registered set of an indexed project.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"identifiers": map[string]interface{}{
					"type":        "array",
					"description": "Identifiers to match (e.g. 'com.acme.model.Order' or 'github.com/acme/shop/cart.Cart')",
					"items": map[string]interface{}{
						"type": "string",
					},
					"minItems": 1,
					"maxItems": maxIdentifiers,
				},
				"namespaces": map[string]interface{}{
					"type":        "array",
					"description": "In-memory mode: registered namespaces",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"separator": map[string]interface{}{
					"type":        "string",
					"description": "In-memory mode: segment separator",
					"default":     ".",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Project mode: absolute path to an indexed Go module",
				},
				"set": map[string]interface{}{
					"type":        "string",
					"description": "Project mode: name of a registered namespace set",
				},
			},
			Required: []string{"identifiers"},
		},
	}
}

// searchSymbolsTool returns the tool definition for search_symbols
func searchSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_symbols",
		Description: "Full-text search over the symbols of an indexed Go module",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed Go module",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search terms matched against names, receivers, signatures and doc comments",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"set": map[string]interface{}{
					"type":        "string",
					"description": "Optional namespace set used to annotate each result with its owning namespace",
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a Go project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to Go project",
				},
			},
			Required: []string{"path"},
		},
	}
}
