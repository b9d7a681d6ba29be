// Package mcp implements the Model Context Protocol (MCP) server for pkgtree.
//
// The server exposes five tools over stdio:
//   - index_codebase: index the packages of a Go module
//   - register_namespace_set: store a named set of import paths for a project
//   - match_namespace: find the registered namespace owning each identifier
//   - search_symbols: full-text symbol search, optionally annotated with owners
//   - get_status: indexing status and statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport. Stdout carries the
// protocol, so every log line goes to stderr.
//
//	pkgtree serve
//
// # Tool: match_namespace
//
// In-memory mode matches fully qualified names against namespaces given in
// the request:
//
//	{
//	  "name": "match_namespace",
//	  "arguments": {
//	    "namespaces": ["com.workday", "com.workday.model"],
//	    "identifiers": ["com.workday.model.xml.GridModel", "org.chart.DataSet"]
//	  }
//	}
//
//	{
//	  "mode": "memory",
//	  "separator": ".",
//	  "matched": 1,
//	  "total": 2,
//	  "results": [
//	    {"identifier": "com.workday.model.xml.GridModel", "matched": true, "namespace": "com.workday.model"},
//	    {"identifier": "org.chart.DataSet", "matched": false}
//	  ]
//	}
//
// Project mode resolves Go identifiers through the index and matches them
// against a set stored with register_namespace_set:
//
//	{
//	  "name": "match_namespace",
//	  "arguments": {
//	    "path": "/src/shop",
//	    "set": "layers",
//	    "identifiers": ["github.com/acme/shop/cart.Cart", "Driver"]
//	  }
//	}
//
// An identifier that cannot be resolved carries an "error" entry in its
// result; the rest of the batch is still answered.
//
// # Error Codes
//
//	-32602  invalid params
//	-32603  internal error
//	-32001  path is not a Go module
//	-32002  indexing already in progress
//	-32003  project not indexed
//	-32004  empty search query
//	-32005  namespace set not found
package mcp
