// Package server implements the MCP (Model Context Protocol) server for the
// collage generator.
//
// The server speaks JSON-RPC 2.0 over stdio so an MCP client can generate
// collages, inspect a candidate directory and preview a collage without
// writing files.
//
// # Protocol
//
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - grid_generate: run one or more generations and write them to disk
//   - grid_pool_info: count candidates and summarize their dimensions
//   - grid_preview: one generation returned as a base64-encoded PNG
//
// Tool arguments override the configuration the server was started with;
// anything a call leaves out keeps its configured value.
//
// # Image Caching
//
// Candidate dimensions are cached by path for the lifetime of the process,
// so repeated calls over the same directory do not re-read headers. Decoded
// pixels are not cached.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
