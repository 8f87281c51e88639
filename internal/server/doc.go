// Package server implements the MCP (Model Context Protocol) server for
// handwritten digit grids.
//
// This package provides a JSON-RPC 2.0 server that exposes the segmentation
// pipeline through the MCP protocol: stroke detection, row clustering,
// tessellation into digit cells, multi-digit grouping and OCR.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
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
// Basic Image Information:
//   - image_load: Load a scan and get metadata
//   - image_dimensions: Get width and height
//
// Stroke Detection:
//   - grid_detect_hatches: Find pen strokes and their corner dots
//
// Segmentation:
//   - grid_segment: Segment a list of strokes into rows, cells and numbers
//   - grid_segment_image: Segment a scan, optionally with number crops
//
// Classification:
//   - grid_classify: Segment a scan and read every digit
//
// # Sessions
//
// Every segmentation tool call runs in its own grid.Session built from the
// server's configuration, so calls never share segmentation state. Only the
// scan cache is shared.
//
// # Image Caching
//
// The server maintains an in-memory cache of decoded scans. Scans are cached
// by path and reused across tool calls, avoiding redundant disk I/O. The
// cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
