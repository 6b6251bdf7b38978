// Package server implements the MCP (Model Context Protocol) server for the
// box measurement pipeline.
//
// This package provides a JSON-RPC 2.0 server that exposes the measurement
// pipeline to MCP-compatible clients, so an assistant can measure a boxed object
// from two saved camera frames and inspect each stage when a result looks wrong.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logging goes to the configured logger, never to stdout.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Measurement:
//   - measure_object: Full measurement from a top and a side frame
//   - analyze_top_view: Enclosure calibration and shape classification, with an
//     annotated crop of the enclosure
//   - estimate_height: Side-view height against the reference strip
//
// Diagnostics:
//   - segment_frame: Foreground masks for a top or side frame
//   - sample_color: Color at a pixel, for tuning the object color band
//
// # Frame Caching
//
// Frames are cached by path and reloaded when the file's modification time or
// size changes, so a camera overwriting the same file is picked up.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Measurements that simply find nothing (an empty enclosure, no object in the
// side view) are not errors; they come back as results with their validity
// flags cleared.
//
// # Usage
//
//	srv, err := server.New(cfg, log)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
