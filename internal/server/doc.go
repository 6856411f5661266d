// Package server implements the MCP (Model Context Protocol) server for the
// ai-tools image and media tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the transform
// pipeline, palette extraction, QR generation and the remote speech and image
// providers to MCP-compatible clients.
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
// Image information:
//   - image_info: Dimensions, sniffed format, alpha and file size
//   - image_fit_dimensions: Output size for given bounds, without loading a file
//
// Transform:
//   - image_transform: Fit, watermark and re-encode one image
//   - image_transform_batch: The same for several images, with per-item outcomes
//
// Colour and QR:
//   - image_palette: Dominant colours
//   - qr_generate: QR code PNG
//
// Remote providers:
//   - voices_list: Stock voices
//   - speech_synthesize: Text to MP3
//   - image_generate: Prompt to image URL
//
// Transform settings omitted from a call fall back to the transform section
// of the configuration. Numeric settings may be JSON numbers or strings;
// out-of-range values are clamped and non-numeric ones are rejected.
//
// # Image Caching
//
// image_info and image_palette load images through a bounded LRU cache keyed
// by path. An entry is reloaded when the file changes on disk.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// image_transform_batch does not fail when individual images do; each item
// carries its own error and kind.
//
// # Usage
//
//	srv := server.New(cfg, server.WithLogger(logger))
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
