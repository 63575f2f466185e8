// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package wire is the HTTP/1.1 wire codec: it serializes a request
// plan into raw request bytes and parses raw response bytes into a
// request.Response.
//
// The codec is deliberately dumb. It handles the textual framing only:
// no chunked transfer decoding, no content-length truncation, no
// connection management. The transport frames responses by reading to
// EOF, and the codec parses whatever was accumulated.
package wire
