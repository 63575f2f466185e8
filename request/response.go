// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	"strings"
)

// A Response is the parsed result of one HTTP request attempt.
//
// The response is always fully buffered: the transport reads the
// connection to EOF before parsing, so Body holds the complete
// payload and there is no stream to manage or close.
type Response struct {
	// StatusCode is the numeric status from the status line, for
	// example 200.
	StatusCode int

	// Reason is the reason phrase from the status line, for example
	// "OK". It may be empty.
	Reason string

	// Header holds the response headers. Duplicate keys on the wire
	// overwrite earlier values, so each key maps to exactly one value.
	Header http.Header

	// Body is the response payload, verbatim from the wire.
	Body []byte
}

// KeepAlive reports whether the response permits the underlying
// connection to be reused. A "Connection: close" header forbids
// reuse; any other value, or no Connection header at all, permits it.
func (r *Response) KeepAlive() bool {
	return !strings.EqualFold(r.Header.Get("Connection"), "close")
}
