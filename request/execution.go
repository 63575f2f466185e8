// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/hardwire-http/hardwire/transient"
)

// An Execution represents the state of a single Plan execution.
//
// When an HTTP request plan execution is requested, an Execution is
// created for it. The Execution is updated as the plan execution
// progresses (for example when the HTTP response becomes available,
// or when a retry is needed) and is ultimately returned as the result
// of the plan execution.
//
// Retry and timeout policies and event handlers may set values on an
// Execution using its SetValue method and read them back using the
// Value method. However, they should treat the structure's exported
// field values as immutable and leave them unmodified, as the
// execution state is vital to the correct functioning of the plan
// execution logic.
type Execution struct {
	// Plan specifies the HTTP request plan being executed. It is never
	// nil.
	Plan *Plan

	// Start is the start time of the HTTP request plan execution. It
	// is assigned a non-zero value when the plan execution starts, and
	// this value remains constant thereafter.
	Start time.Time

	// End is the end time of the HTTP request plan execution. It
	// contains the zero value until the plan execution ends, when
	// it is set to the current time.
	End time.Time

	// Attempt is the zero-based number of the current HTTP request
	// attempt during the plan execution. It is set to zero on the
	// initial attempt, one on the first retry, and so on.
	//
	// When the execution has ended, Attempt contains the zero-based
	// number of the last attempt made during the execution, so an
	// execution that ends after an initial attempt plus two retries
	// has an attempt number of 2.
	Attempt int

	// AttemptTimeouts is the count of the number of times an HTTP
	// request attempt timed out during the execution.
	AttemptTimeouts int

	// Response specifies the HTTP response received in the most recent
	// request attempt. It is nil if the most recent attempt ended in
	// an error, or while a current attempt is underway, or before the
	// execution starts.
	Response *Response

	// Err indicates the error received while making the most recent
	// request attempt. It is nil if the most recent attempt ended
	// without an error, or while a current attempt is underway, or
	// before the execution starts.
	//
	// Whenever Err is non-nil, it has the type *url.Error.
	//
	// While an execution is in flight, Err may fluctuate between nil
	// and various non-nil error values. Once the execution has ended,
	// Err will not change and has the same value as the error value
	// returned by the client's executing method.
	Err error

	// data contains arbitrary user data set by event handlers.
	data context.Context
}

// StatusCode returns the status code of the HTTP response from the
// most recent request attempt in the execution. If there is no HTTP
// response, 0 is returned.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Body returns the response body from the most recent request attempt
// in the execution, or nil if there is no HTTP response.
func (e *Execution) Body() []byte {
	if e.Response == nil {
		return nil
	}

	return e.Response.Body
}

// Header returns the HTTP response headers from the most recent
// request attempt in the execution. If there is no HTTP response, the
// nil header is returned.
//
// Note that a nil return value is always safe for read-only
// operations, since http.Header is a map type.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}

	return e.Response.Header
}

// Duration returns the duration of the execution.
//
// If the execution has not yet started, the duration is zero. If the
// execution has ended, the duration returned is equal to End minus
// Start. Otherwise, it is equal to the current time minus Start.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the execution has ended.
//
// If the return value is true, the execution is over, End is a
// non-zero time, and there will be no further changes to the
// execution.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// Timeout indicates whether Err currently contains a non-nil value
// which indicates a timeout. The timeout may have been caused by the
// connect phase, the read phase, or the per-attempt deadline.
func (e *Execution) Timeout() bool {
	cat := transient.Categorize(e.Err)
	return cat == transient.Timeout
}

// SetValue allows event handlers to store arbitrary data in the
// request plan execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue: it may not be nil; it must be comparable; and it
// should not be of type string or any other built-in type, to avoid
// collisions between different event handlers putting data into the
// same request execution.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
