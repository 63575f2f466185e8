// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/hardwire-http/hardwire/request"
	"github.com/hardwire-http/hardwire/transient"
)

// A Decider decides if a retry should be done.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructors Times, StatusCode, and Before, and the
// built-in deciders TransientErr, OnTimeout, OnConnError, and
// Server5xx; or implement your own. Use DeciderFunc to convert an
// ordinary function into a Decider, and to compose deciders logically
// using DeciderFunc.And and DeciderFunc.Or.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface,
// and also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(e *request.Execution) bool

// DefaultTimes is the number of times DefaultPolicy will retry.
const DefaultTimes = 3

// DefaultDecider is a general-purpose retry decider suitable for
// common use cases. It allows up to DefaultTimes retries, and retries
// in the case of a transient error (TransientErr) or a 5xx server
// status (Server5xx).
var DefaultDecider = Times(DefaultTimes).And(Server5xx.Or(TransientErr))

// TransientErr is a decider that indicates a retry if the current
// error is transient according to transient.Categorize: a timeout, a
// refused connection, or a reset connection.
//
// TransientErr only looks at the error, so it always returns false
// when a valid HTTP response was received.
var TransientErr DeciderFunc = func(e *request.Execution) bool {
	return transient.Categorize(e.Err) != transient.Not
}

// OnTimeout is a decider matching only the timeout failure class:
// connect timeouts, read timeouts, and per-attempt deadline expiry.
var OnTimeout DeciderFunc = func(e *request.Execution) bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// OnConnError is a decider matching only the connection-error failure
// class: refused and reset connections.
var OnConnError DeciderFunc = func(e *request.Execution) bool {
	cat := transient.Categorize(e.Err)
	return cat == transient.ConnRefused || cat == transient.ConnReset
}

// Server5xx is a decider matching any valid HTTP response whose status
// code is in the 5xx range.
var Server5xx DeciderFunc = func(e *request.Execution) bool {
	code := e.StatusCode()
	return code >= 500 && code <= 599
}

// Decide returns true if a retry should be done, and false otherwise,
// after examining the current HTTP request plan execution state.
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes two retry deciders into a new decider which returns
// true if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// Times constructs a retry decider which allows up to n retries. The
// returned decider returns true while the execution attempt index
// e.Attempt is less than n, and false otherwise. The total number of
// attempts is therefore n+1.
func Times(n int) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Attempt < n
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the start of the logical HTTP
// request plan execution. The returned decider returns true while the
// execution duration is less than d, and false afterward.
func Before(d time.Duration) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Duration() < d
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// HTTP response status code. If the most recent request attempt within
// the plan execution received a valid HTTP response, and the response
// status code is contained in the list ss, the decider returns true.
// Otherwise, it returns false.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(e *request.Execution) bool {
		for _, s := range ss2 {
			if e.StatusCode() == s {
				return true
			}
		}
		return false
	}
}

// Classes assembles a decider from independently toggleable failure
// classes: client-side timeouts, connection errors (refused or reset),
// and 5xx server statuses. A class whose flag is false never triggers
// a retry. If every flag is false the returned decider never retries.
//
// The client uses Classes to translate its configuration's
// RetryOnTimeout, RetryOnConnError, and RetryOn5xx flags into a
// decider, bounded by Times.
func Classes(onTimeout, onConnError, on5xx bool) DeciderFunc {
	return func(e *request.Execution) bool {
		if onTimeout && OnTimeout(e) {
			return true
		}
		if onConnError && OnConnError(e) {
			return true
		}
		if on5xx && Server5xx(e) {
			return true
		}
		return false
	}
}
