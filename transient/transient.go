// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"syscall"
)

// A Category is the transience category of a particular error, as
// reported by function Categorize.
//
// The category Not means the error is not transient from the
// perspective of completing an HTTP request attempt successfully: a
// retry after encountering this error is very unlikely to succeed.
// All other categories indicate that a retry has some prospect of
// success.
type Category int

const (
	// Not indicates any non-transient error.
	Not Category = iota
	// Timeout indicates a client-side timeout: the connect phase, the
	// read phase, or the whole attempt exceeded its deadline. The
	// remote host may be going through a temporary period of slowness,
	// or the client may succeed on a future attempt waiting longer.
	//
	// Categorize returns Timeout if the error or any of its wrapped
	// causes has a Timeout() function that reports true.
	Timeout
	// ConnRefused indicates the remote host refused the connection
	// (POSIX ECONNREFUSED).
	//
	// Although connection refusal may be a permanent condition, it is
	// classified as transient because it can happen while the service
	// on the remote host is starting or restarting: it is temporarily
	// not listening on the port but will be once startup completes.
	ConnRefused
	// ConnReset indicates the remote host returned an RST packet on a
	// previously active TCP connection (POSIX ECONNRESET).
	//
	// This commonly happens when a service comes down while responding,
	// or behind load balancers during deploys, so it tends to indicate
	// a high probability of success on retry.
	ConnReset
)

// Categorize returns the transience category of the given error. A nil
// error, and an error that is not transient from the perspective of
// completing an HTTP request attempt, both produce the return value
// Not.
//
// In assessing transience, Categorize looks at wrapped cause errors
// contained within err, not just err itself. It never consults a
// Temporary() method, as the semantics of Temporary() aren't entirely
// clear.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if errno == syscall.ECONNRESET {
			return ConnReset
		} else if errno == syscall.ECONNREFUSED {
			return ConnRefused
		}
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
