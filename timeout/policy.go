// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/hardwire-http/hardwire/request"
)

// A Policy directs how the client sets the overall deadline for each
// request attempt within a plan execution: the initial attempt as
// well as any retries.
//
// The attempt deadline bounds the whole attempt end to end (connect,
// tunnel, write, read). The finer-grained connect and read phase
// timeouts are part of the client configuration, not of this policy.
//
// Implementations of Policy must be safe for concurrent use by
// multiple goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the next HTTP request
	// attempt within the plan execution.
	//
	// Parameter e contains the current state of the HTTP request plan
	// execution.
	Timeout(e *request.Execution) time.Duration
}

// DefaultPolicy is the default timeout policy. It sets a fixed timeout
// of 60 seconds on each attempt.
var DefaultPolicy Policy = Fixed(60 * time.Second)

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(1<<63 - 1)

// Fixed constructs a timeout policy that uses the same value to set
// every attempt timeout. The return value is a timeout policy that
// always returns the value d.
//
// Use Fixed to create the typical timeout behavior supported by most
// retrying HTTP client software.
func Fixed(d time.Duration) Policy {
	return policy([]time.Duration{d})
}

// Adaptive constructs a timeout policy that varies the next timeout
// value if the previous attempt timed out.
//
// Use Adaptive if the remote service often exhibits one-off slow
// response times that can be cured by quickly timing out and retrying,
// but you also need to protect your application (and the remote
// service) from retry storms if the remote service goes through a
// burst of slowness.
//
// Parameter usual is the timeout the policy returns for an initial
// attempt and for any retry where the immediately preceding attempt
// did not time out. Parameter after contains the timeouts returned
// when the previous attempt did time out: after[0] following the
// first timeout of the execution, after[1] following the second, and
// so on, with the last element repeated once after is exhausted.
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	p := make([]time.Duration, 1, 1+len(after))
	p[0] = usual
	return policy(append(p, after...))
}

type policy []time.Duration

func (p policy) Timeout(e *request.Execution) time.Duration {
	if !e.Timeout() {
		return p[0]
	}

	i := e.AttemptTimeouts
	if i > len(p)-1 {
		i = len(p) - 1
	}

	return p[i]
}
