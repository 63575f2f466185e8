// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/hardwire-http/hardwire/request"
)

// A Waiter specifies how long to wait before retrying a failed HTTP
// request attempt.
//
// Implementations of Waiter must be safe for concurrent use by
// multiple goroutines.
//
// The client will not call the Waiter on a retry policy if the policy
// Decider returned false.
type Waiter interface {
	Wait(e *request.Execution) time.Duration
}

// DefaultWaiter is the default retry wait policy: exponential backoff
// starting at 500 milliseconds and doubling on each retry, capped at
// 30 seconds.
var DefaultWaiter = NewBackoffWaiter(500*time.Millisecond, 2.0, 30*time.Second)

// NewFixedWaiter constructs a Waiter that always returns the given
// duration.
//
// Use NewFixedWaiter to obtain a constant retry backoff.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Execution) time.Duration {
	return time.Duration(w)
}

// NewBackoffWaiter constructs a Waiter implementing deterministic
// exponential backoff without jitter.
//
// The wait before the first retry is initial; each subsequent retry
// multiplies the previous wait by factor, so the wait before retry n
// (1-based) is
//
//	initial * factor^(n-1)
//
// capped at max. A factor below 1 is treated as 1 (constant waits),
// and a non-positive max means no cap.
//
// Because the formula has no jitter the cumulative wait of a failing
// execution is exactly predictable, which matters when request
// deadlines are budgeted against retry schedules.
func NewBackoffWaiter(initial time.Duration, factor float64, max time.Duration) Waiter {
	if initial < 0 {
		panic("hardwire/retry: initial must not be negative")
	}
	if factor < 1 {
		factor = 1
	}
	return &backoffWaiter{
		initial: initial,
		factor:  factor,
		max:     max,
	}
}

type backoffWaiter struct {
	initial time.Duration
	factor  float64
	max     time.Duration
}

func (w *backoffWaiter) Wait(e *request.Execution) time.Duration {
	d := float64(w.initial)
	for i := 0; i < e.Attempt; i++ {
		d *= w.factor
		if w.max > 0 && d >= float64(w.max) {
			return w.max
		}
	}

	wait := time.Duration(d)
	if w.max > 0 && wait > w.max {
		wait = w.max
	}
	return wait
}
