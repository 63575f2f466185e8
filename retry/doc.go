// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry defines the retry policy plug-in interface for the
// hardwire HTTP client, along with built-in retry policy components.
//
// A retry Policy is the composition of a Decider, which decides
// whether the most recent failed attempt should be retried, and a
// Waiter, which computes the backoff wait before the next attempt.
// Deciders compose logically with And and Or, so a policy matching
// the client's configurable failure classes (timeouts, connection
// errors, 5xx statuses) is assembled as:
//
//	retry.NewPolicy(
//		retry.Times(2).And(retry.Classes(true, true, false)),
//		retry.NewBackoffWaiter(500*time.Millisecond, 2.0, 0),
//	)
package retry
