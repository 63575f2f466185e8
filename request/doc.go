// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package request provides the value objects a hardwire client
// executes: the reusable request Plan, the fully-buffered Response,
// and the Execution which tracks the state of one plan execution
// across its request attempts.
//
// A Plan is the logical HTTP request. Unlike http.Request, its body is
// a pre-buffered byte slice, so the same plan can be replayed for as
// many attempts as the client's retry policy allows. An Execution is
// created per plan execution and is shared with retry policies,
// timeout policies, and event handlers as the execution progresses.
package request
