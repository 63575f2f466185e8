// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hardwire

import (
	"context"

	"github.com/hardwire-http/hardwire/request"
)

// A Future is the handle to a plan execution running concurrently
// with its caller. It completes exactly once; after completion the
// result never changes.
//
// DoAsync runs the same execution engine as Do, so blocking and
// asynchronous callers see identical pooling, retry, rate limit, and
// proxy behavior. Every internal wait in the engine (retry backoff,
// rate limiter admission, connection I/O) races against the plan's
// context, so an asynchronous execution is cancelled the same way a
// blocking one is: cancel the plan context, then wait for the Future
// to complete.
type Future struct {
	done chan struct{}
	e    *request.Execution
	err  error
}

// DoAsync starts executing an HTTP request plan without blocking the
// caller and returns a Future for the result.
//
// The execution follows the same policies, and fires the same events,
// as Client.Do. Handlers installed on the client must therefore be
// safe for concurrent use when the client mixes Do and DoAsync calls.
func (c *Client) DoAsync(p *request.Plan) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.e, f.err = c.Do(p)
	}()
	return f
}

// Done returns a channel that is closed when the execution has
// completed and its result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the execution completes or ctx ends.
//
// When ctx ends first, Wait returns ctx.Err() and the execution keeps
// running; cancel the plan's context to stop it. Note the two
// contexts are distinct: ctx bounds this Wait call only.
func (f *Future) Wait(ctx context.Context) (*request.Execution, error) {
	select {
	case <-f.done:
		return f.e, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the completed execution's result. It must only be
// called after Done is closed or Wait has returned successfully;
// calling it earlier races with the executing goroutine.
func (f *Future) Result() (*request.Execution, error) {
	return f.e, f.err
}
