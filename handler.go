// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hardwire

import (
	"github.com/hardwire-http/hardwire/request"
)

// A Handler observes events raised while a Client executes a request
// plan. A handler may read and mutate the Execution, for example
// stashing per-attempt state with SetValue, the way metrics.Recorder
// measures attempt latency.
type Handler interface {
	Handle(Event, *request.Execution)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(Event, *request.Execution)

// Handle calls f(evt, e).
func (f HandlerFunc) Handle(evt Event, e *request.Execution) {
	f(evt, e)
}

// A HandlerGroup holds the handler chains installed on a Client, one
// chain per event. The zero value is an empty group ready for use.
//
// Install handlers before the group is shared with executing clients;
// PushBack is not synchronized with run.
type HandlerGroup struct {
	chains [][]Handler
}

// PushBack appends h to the chain for evt. Handlers run in the order
// they were pushed. A nil handler panics.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("hardwire: nil handler")
	}
	if g.chains == nil {
		g.chains = make([][]Handler, numEvents)
	}
	g.chains[evt] = append(g.chains[evt], h)
}

// run raises evt on every handler in its chain, in order.
func (g *HandlerGroup) run(evt Event, e *request.Execution) {
	if int(evt) >= len(g.chains) {
		return
	}
	for _, h := range g.chains[evt] {
		h.Handle(evt, e)
	}
}
