// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics provides an event handler recording per-attempt
// latency histograms, keyed by request host.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/hardwire-http/hardwire"
	"github.com/hardwire-http/hardwire/request"
)

// Histogram value bounds, in microseconds. Attempts outside the range
// are clamped by the histogram.
const (
	minLatencyMicros = 1
	maxLatencyMicros = int64(10 * time.Minute / time.Microsecond)
	sigFigs          = 3
)

type attemptStartKey struct{}

// A Recorder is a hardwire.Handler that measures the latency of every
// request attempt, successful or not, into one HDR histogram per
// request host.
//
// Install it for both attempt boundary events:
//
//	rec := metrics.NewRecorder()
//	handlers := &hardwire.HandlerGroup{}
//	handlers.PushBack(hardwire.BeforeAttempt, rec)
//	handlers.PushBack(hardwire.AfterAttempt, rec)
//
// Recorder is safe for concurrent use by multiple goroutines.
type Recorder struct {
	mu     sync.Mutex
	byHost map[string]*hdrhistogram.Histogram
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{byHost: make(map[string]*hdrhistogram.Histogram)}
}

// Handle implements hardwire.Handler. It stamps the attempt start on
// BeforeAttempt and records the elapsed time on AfterAttempt; other
// events are ignored, so the Recorder can be installed on every chain
// harmlessly.
func (r *Recorder) Handle(evt hardwire.Event, e *request.Execution) {
	switch evt {
	case hardwire.BeforeAttempt:
		e.SetValue(attemptStartKey{}, time.Now())
	case hardwire.AfterAttempt:
		start, ok := e.Value(attemptStartKey{}).(time.Time)
		if !ok {
			return
		}
		r.record(e.Plan.URL.Hostname(), time.Since(start))
	}
}

func (r *Recorder) record(host string, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.byHost[host]
	if h == nil {
		h = hdrhistogram.New(minLatencyMicros, maxLatencyMicros, sigFigs)
		r.byHost[host] = h
	}
	h.RecordValue(int64(latency / time.Microsecond))
}

// A Summary is a point-in-time digest of one host's attempt latency.
type Summary struct {
	Count int64
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Snapshot returns the latency digest for a host. A host with no
// recorded attempts yields the zero Summary.
func (r *Recorder) Snapshot(host string) Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.byHost[host]
	if h == nil {
		return Summary{}
	}
	return Summary{
		Count: h.TotalCount(),
		P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P95:   time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
		P99:   time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
		Max:   time.Duration(h.Max()) * time.Microsecond,
	}
}

// Hosts returns the hosts with recorded attempts, sorted.
func (r *Recorder) Hosts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	hosts := make([]string, 0, len(r.byHost))
	for host := range r.byHost {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}
