// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package ratelimit provides a rolling-window request limiter that
// delays callers instead of rejecting them.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// A Limiter admits at most limit callers per rolling window. Wait
// blocks until admission; excess demand queues rather than failing,
// so a limited caller only ever errors when its context ends.
//
// A nil *Limiter admits everything, which lets callers hold one
// without checking whether limiting is enabled.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
}

// New constructs a Limiter admitting limit callers per window. A
// non-positive limit or window returns nil, the unlimited limiter.
func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	return &Limiter{limit: limit, window: window}
}

// Wait blocks until the caller is admitted under the rolling window,
// or until ctx ends, in which case it returns ctx.Err(). Admission is
// recorded at return, so each successful Wait consumes one slot.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	for {
		l.mu.Lock()
		now := time.Now()
		l.evict(now)
		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}
		// Full window: sleep until the oldest admission ages out,
		// then re-check under the lock.
		wait := l.window - now.Sub(l.stamps[0])
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// evict drops admissions older than the window. Callers hold l.mu.
func (l *Limiter) evict(now time.Time) {
	i := 0
	for i < len(l.stamps) && now.Sub(l.stamps[i]) >= l.window {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}

// Pending reports how many admissions currently occupy the window.
func (l *Limiter) Pending() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(time.Now())
	return len(l.stamps)
}
