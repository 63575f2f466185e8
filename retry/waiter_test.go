// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"testing"
	"time"

	"github.com/hardwire-http/hardwire/request"
	"github.com/stretchr/testify/assert"
)

func TestNewFixedWaiter(t *testing.T) {
	w := NewFixedWaiter(250 * time.Millisecond)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 250*time.Millisecond, w.Wait(&request.Execution{Attempt: i}))
	}
}

func TestNewBackoffWaiter(t *testing.T) {
	t.Run("invalid initial", func(t *testing.T) {
		assert.Panics(t, func() {
			NewBackoffWaiter(-time.Second, 2.0, 0)
		})
	})
	t.Run("doubling", func(t *testing.T) {
		w := NewBackoffWaiter(500*time.Millisecond, 2.0, 0)
		assert.Equal(t, 500*time.Millisecond, w.Wait(&request.Execution{Attempt: 0}))
		assert.Equal(t, 1000*time.Millisecond, w.Wait(&request.Execution{Attempt: 1}))
		assert.Equal(t, 2000*time.Millisecond, w.Wait(&request.Execution{Attempt: 2}))
	})
	t.Run("cumulative wait is deterministic", func(t *testing.T) {
		// max_retries=2, initial=500ms, factor=2.0 must wait exactly
		// 500ms then 1000ms before the terminal failure.
		w := NewBackoffWaiter(500*time.Millisecond, 2.0, 0)
		total := w.Wait(&request.Execution{Attempt: 0}) + w.Wait(&request.Execution{Attempt: 1})
		assert.Equal(t, 1500*time.Millisecond, total)
	})
	t.Run("factor below one treated as constant", func(t *testing.T) {
		w := NewBackoffWaiter(100*time.Millisecond, 0.5, 0)
		assert.Equal(t, 100*time.Millisecond, w.Wait(&request.Execution{Attempt: 0}))
		assert.Equal(t, 100*time.Millisecond, w.Wait(&request.Execution{Attempt: 7}))
	})
	t.Run("cap", func(t *testing.T) {
		w := NewBackoffWaiter(time.Second, 10.0, 5*time.Second)
		assert.Equal(t, time.Second, w.Wait(&request.Execution{Attempt: 0}))
		assert.Equal(t, 5*time.Second, w.Wait(&request.Execution{Attempt: 1}))
		assert.Equal(t, 5*time.Second, w.Wait(&request.Execution{Attempt: 40}))
	})
	t.Run("huge attempt does not overflow", func(t *testing.T) {
		w := NewBackoffWaiter(time.Second, 2.0, time.Minute)
		assert.Equal(t, time.Minute, w.Wait(&request.Execution{Attempt: 500}))
	})
}

func TestDefaultWaiter(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, DefaultWaiter.Wait(&request.Execution{Attempt: 0}))
	assert.Equal(t, time.Second, DefaultWaiter.Wait(&request.Execution{Attempt: 1}))
	assert.Equal(t, 30*time.Second, DefaultWaiter.Wait(&request.Execution{Attempt: 25}))
}
