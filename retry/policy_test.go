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

func TestNewPolicy(t *testing.T) {
	p := NewPolicy(Times(1), NewFixedWaiter(time.Millisecond))
	e := &request.Execution{}
	assert.True(t, p.Decide(e))
	assert.Equal(t, time.Millisecond, p.Wait(e))
	e.Attempt = 1
	assert.False(t, p.Decide(e))
}

func TestNever(t *testing.T) {
	assert.False(t, Never.Decide(&request.Execution{}))
	assert.False(t, Never.Decide(&request.Execution{Err: errTimeout}))
	assert.False(t, Never.Decide(responseExecution(503)))
}

func TestDefaultPolicy(t *testing.T) {
	e := &request.Execution{Err: errReset}
	assert.True(t, DefaultPolicy.Decide(e))
	assert.Equal(t, 500*time.Millisecond, DefaultPolicy.Wait(e))
}
