// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"net/url"
	"testing"
	"time"

	"github.com/hardwire-http/hardwire/request"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "deadline exceeded" }
func (timeoutErr) Timeout() bool { return true }

var errTimeout = &url.Error{Op: "Get", URL: "http://example.com", Err: timeoutErr{}}

func TestFixed(t *testing.T) {
	p := Fixed(time.Second)
	assert.Equal(t, time.Second, p.Timeout(&request.Execution{}))
	assert.Equal(t, time.Second, p.Timeout(&request.Execution{
		Err:             errTimeout,
		AttemptTimeouts: 3,
	}))
}

func TestAdaptive(t *testing.T) {
	p := Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
	t.Run("usual", func(t *testing.T) {
		assert.Equal(t, 200*time.Millisecond, p.Timeout(&request.Execution{}))
		assert.Equal(t, 200*time.Millisecond, p.Timeout(&request.Execution{AttemptTimeouts: 2}))
	})
	t.Run("after timeouts", func(t *testing.T) {
		e := &request.Execution{Err: errTimeout, AttemptTimeouts: 1}
		assert.Equal(t, time.Second, p.Timeout(e))
		e.AttemptTimeouts = 2
		assert.Equal(t, 10*time.Second, p.Timeout(e))
		e.AttemptTimeouts = 9
		assert.Equal(t, 10*time.Second, p.Timeout(e))
	})
}

func TestDefaultPolicy(t *testing.T) {
	assert.Equal(t, 60*time.Second, DefaultPolicy.Timeout(&request.Execution{}))
}
