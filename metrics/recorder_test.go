// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardwire-http/hardwire"
	"github.com/hardwire-http/hardwire/request"
)

func newExecution(t *testing.T, url string) *request.Execution {
	t.Helper()
	p, err := request.NewPlan("GET", url, nil)
	require.NoError(t, err)
	return &request.Execution{Plan: p}
}

func TestRecorderMeasuresAttempt(t *testing.T) {
	rec := NewRecorder()
	e := newExecution(t, "http://api.example.com/v1")

	rec.Handle(hardwire.BeforeAttempt, e)
	time.Sleep(5 * time.Millisecond)
	rec.Handle(hardwire.AfterAttempt, e)

	s := rec.Snapshot("api.example.com")
	assert.Equal(t, int64(1), s.Count)
	assert.GreaterOrEqual(t, s.Max, 5*time.Millisecond)
	assert.Less(t, s.Max, 10*time.Second)
}

func TestRecorderKeysByHost(t *testing.T) {
	rec := NewRecorder()
	for _, url := range []string{"http://a.example.com/", "http://b.example.com/", "http://a.example.com/x"} {
		e := newExecution(t, url)
		rec.Handle(hardwire.BeforeAttempt, e)
		rec.Handle(hardwire.AfterAttempt, e)
	}

	assert.Equal(t, []string{"a.example.com", "b.example.com"}, rec.Hosts())
	assert.Equal(t, int64(2), rec.Snapshot("a.example.com").Count)
	assert.Equal(t, int64(1), rec.Snapshot("b.example.com").Count)
}

func TestRecorderIgnoresOtherEvents(t *testing.T) {
	rec := NewRecorder()
	e := newExecution(t, "http://example.com/")

	rec.Handle(hardwire.BeforeExecutionStart, e)
	rec.Handle(hardwire.AfterAttempt, e) // no BeforeAttempt stamp
	rec.Handle(hardwire.AfterExecutionEnd, e)

	assert.Empty(t, rec.Hosts())
	assert.Equal(t, Summary{}, rec.Snapshot("example.com"))
}

func TestRecorderAsHandlerGroupMember(t *testing.T) {
	rec := NewRecorder()
	handlers := &hardwire.HandlerGroup{}
	handlers.PushBack(hardwire.BeforeAttempt, rec)
	handlers.PushBack(hardwire.AfterAttempt, rec)

	// The group is exercised end to end in the root package tests;
	// here just confirm Recorder satisfies the Handler contract.
	var _ hardwire.Handler = rec
}
