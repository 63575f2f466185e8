// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pool

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer accepts loopback connections and holds them open so the
// pool's liveness probe sees a quiet, live peer.
type testServer struct {
	t  *testing.T
	ln net.Listener

	mu    sync.Mutex
	conns []net.Conn
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &testServer{t: t, ln: ln}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.conns = append(s.conns, conn)
			s.mu.Unlock()
		}
	}()
	t.Cleanup(s.Close)
	return s
}

func (s *testServer) Close() {
	s.ln.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
}

// CloseAccepted closes every connection the server has accepted so
// far, simulating a peer dropping idle connections.
func (s *testServer) CloseAccepted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
}

// WriteAccepted pushes bytes into every accepted connection.
func (s *testServer) WriteAccepted(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.Write(b)
	}
}

func (s *testServer) HostPort() (string, string) {
	host, port, err := net.SplitHostPort(s.ln.Addr().String())
	require.NoError(s.t, err)
	return host, port
}

// countingDialer dials the server and counts how many connections it
// created, so tests can tell a pool hit from a miss.
type countingDialer struct {
	addr string

	mu sync.Mutex
	n  int
}

func (d *countingDialer) Dial(_ context.Context) (net.Conn, error) {
	d.mu.Lock()
	d.n++
	d.mu.Unlock()
	return net.Dial("tcp", d.addr)
}

func (d *countingDialer) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.n
}

func TestPoolReuse(t *testing.T) {
	s := newTestServer(t)
	host, port := s.HostPort()
	d := &countingDialer{addr: s.ln.Addr().String()}
	p := New(4, time.Minute)

	c1, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	require.True(t, c1.Pooled())
	p.Release(c1, true)

	c2, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	assert.Same(t, c1, c2, "idle connection should be reused")
	assert.Equal(t, 1, d.Count())
	p.Release(c2, true)
}

func TestPoolNoReuseWhileInUse(t *testing.T) {
	s := newTestServer(t)
	host, port := s.HostPort()
	d := &countingDialer{addr: s.ln.Addr().String()}
	p := New(4, time.Minute)

	c1, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	c2, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	assert.NotSame(t, c1, c2)
	assert.Equal(t, 2, d.Count())
	p.Release(c1, true)
	p.Release(c2, true)
}

func TestPoolCap(t *testing.T) {
	s := newTestServer(t)
	host, port := s.HostPort()
	d := &countingDialer{addr: s.ln.Addr().String()}
	p := New(2, time.Minute)

	var conns []*Conn
	for i := 0; i < 3; i++ {
		c, err := p.Acquire(context.Background(), host, port, d.Dial)
		require.NoError(t, err)
		conns = append(conns, c)
	}

	assert.True(t, conns[0].Pooled())
	assert.True(t, conns[1].Pooled())
	assert.False(t, conns[2].Pooled(), "connection past the cap must be overflow")

	stats := p.Stats()
	assert.Equal(t, 2, stats.PlainTotal, "overflow connections are not tracked")
	assert.Equal(t, 2, stats.PlainActive)

	// Releasing an overflow connection is a no-op; its user closes it.
	p.Release(conns[2], true)
	assert.Equal(t, 2, p.Stats().PlainTotal)
	require.NoError(t, conns[2].Close())

	p.Release(conns[0], true)
	p.Release(conns[1], true)
	stats = p.Stats()
	assert.Equal(t, 2, stats.PlainTotal)
	assert.Equal(t, 0, stats.PlainActive)
}

func TestPoolReleaseNoKeepAlive(t *testing.T) {
	s := newTestServer(t)
	host, port := s.HostPort()
	d := &countingDialer{addr: s.ln.Addr().String()}
	p := New(4, time.Minute)

	c1, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	p.Release(c1, false)
	assert.Equal(t, 0, p.Stats().PlainTotal, "keep_alive=false must remove the entry")

	c2, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	assert.NotSame(t, c1, c2)
	assert.Equal(t, 2, d.Count())
	p.Release(c2, true)
}

func TestPoolIdleTimeout(t *testing.T) {
	s := newTestServer(t)
	host, port := s.HostPort()
	d := &countingDialer{addr: s.ln.Addr().String()}
	p := New(4, 20*time.Millisecond)

	c1, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	p.Release(c1, true)

	time.Sleep(60 * time.Millisecond)

	c2, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	assert.NotSame(t, c1, c2, "expired idle connection must not be reused")
	assert.Equal(t, 2, d.Count())
	assert.Equal(t, 1, p.Stats().PlainTotal)
	p.Release(c2, true)
}

func TestPoolDeadPeerDetected(t *testing.T) {
	s := newTestServer(t)
	host, port := s.HostPort()
	d := &countingDialer{addr: s.ln.Addr().String()}
	p := New(4, time.Minute)

	c1, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	p.Release(c1, true)

	s.CloseAccepted()
	// Let the FIN land before the next acquire probes.
	time.Sleep(50 * time.Millisecond)

	c2, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	assert.NotSame(t, c1, c2, "closed connection must fail the liveness probe")
	assert.Equal(t, 2, d.Count())
	p.Release(c2, true)
}

func TestPoolUnsolicitedBytesDetected(t *testing.T) {
	s := newTestServer(t)
	host, port := s.HostPort()
	d := &countingDialer{addr: s.ln.Addr().String()}
	p := New(4, time.Minute)

	c1, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	p.Release(c1, true)

	s.WriteAccepted([]byte("x"))
	time.Sleep(50 * time.Millisecond)

	c2, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	assert.NotSame(t, c1, c2, "idle connection with pending bytes must be dropped")
	p.Release(c2, true)
}

func TestPoolDialError(t *testing.T) {
	p := New(4, time.Minute)
	errDial := func(context.Context) (net.Conn, error) {
		return nil, context.DeadlineExceeded
	}
	_, err := p.Acquire(context.Background(), "198.51.100.1", "80", errDial)
	require.Error(t, err)
	assert.Equal(t, 0, p.Stats().PlainTotal, "failed dial must not leave a reserved slot")
}

func TestPoolClear(t *testing.T) {
	s := newTestServer(t)
	host, port := s.HostPort()
	d := &countingDialer{addr: s.ln.Addr().String()}
	p := New(4, time.Minute)

	c, err := p.Acquire(context.Background(), host, port, d.Dial)
	require.NoError(t, err)
	p.Release(c, true)

	p.Clear()
	assert.Equal(t, Stats{}, p.Stats())
}

// The reserved dial slot is in the table while the dial is still in
// flight, so concurrent Stats snapshots must not race with the slot
// being filled in. Run with the race detector on.
func TestPoolStatsDuringDial(t *testing.T) {
	s := newTestServer(t)
	host, port := s.HostPort()
	p := New(1, time.Minute)

	slowDial := func(context.Context) (net.Conn, error) {
		time.Sleep(30 * time.Millisecond)
		return net.Dial("tcp", s.ln.Addr().String())
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				p.Stats()
			}
		}
	}()

	c, err := p.Acquire(context.Background(), host, port, slowDial)
	close(stop)
	wg.Wait()
	require.NoError(t, err)
	assert.True(t, c.Pooled())
	assert.Equal(t, Stats{PlainTotal: 1, PlainActive: 1}, p.Stats())
	p.Release(c, true)
}

func TestPoolKeysAreIndependent(t *testing.T) {
	s1 := newTestServer(t)
	s2 := newTestServer(t)
	host1, port1 := s1.HostPort()
	host2, port2 := s2.HostPort()
	d1 := &countingDialer{addr: s1.ln.Addr().String()}
	d2 := &countingDialer{addr: s2.ln.Addr().String()}
	p := New(1, time.Minute)

	c1, err := p.Acquire(context.Background(), host1, port1, d1.Dial)
	require.NoError(t, err)
	c2, err := p.Acquire(context.Background(), host2, port2, d2.Dial)
	require.NoError(t, err)

	assert.True(t, c1.Pooled())
	assert.True(t, c2.Pooled(), "cap is per host, not global")
	p.Release(c1, true)
	p.Release(c2, true)
}
