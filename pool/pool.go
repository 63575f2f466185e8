// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package pool keeps transport connections for reuse across
// requests, keyed by host and port, with liveness probing so a
// connection the peer quietly dropped is never handed out.
package pool

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"
)

const (
	// DefaultMaxPerHost is the per-host connection cap used when the
	// pool is constructed with a non-positive cap.
	DefaultMaxPerHost = 10
	// DefaultIdleTimeout is the idle expiry used when the pool is
	// constructed with a non-positive idle timeout.
	DefaultIdleTimeout = 60 * time.Second
)

// A DialFunc opens a new connection to the pool key's target. The
// pool calls it on a miss; it is expected to perform any proxy
// tunneling and TLS handshaking so that the returned connection is
// ready for request bytes.
type DialFunc func(ctx context.Context) (net.Conn, error)

// A Conn is a pooled connection handle. While a caller holds a Conn
// obtained from Acquire, it has exclusive use of the underlying
// transport connection; handing it back via Release (or Close, for
// overflow connections) ends that ownership.
type Conn struct {
	conn     net.Conn
	key      string
	lastUsed time.Time
	inUse    bool
	pooled   bool
	isTLS    bool
}

// NetConn returns the underlying transport connection.
func (c *Conn) NetConn() net.Conn {
	return c.conn
}

// Pooled reports whether the connection lives in the pool table. An
// overflow connection, created while the pool was at its per-host
// cap, is not tracked: its user must Close it after the request
// instead of releasing it.
func (c *Conn) Pooled() bool {
	return c.pooled
}

// Close closes the underlying transport connection.
func (c *Conn) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Stats is a snapshot of pool occupancy, split by protocol class.
type Stats struct {
	PlainTotal  int
	PlainActive int
	TLSTotal    int
	TLSActive   int
}

// A Pool keeps reusable transport connections keyed by "host:port",
// enforcing a per-host capacity and expiring idle entries. All table
// state is guarded by one mutex scoped to the whole pool, so the
// find-and-mark-in-use step of Acquire is atomic: two goroutines can
// never select the same idle entry.
//
// Pool operations never fail because of capacity. When a key is full,
// Acquire degrades to dialing an overflow connection that is not
// tracked by the table.
type Pool struct {
	mu          sync.Mutex
	table       map[string][]*Conn
	maxPerHost  int
	idleTimeout time.Duration
}

// New constructs a Pool with the given per-host connection cap and
// idle expiry. Non-positive values select DefaultMaxPerHost and
// DefaultIdleTimeout.
func New(maxPerHost int, idleTimeout time.Duration) *Pool {
	if maxPerHost <= 0 {
		maxPerHost = DefaultMaxPerHost
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Pool{
		table:       make(map[string][]*Conn),
		maxPerHost:  maxPerHost,
		idleTimeout: idleTimeout,
	}
}

// Acquire returns a connection to host:port, reusing a live idle
// pooled connection when one exists and dialing a new one otherwise.
//
// The scan is first-fit over the key's entries: idle entries past the
// idle timeout are dropped, the first idle entry that passes the
// liveness probe is claimed, and entries failing the probe are
// dropped. When nothing is reusable and the key is below the per-host
// cap, a slot is reserved and dial is invoked; when the key is at
// cap, dial is invoked for an untracked overflow connection (see
// Conn.Pooled).
//
// Liveness failures are never surfaced: a dead entry is silently
// discarded and replaced. The only error returned is dial's.
func (p *Pool) Acquire(ctx context.Context, host, port string, dial DialFunc) (*Conn, error) {
	key := net.JoinHostPort(host, port)
	now := time.Now()

	p.mu.Lock()
	conns := p.table[key]
	kept := conns[:0]
	var claimed *Conn
	for _, c := range conns {
		if claimed != nil {
			kept = append(kept, c)
			continue
		}
		if c.inUse {
			kept = append(kept, c)
			continue
		}
		if now.Sub(c.lastUsed) > p.idleTimeout {
			c.conn.Close()
			continue
		}
		if !alive(c.conn, c.isTLS) {
			c.conn.Close()
			continue
		}
		c.inUse = true
		c.lastUsed = now
		claimed = c
		kept = append(kept, c)
	}
	p.table[key] = kept
	if claimed != nil {
		p.mu.Unlock()
		return claimed, nil
	}

	if len(kept) < p.maxPerHost {
		// Reserve the slot before dialing so concurrent acquires
		// cannot overshoot the cap, but dial outside the lock.
		reserved := &Conn{key: key, lastUsed: now, inUse: true, pooled: true}
		p.table[key] = append(kept, reserved)
		p.mu.Unlock()

		conn, err := dial(ctx)
		if err != nil {
			p.remove(reserved)
			return nil, err
		}
		// The reserved entry is already visible to Stats and Clear, so
		// fill it in under the table lock.
		p.mu.Lock()
		reserved.conn = conn
		reserved.isTLS = isTLSConn(conn)
		p.mu.Unlock()
		return reserved, nil
	}
	p.mu.Unlock()

	// Pool full for this key: overflow connection, never inserted.
	conn, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn, key: key, lastUsed: now, inUse: true, isTLS: isTLSConn(conn)}, nil
}

// Release hands a connection back to the pool. With keepAlive true
// the entry becomes idle and eligible for reuse; with keepAlive false
// the entry is removed from the table and closed.
//
// Releasing a connection that is not in the table (an overflow
// connection, or one already removed) is a no-op; overflow
// connections are closed by their user, not by the pool.
func (p *Pool) Release(c *Conn, keepAlive bool) {
	if c == nil || !c.pooled {
		return
	}
	if !keepAlive {
		if p.remove(c) {
			c.conn.Close()
		}
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, entry := range p.table[c.key] {
		if entry == c {
			entry.inUse = false
			entry.lastUsed = time.Now()
			return
		}
	}
}

// remove deletes c from the table by identity. It reports whether the
// entry was present.
func (p *Pool) remove(c *Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	conns := p.table[c.key]
	for i, entry := range conns {
		if entry == c {
			p.table[c.key] = append(conns[:i], conns[i+1:]...)
			return true
		}
	}
	return false
}

// Stats returns a snapshot of tracked connections, split into plain
// and TLS classes. Overflow connections are not counted: they are not
// the pool's to track.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	var s Stats
	for _, conns := range p.table {
		for _, c := range conns {
			if c.isTLS {
				s.TLSTotal++
				if c.inUse {
					s.TLSActive++
				}
			} else {
				s.PlainTotal++
				if c.inUse {
					s.PlainActive++
				}
			}
		}
	}
	return s
}

// CloseIdle closes and removes every idle entry, leaving in-use
// connections to finish their requests and be discarded on release.
func (p *Pool) CloseIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, conns := range p.table {
		kept := conns[:0]
		for _, c := range conns {
			if c.inUse {
				kept = append(kept, c)
				continue
			}
			c.conn.Close()
		}
		if len(kept) == 0 {
			delete(p.table, key)
		} else {
			p.table[key] = kept
		}
	}
}

// Clear closes every tracked connection and empties the table.
// Connections currently in use are closed too, so Clear is only safe
// when no requests are in flight; CloseIdleConnections on the client
// is the gentler surface.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, conns := range p.table {
		for _, c := range conns {
			if c.conn != nil {
				c.conn.Close()
			}
		}
		delete(p.table, key)
	}
}

// isTLSConn reports whether conn is TLS-wrapped.
func isTLSConn(conn net.Conn) bool {
	_, ok := conn.(*tls.Conn)
	return ok
}
