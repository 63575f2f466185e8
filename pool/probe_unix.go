// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package pool

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// probeSocket checks liveness at the socket level with a single
// non-blocking MSG_PEEK. It observes the receive queue without
// consuming from it, so the probe never disturbs connection state.
//
//	EAGAIN        nothing pending, peer still there: alive
//	n == 0        orderly FIN from the peer: dead
//	n > 0         unsolicited bytes while idle: dead
//	other errno   reset or otherwise broken: dead
//
// supported is false when the connection does not expose a raw
// socket (for example net.Pipe), in which case the caller falls back
// to the deadline probe.
func probeSocket(conn net.Conn) (ok, supported bool) {
	raw := conn
	if u, has := conn.(interface{ NetConn() net.Conn }); has {
		raw = u.NetConn()
	}
	sc, has := raw.(syscall.Conn)
	if !has {
		return false, false
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return false, false
	}
	var live bool
	ctrlErr := rc.Control(func(fd uintptr) {
		var buf [1]byte
		n, _, err := unix.Recvfrom(int(fd), buf[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
		switch {
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			live = true
		case err == nil && n == 0:
			live = false
		default:
			live = false
		}
	})
	if ctrlErr != nil {
		return false, false
	}
	return live, true
}
