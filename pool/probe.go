// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pool

import (
	"crypto/tls"
	"net"
	"os"
	"time"
)

// alive reports whether an idle connection is still usable. A peer
// that closed, reset, or sent unsolicited bytes while the connection
// sat idle makes it unusable; only a connection with nothing to read
// passes.
//
// For TLS connections the handshake must have completed; a half
// handshaken connection is treated as dead rather than reused.
func alive(conn net.Conn, isTLS bool) bool {
	if isTLS {
		tc, ok := conn.(*tls.Conn)
		if !ok || !tc.ConnectionState().HandshakeComplete {
			return false
		}
	}
	if ok, supported := probeSocket(conn); supported {
		return ok
	}
	return probeDeadline(conn)
}

// probeDeadline is the portable probe for connections without socket
// access (fallback platforms, in-memory pipes in tests). A read with
// an immediate deadline times out on a quiet live connection and
// returns promptly on a closed one.
func probeDeadline(conn net.Conn) bool {
	if err := conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return false
	}
	var buf [1]byte
	n, err := conn.Read(buf[:])
	conn.SetReadDeadline(time.Time{})
	if n > 0 {
		// Unsolicited bytes on an idle connection.
		return false
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return true
	}
	if os.IsTimeout(err) {
		return true
	}
	return false
}
