// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package proxy

import (
	"fmt"
	"io"
	"net"
	"strconv"
)

// SOCKS5 protocol constants per RFC 1928 and RFC 1929.
const (
	socks5Version = 0x05

	socks5MethodNoAuth   = 0x00
	socks5MethodUserPass = 0x02
	socks5MethodReject   = 0xFF

	socks5CmdConnect = 0x01
	socks5AddrDomain = 0x03
	socks5AddrIPv4   = 0x01
	socks5AddrIPv6   = 0x04

	socks5AuthVersion = 0x01
	socks5ReplyOK     = 0x00
)

// socks5ReplyMinLen is the smallest reply the validator accepts: the
// version and reply-code bytes must both be present before the reply
// code can be trusted.
const socks5ReplyMinLen = 2

// Tunnel negotiates a SOCKS5 connection to host:port through the proxy
// already dialed on conn: greeting, optional username/password
// subnegotiation, then a CONNECT request using domain-name addressing.
// On return with a nil error the connection is an opaque byte tunnel
// to the target.
//
// Any short read, connection reset, or non-success reply abandons the
// tunnel attempt with a *TunnelError; retrying is the caller's
// concern, not this package's.
func Tunnel(conn net.Conn, host, port string, info Info) error {
	fail := func(reason string, err error) error {
		return &TunnelError{Proxy: SOCKS5, Reason: reason, Err: err}
	}

	if _, err := conn.Write(socks5Greeting(info.hasAuth())); err != nil {
		return fail("writing greeting", err)
	}
	var reply [2]byte
	if _, err := io.ReadFull(conn, reply[:]); err != nil {
		return fail("reading greeting reply", err)
	}
	if reply[0] != socks5Version {
		return fail(fmt.Sprintf("server speaks SOCKS version %d", reply[0]), nil)
	}

	switch reply[1] {
	case socks5MethodNoAuth:
	case socks5MethodUserPass:
		if !info.hasAuth() {
			return fail("server requires username/password auth but none configured", nil)
		}
		msg, err := socks5AuthRequest(info.Username, info.Password)
		if err != nil {
			return fail("building auth request", err)
		}
		if _, err := conn.Write(msg); err != nil {
			return fail("writing auth request", err)
		}
		var authReply [2]byte
		if _, err := io.ReadFull(conn, authReply[:]); err != nil {
			return fail("reading auth reply", err)
		}
		if authReply[1] != socks5ReplyOK {
			return &TunnelError{Proxy: SOCKS5, Status: int(authReply[1]),
				Reason: "authentication rejected"}
		}
	default:
		return fail(fmt.Sprintf("no acceptable auth method (server offered 0x%02x)", reply[1]), nil)
	}

	req, err := socks5ConnectRequest(host, port)
	if err != nil {
		return fail("building connect request", err)
	}
	if _, err := conn.Write(req); err != nil {
		return fail("writing connect request", err)
	}

	var head [4]byte
	if _, err := io.ReadFull(conn, head[:]); err != nil {
		return fail("reading connect reply", err)
	}
	if !socks5ReplySuccess(head[:]) {
		return &TunnelError{Proxy: SOCKS5, Status: int(head[1]),
			Reason: fmt.Sprintf("connect rejected with reply code 0x%02x", head[1])}
	}

	// Drain the bound address so no tunnel payload is misframed.
	var skip int
	switch head[3] {
	case socks5AddrIPv4:
		skip = net.IPv4len + 2
	case socks5AddrIPv6:
		skip = net.IPv6len + 2
	case socks5AddrDomain:
		var n [1]byte
		if _, err := io.ReadFull(conn, n[:]); err != nil {
			return fail("reading connect reply address", err)
		}
		skip = int(n[0]) + 2
	default:
		return fail(fmt.Sprintf("unknown address type 0x%02x in reply", head[3]), nil)
	}
	if _, err := io.CopyN(io.Discard, conn, int64(skip)); err != nil {
		return fail("reading connect reply address", err)
	}
	return nil
}

// socks5Greeting builds the client greeting. Without credentials it
// offers only no-auth; with credentials it offers no-auth and
// username/password.
func socks5Greeting(auth bool) []byte {
	if auth {
		return []byte{socks5Version, 0x02, socks5MethodNoAuth, socks5MethodUserPass}
	}
	return []byte{socks5Version, 0x01, socks5MethodNoAuth}
}

// socks5AuthRequest builds the RFC 1929 username/password
// subnegotiation message. Both fields carry a one-byte length prefix,
// so values longer than 255 bytes cannot be encoded.
func socks5AuthRequest(username, password string) ([]byte, error) {
	if len(username) > 255 || len(password) > 255 {
		return nil, fmt.Errorf("username or password exceeds 255 bytes")
	}
	msg := make([]byte, 0, 3+len(username)+len(password))
	msg = append(msg, socks5AuthVersion, byte(len(username)))
	msg = append(msg, username...)
	msg = append(msg, byte(len(password)))
	msg = append(msg, password...)
	return msg, nil
}

// socks5ConnectRequest builds a CONNECT request using domain-name
// addressing (ATYP 0x03) and a big-endian port.
func socks5ConnectRequest(host, port string) ([]byte, error) {
	if len(host) > 255 {
		return nil, fmt.Errorf("hostname %q exceeds 255 bytes", host)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 0xFFFF {
		return nil, fmt.Errorf("invalid port %q", port)
	}
	req := make([]byte, 0, 7+len(host))
	req = append(req, socks5Version, socks5CmdConnect, 0x00, socks5AddrDomain, byte(len(host)))
	req = append(req, host...)
	req = append(req, byte(p>>8), byte(p))
	return req, nil
}

// socks5ReplySuccess validates a server reply: it must meet the
// protocol's minimum length and carry the success code in its second
// byte. A short or truncated reply is never trusted as success.
func socks5ReplySuccess(reply []byte) bool {
	if len(reply) < socks5ReplyMinLen {
		return false
	}
	return reply[1] == socks5ReplyOK
}
