// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package proxy

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocks5Greeting(t *testing.T) {
	assert.Equal(t, []byte{0x05, 0x01, 0x00}, socks5Greeting(false))
	assert.Equal(t, []byte{0x05, 0x02, 0x00, 0x02}, socks5Greeting(true))
}

func TestSocks5AuthRequest(t *testing.T) {
	t.Run("encoding", func(t *testing.T) {
		msg, err := socks5AuthRequest("user", "pass")
		require.NoError(t, err)
		expected := append([]byte{0x01, 0x04}, "user"...)
		expected = append(expected, 0x04)
		expected = append(expected, "pass"...)
		assert.Equal(t, expected, msg)
	})
	t.Run("empty password", func(t *testing.T) {
		msg, err := socks5AuthRequest("u", "")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x01, 'u', 0x00}, msg)
	})
	t.Run("oversized", func(t *testing.T) {
		long := make([]byte, 256)
		_, err := socks5AuthRequest(string(long), "p")
		assert.Error(t, err)
	})
}

func TestSocks5ConnectRequest(t *testing.T) {
	t.Run("example.com 443", func(t *testing.T) {
		req, err := socks5ConnectRequest("example.com", "443")
		require.NoError(t, err)
		expected := append([]byte{0x05, 0x01, 0x00, 0x03, 0x0B}, "example.com"...)
		expected = append(expected, 0x01, 0xBB)
		assert.Equal(t, expected, req)
	})
	t.Run("port byte order", func(t *testing.T) {
		req, err := socks5ConnectRequest("x", "80")
		require.NoError(t, err)
		n := len(req)
		assert.Equal(t, byte(0x00), req[n-2])
		assert.Equal(t, byte(0x50), req[n-1])
	})
	t.Run("invalid ports", func(t *testing.T) {
		for _, port := range []string{"", "abc", "0", "-1", "65536"} {
			_, err := socks5ConnectRequest("example.com", port)
			assert.Error(t, err, "port %q", port)
		}
	})
	t.Run("oversized hostname", func(t *testing.T) {
		long := make([]byte, 256)
		for i := range long {
			long[i] = 'a'
		}
		_, err := socks5ConnectRequest(string(long), "80")
		assert.Error(t, err)
	})
}

func TestSocks5ReplySuccess(t *testing.T) {
	assert.True(t, socks5ReplySuccess([]byte{0x05, 0x00}))
	assert.True(t, socks5ReplySuccess([]byte{0x05, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0}))
	assert.False(t, socks5ReplySuccess(nil), "empty reply")
	assert.False(t, socks5ReplySuccess([]byte{0x05}), "short reply")
	assert.False(t, socks5ReplySuccess([]byte{0x05, 0x01}), "general failure")
	assert.False(t, socks5ReplySuccess([]byte{0x05, 0x05}), "connection refused")
}

// socks5Server runs a scripted SOCKS5 server side on one connection.
func socks5Server(t *testing.T, ln net.Listener, script func(conn net.Conn)) chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		script(conn)
	}()
	return done
}

func dialLoopback(t *testing.T) (net.Listener, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	return ln, conn
}

func TestTunnel(t *testing.T) {
	t.Run("no auth success", func(t *testing.T) {
		ln, conn := dialLoopback(t)
		defer ln.Close()
		defer conn.Close()
		done := socks5Server(t, ln, func(s net.Conn) {
			greeting := make([]byte, 3)
			if _, err := io.ReadFull(s, greeting); err != nil {
				return
			}
			s.Write([]byte{0x05, 0x00})
			req := make([]byte, 4+1+len("example.com")+2)
			if _, err := io.ReadFull(s, req); err != nil {
				return
			}
			s.Write([]byte{0x05, 0x00, 0x00, 0x01, 127, 0, 0, 1, 0x1F, 0x90})
		})
		err := Tunnel(conn, "example.com", "80", Info{Type: SOCKS5})
		assert.NoError(t, err)
		<-done
	})
	t.Run("username password challenge", func(t *testing.T) {
		ln, conn := dialLoopback(t)
		defer ln.Close()
		defer conn.Close()
		done := socks5Server(t, ln, func(s net.Conn) {
			greeting := make([]byte, 4)
			if _, err := io.ReadFull(s, greeting); err != nil {
				return
			}
			s.Write([]byte{0x05, 0x02})
			auth := make([]byte, 3+len("alice")+len("secret"))
			if _, err := io.ReadFull(s, auth); err != nil {
				return
			}
			s.Write([]byte{0x01, 0x00})
			req := make([]byte, 4+1+len("example.com")+2)
			if _, err := io.ReadFull(s, req); err != nil {
				return
			}
			s.Write([]byte{0x05, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
		})
		info := Info{Type: SOCKS5, Username: "alice", Password: "secret"}
		err := Tunnel(conn, "example.com", "80", info)
		assert.NoError(t, err)
		<-done
	})
	t.Run("auth rejected", func(t *testing.T) {
		ln, conn := dialLoopback(t)
		defer ln.Close()
		defer conn.Close()
		socks5Server(t, ln, func(s net.Conn) {
			greeting := make([]byte, 4)
			if _, err := io.ReadFull(s, greeting); err != nil {
				return
			}
			s.Write([]byte{0x05, 0x02})
			auth := make([]byte, 3+len("alice")+len("wrong"))
			if _, err := io.ReadFull(s, auth); err != nil {
				return
			}
			s.Write([]byte{0x01, 0x01})
		})
		info := Info{Type: SOCKS5, Username: "alice", Password: "wrong"}
		err := Tunnel(conn, "example.com", "80", info)
		var te *TunnelError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "authentication rejected", te.Reason)
	})
	t.Run("connect rejected", func(t *testing.T) {
		ln, conn := dialLoopback(t)
		defer ln.Close()
		defer conn.Close()
		socks5Server(t, ln, func(s net.Conn) {
			greeting := make([]byte, 3)
			if _, err := io.ReadFull(s, greeting); err != nil {
				return
			}
			s.Write([]byte{0x05, 0x00})
			req := make([]byte, 4+1+len("example.com")+2)
			if _, err := io.ReadFull(s, req); err != nil {
				return
			}
			s.Write([]byte{0x05, 0x05, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
		})
		err := Tunnel(conn, "example.com", "80", Info{Type: SOCKS5})
		var te *TunnelError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 0x05, te.Status)
	})
	t.Run("short reply is failure", func(t *testing.T) {
		ln, conn := dialLoopback(t)
		defer ln.Close()
		defer conn.Close()
		socks5Server(t, ln, func(s net.Conn) {
			greeting := make([]byte, 3)
			if _, err := io.ReadFull(s, greeting); err != nil {
				return
			}
			// Truncated greeting reply, then close.
			s.Write([]byte{0x05})
		})
		err := Tunnel(conn, "example.com", "80", Info{Type: SOCKS5})
		var te *TunnelError
		assert.ErrorAs(t, err, &te)
	})
	t.Run("server demands auth without credentials", func(t *testing.T) {
		ln, conn := dialLoopback(t)
		defer ln.Close()
		defer conn.Close()
		socks5Server(t, ln, func(s net.Conn) {
			greeting := make([]byte, 3)
			if _, err := io.ReadFull(s, greeting); err != nil {
				return
			}
			s.Write([]byte{0x05, 0xFF})
		})
		err := Tunnel(conn, "example.com", "80", Info{Type: SOCKS5})
		var te *TunnelError
		assert.ErrorAs(t, err, &te)
	})
}
