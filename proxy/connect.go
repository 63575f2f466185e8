// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package proxy

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// maxConnectResponse bounds how many bytes of proxy response head the
// tunnel establishment is willing to read before giving up.
const maxConnectResponse = 16 * 1024

// A TunnelError reports a failed attempt to establish a tunnel through
// a proxy. Proxy type and, where applicable, the proxy's status code
// or reply byte are preserved so callers can distinguish an
// authentication problem from a general failure.
type TunnelError struct {
	// Proxy is the protocol of the proxy the tunnel was attempted
	// through.
	Proxy Type
	// Status is the HTTP status returned by a CONNECT proxy, or the
	// SOCKS5 reply code returned by a SOCKS5 proxy. Zero when the
	// failure happened before any reply was read.
	Status int
	// Reason describes the failure.
	Reason string
	// Err is the underlying transport error, if any.
	Err error
}

func (e *TunnelError) Error() string {
	msg := fmt.Sprintf("hardwire/proxy: %s tunnel failed: %s", e.Proxy, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TunnelError) Unwrap() error {
	return e.Err
}

// Connect establishes a CONNECT tunnel to host:port through the HTTP
// proxy already dialed on conn. On return with a nil error the
// connection is an opaque byte tunnel to the target, usable exactly
// like a direct connection.
//
// When credentials are configured a Proxy-Authorization header with
// standard Basic encoding is sent. The tunnel is established if and
// only if the proxy answers with status exactly 200; any other status
// is a *TunnelError carrying that status.
func Connect(conn net.Conn, host, port string, info Info) error {
	var req bytes.Buffer
	hp := net.JoinHostPort(host, port)
	fmt.Fprintf(&req, "CONNECT %s HTTP/1.1\r\n", hp)
	fmt.Fprintf(&req, "Host: %s\r\n", hp)
	if info.hasAuth() {
		cred := info.Username + ":" + info.Password
		fmt.Fprintf(&req, "Proxy-Authorization: Basic %s\r\n",
			base64.StdEncoding.EncodeToString([]byte(cred)))
	}
	req.WriteString("\r\n")

	if _, err := conn.Write(req.Bytes()); err != nil {
		return &TunnelError{Proxy: info.Type, Reason: "writing CONNECT request", Err: err}
	}

	head, err := readHead(conn)
	if err != nil {
		return &TunnelError{Proxy: info.Type, Reason: "reading CONNECT response", Err: err}
	}
	status, err := connectStatus(head)
	if err != nil {
		return &TunnelError{Proxy: info.Type, Reason: "malformed CONNECT response", Err: err}
	}
	if status != 200 {
		return &TunnelError{Proxy: info.Type, Status: status,
			Reason: fmt.Sprintf("proxy refused CONNECT with status %d", status)}
	}
	return nil
}

// readHead consumes the proxy's response head (status line and
// headers) up to and including the blank line, one byte at a time so
// that no tunnel payload past the head is swallowed.
func readHead(conn net.Conn) ([]byte, error) {
	var head bytes.Buffer
	buf := make([]byte, 1)
	for head.Len() < maxConnectResponse {
		if _, err := io.ReadFull(conn, buf); err != nil {
			return nil, err
		}
		head.WriteByte(buf[0])
		if bytes.HasSuffix(head.Bytes(), []byte("\r\n\r\n")) {
			return head.Bytes(), nil
		}
	}
	return nil, fmt.Errorf("response head exceeds %d bytes", maxConnectResponse)
}

// connectStatus extracts the status code from the first line of a
// CONNECT response head.
func connectStatus(head []byte) (int, error) {
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimRight(line, "\r")
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0, fmt.Errorf("bad status line %q", line)
	}
	status, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("bad status line %q", line)
	}
	return status, nil
}
