// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hardwire

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hardwire-http/hardwire/pool"
	"github.com/hardwire-http/hardwire/proxy"
	"github.com/hardwire-http/hardwire/request"
	"github.com/hardwire-http/hardwire/wire"
)

const readChunkSize = 4096

// A Transport performs a single HTTP request attempt over a raw
// transport connection: acquire (pool, direct, or via proxy tunnel),
// serialize, write, read to EOF, parse, then release or discard the
// connection based on the response's keep-alive signal.
//
// Transport is safe for concurrent use by multiple goroutines. It has
// no retry or rate-limit behavior of its own; Client layers those on
// top.
type Transport struct {
	pool           *pool.Pool
	proxy          proxy.Info
	tlsConfig      *tls.Config
	connectTimeout time.Duration
	readTimeout    time.Duration
	compression    bool
}

// NewTransport builds a Transport from the configuration. It returns
// an error for an unusable proxy URL or unreadable CA material.
func NewTransport(cfg ClientConfig) (*Transport, error) {
	cfg = cfg.withDefaults()
	info, err := proxy.Parse(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}
	info = info.WithCredentials(cfg.ProxyUsername, cfg.ProxyPassword)
	tlsConfig, err := newTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	t := &Transport{
		proxy:          info,
		tlsConfig:      tlsConfig,
		connectTimeout: cfg.ConnectTimeout,
		readTimeout:    cfg.ReadTimeout,
		compression:    cfg.EnableCompression,
	}
	if cfg.EnableConnectionPool {
		t.pool = pool.New(cfg.MaxConnectionsPerHost, cfg.IdleConnectionTimeout)
	}
	return t, nil
}

// newTLSConfig assembles the TLS client configuration: verification
// per VerifySSL, and custom roots when CAFile or CAPath is set.
func newTLSConfig(cfg ClientConfig) (*tls.Config, error) {
	tc := &tls.Config{InsecureSkipVerify: !cfg.VerifySSL}
	if cfg.CAFile == "" && cfg.CAPath == "" {
		return tc, nil
	}
	roots := x509.NewCertPool()
	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, err
		}
		if !roots.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("hardwire: no certificates in %s", cfg.CAFile)
		}
	}
	if cfg.CAPath != "" {
		entries, err := os.ReadDir(cfg.CAPath)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			pem, err := os.ReadFile(filepath.Join(cfg.CAPath, entry.Name()))
			if err != nil {
				return nil, err
			}
			roots.AppendCertsFromPEM(pem)
		}
	}
	tc.RootCAs = roots
	return tc, nil
}

// RoundTrip performs one request attempt and returns the parsed
// response. Any failure path discards the connection instead of
// pooling it, including attempts aborted by ctx mid-exchange, so a
// half-used connection is never handed to a later request.
func (t *Transport) RoundTrip(ctx context.Context, p *request.Plan) (*request.Response, error) {
	u, err := request.ResolveURL(p.URL)
	if err != nil {
		return nil, err
	}

	var pc *pool.Conn
	var conn net.Conn
	if t.pool != nil {
		pc, err = t.pool.Acquire(ctx, u.Host, u.Port, func(ctx context.Context) (net.Conn, error) {
			return t.dial(ctx, u)
		})
		if err != nil {
			return nil, err
		}
		conn = pc.NetConn()
	} else {
		conn, err = t.dial(ctx, u)
		if err != nil {
			return nil, err
		}
	}

	resp, err := t.exchange(ctx, conn, p, u)
	if err != nil {
		t.discard(pc, conn)
		return nil, err
	}

	keep := t.pool != nil && !p.Close && resp.KeepAlive()
	switch {
	case pc != nil && pc.Pooled():
		t.pool.Release(pc, keep)
	default:
		conn.Close()
	}
	return resp, nil
}

// discard closes a connection after a failed attempt. Pooled entries
// are removed from the table first so the pool never reissues them.
func (t *Transport) discard(pc *pool.Conn, conn net.Conn) {
	if pc != nil && pc.Pooled() {
		t.pool.Release(pc, false)
		return
	}
	conn.Close()
}

// dial opens a connection to the target: direct, or through the
// configured proxy tunnel, then TLS-wrapped for https targets. The
// whole sequence runs under the connect timeout.
func (t *Transport) dial(ctx context.Context, u request.URLInfo) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, t.connectTimeout)
	defer cancel()

	var conn net.Conn
	var err error
	d := net.Dialer{}
	if t.proxy.Enabled() {
		conn, err = d.DialContext(ctx, "tcp", t.proxy.HostPort())
		if err != nil {
			return nil, err
		}
		if t.proxy.Type == proxy.HTTPS {
			tc := tls.Client(conn, t.tlsClientConfig(t.proxy.Host))
			if err := tc.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			conn = tc
		}
		if err := t.tunnel(ctx, conn, u); err != nil {
			conn.Close()
			return nil, err
		}
	} else {
		conn, err = d.DialContext(ctx, "tcp", u.HostPort())
		if err != nil {
			return nil, err
		}
	}

	if !u.IsHTTPS {
		return conn, nil
	}
	tc := tls.Client(conn, t.tlsClientConfig(u.Host))
	if err := tc.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tc, nil
}

// tunnel drives the configured proxy handshake on a connection that
// is already open to the proxy. Handshake I/O is bounded by the dial
// context's deadline.
func (t *Transport) tunnel(ctx context.Context, conn net.Conn, u request.URLInfo) error {
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}
	switch t.proxy.Type {
	case proxy.SOCKS5:
		return proxy.Tunnel(conn, u.Host, u.Port, t.proxy)
	default:
		return proxy.Connect(conn, u.Host, u.Port, t.proxy)
	}
}

// tlsClientConfig clones the transport's TLS configuration with the
// target's server name for SNI and verification.
func (t *Transport) tlsClientConfig(host string) *tls.Config {
	tc := t.tlsConfig.Clone()
	tc.ServerName = host
	return tc
}

// exchange writes the serialized request and reads the response to
// EOF. A clean TLS close-notify surfaces as EOF from the read, which
// ends accumulation like a TCP half-close does.
func (t *Transport) exchange(ctx context.Context, conn net.Conn, p *request.Plan, u request.URLInfo) (*request.Response, error) {
	raw := wire.BuildRequest(t.attemptPlan(p), u, t.pool != nil)

	// Interrupt in-flight I/O the moment the attempt context ends, so
	// cancellation does not wait out the read timeout.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetDeadline(time.Now())
		case <-stop:
		}
	}()

	if err := conn.SetWriteDeadline(t.ioDeadline(ctx)); err != nil {
		return nil, err
	}
	if _, err := conn.Write(raw); err != nil {
		return nil, t.ioError(ctx, err)
	}
	conn.SetWriteDeadline(time.Time{})

	var accum []byte
	buf := make([]byte, readChunkSize)
	for {
		if err := conn.SetReadDeadline(t.ioDeadline(ctx)); err != nil {
			return nil, err
		}
		n, err := conn.Read(buf)
		accum = append(accum, buf[:n]...)
		// Keep-alive peers never send EOF; a Content-Length framed
		// response is complete as soon as the declared body arrives,
		// and a bodiless response at the end of its head.
		if wire.ResponseComplete(p.Method, accum) {
			break
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, t.ioError(ctx, err)
		}
	}
	conn.SetReadDeadline(time.Time{})

	return wire.ParseResponse(accum)
}

// ioError substitutes the context's error for a deadline error caused
// by the interrupter, so callers see cancellation rather than a
// spurious i/o timeout.
func (t *Transport) ioError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// attemptPlan returns the plan to serialize for this attempt. When
// compression is enabled and the caller did not choose an encoding,
// the headers are copied and Accept-Encoding added; the caller's plan
// is never mutated.
func (t *Transport) attemptPlan(p *request.Plan) *request.Plan {
	if !t.compression || p.Header.Get("Accept-Encoding") != "" {
		return p
	}
	p2 := new(request.Plan)
	*p2 = *p
	p2.Header = make(http.Header, len(p.Header)+1)
	for k, v := range p.Header {
		p2.Header[k] = v
	}
	p2.Header.Set("Accept-Encoding", "gzip, deflate")
	return p2
}

// ioDeadline is the per-operation I/O deadline: the read timeout, or
// the attempt context's deadline when that lands sooner.
func (t *Transport) ioDeadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(t.readTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	return deadline
}

// CloseIdleConnections closes connections sitting idle in the pool.
// Connections currently serving requests are untouched. It does
// nothing when pooling is disabled.
func (t *Transport) CloseIdleConnections() {
	if t.pool != nil {
		t.pool.CloseIdle()
	}
}

// PoolStats reports pool occupancy, or the zero Stats when pooling is
// disabled.
func (t *Transport) PoolStats() pool.Stats {
	if t.pool == nil {
		return pool.Stats{}
	}
	return t.pool.Stats()
}
