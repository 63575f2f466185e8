// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package proxy parses proxy configuration and establishes tunneled
// byte streams through HTTP (CONNECT) and SOCKS5 proxies.
//
// The package operates on an already-dialed connection to the proxy
// endpoint and leaves the connection as an opaque duplex stream to the
// target on success, so the transport can use it exactly like a
// direct connection. Tunnel establishment never retries; retry policy
// belongs to the client's execution engine.
package proxy
