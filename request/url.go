// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"net"
	urlpkg "net/url"
)

// URLInfo is the resolved connection target for a request plan. It
// carries everything the transport needs to open a socket and build a
// request line: scheme, host, port (defaulted by scheme when the URL
// omits it) and the path-plus-query to place on the request line.
type URLInfo struct {
	Scheme  string
	Host    string
	Port    string
	Path    string
	IsHTTPS bool
}

// HostPort returns the "host:port" dial address for the target. IPv6
// literal hosts are bracketed.
func (u URLInfo) HostPort() string {
	return net.JoinHostPort(u.Host, u.Port)
}

// ResolveURL reduces a parsed URL to the connection target used by the
// transport. The port defaults to 80 for http and 443 for https when
// the URL does not carry one, and an empty path becomes "/".
//
// Only http and https URLs can be executed; any other scheme is an
// error.
func ResolveURL(u *urlpkg.URL) (URLInfo, error) {
	if u == nil {
		return URLInfo{}, fmt.Errorf("hardwire/request: nil URL")
	}
	info := URLInfo{Scheme: u.Scheme, Host: u.Hostname(), Port: u.Port()}
	switch u.Scheme {
	case "http":
		if info.Port == "" {
			info.Port = "80"
		}
	case "https":
		info.IsHTTPS = true
		if info.Port == "" {
			info.Port = "443"
		}
	default:
		return URLInfo{}, fmt.Errorf("hardwire/request: unsupported scheme %q", u.Scheme)
	}
	if info.Host == "" {
		return URLInfo{}, fmt.Errorf("hardwire/request: missing host in %q", u.String())
	}
	info.Path = u.EscapedPath()
	if info.Path == "" {
		info.Path = "/"
	}
	if u.RawQuery != "" {
		info.Path += "?" + u.RawQuery
	}
	return info, nil
}
