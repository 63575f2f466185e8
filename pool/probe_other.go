// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

//go:build !unix

package pool

import "net"

// probeSocket is unavailable without unix socket access; the caller
// falls back to the deadline probe.
func probeSocket(net.Conn) (ok, supported bool) {
	return false, false
}
