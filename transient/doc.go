// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors produced while executing an HTTP
// request attempt by whether a retry has a reasonable prospect of
// success.
//
// The retry deciders in package retry consult Categorize to implement
// the configurable retryable failure classes: timeouts, refused
// connections, and reset connections.
package transient
