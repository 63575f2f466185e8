// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines the per-attempt timeout policy plug-in
// interface for the hardwire HTTP client, along with built-in timeout
// policies.
package timeout
