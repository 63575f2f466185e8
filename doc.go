// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package hardwire provides a robust HTTP(S) client that owns the whole
transport path: raw TCP/TLS connection lifecycle, connection pooling
with liveness probing, HTTP and SOCKS5 proxy tunneling, retry with
deterministic backoff, rate limiting, and timeout enforcement, within
a simple and familiar interface.

Create a Client to begin making requests.

	client, err := hardwire.New(hardwire.DefaultConfig())
	...
	ex, err := client.Get("https://www.example.com")
	...
	ex, err := client.Post("https://www.example.com/upload",
		"application/json", &buf)
	...
	ex, err := client.PostForm("http://example.com/form",
		url.Values{"key": {"Value"}, "id": {"123"}})

The zero value Client is also valid and uses the default transport
and policies.

Configuration is a plain struct consumed at construction time:

	cfg := hardwire.DefaultConfig()
	cfg.ProxyURL = "socks5://127.0.0.1:1080"
	cfg.MaxConnectionsPerHost = 4
	cfg.RetryOn5xx = false
	client, err := hardwire.New(cfg)

For control over the client's retry decisions and timing beyond the
configuration flags, create a custom retry policy using components
from package retry:

	retryWaiter := retry.NewBackoffWaiter(250*time.Millisecond, 2.0, 5*time.Second)
	retryPolicy := retry.NewPolicy(retry.DefaultDecider, retryWaiter)
	client := &hardwire.Client{
		RetryPolicy: retryPolicy,
	}

For control over the client's individual attempt timeouts, set a
custom timeout policy using package timeout:

	client := &hardwire.Client{
		TimeoutPolicy: timeout.Fixed(10*time.Second),
	}

To hook into the fine-grained details of the client's request
execution logic, install a handler into the appropriate handler
chain:

	log := log.New(os.Stdout, "", log.LstdFlags)
	handlers := &hardwire.HandlerGroup{}
	handlers.PushBack(hardwire.BeforeAttempt, hardwire.HandlerFunc(
		func(_ hardwire.Event, e *request.Execution) {
			log.Printf("Attempt %d to %s", e.Attempt, e.Plan.URL.String())
		})
	)
	client := &hardwire.Client{
		Handlers: handlers,
	}

To execute a plan without blocking the caller, use DoAsync and the
returned Future:

	f := client.DoAsync(p)
	...
	ex, err := f.Wait(ctx)

Package hardwire provides basic interfaces for each method of the
robust client (Doer, Getter, Header, Poster, FormPoster, Putter,
Deleter, Patcher, Optioner, and IdleCloser); a combined interface
that composes all the basic methods (Executor); and utility functions
for working with a Doer (Inflate, Get, Head, Post, PostForm, Put,
Delete, Patch, and Options).
*/
package hardwire
