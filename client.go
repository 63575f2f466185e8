// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hardwire

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hardwire-http/hardwire/ratelimit"
	"github.com/hardwire-http/hardwire/request"
	"github.com/hardwire-http/hardwire/retry"
	"github.com/hardwire-http/hardwire/timeout"
)

var emptyHandlers = HandlerGroup{}

// A Client is a robust HTTP client over raw transport connections.
// Its zero value is a valid configuration.
//
// The zero value client uses a default Transport (built from
// DefaultConfig), timeout.DefaultPolicy as the timeout policy,
// retry.DefaultPolicy as the retry policy, no rate limiter, and an
// empty handler group (no event handlers/plug-ins). Use New to build
// a Client whose policies are assembled from a ClientConfig.
//
// Client's Transport holds internal state (pooled transport
// connections) so Client instances should be reused instead of
// created as needed. Client is safe for concurrent use by multiple
// goroutines.
//
// A Client is higher-level than its Transport. The Transport performs
// one request attempt over one connection, while Client wraps the
// attempt in policy:
//
// • Client retries failed request attempts using a customizable retry
// policy;
//
// • Client sets individual request attempt timeouts using a
// customizable timeout policy;
//
// • Client gates every attempt behind an optional rolling-window rate
// limiter;
//
// • Client invokes user-provided handler functions at designated
// plug-in points within the attempt/retry loop, allowing new features
// to be mixed in from outside libraries; and
//
// • Client implements the Executor interface.
//
// Instead of consuming a one-shot request value, Client.Do consumes a
// request.Plan, which is suitable for making multiple attempts if
// necessary; and instead of producing a bare response, all of
// Client's HTTP methods return a request.Execution containing the
// fully-buffered response plus execution metadata.
type Client struct {
	// Transport specifies the mechanics of making a single request
	// attempt over a raw connection.
	//
	// If Transport is nil, a shared default transport built from
	// DefaultConfig is used.
	Transport *Transport
	// RetryPolicy decides when to retry failed attempts and how long
	// to sleep after a failed attempt before retrying.
	//
	// If RetryPolicy is nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy specifies how to set timeouts on individual
	// request attempts.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Limiter gates attempts behind a rolling admission window. A nil
	// Limiter admits everything.
	Limiter *ratelimit.Limiter
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during execution of a request plan.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
}

// New builds a Client whose transport and policies are assembled from
// the configuration: the retry policy from the retry_on flags and
// backoff fields, the per-attempt timeout from RequestTimeout, and
// the rate limiter from the rate limit fields. It returns an error
// for an unusable proxy URL or unreadable CA material.
func New(cfg ClientConfig) (*Client, error) {
	cfg = cfg.withDefaults()
	t, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}
	c := &Client{
		Transport:     t,
		TimeoutPolicy: timeout.Fixed(cfg.RequestTimeout),
		RetryPolicy:   retry.Never,
	}
	if cfg.EnableRetry {
		c.RetryPolicy = retry.NewPolicy(
			retry.Times(cfg.MaxRetries).And(retry.Classes(cfg.RetryOnTimeout, cfg.RetryOnConnError, cfg.RetryOn5xx)),
			retry.NewBackoffWaiter(cfg.InitialRetryDelay, cfg.RetryBackoffFactor, 0),
		)
	}
	if cfg.EnableRateLimit {
		c.Limiter = ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	return c, nil
}

// Do executes an HTTP request plan and returns the results, following
// the timeout, retry, and rate limit policy set on Client.
//
// The result returned is the result after the final request attempt
// made during the plan execution, as determined by the retry policy.
//
// An error is returned if, after doing any retries mandated by the
// retry policy, the final attempt resulted in an error. An attempt
// may end in error due to a network problem (connect, tunnel, TLS,
// write, or read failure), a timeout, or an unparsable response. A
// non-2XX status code in the final attempt does not result in an
// error.
//
// The returned Execution is never nil. If the returned error is nil,
// the Execution contains a non-nil Response with a fully-buffered
// Body. If the error is non-nil, the Execution's Err field references
// the same error, and Response is nil unless the plan context ended
// after a completed attempt.
//
// Any returned error will be of type *url.Error. The url.Error's
// Timeout method, and the Execution's Timeout method, will return
// true if the final request attempt timed out, or if the entire plan
// timed out.
//
// For simple use cases, the verb methods (Get, Post, and friends) may
// prove easier to use than Do.
func (c *Client) Do(p *request.Plan) (*request.Execution, error) {
	e := &request.Execution{
		Plan: p,
	}

	t := c.transport()

	timeoutPolicy := c.TimeoutPolicy
	if timeoutPolicy == nil {
		timeoutPolicy = timeout.DefaultPolicy
	}

	retryPolicy := c.RetryPolicy
	if retryPolicy == nil {
		retryPolicy = retry.DefaultPolicy
	}

	handlers := c.Handlers
	if handlers == nil {
		handlers = &emptyHandlers
	}
	handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()

RetryLoop:
	for {
		// The rate limiter gates every attempt, not just the first.
		if err := c.Limiter.Wait(p.Context()); err != nil {
			e.Err = urlErrorWrap(p, err)
			if err == context.DeadlineExceeded {
				handlers.run(AfterPlanTimeout, e)
			}
			break
		}
		c.attempt(p, e, t, handlers, timeoutPolicy)
		if e.Timeout() {
			e.AttemptTimeouts++
			handlers.run(AfterAttemptTimeout, e)
		}
		handlers.run(AfterAttempt, e)
		planCtxErr := p.Context().Err()
		if planCtxErr == context.DeadlineExceeded {
			handlers.run(AfterPlanTimeout, e)
			break
		} else if planCtxErr != nil {
			e.Err = urlErrorWrap(p, planCtxErr)
			break
		} else if retryPolicy.Decide(e) {
			wait := retryPolicy.Wait(e)
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-p.Context().Done():
				timer.Stop()
				err := p.Context().Err()
				e.Err = urlErrorWrap(p, err)
				if err == context.DeadlineExceeded {
					handlers.run(AfterPlanTimeout, e)
				}
				break RetryLoop
			}
			e.Response = nil
			e.Err = nil
			e.Attempt++
		} else {
			break
		}
	}

	e.End = time.Now()
	handlers.run(AfterExecutionEnd, e)
	return e, e.Err
}

func (c *Client) attempt(p *request.Plan, e *request.Execution, t *Transport, handlers *HandlerGroup, timeoutPolicy timeout.Policy) {
	handlers.run(BeforeAttempt, e)
	ctx, cancel := context.WithTimeout(p.Context(), timeoutPolicy.Timeout(e))
	defer cancel()
	resp, err := t.RoundTrip(ctx, p)
	if err != nil {
		e.Err = urlErrorWrap(p, err)
		return
	}
	e.Response = resp
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
//
// To make a request plan with custom headers, use request.NewPlan and
// Client.Do.
func (c *Client) Get(url string) (*request.Execution, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Do.
func (c *Client) Head(url string) (*request.Execution, error) {
	return Head(c, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.NewPlan and request.BodyBytes,
// namely: string; []byte; io.Reader; and io.ReadCloser.
func (c *Client) Post(url, contentType string, body interface{}) (*request.Execution, error) {
	return Post(c, url, contentType, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use request.NewPlan and Client.Do.
func (c *Client) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(c, url, data)
}

// Put issues a PUT to the specified URL, using the same policies
// followed by Do. The body parameter follows the same rules as Post.
func (c *Client) Put(url, contentType string, body interface{}) (*request.Execution, error) {
	return Put(c, url, contentType, body)
}

// Delete issues a DELETE to the specified URL, using the same
// policies followed by Do.
func (c *Client) Delete(url string) (*request.Execution, error) {
	return Delete(c, url)
}

// Patch issues a PATCH to the specified URL, using the same policies
// followed by Do. The body parameter follows the same rules as Post.
func (c *Client) Patch(url, contentType string, body interface{}) (*request.Execution, error) {
	return Patch(c, url, contentType, body)
}

// Options issues an OPTIONS to the specified URL, using the same
// policies followed by Do.
func (c *Client) Options(url string) (*request.Execution, error) {
	return Options(c, url)
}

// CloseIdleConnections closes connections sitting idle in the
// transport's pool. It does not interrupt any connections currently
// in use, and does nothing when pooling is disabled.
func (c *Client) CloseIdleConnections() {
	c.transport().CloseIdleConnections()
}

func (c *Client) transport() *Transport {
	if c.Transport == nil {
		return defaultTransport()
	}

	return c.Transport
}

var (
	defaultTransportOnce sync.Once
	sharedTransport      *Transport
)

// defaultTransport is the shared transport used by zero-value
// Clients. DefaultConfig carries no proxy URL or CA material, so
// construction cannot fail.
func defaultTransport() *Transport {
	defaultTransportOnce.Do(func() {
		sharedTransport, _ = NewTransport(DefaultConfig())
	})
	return sharedTransport
}

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
