// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hardwire

import "time"

// ClientConfig is the immutable per-client configuration snapshot. A
// Client built from a ClientConfig copies it; changing a config after
// construction has no effect on clients already built from it.
//
// The zero value is usable but conservative: pooling, retry, and rate
// limiting are all disabled, and timeouts take their defaults. Use
// DefaultConfig for the recommended starting point.
type ClientConfig struct {
	// ConnectTimeout bounds establishing a connection: TCP connect,
	// proxy tunnel setup, and the TLS handshake together. Zero means
	// DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// ReadTimeout bounds each read while receiving the response. Zero
	// means DefaultReadTimeout.
	ReadTimeout time.Duration

	// RequestTimeout bounds a whole request attempt from connection
	// acquisition through response parse. Zero means
	// DefaultRequestTimeout.
	RequestTimeout time.Duration

	// FollowRedirects and MaxRedirects carry the redirect policy for
	// callers layering redirect handling above the transport. The
	// transport itself never follows redirects; a 3xx response is
	// returned like any other.
	FollowRedirects bool
	MaxRedirects    int

	// EnableCompression controls whether requests advertise
	// Accept-Encoding. The transport never decodes response bodies; a
	// compressed body is returned as received.
	EnableCompression bool

	// VerifySSL controls TLS certificate verification for https
	// targets. Disabling it accepts any certificate chain.
	VerifySSL bool

	// CAFile and CAPath optionally name a PEM bundle or directory of
	// PEM files to use as trusted roots instead of the system pool.
	CAFile string
	CAPath string

	// ProxyURL routes all traffic through a proxy when non-empty:
	// "http://host:port", "https://host:port", or
	// "socks5://host:port". Credentials may be embedded in the URL or
	// supplied separately; ProxyUsername/ProxyPassword take precedence
	// when set.
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string

	// EnableConnectionPool turns on connection reuse across requests.
	// When disabled every request dials a fresh connection and closes
	// it afterward.
	EnableConnectionPool bool

	// MaxConnectionsPerHost caps pooled connections per host:port key.
	// Zero means pool.DefaultMaxPerHost. Demand beyond the cap is
	// served by untracked one-shot connections, never queued.
	MaxConnectionsPerHost int

	// IdleConnectionTimeout expires pooled connections that sat idle
	// longer than this. Zero means pool.DefaultIdleTimeout.
	IdleConnectionTimeout time.Duration

	// EnableRetry turns on the retry wrapper. MaxRetries is the number
	// of retries after the initial attempt, so total attempts are
	// MaxRetries+1; zero is honored and means a single attempt, while
	// a negative value selects DefaultMaxRetries. The wait before
	// retry n is InitialRetryDelay * RetryBackoffFactor^(n-1), with no
	// jitter.
	EnableRetry        bool
	MaxRetries         int
	InitialRetryDelay  time.Duration
	RetryBackoffFactor float64

	// RetryOnTimeout, RetryOnConnError, and RetryOn5xx toggle the
	// retryable failure classes independently: client-side timeouts,
	// refused or reset connections, and 5xx statuses.
	RetryOnTimeout   bool
	RetryOnConnError bool
	RetryOn5xx       bool

	// EnableRateLimit gates every attempt, including retries, behind a
	// rolling window admitting RateLimitRequests per RateLimitWindow.
	// The gate delays; it never rejects. It is scoped per client, not
	// per host.
	EnableRateLimit   bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Defaults applied by DefaultConfig and by zero ClientConfig fields.
const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	DefaultRequestTimeout = 60 * time.Second

	DefaultMaxRetries         = 3
	DefaultInitialRetryDelay  = 500 * time.Millisecond
	DefaultRetryBackoffFactor = 2.0
)

// DefaultConfig returns the recommended configuration: verification
// on, pooling on, retry on for all transient failure classes, rate
// limiting off.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		ConnectTimeout:       DefaultConnectTimeout,
		ReadTimeout:          DefaultReadTimeout,
		RequestTimeout:       DefaultRequestTimeout,
		VerifySSL:            true,
		EnableConnectionPool: true,
		EnableRetry:          true,
		MaxRetries:           DefaultMaxRetries,
		InitialRetryDelay:    DefaultInitialRetryDelay,
		RetryBackoffFactor:   DefaultRetryBackoffFactor,
		RetryOnTimeout:       true,
		RetryOnConnError:     true,
		RetryOn5xx:           true,
	}
}

// withDefaults fills zero timeout and retry fields so the rest of the
// client never re-checks for zeros.
func (c ClientConfig) withDefaults() ClientConfig {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.InitialRetryDelay <= 0 {
		c.InitialRetryDelay = DefaultInitialRetryDelay
	}
	if c.RetryBackoffFactor < 1 {
		c.RetryBackoffFactor = DefaultRetryBackoffFactor
	}
	return c
}
