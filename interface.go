// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpretry

import (
	"net/http"

	"github.com/gogama/httpretry/retry"
)

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
//
// Transport and ContextTransport implement IdleCloser by forwarding to
// their inner transport, so http.Client.CloseIdleConnections reaches
// through them.
type IdleCloser interface {
	CloseIdleConnections()
}

var (
	_ http.RoundTripper = (*Transport)(nil)
	_ http.RoundTripper = (*ContextTransport)(nil)
	_ IdleCloser        = (*Transport)(nil)
	_ IdleCloser        = (*ContextTransport)(nil)
)

// NewClient returns an http.Client whose transport is a ContextTransport
// sending attempts through inner and retrying according to p. A nil
// inner or p selects the ContextTransport defaults.
func NewClient(inner http.RoundTripper, p retry.Policy) *http.Client {
	return &http.Client{
		Transport: &ContextTransport{
			Inner:  inner,
			Policy: p,
		},
	}
}

// Wrap returns a shallow copy of c whose transport is a ContextTransport
// wrapping c's transport and retrying according to p. The timeout,
// redirect policy and cookie jar of c are kept. If c is nil,
// http.DefaultClient is copied.
//
// Note that c.Timeout, if set, bounds the whole execution including
// retry waits.
func Wrap(c *http.Client, p retry.Policy) *http.Client {
	if c == nil {
		c = http.DefaultClient
	}
	c2 := *c
	c2.Transport = &ContextTransport{
		Inner:  c.Transport,
		Policy: p,
	}
	return &c2
}
