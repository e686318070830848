// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpretry

import (
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/httpretry/retry"
	"github.com/gogama/httpretry/retrytest"
)

func TestNewClient(t *testing.T) {
	fake := &retrytest.Transport{}
	fake.Sequence(target,
		retrytest.Reply{Status: 503, RetryAfter: "0"},
		retrytest.Reply{Status: 200, Body: "hello"})
	p := retry.MustNew(retry.DefaultConfig(), retry.WithJitter(nil))

	c := NewClient(fake, p)
	require.IsType(t, &ContextTransport{}, c.Transport)
	ct := c.Transport.(*ContextTransport)
	assert.Same(t, fake, ct.Inner)
	assert.Same(t, p, ct.Policy)

	resp, err := c.Get(target)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "hello", readAll(t, resp))
	assert.Equal(t, 2, fake.Calls(target))
}

func TestWrap(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		c := Wrap(nil, nil)
		assert.NotSame(t, http.DefaultClient, c)
		require.IsType(t, &ContextTransport{}, c.Transport)
		assert.Nil(t, c.Transport.(*ContextTransport).Inner)
		assert.Nil(t, http.DefaultClient.Transport, "default client untouched")
	})
	t.Run("settings kept", func(t *testing.T) {
		jar, err := cookiejar.New(nil)
		require.NoError(t, err)
		fake := &retrytest.Transport{}
		orig := &http.Client{Transport: fake, Timeout: time.Minute, Jar: jar}
		p := retry.MustNew(retry.DefaultConfig())
		c := Wrap(orig, p)
		assert.Same(t, fake, orig.Transport, "original client untouched")
		assert.Equal(t, time.Minute, c.Timeout)
		assert.Same(t, jar, c.Jar)
		require.IsType(t, &ContextTransport{}, c.Transport)
		assert.Same(t, fake, c.Transport.(*ContextTransport).Inner)
		assert.Same(t, p, c.Transport.(*ContextTransport).Policy)
	})
	t.Run("retries through client", func(t *testing.T) {
		fake := &retrytest.Transport{}
		fake.Sequence(target, retrytest.Reply{Status: 504, RetryAfter: "0"}, retrytest.Reply{Status: 204})
		c := Wrap(&http.Client{Transport: fake}, retry.MustNew(retry.DefaultConfig()))
		resp, err := c.Head(target)
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)
		assert.Equal(t, 2, fake.Calls(target))
	})
}
