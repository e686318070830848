// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/httpretry/request"
)

func TestDefaultPolicy(t *testing.T) {
	assert.Equal(t, DefaultMaxAttempts, DefaultPolicy.MaxAttempts())
	t.Run("Decider", func(t *testing.T) {
		s := []int{429, 502, 503, 504}
		for i := 1; i <= DefaultMaxAttempts; i++ {
			assert.True(t, DefaultPolicy.Decide(&request.Execution{
				Request:     &http.Request{Method: http.MethodGet},
				RetriesLeft: i,
				Response: &http.Response{
					StatusCode: s[i%len(s)],
				},
			}))
		}
		assert.False(t, DefaultPolicy.Decide(&request.Execution{
			Request:     &http.Request{Method: http.MethodGet},
			RetriesLeft: 0,
			Response:    &http.Response{StatusCode: 503},
		}))
	})
	t.Run("Waiter", func(t *testing.T) {
		m := []int{100, 200, 400, 800, 1600, 3200}
		for i, max := range m {
			e := request.Execution{Attempt: i, Response: &http.Response{StatusCode: 503}}
			w := DefaultPolicy.Wait(&e)
			assert.GreaterOrEqual(t, w, time.Duration(0))
			assert.LessOrEqual(t, w, time.Duration(max)*time.Millisecond)
		}
	})
}

func TestNever(t *testing.T) {
	assert.Equal(t, 0, Never.MaxAttempts())
	assert.False(t, Never.Decide(&request.Execution{
		Request:     &http.Request{},
		RetriesLeft: 5,
		Response:    &http.Response{StatusCode: 503},
	}))
	assert.Equal(t, time.Duration(0), Never.Wait(&request.Execution{}))
}

func TestNewPolicy(t *testing.T) {
	p := &testPolicy{}
	t.Run("Bad Args", func(t *testing.T) {
		assert.PanicsWithValue(t, "httpretry/retry: n must not be negative", func() { NewPolicy(-1, p, p) })
		assert.PanicsWithValue(t, "httpretry/retry: nil decider", func() { NewPolicy(1, nil, p) })
		assert.PanicsWithValue(t, "httpretry/retry: nil waiter", func() { NewPolicy(1, p, nil) })
	})
	t.Run("Normal", func(t *testing.T) {
		P := NewPolicy(3, p, p)
		assert.Equal(t, 3, P.MaxAttempts())
		assert.True(t, P.Decide(&request.Execution{}))
		assert.Equal(t, 1, p.d)
		assert.Equal(t, time.Second, P.Wait(&request.Execution{}))
		assert.Equal(t, 1, p.w)
	})
}

func TestNew(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		c := DefaultConfig()
		c.MaxAttempts = -1
		s, err := New(c)
		assert.Nil(t, s)
		assert.ErrorContains(t, err, "httpretry/retry: invalid config")
		assert.ErrorContains(t, err, "MaxAttempts")
		assert.Panics(t, func() { MustNew(c) })
	})
	t.Run("config copied", func(t *testing.T) {
		c := DefaultConfig()
		s := MustNew(c)
		c.RetryableMethods[0] = "BREW"
		c.RetryableStatusCodes[0] = 418
		assert.True(t, s.IsRetryableMethod(http.MethodGet))
		assert.False(t, s.IsRetryableMethod("BREW"))
		assert.False(t, s.IsRetryableStatus(418))
		assert.Equal(t, DefaultConfig(), s.Config())
	})
	t.Run("nil slices select defaults", func(t *testing.T) {
		s := MustNew(Config{MaxAttempts: 1})
		assert.True(t, s.IsRetryableMethod(http.MethodDelete))
		assert.True(t, s.IsRetryableStatus(http.StatusTooManyRequests))
		assert.Equal(t, DefaultJitterRatio, s.Config().JitterRatio)
	})
	t.Run("empty slices select nothing", func(t *testing.T) {
		s := MustNew(Config{MaxAttempts: 1, RetryableMethods: []string{}, RetryableStatusCodes: []int{}})
		assert.False(t, s.IsRetryableMethod(http.MethodGet))
		assert.False(t, s.IsRetryableStatus(http.StatusServiceUnavailable))
	})
}

func TestStandard_IsRetryableMethod(t *testing.T) {
	s := MustNew(DefaultConfig())
	for _, m := range []string{"GET", "HEAD", "PUT", "DELETE", "OPTIONS", "TRACE", ""} {
		assert.True(t, s.IsRetryableMethod(m), m)
	}
	for _, m := range []string{"POST", "PATCH", "CONNECT", "get", "Put", "FOO"} {
		assert.False(t, s.IsRetryableMethod(m), m)
	}
}

func TestStandard_IsRetryableStatus(t *testing.T) {
	s := MustNew(DefaultConfig())
	for _, code := range []int{429, 502, 503, 504} {
		assert.True(t, s.IsRetryableStatus(code), code)
	}
	for _, code := range []int{0, 200, 201, 204, 301, 400, 401, 403, 404, 408, 500, 501, 505} {
		assert.False(t, s.IsRetryableStatus(code), code)
	}
}

func TestStandard_ShouldRetry(t *testing.T) {
	s := MustNew(DefaultConfig())
	get := &http.Request{Method: http.MethodGet}
	post := &http.Request{Method: http.MethodPost}
	testCases := []struct {
		name        string
		req         *http.Request
		resp        *http.Response
		retriesLeft int
		expected    bool
	}{
		{"retryable", get, &http.Response{StatusCode: 503}, 1, true},
		{"no retries left", get, &http.Response{StatusCode: 503}, 0, false},
		{"negative retries left", get, &http.Response{StatusCode: 503}, -1, false},
		{"non-retryable status", get, &http.Response{StatusCode: 200}, 5, false},
		{"server error not listed", get, &http.Response{StatusCode: 500}, 5, false},
		{"non-retryable method", post, &http.Response{StatusCode: 503}, 5, false},
		{"nil response", get, nil, 5, false},
		{"nil request is GET", nil, &http.Response{StatusCode: 429}, 5, true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, s.ShouldRetry(testCase.req, testCase.resp, testCase.retriesLeft))
		})
	}
}

func TestStandard_ZeroMaxAttempts(t *testing.T) {
	c := DefaultConfig()
	c.MaxAttempts = 0
	s := MustNew(c)
	assert.Equal(t, 0, s.MaxAttempts())
	assert.False(t, s.Decide(&request.Execution{
		Request:     &http.Request{Method: http.MethodGet},
		RetriesLeft: s.MaxAttempts(),
		Response:    &http.Response{StatusCode: 503},
	}))
}

func TestStandard_ComputeWait(t *testing.T) {
	now := time.Date(2015, 10, 21, 7, 28, 0, 0, time.UTC)
	s := MustNew(DefaultConfig(), WithJitter(nil), WithClock(func() time.Time { return now }))

	t.Run("backoff ceiling without jitter", func(t *testing.T) {
		for i := 0; i < 11; i++ {
			expected := (100 * time.Millisecond) << uint(i)
			if expected > 120*time.Second {
				expected = 120 * time.Second
			}
			assert.Equal(t, expected, s.ComputeWait(&http.Response{StatusCode: 503}, i), fmt.Sprintf("attempt %d", i))
		}
		assert.Equal(t, 120*time.Second, s.ComputeWait(&http.Response{}, 11))
		assert.Equal(t, 120*time.Second, s.ComputeWait(nil, 500))
	})
	t.Run("retry-after seconds", func(t *testing.T) {
		resp := executionWithRetryAfter("5").Response
		assert.Equal(t, 5*time.Second, s.ComputeWait(resp, 0))
		assert.Equal(t, 5*time.Second, s.ComputeWait(resp, 9))
	})
	t.Run("retry-after beyond max backoff", func(t *testing.T) {
		resp := executionWithRetryAfter("300").Response
		assert.Equal(t, 300*time.Second, s.ComputeWait(resp, 0))
	})
	t.Run("retry-after date", func(t *testing.T) {
		resp := executionWithRetryAfter("Wed, 21 Oct 2015 07:28:10 GMT").Response
		assert.Equal(t, 10*time.Second, s.ComputeWait(resp, 0))
	})
	t.Run("retry-after past date", func(t *testing.T) {
		resp := executionWithRetryAfter("Wed, 21 Oct 2015 07:00:00 GMT").Response
		assert.Equal(t, time.Duration(0), s.ComputeWait(resp, 4))
	})
	t.Run("retry-after invalid", func(t *testing.T) {
		resp := executionWithRetryAfter("later").Response
		assert.Equal(t, 400*time.Millisecond, s.ComputeWait(resp, 2))
	})
	t.Run("Wait uses attempt", func(t *testing.T) {
		assert.Equal(t, 800*time.Millisecond, s.Wait(&request.Execution{Attempt: 3}))
	})
}

func TestStandard_Jitter(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		s := MustNew(DefaultConfig(), WithJitter(int64(1)))
		var distinct = map[time.Duration]bool{}
		for i := 0; i < 200; i++ {
			d := s.ComputeWait(nil, 2)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, 400*time.Millisecond)
			distinct[d] = true
		}
		assert.Greater(t, len(distinct), 1)
	})
	t.Run("partial", func(t *testing.T) {
		c := DefaultConfig()
		c.Jitter = PartialJitter
		c.JitterRatio = 0.25
		s := MustNew(c, WithJitter(int64(1)))
		for i := 0; i < 200; i++ {
			d := s.ComputeWait(nil, 2)
			assert.GreaterOrEqual(t, d, 300*time.Millisecond)
			assert.LessOrEqual(t, d, 400*time.Millisecond)
		}
	})
	t.Run("deterministic seed", func(t *testing.T) {
		a := MustNew(DefaultConfig(), WithJitter(99))
		b := MustNew(DefaultConfig(), WithJitter(99))
		for i := 0; i < 10; i++ {
			require.Equal(t, a.ComputeWait(nil, i), b.ComputeWait(nil, i))
		}
	})
	t.Run("zero backoff", func(t *testing.T) {
		c := DefaultConfig()
		c.BackoffFactor = 0
		s := MustNew(c)
		assert.Equal(t, time.Duration(0), s.ComputeWait(nil, 5))
	})
}

type testPolicy struct {
	d int
	w int
}

func (p *testPolicy) Decide(_ *request.Execution) bool {
	p.d++
	return true
}

func (p *testPolicy) Wait(_ *request.Execution) time.Duration {
	p.w++
	return time.Second
}
