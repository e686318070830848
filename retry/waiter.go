// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gogama/httpretry/request"
)

// A Waiter specifies how long to wait before retrying an HTTP request
// whose response was judged retryable.
//
// Implementations of Waiter must be safe for concurrent use by multiple
// goroutines.
//
// A retrying transport will not call the Waiter on a retry policy if
// the policy Decider returned false.
//
// This package provides Waiter implementations through the constructor
// functions NewExpWaiter, NewPartialJitterWaiter, NewFixedWaiter and
// NewRetryAfterWaiter.
type Waiter interface {
	Wait(e *request.Execution) time.Duration
}

// NewFixedWaiter constructs a Waiter that always returns the given
// duration.
//
// Use NewFixedWaiter to obtain a constant retry backoff.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Execution) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter constructs a Waiter implementing an exponential backoff
// formula with optional jitter.
//
// The formula implemented is the "Full Jitter" approach described in:
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter.
//
// Parameters base and max control the exponential calculation of the
// ceiling:
//
//	ceil := min(base * 2**attempt, max)
//
// Base and max must be positive values, and max must be at least equal
// to base. A ceiling that would overflow saturates at max.
//
// Parameter jitter is used to generate a random number between 0 and
// ceil, both inclusive. To make a waiter that does not jitter and
// simply returns ceil on each attempt, pass nil for jitter. Otherwise
// you may specify either a random number generator seed value (as a
// time.Time, int, or int64) or a random number generator (as a
// rand.Source or *rand.Rand). If a seed value is specified, it is used
// to seed a random number generator for calculating jitter. If a
// generator is specified, it is used to calculate jitter.
func NewExpWaiter(base, max time.Duration, jitter interface{}) Waiter {
	checkExpBounds(base, max)
	return newExpWaiter(base, max, 1, jitterToRand(jitter))
}

// NewPartialJitterWaiter constructs a Waiter implementing the same
// exponential ceiling as NewExpWaiter, but only jittering a fraction of
// it. The wait returned is
//
//	ceil*(1-ratio) + rand[0, ceil*ratio]
//
// so the waiter never waits less than ceil*(1-ratio). Ratio must be in
// the range (0, 1]. A ratio of 1 is equivalent to NewExpWaiter.
//
// Parameters base, max and jitter have the same meaning as for
// NewExpWaiter.
func NewPartialJitterWaiter(base, max time.Duration, ratio float64, jitter interface{}) Waiter {
	checkExpBounds(base, max)
	if !(ratio > 0 && ratio <= 1) {
		panic("httpretry/retry: ratio must be in (0, 1]")
	}
	return newExpWaiter(base, max, ratio, jitterToRand(jitter))
}

func checkExpBounds(base, max time.Duration) {
	if base < 1 {
		panic("httpretry/retry: base must be positive")
	}
	if max < base {
		panic("httpretry/retry: max must be at least base")
	}
}

type expWaiter struct {
	base  time.Duration
	max   time.Duration
	ratio float64
	rand  *rand.Rand
	lock  sync.Mutex
}

func newExpWaiter(base, max time.Duration, ratio float64, r *rand.Rand) *expWaiter {
	return &expWaiter{
		base:  base,
		max:   max,
		ratio: ratio,
		rand:  r,
	}
}

func (w *expWaiter) Wait(e *request.Execution) time.Duration {
	return w.wait(e.Attempt)
}

func (w *expWaiter) wait(attempt int) time.Duration {
	ceil := int64(ceiling(w.base, w.max, attempt))
	if ceil <= 0 || w.rand == nil {
		return time.Duration(ceil)
	}

	span := ceil
	if w.ratio < 1 {
		span = int64(float64(ceil) * w.ratio)
	}

	w.lock.Lock()
	defer w.lock.Unlock()
	return time.Duration(ceil - span + w.int63Incl(span))
}

// int63Incl returns a random number in [0, n]. The caller must hold the
// lock.
func (w *expWaiter) int63Incl(n int64) int64 {
	switch {
	case n <= 0:
		return 0
	case n == math.MaxInt64:
		return w.rand.Int63()
	default:
		return w.rand.Int63n(n + 1)
	}
}

// ceiling returns min(base * 2**attempt, max), saturating at max when
// the product overflows. A non-positive base or max yields zero, and a
// negative attempt is treated as zero.
func ceiling(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 || max <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 62 || base > max>>uint(attempt) {
		return max
	}
	return base << uint(attempt)
}

// NewRetryAfterWaiter constructs a Waiter that honours the Retry-After
// header of the most recent response, and otherwise defers to the
// fallback waiter.
//
// The header is interpreted by ParseRetryAfter relative to the time
// returned by now, which defaults to time.Now if nil. A header that is
// missing or cannot be parsed is ignored. A wait taken from the header
// is not jittered and is not capped by the fallback waiter's maximum.
func NewRetryAfterWaiter(fallback Waiter, now func() time.Time) Waiter {
	if fallback == nil {
		panic("httpretry/retry: nil fallback waiter")
	}
	if now == nil {
		now = time.Now
	}
	return &retryAfterWaiter{fallback: fallback, now: now}
}

type retryAfterWaiter struct {
	fallback Waiter
	now      func() time.Time
}

func (w *retryAfterWaiter) Wait(e *request.Execution) time.Duration {
	if d, ok := retryAfter(e.Response, w.now); ok {
		return d
	}
	return w.fallback.Wait(e)
}

func retryAfter(resp *http.Response, now func() time.Time) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	v := resp.Header.Get(HeaderRetryAfter)
	if v == "" {
		return 0, false
	}
	return ParseRetryAfter(v, now())
}

func jitterToRand(jitter interface{}) *rand.Rand {
	var s rand.Source
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("httpretry/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("httpretry/retry: invalid jitter type")
	}
	return rand.New(s)
}
