// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gogama/httpretry/request"
)

// A Policy controls if and how retries are done by a retrying
// transport. After every attempt that returns a response, the Policy
// decides whether a retry should be done and, if so, how long the wait
// period should be before retrying.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
//
// A Policy is composed of the Decider and Waiter interfaces, plus
// MaxAttempts, which gives the number of retries an execution starts
// with. While you can implement Policy yourself, it is usually simpler
// to use the Standard policy, constructed by New, or to compose your
// own using NewPolicy with existing Decider and Waiter implementations.
type Policy interface {
	Decider
	Waiter
	// MaxAttempts returns the maximum number of retries, not counting
	// the initial attempt. It seeds Execution.RetriesLeft.
	MaxAttempts() int
}

// DefaultPolicy is a Standard policy built from DefaultConfig.
var DefaultPolicy = MustNew(DefaultConfig())

// Never is a policy that never retries. It is useful if you want to use
// the event handlers of a retrying transport without retries.
var Never Policy = NewPolicy(0, DeciderFunc(func(_ *request.Execution) bool { return false }), NewFixedWaiter(0))

type policy struct {
	max     int
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a retry Policy
// allowing at most n retries.
//
// The composed policy does not count retries itself: include Remaining
// in the decider to stop once RetriesLeft reaches zero.
func NewPolicy(n int, d Decider, w Waiter) Policy {
	if n < 0 {
		panic("httpretry/retry: n must not be negative")
	}
	if d == nil {
		panic("httpretry/retry: nil decider")
	}
	if w == nil {
		panic("httpretry/retry: nil waiter")
	}
	return policy{max: n, decider: d, waiter: w}
}

func (p policy) Decide(e *request.Execution) bool {
	return p.decider.Decide(e)
}

func (p policy) Wait(e *request.Execution) time.Duration {
	return p.waiter.Wait(e)
}

func (p policy) MaxAttempts() int {
	return p.max
}

// An Option customizes a Standard policy constructed by New.
type Option func(*options)

type options struct {
	jitter    interface{}
	jitterSet bool
	now       func() time.Time
}

// WithJitter sets the source of randomness for the backoff jitter. The
// value is interpreted as described on NewExpWaiter: a seed (time.Time,
// int or int64), a rand.Source, a *rand.Rand, or nil to disable jitter
// so that every backoff equals its ceiling.
//
// Without this option the policy uses a generator seeded from the
// current time.
func WithJitter(jitter interface{}) Option {
	return func(o *options) {
		o.jitter = jitter
		o.jitterSet = true
	}
}

// WithClock sets the clock against which Retry-After dates are
// measured. The default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Standard is the retry policy described by a Config.
//
// A response is retried when retries remain, the request method is in
// RetryableMethods, and the status code is in RetryableStatusCodes. The
// wait honours Retry-After and otherwise uses jittered exponential
// backoff. Standard is safe for concurrent use by multiple goroutines.
type Standard struct {
	config   Config
	methods  map[string]struct{}
	statuses map[int]struct{}
	backoff  *expWaiter
	now      func() time.Time
}

// New validates c and constructs a Standard policy from it.
func New(c Config, opts ...Option) (*Standard, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c = c.normalize()

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.jitterSet {
		o.jitter = time.Now()
	}
	if o.now == nil {
		o.now = time.Now
	}

	ratio := 1.0
	if c.Jitter == PartialJitter {
		ratio = c.JitterRatio
	}

	s := &Standard{
		config:   c,
		methods:  make(map[string]struct{}, len(c.RetryableMethods)),
		statuses: make(map[int]struct{}, len(c.RetryableStatusCodes)),
		backoff:  newExpWaiter(c.BackoffFactor, c.MaxBackoffWait, ratio, jitterToRand(o.jitter)),
		now:      o.now,
	}
	for _, m := range c.RetryableMethods {
		s.methods[m] = struct{}{}
	}
	for _, sc := range c.RetryableStatusCodes {
		s.statuses[sc] = struct{}{}
	}
	return s, nil
}

// MustNew is like New but panics if the configuration is invalid.
func MustNew(c Config, opts ...Option) *Standard {
	s, err := New(c, opts...)
	if err != nil {
		panic(fmt.Sprintf("httpretry/retry: %v", err))
	}
	return s
}

// Config returns the normalized configuration of the policy.
func (s *Standard) Config() Config {
	return s.config.normalize()
}

// MaxAttempts returns the configured maximum number of retries.
func (s *Standard) MaxAttempts() int {
	return s.config.MaxAttempts
}

// IsRetryableMethod reports whether requests with the given method may
// be retried. An empty method is treated as GET.
func (s *Standard) IsRetryableMethod(method string) bool {
	if method == "" {
		method = http.MethodGet
	}
	_, ok := s.methods[method]
	return ok
}

// IsRetryableStatus reports whether responses with the given status
// code may be retried.
func (s *Standard) IsRetryableStatus(code int) bool {
	_, ok := s.statuses[code]
	return ok
}

// ShouldRetry reports whether resp, received for req, should be
// retried given that retriesLeft retries remain. A nil response is
// never retried.
func (s *Standard) ShouldRetry(req *http.Request, resp *http.Response, retriesLeft int) bool {
	if retriesLeft <= 0 || resp == nil {
		return false
	}
	method := http.MethodGet
	if req != nil {
		method = req.Method
	}
	return s.IsRetryableMethod(method) && s.IsRetryableStatus(resp.StatusCode)
}

// ComputeWait returns how long to wait before retrying after resp was
// received on the given zero-based attempt.
//
// A parseable Retry-After header on resp determines the wait exactly.
// Otherwise the wait is drawn from the jittered exponential backoff for
// attempt.
func (s *Standard) ComputeWait(resp *http.Response, attempt int) time.Duration {
	if d, ok := retryAfter(resp, s.now); ok {
		return d
	}
	return s.backoff.wait(attempt)
}

// Decide implements Decider using ShouldRetry.
func (s *Standard) Decide(e *request.Execution) bool {
	return s.ShouldRetry(e.Request, e.Response, e.RetriesLeft)
}

// Wait implements Waiter using ComputeWait.
func (s *Standard) Wait(e *request.Execution) time.Duration {
	return s.ComputeWait(e.Response, e.Attempt)
}
