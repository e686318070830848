// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry decides whether a response received by a retrying
// transport should be retried, and how long to wait before retrying.
//
// The interface Policy defines a retry policy. Most users need only
// the Standard policy, built from a Config with documented defaults:
//
//	c := retry.DefaultConfig()
//	c.MaxAttempts = 5
//	c.RetryableStatusCodes = []int{429, 500, 502, 503, 504}
//	policy, err := retry.New(c)
//
// The Standard policy retries a response when retries remain, the
// request method is retryable, and the response status code is
// retryable. Its wait honours a Retry-After response header, given
// either as delta-seconds or as an HTTP-date, and otherwise uses
// exponential backoff with full jitter: a wait drawn uniformly from
// zero up to min(BackoffFactor·2^attempt, MaxBackoffWait).
//
// A Policy can also be composed from a Decider and a Waiter. Both have
// constructors for common use cases:
//
//	decider := retry.Remaining.
//	               And(retry.Before(30 * time.Second)).
//	               And(retry.StatusCode(503))
//	waiter := retry.NewRetryAfterWaiter(
//	              retry.NewExpWaiter(100*time.Millisecond, 5*time.Second, time.Now()),
//	              time.Now)
//	policy := retry.NewPolicy(3, decider, waiter)
//
// Policies never see transport errors: a round trip that fails without
// a response is returned to the caller immediately.
package retry
