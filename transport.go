// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpretry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gogama/httpretry/request"
	"github.com/gogama/httpretry/retry"
)

// maxDrain bounds how much of a discarded response body is read so the
// underlying connection can be reused.
const maxDrain = 64 << 10

var emptyHandlers = HandlerGroup{}

// A Transport is an http.RoundTripper that retries requests whose
// responses are retryable according to a retry policy. Its zero value
// is a valid configuration.
//
// The zero value Transport uses http.DefaultTransport as the inner
// transport, retry.DefaultPolicy as the retry policy, time.Sleep to
// wait between attempts, and an empty handler group.
//
// Transport waits by blocking the calling goroutine, and the wait is not
// interrupted if the request context is cancelled. Use ContextTransport
// for waits that honour the request context.
//
// Transport errors returned by the inner transport are never retried:
// they are returned immediately and unchanged. When retries are
// exhausted, the last response is returned without an error. Transport
// is safe for concurrent use by multiple goroutines.
type Transport struct {
	// Inner sends individual attempts.
	//
	// If Inner is nil, http.DefaultTransport is used.
	Inner http.RoundTripper
	// Policy decides when to retry and how long to wait before
	// retrying.
	//
	// If Policy is nil, retry.DefaultPolicy is used.
	Policy retry.Policy
	// Sleep blocks for the given duration before a retry.
	//
	// If Sleep is nil, time.Sleep is used.
	Sleep func(time.Duration)
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during an execution.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
}

// RoundTrip sends req through the inner transport, retrying as long as
// the retry policy allows, and returns the final response.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	sleep := t.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	wait := func(_ context.Context, d time.Duration) error {
		sleep(d)
		return nil
	}
	return execute(req, inner(t.Inner), policy(t.Policy), handlers(t.Handlers), wait)
}

// CloseIdleConnections invokes the same method on the inner transport.
//
// If the inner transport has no CloseIdleConnections method, this
// method does nothing.
func (t *Transport) CloseIdleConnections() {
	closeIdle(inner(t.Inner))
}

// A ContextTransport is an http.RoundTripper that retries requests in
// the same way as Transport, but waits between attempts in a way that
// is interrupted when the request context is done. Its zero value is a
// valid configuration.
//
// If the request context is cancelled, or its deadline passes, while
// ContextTransport is waiting to retry, RoundTrip returns a nil response
// and an error for which errors.Is reports context.Canceled or
// context.DeadlineExceeded, as appropriate.
type ContextTransport struct {
	// Inner sends individual attempts.
	//
	// If Inner is nil, http.DefaultTransport is used.
	Inner http.RoundTripper
	// Policy decides when to retry and how long to wait before
	// retrying.
	//
	// If Policy is nil, retry.DefaultPolicy is used.
	Policy retry.Policy
	// Wait waits for the given duration before a retry, returning a
	// non-nil error if ctx is done first.
	//
	// If Wait is nil, SleepContext is used.
	Wait func(ctx context.Context, d time.Duration) error
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during an execution.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
}

// RoundTrip sends req through the inner transport, retrying as long as
// the retry policy allows and the request context is not done, and
// returns the final response.
func (t *ContextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	wait := t.Wait
	if wait == nil {
		wait = SleepContext
	}
	return execute(req, inner(t.Inner), policy(t.Policy), handlers(t.Handlers), wait)
}

// CloseIdleConnections invokes the same method on the inner transport.
//
// If the inner transport has no CloseIdleConnections method, this
// method does nothing.
func (t *ContextTransport) CloseIdleConnections() {
	closeIdle(inner(t.Inner))
}

// SleepContext waits for duration d, or until ctx is done, whichever
// happens first. It returns ctx.Err() if ctx is done first, and nil
// otherwise.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func execute(req *http.Request, rt http.RoundTripper, p retry.Policy, handlers *HandlerGroup,
	wait func(context.Context, time.Duration) error) (*http.Response, error) {
	req, err := request.Replayable(req)
	if err != nil {
		return nil, err
	}

	e := request.NewExecution(req, p.MaxAttempts())
	handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()

	for {
		var r *http.Request
		r, e.Err = request.ForAttempt(req, e.Attempt)
		if e.Err != nil {
			e.Response = nil
			break
		}
		handlers.run(BeforeAttempt, e)
		e.Response, e.Err = rt.RoundTrip(r)
		if e.Err != nil && e.Response != nil {
			drainAndClose(e.Response.Body)
			e.Response = nil
		}
		handlers.run(AfterAttempt, e)
		if e.Err != nil {
			break
		}
		if !p.Decide(e) {
			e.Exhausted = exhausted(p, e)
			break
		}
		e.Wait = p.Wait(e)
		drainAndClose(e.Response.Body)
		handlers.run(BeforeWait, e)
		if err = wait(req.Context(), e.Wait); err != nil {
			e.Response = nil
			e.Err = fmt.Errorf("httpretry: wait before retry %d: %w", e.Attempt+1, err)
			break
		}
		e.RetriesLeft--
		e.Attempt++
	}

	e.End = time.Now()
	handlers.run(AfterExecutionEnd, e)
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Response, nil
}

// exhausted reports whether the policy declined to retry only because
// no retries were left.
func exhausted(p retry.Policy, e *request.Execution) bool {
	if e.RetriesLeft > 0 {
		return false
	}
	probe := *e
	probe.RetriesLeft = 1
	return p.Decide(&probe)
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, body, maxDrain)
	_ = body.Close()
}

func closeIdle(rt http.RoundTripper) {
	if ic, ok := rt.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func inner(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}

func policy(p retry.Policy) retry.Policy {
	if p == nil {
		return retry.DefaultPolicy
	}
	return p
}

func handlers(g *HandlerGroup) *HandlerGroup {
	if g == nil {
		return &emptyHandlers
	}
	return g
}
