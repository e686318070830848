// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gogama/httpretry/transient"
)

// An Execution represents the state of a single retrying round trip.
//
// When a retrying transport's RoundTrip method is called, an Execution
// is created for it. The Execution is updated as the round trip
// progresses (for example when a response arrives, or when a retry is
// decided) and is discarded when RoundTrip returns. It is never shared
// between round trips, so no locking is needed to read it from a retry
// policy or an event handler.
//
// Retry policies and event handlers may set values on an Execution
// using its SetValue method and read them back using the Value method.
// However, they should treat the exported fields as read-only, as the
// execution state drives the retry loop.
type Execution struct {
	// ID uniquely identifies the execution. It is assigned when the
	// execution starts and is intended for correlating log lines and
	// trace events that belong to the same logical request.
	ID string
	// Request is the request passed to RoundTrip by the caller. It is
	// never nil. Individual attempts send clones of this request
	// produced by ForAttempt.
	Request *http.Request
	// Start is the start time of the execution. It is assigned a
	// non-zero value when the execution starts and remains constant
	// thereafter.
	Start time.Time
	// End is the end time of the execution. It contains the zero value
	// until the execution ends, when it is set to the current time.
	End time.Time
	// Attempt is the zero-based number of the current attempt. It is
	// zero on the initial attempt, one on the first retry, and so on,
	// so at any point it equals the number of retries performed so far.
	Attempt int
	// RetriesLeft is the number of retries still permitted. It starts
	// at the retry policy's maximum and is decremented each time a
	// retry is decided.
	RetriesLeft int
	// Response is the response received on the most recent attempt. It
	// is nil before the first response arrives and if the most recent
	// attempt ended in a transport error.
	//
	// The body of a response that is going to be retried is drained
	// and closed before the wait, so handlers running at BeforeWait or
	// later must not read it.
	Response *http.Response
	// Err is the transport error returned by the most recent attempt,
	// or the context error if the execution was cancelled while
	// waiting. Transport errors are never retried, so a non-nil Err
	// always ends the execution.
	Err error
	// Wait is the wait computed by the retry policy before the next
	// attempt. It is zero until the first retry is decided.
	Wait time.Duration
	// Exhausted is set when the execution ends because no retries were
	// left while the final response was still eligible for retry. The
	// final response is returned to the caller unchanged either way.
	Exhausted bool

	data context.Context
}

// NewExecution returns a fresh execution for the given request, with
// a newly generated ID and retriesLeft retries available. The
// execution has not started.
func NewExecution(req *http.Request, retriesLeft int) *Execution {
	return &Execution{
		ID:          uuid.NewString(),
		Request:     req,
		RetriesLeft: retriesLeft,
	}
}

// StatusCode returns the status code of the response from the most
// recent attempt. If there is no response, 0 is returned.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// Header returns the response headers from the most recent attempt. If
// there is no response, the nil header is returned.
//
// A nil return value is always safe for read-only operations, since
// http.Header is a map type.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}
	return e.Response.Header
}

// Method returns the request method, defaulting to GET as net/http
// does when the method is empty.
func (e *Execution) Method() string {
	if e.Request == nil || e.Request.Method == "" {
		return http.MethodGet
	}
	return e.Request.Method
}

// Duration returns the duration of the execution.
//
// If the execution has not yet started, the duration is zero. If the
// execution has ended, the duration returned is End minus Start.
// Otherwise, it is the current time minus Start.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}
	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// Timeout indicates whether Err currently contains a timeout error.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// SetValue allows event handlers to store arbitrary data in the
// execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue: it may not be nil, it must be comparable, and it
// should not be a built-in type to avoid collisions between handlers.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}
	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}
	return ctx.Value(key)
}
