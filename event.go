// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpretry

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Transport or ContextTransport to
// extend it with custom functionality such as logging or metrics.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// execution starts.
	//
	// When a transport fires BeforeExecutionStart, the execution is
	// non-nil but only its ID, Request and RetriesLeft fields have been
	// set.
	BeforeExecutionStart Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// individual HTTP request attempt during the execution.
	//
	// When a transport fires BeforeAttempt, the execution's Attempt
	// field holds the zero-based number of the attempt about to be
	// sent. Response and Err still hold the results of the previous
	// attempt, if any.
	BeforeAttempt
	// AfterAttempt identifies the event that occurs after an HTTP
	// request attempt is concluded, regardless of whether it concluded
	// with a response or an error.
	//
	// When a transport fires AfterAttempt, exactly one of the
	// execution's Response and Err fields is non-nil.
	//
	// Note that AfterAttempt runs before the retry policy is consulted
	// for a retry decision, so handlers may read the response headers
	// but must not consume the response body.
	AfterAttempt
	// BeforeWait identifies the event that occurs after the retry
	// policy has decided to retry, and before the transport waits.
	//
	// When a transport fires BeforeWait, the execution's Wait field
	// holds the wait about to be performed and RetriesLeft has not yet
	// been decremented. The body of the response being retried has
	// already been drained and closed.
	BeforeWait
	// AfterExecutionEnd identifies the event that occurs after the
	// execution ends.
	//
	// When a transport fires AfterExecutionEnd, the execution is in
	// the same state it was in after the final HTTP request attempt
	// (and last AfterAttempt event) EXCEPT that the end time is set,
	// Exhausted is set if the final response was still retryable, and
	// Err is set if the execution was cancelled while waiting.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"AfterAttempt",
	"BeforeWait",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in an
// execution, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		AfterAttempt,
		BeforeWait,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
