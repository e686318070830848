// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core type Execution, which describes the
state of one logical HTTP request as it moves through the retry loop of
an httpretry transport, together with the helpers that make a standard
http.Request safe to send more than once.

An Execution is created when a retrying transport's RoundTrip method is
called and lives exactly as long as that call. It records which attempt
is underway, how many retries remain, the most recent response, and the
wait chosen before the next attempt. Retry policies read the Execution
to make their decisions, and event handlers read it to log or measure
what happened:

	handlers.PushBack(httpretry.BeforeWait, httpretry.HandlerFunc(
		func(_ httpretry.Event, e *request.Execution) {
			log.Printf("retrying %s in %s (status %d, %d left)",
				e.Request.URL, e.Wait, e.StatusCode(), e.RetriesLeft)
		}))

Because a retry re-sends the same request, the request body must be
replayable. Replayable buffers a body that cannot be re-read, and
ForAttempt produces the request to send on each attempt:

	req, err = request.Replayable(req)
	...
	r, err := request.ForAttempt(req, e.Attempt)
	...
	resp, err := inner.RoundTrip(r)

You will typically not allocate Execution instances yourself, but will
instead work with the ones handed out by the transport.
*/
package request
