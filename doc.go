// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpretry provides retrying HTTP transports: http.RoundTripper
decorators that transparently re-send requests whose responses carry a
retryable status code, such as 429 or 503.

The quickest way to get started is NewClient, which returns a standard
http.Client whose transport retries with the default policy:

	client := httpretry.NewClient(nil, nil)
	resp, err := client.Get("https://www.example.com")

To add retries to an existing client, use Wrap:

	client = httpretry.Wrap(client, retry.DefaultPolicy)

Two transports are provided. Both run the same retry loop and differ
only in how they wait between attempts. Transport blocks the calling
goroutine using its Sleep function, while ContextTransport waits in a
way that ends early, with an error, when the request context is done:

	t := &httpretry.ContextTransport{
		Inner:  http.DefaultTransport,
		Policy: retry.MustNew(retry.Config{MaxAttempts: 3}),
	}

Only responses are ever retried. If the inner transport returns an
error, the error is returned to the caller at once. When the retry
policy allows no more retries, the last response is returned as is,
without an error, so callers inspect the status code as usual.

For control over retry decisions and timing, use package retry. The
Standard policy honours the Retry-After response header and otherwise
backs off exponentially with full jitter.

To hook into the fine-grained details of the retry loop, install a
handler into the appropriate handler chain:

	handlers := &httpretry.HandlerGroup{}
	handlers.PushBack(httpretry.BeforeWait, httpretry.HandlerFunc(
		func(_ httpretry.Event, e *request.Execution) {
			log.Printf("%s returned %d, retrying in %s",
				e.Request.URL, e.StatusCode(), e.Wait)
		}))
	t := &httpretry.Transport{
		Handlers: handlers,
	}

Packages logging and otelretry provide ready-made handlers for
structured logging and OpenTelemetry metrics, and package config loads
a retry policy from a file and the environment.
*/
package httpretry
