// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retrytest

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// A Reply scripts one response of a Transport.
type Reply struct {
	// Status is the response status code. Zero means 200.
	Status int
	// RetryAfter, if not empty, is sent as the Retry-After header.
	RetryAfter string
	// Body is the response body.
	Body string
	// Header holds additional response headers.
	Header http.Header
}

// A Transport is a fake http.RoundTripper answering requests from
// per-target reply sequences. The target of a request is its URL in
// string form. Requests to a target with no sequence are answered with
// an empty 200 response.
//
// The zero value is ready to use. Transport is safe for concurrent use
// by multiple goroutines.
type Transport struct {
	mu        sync.Mutex
	sequences map[string][]Reply
	failures  map[string]error
	calls     map[string]int
	requests  []*http.Request
	bodies    []string
	open      int
}

// Sequence scripts the replies for target. The n-th request to target
// receives replies[n]; once the replies are used up, the last one is
// repeated. Calling Sequence again for the same target replaces its
// script and restarts it.
func (t *Transport) Sequence(target string, replies ...Reply) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sequences == nil {
		t.sequences = make(map[string][]Reply)
	}
	t.sequences[target] = append([]Reply{}, replies...)
	delete(t.calls, target)
}

// Fail makes every request to target fail with err instead of returning
// a response. A nil err removes the failure.
func (t *Transport) Fail(target string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err == nil {
		delete(t.failures, target)
		return
	}
	if t.failures == nil {
		t.failures = make(map[string]error)
	}
	t.failures[target] = err
}

// RoundTrip records req and returns the next scripted reply for its
// target. The request body, if any, is read fully and closed.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := readBody(req)
	if err != nil {
		return nil, err
	}
	target := req.URL.String()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.calls == nil {
		t.calls = make(map[string]int)
	}
	n := t.calls[target]
	t.calls[target] = n + 1
	t.requests = append(t.requests, req)
	t.bodies = append(t.bodies, body)

	if err = t.failures[target]; err != nil {
		return nil, err
	}

	var r Reply
	if seq := t.sequences[target]; len(seq) > 0 {
		if n >= len(seq) {
			n = len(seq) - 1
		}
		r = seq[n]
	}
	t.open++
	return t.response(req, r), nil
}

// Calls returns the number of requests received for target.
func (t *Transport) Calls(target string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[target]
}

// Requests returns every request received, in order. The bodies of the
// returned requests have already been consumed; use Bodies to inspect
// them.
func (t *Transport) Requests() []*http.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*http.Request{}, t.requests...)
}

// Bodies returns the body of every request received, in order. A
// request without a body contributes an empty string.
func (t *Transport) Bodies() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.bodies...)
}

// OpenBodies returns the number of response bodies handed out that have
// not yet been closed.
func (t *Transport) OpenBodies() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *Transport) response(req *http.Request, r Reply) *http.Response {
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if r.RetryAfter != "" {
		header.Set("Retry-After", r.RetryAfter)
	}
	header.Set("Content-Length", strconv.Itoa(len(r.Body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          &replyBody{Reader: strings.NewReader(r.Body), t: t},
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

type replyBody struct {
	*strings.Reader
	t      *Transport
	closed bool
}

func (b *replyBody) Close() error {
	b.t.mu.Lock()
	defer b.t.mu.Unlock()
	if !b.closed {
		b.closed = true
		b.t.open--
	}
	return nil
}

func readBody(req *http.Request) (string, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return "", nil
	}
	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
