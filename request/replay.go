// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"errors"
	"io"
	"net/http"
)

// ErrNotReplayable is returned by ForAttempt when a request body
// cannot be recreated for a retry.
var ErrNotReplayable = errors.New("httpretry/request: request body is not replayable")

// Replayable returns a request whose body can be re-sent on every
// attempt.
//
// If req has no body, or already has a GetBody function (as requests
// built by http.NewRequest from a bytes.Buffer, bytes.Reader or
// strings.Reader do), req itself is returned. Otherwise the body is
// read fully and closed, and a shallow copy of req is returned with a
// buffered Body and a GetBody function that replays it. If reading or
// closing the body fails, the error is returned and the request must
// not be sent.
func Replayable(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return req, nil
	}
	b, err := readAll(req.Body)
	if err != nil {
		return nil, err
	}
	r2 := new(http.Request)
	*r2 = *req
	r2.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	r2.Body, _ = r2.GetBody()
	r2.ContentLength = int64(len(b))
	return r2, nil
}

// ForAttempt returns the request to send on the given zero-based
// attempt.
//
// The initial attempt sends req unchanged. Every later attempt sends a
// shallow clone of req whose body is freshly obtained from GetBody, so
// the caller's request is never mutated. If req has a body but no
// GetBody function, ErrNotReplayable is returned; use Replayable before
// the first attempt to avoid this.
func ForAttempt(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 {
		return req, nil
	}
	r2 := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return r2, nil
	}
	if req.GetBody == nil {
		return nil, ErrNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	r2.Body = body
	return r2, nil
}

func readAll(rc io.ReadCloser) ([]byte, error) {
	b, err := io.ReadAll(rc)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	if err = rc.Close(); err != nil {
		return nil, err
	}
	return b, nil
}
