// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package logging logs the progress of retrying transports using
// zerolog.
//
// Create a logger with New, or bring your own, and install it into the
// handler group of a transport:
//
//	handlers := &httpretry.HandlerGroup{}
//	logging.Install(handlers, logging.New("info", false, os.Stderr))
//	t := &httpretry.ContextTransport{Handlers: handlers}
//
// Attempts are logged at debug level, retries at info level, and
// transport errors and exhausted retries at warn level. If the request
// context carries a zerolog logger (see zerolog.Logger.WithContext),
// that logger is used instead of the installed one.
package logging

import (
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gogama/httpretry"
	"github.com/gogama/httpretry/request"
	"github.com/gogama/httpretry/retry"
	"github.com/gogama/httpretry/transient"
)

// MaskValue replaces sensitive values in logged URLs.
const MaskValue = "REDACTED"

var sensitiveParams = []string{
	"password", "passwd", "pwd",
	"secret", "key", "api_key", "apikey",
	"token", "access_token", "refresh_token",
	"auth", "authorization",
	"signature", "sig",
}

// New creates a zerolog logger writing to w at the given level. If
// pretty is true, output is formatted for human readability; otherwise
// one JSON object is written per line. An unknown level selects info.
func New(level string, pretty bool, w io.Writer) zerolog.Logger {
	var l zerolog.Logger
	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(w).With().Timestamp().Logger()
	}

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		zLevel = zerolog.InfoLevel
	}
	return l.Level(zLevel)
}

// Install pushes a handler logging to l onto every event chain of g
// that it logs.
func Install(g *httpretry.HandlerGroup, l zerolog.Logger) {
	h := &handler{log: l}
	g.PushBack(httpretry.AfterAttempt, h)
	g.PushBack(httpretry.BeforeWait, h)
	g.PushBack(httpretry.AfterExecutionEnd, h)
}

type handler struct {
	log zerolog.Logger
}

func (h *handler) Handle(evt httpretry.Event, e *request.Execution) {
	l := h.logger(e)
	switch evt {
	case httpretry.AfterAttempt:
		if e.Err != nil {
			with(l.Warn(), e).
				Err(e.Err).
				Str("error_kind", transient.Categorize(e.Err).String()).
				Msg("attempt failed")
			return
		}
		with(l.Debug(), e).
			Int("status", e.StatusCode()).
			Int("retries_left", e.RetriesLeft).
			Msg("attempt completed")
	case httpretry.BeforeWait:
		ev := with(l.Info(), e).
			Int("status", e.StatusCode()).
			Int("retries_left", e.RetriesLeft).
			Dur("wait", e.Wait)
		if ra := e.Header().Get(retry.HeaderRetryAfter); ra != "" {
			ev = ev.Str("retry_after", ra)
		}
		ev.Msg("retrying request")
	case httpretry.AfterExecutionEnd:
		if e.Exhausted {
			with(l.Warn(), e).
				Int("status", e.StatusCode()).
				Msg("retries exhausted")
		}
		ev := with(l.Debug(), e).
			Int("attempts", e.Attempt+1).
			Dur("duration", e.Duration())
		if e.Err != nil {
			ev = ev.Err(e.Err)
		} else {
			ev = ev.Int("status", e.StatusCode())
		}
		ev.Msg("execution ended")
	}
}

func (h *handler) logger(e *request.Execution) *zerolog.Logger {
	if e.Request != nil {
		if l := zerolog.Ctx(e.Request.Context()); l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	return &h.log
}

func with(ev *zerolog.Event, e *request.Execution) *zerolog.Event {
	ev = ev.Str("execution_id", e.ID).
		Str("method", e.Method()).
		Int("attempt", e.Attempt)
	if e.Request != nil && e.Request.URL != nil {
		ev = ev.Str("url", RedactURL(e.Request.URL))
	}
	return ev
}

// RedactURL returns u in string form with its password and the values
// of sensitive query parameters, such as token or api_key, replaced by
// MaskValue. The fragment is dropped.
func RedactURL(u *url.URL) string {
	r := *u
	r.Fragment = ""
	r.RawFragment = ""
	if r.User != nil {
		if _, ok := r.User.Password(); ok {
			r.User = url.UserPassword(r.User.Username(), MaskValue)
		}
	}
	if r.RawQuery != "" {
		q := r.Query()
		masked := false
		for k, vs := range q {
			if !isSensitive(k) {
				continue
			}
			for i := range vs {
				vs[i] = MaskValue
			}
			masked = true
		}
		if masked {
			r.RawQuery = q.Encode()
		}
	}
	return r.String()
}

func isSensitive(param string) bool {
	p := strings.ToLower(param)
	for _, s := range sensitiveParams {
		if p == s {
			return true
		}
	}
	return false
}
