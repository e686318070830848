// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package otelretry records OpenTelemetry metrics and span events for
// retrying transports.
//
// Install the handlers into the handler group of a transport:
//
//	handlers := &httpretry.HandlerGroup{}
//	if err := otelretry.Install(handlers); err != nil {
//		...
//	}
//
// The following instruments are recorded, using the global meter
// provider unless WithMeterProvider is given:
//
//	http.client.retry.attempts   counter, every attempt sent
//	http.client.retry.retries    counter, every retry decided
//	http.client.retry.exhausted  counter, executions ending with retries exhausted
//	http.client.retry.wait       histogram, seconds waited before each retry
//
// In addition, every retry adds an "http.retry" event to the span found
// in the request context, if that span is recording.
package otelretry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/gogama/httpretry"
	"github.com/gogama/httpretry/request"
	"github.com/gogama/httpretry/retry"
	"github.com/gogama/httpretry/transient"
)

const (
	// ScopeName is the instrumentation scope of the meter.
	ScopeName = "github.com/gogama/httpretry/otelretry"

	metricAttempts  = "http.client.retry.attempts"
	metricRetries   = "http.client.retry.retries"
	metricExhausted = "http.client.retry.exhausted"
	metricWait      = "http.client.retry.wait"

	// EventRetry is the name of the span event added for each retry.
	EventRetry = "http.retry"

	attrHTTPRequestMethod  = "http.request.method"
	attrHTTPResponseStatus = "http.response.status_code"
	attrErrorType          = "error.type"
	attrRetryAttempt       = "http.retry.attempt"
	attrRetryWait          = "http.retry.wait"
	attrRetryAfter         = "http.retry.retry_after"
)

var waitBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// An Option customizes Install.
type Option func(*config)

type config struct {
	meterProvider metric.MeterProvider
}

// WithMeterProvider sets the meter provider used to create the
// instruments. The default is the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = mp
	}
}

// Install creates the instruments and pushes a handler recording them
// onto g. An error is returned if any instrument cannot be created, in
// which case g is not modified.
func Install(g *httpretry.HandlerGroup, opts ...Option) error {
	c := config{}
	for _, opt := range opts {
		opt(&c)
	}
	if c.meterProvider == nil {
		c.meterProvider = otel.GetMeterProvider()
	}

	meter := c.meterProvider.Meter(ScopeName)
	h := &handler{}
	var err, errs error
	h.attempts, err = meter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of HTTP request attempts sent by retrying transports"),
		metric.WithUnit("{attempt}"),
	)
	errs = errors.Join(errs, err)
	h.retries, err = meter.Int64Counter(
		metricRetries,
		metric.WithDescription("Number of retries decided by retrying transports"),
		metric.WithUnit("{retry}"),
	)
	errs = errors.Join(errs, err)
	h.exhausted, err = meter.Int64Counter(
		metricExhausted,
		metric.WithDescription("Number of executions that ended with retries exhausted"),
		metric.WithUnit("{execution}"),
	)
	errs = errors.Join(errs, err)
	h.wait, err = meter.Float64Histogram(
		metricWait,
		metric.WithDescription("Wait before each retry"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(waitBuckets...),
	)
	errs = errors.Join(errs, err)
	if errs != nil {
		return errs
	}

	g.PushBack(httpretry.AfterAttempt, h)
	g.PushBack(httpretry.BeforeWait, h)
	g.PushBack(httpretry.AfterExecutionEnd, h)
	return nil
}

type handler struct {
	attempts  metric.Int64Counter
	retries   metric.Int64Counter
	exhausted metric.Int64Counter
	wait      metric.Float64Histogram
}

func (h *handler) Handle(evt httpretry.Event, e *request.Execution) {
	ctx := context.Background()
	if e.Request != nil {
		ctx = e.Request.Context()
	}

	switch evt {
	case httpretry.AfterAttempt:
		h.attempts.Add(ctx, 1, metric.WithAttributes(attrs(e)...))
	case httpretry.BeforeWait:
		a := attrs(e)
		h.retries.Add(ctx, 1, metric.WithAttributes(a...))
		h.wait.Record(ctx, e.Wait.Seconds(), metric.WithAttributes(a...))
		addRetryEvent(ctx, e)
	case httpretry.AfterExecutionEnd:
		if e.Exhausted {
			h.exhausted.Add(ctx, 1, metric.WithAttributes(attrs(e)...))
		}
	}
}

func addRetryEvent(ctx context.Context, e *request.Execution) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	a := []attribute.KeyValue{
		attribute.Int(attrRetryAttempt, e.Attempt+1),
		attribute.Float64(attrRetryWait, e.Wait.Seconds()),
		attribute.Int(attrHTTPResponseStatus, e.StatusCode()),
	}
	if ra := e.Header().Get(retry.HeaderRetryAfter); ra != "" {
		a = append(a, attribute.String(attrRetryAfter, ra))
	}
	span.AddEvent(EventRetry, trace.WithAttributes(a...))
}

func attrs(e *request.Execution) []attribute.KeyValue {
	a := []attribute.KeyValue{
		attribute.String(attrHTTPRequestMethod, e.Method()),
	}
	if e.Err != nil {
		a = append(a, attribute.String(attrErrorType, transient.Categorize(e.Err).String()))
	} else if e.Response != nil {
		a = append(a, attribute.Int(attrHTTPResponseStatus, e.StatusCode()))
	}
	return a
}
