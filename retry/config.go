// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gogama/httpretry/request"
)

// Defaults used by DefaultConfig.
const (
	// DefaultMaxAttempts is the default number of retries, not counting
	// the initial attempt.
	DefaultMaxAttempts = 10
	// DefaultBackoffFactor is the default base of the exponential
	// backoff.
	DefaultBackoffFactor = 100 * time.Millisecond
	// DefaultMaxBackoffWait is the default ceiling on a computed
	// backoff. It does not cap a wait requested by Retry-After.
	DefaultMaxBackoffWait = 120 * time.Second
	// DefaultJitterRatio is the default jittered fraction of the
	// backoff ceiling when PartialJitter is selected.
	DefaultJitterRatio = 0.1
)

// DefaultRetryableMethods returns the methods retried by default: the
// safe and idempotent methods of RFC 9110.
func DefaultRetryableMethods() []string {
	return []string{
		http.MethodGet,
		http.MethodHead,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
		http.MethodTrace,
	}
}

// DefaultRetryableStatusCodes returns the status codes retried by
// default: 429 (Too Many Requests), 502 (Bad Gateway), 503 (Service
// Unavailable) and 504 (Gateway Timeout).
func DefaultRetryableStatusCodes() []int {
	return []int{
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	}
}

// A JitterMode selects how a backoff ceiling is turned into a wait.
type JitterMode int

const (
	// FullJitter draws the wait uniformly from [0, ceiling].
	FullJitter JitterMode = iota
	// PartialJitter waits ceiling·(1-r) plus a value drawn uniformly
	// from [0, ceiling·r], where r is Config.JitterRatio.
	PartialJitter
)

var jitterModeNames = []string{"full", "partial"}

// String returns "full" or "partial".
func (m JitterMode) String() string {
	if m < 0 || int(m) >= len(jitterModeNames) {
		return fmt.Sprintf("JitterMode(%d)", int(m))
	}
	return jitterModeNames[m]
}

// ParseJitterMode parses the name of a JitterMode, as returned by its
// String method. Matching is case-insensitive and the empty string
// parses as FullJitter.
func ParseJitterMode(s string) (JitterMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return FullJitter, nil
	case "partial":
		return PartialJitter, nil
	default:
		return 0, fmt.Errorf("httpretry/retry: invalid jitter mode %q (must be one of: %s)",
			s, strings.Join(jitterModeNames, ", "))
	}
}

// Config holds the settings of a Standard retry policy.
//
// Start from DefaultConfig and change the fields you need. A nil
// RetryableMethods or RetryableStatusCodes slice selects the default
// set, while an empty non-nil slice makes nothing retryable. A zero
// JitterRatio selects DefaultJitterRatio. Every other field is taken
// literally, so a zero MaxAttempts disables retries.
type Config struct {
	// MaxAttempts is the maximum number of retries, not counting the
	// initial attempt.
	MaxAttempts int `validate:"gte=0"`
	// BackoffFactor is the base of the exponential backoff: the ceiling
	// before the first retry.
	BackoffFactor time.Duration `validate:"gte=0"`
	// MaxBackoffWait caps the exponential backoff ceiling.
	MaxBackoffWait time.Duration `validate:"gte=0"`
	// RetryableMethods lists the request methods eligible for retry.
	// Methods are compared exactly, as HTTP methods are case-sensitive.
	RetryableMethods []string `validate:"dive,httpmethod"`
	// RetryableStatusCodes lists the response status codes eligible for
	// retry.
	RetryableStatusCodes []int `validate:"dive,gte=100,lte=599"`
	// Jitter selects the jitter mode.
	Jitter JitterMode `validate:"oneof=0 1"`
	// JitterRatio is the jittered fraction of the ceiling, in (0, 1],
	// used when Jitter is PartialJitter.
	JitterRatio float64 `validate:"gt=0,lte=1"`
}

// DefaultConfig returns a Config holding the default settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:          DefaultMaxAttempts,
		BackoffFactor:        DefaultBackoffFactor,
		MaxBackoffWait:       DefaultMaxBackoffWait,
		RetryableMethods:     DefaultRetryableMethods(),
		RetryableStatusCodes: DefaultRetryableStatusCodes(),
		Jitter:               FullJitter,
		JitterRatio:          DefaultJitterRatio,
	}
}

// normalize fills in the defaults selected by nil slices and a zero
// jitter ratio, and copies the slices so later changes by the caller
// have no effect.
func (c Config) normalize() Config {
	if c.RetryableMethods == nil {
		c.RetryableMethods = DefaultRetryableMethods()
	} else {
		c.RetryableMethods = append([]string{}, c.RetryableMethods...)
	}
	if c.RetryableStatusCodes == nil {
		c.RetryableStatusCodes = DefaultRetryableStatusCodes()
	} else {
		c.RetryableStatusCodes = append([]int{}, c.RetryableStatusCodes...)
	}
	if c.JitterRatio == 0 {
		c.JitterRatio = DefaultJitterRatio
	}
	return c
}

// Validate reports whether the configuration, after defaults are
// filled in, is usable by New.
func (c Config) Validate() error {
	n := c.normalize()
	if err := validate.Struct(&n); err != nil {
		return fmt.Errorf("httpretry/retry: invalid config: %w", err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("httpmethod", func(fl validator.FieldLevel) bool {
		return request.ValidMethod(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("httpretry/retry: register validation: %v", err))
	}
	return v
}
