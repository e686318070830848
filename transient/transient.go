// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// A Category is the category of a transport error, as reported by
// Categorize.
type Category int

const (
	// Not indicates a nil error, or an error that fits no other
	// category.
	Not Category = iota
	// Timeout indicates a client-side timeout, including an exceeded
	// request context deadline.
	//
	// Categorize returns Timeout if the error or any of its wrapped
	// causes has a Timeout method that reports true.
	Timeout
	// ConnRefused indicates the remote host refused the connection
	// (POSIX ECONNREFUSED), typically because nothing is listening on
	// the port yet.
	ConnRefused
	// ConnReset indicates the remote host sent an RST on a previously
	// active TCP connection (POSIX ECONNRESET).
	ConnReset
	// Canceled indicates the request context was cancelled, either
	// during an attempt or while waiting to retry.
	Canceled
	// DNS indicates name resolution failed.
	DNS
)

var categoryNames = []string{
	"none",
	"timeout",
	"conn_refused",
	"conn_reset",
	"canceled",
	"dns",
}

// String returns a short snake_case name for the category, suitable
// for use as a log field or metric attribute value.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// Categorize returns the category of the given error. A nil error, and
// an error that fits no other category, both produce Not.
//
// Categorize looks at wrapped cause errors contained within err, not
// just err itself. Cancellation is checked first, then timeouts, so a
// cancelled context is never reported as a timeout.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	if errors.Is(err, context.Canceled) {
		return Canceled
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if errno == syscall.ECONNRESET {
			return ConnReset
		} else if errno == syscall.ECONNREFUSED {
			return ConnRefused
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return DNS
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
