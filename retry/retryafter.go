// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HeaderRetryAfter is the canonical name of the Retry-After header.
const HeaderRetryAfter = "Retry-After"

const maxDuration = time.Duration(math.MaxInt64)

// dateLayouts are tried, in order, after http.ParseTime has rejected a
// value. http.ParseTime accepts the three RFC 9110 formats, all in GMT.
var dateLayouts = []string{
	time.RFC1123Z,
	"Mon, 02 Jan 2006 15:04:05",
	time.RFC1123,
}

// ParseRetryAfter interprets the value of a Retry-After header relative
// to now, and reports whether the value was usable.
//
// A value of delta-seconds, which may have a fractional part, yields
// that many seconds; a negative number yields zero. An HTTP-date yields
// the time remaining until that date, or zero if it has passed. Dates
// are accepted in the three RFC 9110 formats, in IMF-fixdate form with
// a numeric zone offset such as -0500 or a named zone such as UTC, and
// in IMF-fixdate form with no zone at all, which is taken to be UTC.
//
// Any other value, including the empty string, yields false.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, false
	}
	if isDecimal(v) {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return secondsToDuration(secs), true
	}
	t, ok := parseDate(v)
	if !ok {
		return 0, false
	}
	d := t.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

func parseDate(v string) (time.Time, bool) {
	if t, err := http.ParseTime(v); err == nil {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isDecimal reports whether s is an optionally signed decimal number
// with at least one digit and at most one decimal point. It rejects the
// exponents, hex forms, and special values that strconv.ParseFloat
// would otherwise accept.
func isDecimal(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

func secondsToDuration(secs float64) time.Duration {
	if secs <= 0 {
		return 0
	}
	if secs >= float64(maxDuration)/float64(time.Second) {
		return maxDuration
	}
	return time.Duration(secs * float64(time.Second))
}
