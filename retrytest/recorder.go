// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retrytest

import (
	"context"
	"sync"
	"time"
)

// A SleepRecorder records blocking sleeps instead of performing them.
// Use its Sleep method as httpretry.Transport.Sleep.
//
// The zero value is ready to use. SleepRecorder is safe for concurrent
// use by multiple goroutines.
type SleepRecorder struct {
	mu        sync.Mutex
	durations []time.Duration
}

// Sleep records d and returns immediately.
func (r *SleepRecorder) Sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations = append(r.durations, d)
}

// Calls returns the number of sleeps recorded.
func (r *SleepRecorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.durations)
}

// Durations returns the recorded sleeps, in order.
func (r *SleepRecorder) Durations() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration{}, r.durations...)
}

// A WaitRecorder records context-aware waits instead of performing
// them. Use its Wait method as httpretry.ContextTransport.Wait.
//
// The zero value is ready to use. WaitRecorder is safe for concurrent
// use by multiple goroutines.
type WaitRecorder struct {
	SleepRecorder
}

// Wait records d and returns ctx.Err(), so a wait with a context that
// is already done fails just as a real wait would.
func (r *WaitRecorder) Wait(ctx context.Context, d time.Duration) error {
	r.Sleep(d)
	return ctx.Err()
}
