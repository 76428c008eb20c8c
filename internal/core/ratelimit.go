package core

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// RateLimiter is a sliding-window throttle: at most limit calls within any
// trailing window. Check and record happen under one lock.
type RateLimiter struct {
	mu         sync.Mutex
	limit      int
	window     time.Duration
	now        func() time.Time
	timestamps []time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{limit: limit, window: window, now: time.Now}
}

// CheckAndRecord records a request, or fails with a KindRateLimit *Error
// without recording when the window is full.
func (r *RateLimiter) CheckAndRecord() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)
	kept := r.timestamps[:0]
	for _, ts := range r.timestamps {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	r.timestamps = kept

	if len(r.timestamps) >= r.limit {
		wait := r.window
		if len(r.timestamps) > 0 {
			wait -= now.Sub(r.timestamps[0])
		}
		// the oldest call may sit exactly on the cutoff
		retryAfter := int(math.Ceil(wait.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return &Error{
			Kind:              KindRateLimit,
			Message:           fmt.Sprintf("Too many requests. Please wait %d seconds.", retryAfter),
			RetryAfterSeconds: retryAfter,
		}
	}

	r.timestamps = append(r.timestamps, now)
	return nil
}
