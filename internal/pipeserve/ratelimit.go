package pipeserve

import (
	"sync"
	"time"
)

// RateLimiter caps capture requests per sliding window. The cap is
// global, not per client: every capture monopolizes the display's
// duplication interface, so the scarce resource is machine-wide.
type RateLimiter struct {
	maxGrants int
	window    time.Duration
	mu        sync.Mutex
	grants    []time.Time
}

// NewRateLimiter creates a rate limiter with the given max grants per window.
func NewRateLimiter(maxGrants int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxGrants: maxGrants,
		window:    window,
	}
}

// Allow checks whether another capture may run now. If allowed, it
// records the grant.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	// Prune expired entries
	pruned := r.grants[:0]
	for _, t := range r.grants {
		if t.After(cutoff) {
			pruned = append(pruned, t)
		}
	}

	if len(pruned) >= r.maxGrants {
		r.grants = pruned
		return false
	}

	r.grants = append(pruned, now)
	return true
}

// Reset clears all rate limit state (for testing).
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants = nil
}
