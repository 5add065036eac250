package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket guarding upstream REST calls. Tokens accrue
// continuously at one per refill interval, up to the burst capacity.
type RateLimiter struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	interval time.Duration
	last     time.Time
}

// NewRateLimiter allows maxTokens burst calls and a sustained rate of one
// call per refillInterval.
func NewRateLimiter(maxTokens int, refillInterval time.Duration) *RateLimiter {
	return &RateLimiter{
		capacity: float64(maxTokens),
		tokens:   float64(maxTokens),
		interval: refillInterval,
		last:     time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait, ok := r.take()
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// take consumes a token when one is available; otherwise it reports how long
// until the next token accrues.
func (r *RateLimiter) take() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if r.interval > 0 {
		r.tokens += float64(now.Sub(r.last)) / float64(r.interval)
		if r.tokens > r.capacity {
			r.tokens = r.capacity
		}
	}
	r.last = now

	if r.tokens >= 1 {
		r.tokens--
		return 0, true
	}
	return time.Duration((1 - r.tokens) * float64(r.interval)), false
}
