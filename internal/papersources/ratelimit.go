package papersources

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimiter paces requests to one source. It wraps a token bucket with a
// burst of one, so consecutive permits are always separated by at least
// 1/rate seconds, even under concurrent callers. Each source owns exactly
// one limiter; vendor quotas are independent, so limiter state is never
// shared across sources.
//
// Safe for concurrent use: the underlying rate.Limiter serializes the
// check-and-reserve internally.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter permitting ratePerSecond requests.
// A rate of 0 means unlimited. A negative rate is a configuration error
// reported here, never at Wait time.
func NewRateLimiter(ratePerSecond float64) (*RateLimiter, error) {
	if ratePerSecond < 0 {
		return nil, fmt.Errorf("rate limit must be non-negative, got %v", ratePerSecond)
	}
	if ratePerSecond == 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}, nil
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1)}, nil
}

// Wait blocks until a request is permitted or the context is done. When the
// context deadline fires mid-wait, the sleep is aborted and the context
// error returned; the request must not proceed after the deadline.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed immediately, consuming the
// permit if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetRate adjusts the sustained rate, e.g. in response to rate-limit
// headers from the API. A rate of 0 removes the limit.
func (r *RateLimiter) SetRate(ratePerSecond float64) {
	if ratePerSecond <= 0 {
		r.limiter.SetLimit(rate.Inf)
		return
	}
	r.limiter.SetLimit(rate.Limit(ratePerSecond))
}
