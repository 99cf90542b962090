package sharepoint

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// ProactiveRate is the sustained request rate per client.
	ProactiveRate = 10

	// ProactiveBurst is the number of requests allowed back to back.
	ProactiveBurst = 5

	// MaxBackoff caps a single wait between retries.
	MaxBackoff = time.Minute

	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter throttles requests with a token bucket and honours
// the service's Retry-After hints on 429 and 503 responses.
type RateLimiter struct {
	bucket    *rate.Limiter
	baseDelay time.Duration
}

// NewRateLimiter creates a rate limiter. baseDelay is the first backoff
// used when the service gives no Retry-After hint.
func NewRateLimiter(limit rate.Limit, burst int, baseDelay time.Duration) *RateLimiter {
	return &RateLimiter{
		bucket:    rate.NewLimiter(limit, burst),
		baseDelay: baseDelay,
	}
}

// Wait blocks until the bucket allows another request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.bucket.Wait(ctx)
}

// Delay returns how long to wait before retry number attempt (zero-based).
func (r *RateLimiter) Delay(header http.Header, attempt int) time.Duration {
	if d, ok := parseRetryAfter(header.Get(HeaderRetryAfter), time.Now()); ok {
		return min(d, MaxBackoff)
	}
	if attempt > 16 {
		return MaxBackoff
	}
	return min(r.baseDelay<<attempt, MaxBackoff)
}

// Backoff sleeps for d or until ctx is done.
func (r *RateLimiter) Backoff(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(at.Sub(now), 0), true
	}
	return 0, false
}
