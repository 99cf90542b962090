package domain

import (
	"fmt"
	"time"
)

// Watch limits.
const (
	MinWatchInterval    = time.Minute
	DefaultWatchOverlap = time.Minute
	WatchHistorySize    = 100
)

// WatchConfig configures repeated change crawls.
type WatchConfig struct {
	// Interval is the time between the starts of two crawls.
	Interval time.Duration

	// Overlap is subtracted from the next window start to absorb clock skew
	// between this host and the tenant. Records in the overlap are emitted twice.
	Overlap time.Duration

	// MaxRuns stops the watch after this many crawls. 0 means unlimited.
	MaxRuns int
}

// Validate checks the interval and limits.
func (c WatchConfig) Validate() error {
	if c.Interval < MinWatchInterval {
		return fmt.Errorf("%w: watch interval %s is below %s", ErrInvalidInput, c.Interval, MinWatchInterval)
	}
	if c.Overlap < 0 || c.Overlap >= c.Interval {
		return fmt.Errorf("%w: watch overlap %s must be in [0, interval)", ErrInvalidInput, c.Overlap)
	}
	if c.MaxRuns < 0 {
		return fmt.Errorf("%w: max runs %d", ErrInvalidInput, c.MaxRuns)
	}
	return nil
}

// WatchResult is the outcome of one crawl of a watch.
type WatchResult struct {
	// Run numbers crawls from 1.
	Run int

	// Since is the window start the crawl used.
	Since time.Time

	StartedAt time.Time
	EndedAt   time.Time

	Records     int
	FailedSites int

	Err error
}

// NextSince returns the window start for the crawl after r. The window only
// moves forward after a fully successful crawl, so failed sites are retried
// with the same window.
func (r WatchResult) NextSince(overlap time.Duration) time.Time {
	if r.Err != nil {
		return r.Since
	}
	next := r.StartedAt.Add(-overlap)
	if next.Before(r.Since) {
		return r.Since
	}
	return next
}
