package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LastModifiedLayout is the accepted format of the last_modified_time argument.
const LastModifiedLayout = "2006-01-02 15:04:05"

// personalSegment marks per-user storage in a site URL.
const personalSegment = "personal"

// ParseLastModifiedTime parses a last_modified_time execution argument as UTC.
func ParseLastModifiedTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(LastModifiedLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w: %q", ErrInvalidInput, ErrInvalidLastModified, s)
	}
	return t, nil
}

// CrawlOptions are the execution arguments of a change-log crawl.
type CrawlOptions struct {
	// LastModifiedTime is the inclusive lower bound for change events.
	LastModifiedTime time.Time

	// Library is the document library title opened on each site.
	Library string

	// Workers is the number of sites crawled concurrently. Values below 2 crawl sequentially.
	Workers int
}

// Validate checks the options before any remote call is made.
func (o CrawlOptions) Validate() error {
	if o.LastModifiedTime.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidInput, ErrInvalidLastModified)
	}
	return nil
}

// SearchOptions are the execution arguments of a document search.
type SearchOptions struct {
	// Request is the free-text query fragment. Optional.
	Request string

	// SelectProperties are extra result columns.
	SelectProperties []string

	// Since restricts results to documents modified strictly after it. Optional.
	Since *time.Time
}

// IsPersonalSite returns true if the URL's second-to-last path segment is
// the personal-storage marker, e.g. https://t/personal/bob.
func IsPersonalSite(siteURL string) bool {
	segments := strings.Split(strings.TrimRight(siteURL, "/"), "/")
	if len(segments) < 2 {
		return false
	}
	return segments[len(segments)-2] == personalSegment
}

// SiteReport summarises the crawl of one site.
type SiteReport struct {
	Site     string
	ToIndex  int
	ToDelete int

	// Err is set when the site could not be crawled completely.
	Err error
}

// CrawlReport summarises a whole run.
type CrawlReport struct {
	Sites []SiteReport

	// DiscoveryErr is set when site discovery stopped early.
	// The sites found before the failure are still crawled.
	DiscoveryErr error
}

// Failed returns the number of sites that reported an error.
func (r *CrawlReport) Failed() int {
	n := 0
	for _, s := range r.Sites {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// Records returns the total number of change records emitted.
func (r *CrawlReport) Records() int {
	n := 0
	for _, s := range r.Sites {
		n += s.ToIndex + s.ToDelete
	}
	return n
}

// Err returns ErrPartialCrawl joined with every site error, or nil if all sites succeeded.
func (r *CrawlReport) Err() error {
	var errs []error
	if r.DiscoveryErr != nil {
		errs = append(errs, fmt.Errorf("site discovery: %w", r.DiscoveryErr))
	}
	for _, s := range r.Sites {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Site, s.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPartialCrawl, errors.Join(errs...))
}
