package sharepoint

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// SharePoint-specific errors.
var (
	// ErrConfigMissingURL indicates company_url is not configured.
	ErrConfigMissingURL = errors.New("sharepoint: company_url is not configured")

	// ErrConfigInvalidPageSize indicates page_size is not a positive integer.
	ErrConfigInvalidPageSize = errors.New("sharepoint: page_size must be positive")

	// ErrInvalidItemID indicates a list item id is not numeric.
	ErrInvalidItemID = errors.New("sharepoint: item id must be numeric")
)

// RateLimitError represents throttling that outlasted every retry.
type RateLimitError struct {
	RetryAfter time.Duration
	URL        string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("sharepoint: throttled, retry after %s (URL: %s)", e.RetryAfter, e.URL)
}

// APIError represents a SharePoint error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sharepoint: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsThrottled checks if the error indicates throttling.
func IsThrottled(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

func isThrottleStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}
