package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Validation Errors.

	// ErrInvalidLastModified indicates the last_modified_time argument could not be parsed.
	// It is fatal and aborts a run before any remote call.
	ErrInvalidLastModified = errors.New("argument last_modified_time is incorrect, expected format is YYYY-MM-DD HH:MM:SS")

	// Authentication Errors.

	// ErrAuthRequired indicates credentials are missing.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the credentials were rejected by the tenant.
	ErrAuthInvalid = errors.New("authentication invalid")

	// Transport Errors.

	// ErrTransport indicates a single remote request failed.
	// It is recoverable at site/container granularity.
	ErrTransport = errors.New("transport error")

	// ErrRateLimited indicates the remote service throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// Crawl Errors.

	// ErrNotADocument indicates a list item resolved to a folder or other non-file object.
	ErrNotADocument = errors.New("item is not a document")

	// ErrPartialCrawl indicates at least one site failed while the others were crawled.
	ErrPartialCrawl = errors.New("crawl completed with failed sites")
)
