// Package mcp exposes the SharePoint crawl engine as Model Context Protocol
// tools, so AI assistants can search a tenant and pull its change records.
package mcp

import "errors"

// ErrMissingSearchService is returned when no searcher factory is provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrAmbiguousDocument is returned when a lookup names both or neither id.
var ErrAmbiguousDocument = errors.New("mcp: exactly one of item_id or unique_id is required")
