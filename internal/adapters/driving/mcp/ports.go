package mcp

import (
	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driving"
)

// SearcherFactory builds a document searcher writing into sink.
type SearcherFactory func(sink driven.RecordSink) driving.DocumentSearcher

// CrawlerFactory builds a change crawler writing into sink.
type CrawlerFactory func(sink driven.RecordSink) driving.ChangeCrawler

// Ports aggregates the driving ports used by the MCP server.
// Searches and crawls stream into a sink, so each tool call builds its own
// service around an in-memory record store and returns what it collected.
type Ports struct {
	// Credentials are used for every call.
	Credentials domain.Credentials

	// Search builds document searchers. Required.
	Search SearcherFactory

	// Crawl builds change crawlers. Optional.
	Crawl CrawlerFactory

	// Sites lists shared sites. Optional.
	Sites driving.SiteLister

	// Document resolves single documents. Optional.
	Document driving.DocumentLookup
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
