package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

// DefaultSearchLimit caps the documents returned by one search call.
const DefaultSearchLimit = 50

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Request string   `json:"request,omitempty" jsonschema:"KQL free-text query, e.g. FileType:docx"`
	Since   string   `json:"since,omitempty" jsonschema:"only documents modified after this time, YYYY-MM-DD HH:MM:SS"`
	Select  []string `json:"select,omitempty" jsonschema:"extra managed properties to return"`
	Limit   int      `json:"limit,omitempty" jsonschema:"maximum number of documents to return (default 50)"`
}

// SearchOutput is the output schema for the search tool.
// Truncated is set when more documents matched than the limit allowed.
type SearchOutput struct {
	Documents []domain.DocumentRecord `json:"documents"`
	Count     int                     `json:"count"`
	Truncated bool                    `json:"truncated,omitempty"`
}

// errSearchLimit ends a search once the limit is collected.
var errSearchLimit = errors.New("search limit reached")

// limitedSink keeps the first limit documents and refuses the next one,
// which stops the result cursor before it requests further pages.
type limitedSink struct {
	*memory.RecordStore
	limit   int
	written int
}

func (s *limitedSink) WriteDocument(ctx context.Context, record domain.DocumentRecord) error {
	if s.written >= s.limit {
		return errSearchLimit
	}
	s.written++
	return s.RecordStore.WriteDocument(ctx, record)
}

// ChangesInput is the input schema for the changes tool.
type ChangesInput struct {
	LastModifiedTime string `json:"last_modified_time" jsonschema:"start of the change window, YYYY-MM-DD HH:MM:SS"`
	Library          string `json:"library,omitempty" jsonschema:"document library title (default Documents)"`
	Workers          int    `json:"workers,omitempty" jsonschema:"sites crawled concurrently"`
}

// ChangesOutput is the output schema for the changes tool.
type ChangesOutput struct {
	Records     []domain.ChangeRecord `json:"records"`
	Count       int                   `json:"count"`
	FailedSites []string              `json:"failed_sites,omitempty"`
}

// DocumentInput is the input schema for the document tool.
type DocumentInput struct {
	Site     string `json:"site" jsonschema:"absolute site URL"`
	ItemID   string `json:"item_id,omitempty" jsonschema:"numeric list item id"`
	UniqueID string `json:"unique_id,omitempty" jsonschema:"document unique id (GUID)"`
	DocsOnly bool   `json:"docs_only,omitempty" jsonschema:"reject items that are folders"`
}

// DocumentOutput is the output schema for the document tool.
type DocumentOutput struct {
	Document domain.DocumentRecord `json:"document"`
}

// registerTools registers the tool handlers whose ports are configured.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sharepoint_search",
		Description: "Search SharePoint documents, most recently modified first",
	}, s.handleSearch)

	if s.ports.Crawl != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sharepoint_changes",
			Description: "List documents to index and to delete across all shared sites since a point in time",
		}, s.handleChanges)
	}

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sharepoint_document",
			Description: "Resolve a single document by list item id or unique id",
		}, s.handleDocument)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	opts := domain.SearchOptions{
		Request:          input.Request,
		SelectProperties: domain.MergeSelectProperties(nil, input.Select),
	}
	if strings.TrimSpace(input.Since) != "" {
		since, err := domain.ParseLastModifiedTime(input.Since)
		if err != nil {
			return nil, SearchOutput{}, err
		}
		opts.Since = &since
	}

	store := memory.NewRecordStore()
	_, err := s.ports.Search(&limitedSink{RecordStore: store, limit: limit}).
		Search(ctx, s.ports.Credentials, opts)
	truncated := errors.Is(err, errSearchLimit)
	if err != nil && !truncated {
		return nil, SearchOutput{}, err
	}

	docs := store.Documents()
	return nil, SearchOutput{Documents: docs, Count: len(docs), Truncated: truncated}, nil
}

// handleChanges handles the changes tool invocation. Sites that failed are
// reported next to the records of the sites that succeeded.
func (s *Server) handleChanges(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChangesInput,
) (*mcp.CallToolResult, ChangesOutput, error) {
	since, err := domain.ParseLastModifiedTime(input.LastModifiedTime)
	if err != nil {
		return nil, ChangesOutput{}, err
	}

	store := memory.NewRecordStore()
	report, err := s.ports.Crawl(store).Crawl(ctx, s.ports.Credentials, domain.CrawlOptions{
		LastModifiedTime: since,
		Library:          input.Library,
		Workers:          input.Workers,
	})
	if err != nil && (report == nil || !errors.Is(err, domain.ErrPartialCrawl)) {
		return nil, ChangesOutput{}, err
	}

	records := store.Changes()
	output := ChangesOutput{Records: records, Count: len(records)}
	if report == nil {
		return nil, output, nil
	}
	for _, site := range report.Sites {
		if site.Err != nil {
			output.FailedSites = append(output.FailedSites, site.Site)
		}
	}
	return nil, output, nil
}

// handleDocument handles the document tool invocation.
func (s *Server) handleDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	if (input.ItemID == "") == (input.UniqueID == "") {
		return nil, DocumentOutput{}, ErrAmbiguousDocument
	}

	var (
		rec *domain.DocumentRecord
		err error
	)
	if input.ItemID != "" {
		rec, err = s.ports.Document.ByItemID(ctx, s.ports.Credentials, input.Site, input.ItemID, input.DocsOnly)
	} else {
		rec, err = s.ports.Document.ByUniqueID(ctx, s.ports.Credentials, input.Site, input.UniqueID)
	}
	if err != nil {
		return nil, DocumentOutput{}, fmt.Errorf("lookup: %w", err)
	}
	return nil, DocumentOutput{Document: *rec}, nil
}
