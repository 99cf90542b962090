package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.DocumentSearcher = (*SearchService)(nil)

// SearchService runs document searches and emits one record per result row.
// Results are not diffed against earlier runs.
type SearchService struct {
	sessions  driven.SessionProvider
	transport driven.QueryTransport
	sink      driven.RecordSink
	progress  driven.Progress
	pageSize  int
}

// NewSearchService creates a new search service.
// progress is optional.
func NewSearchService(
	sessions driven.SessionProvider,
	transport driven.QueryTransport,
	sink driven.RecordSink,
	progress driven.Progress,
) *SearchService {
	if progress == nil {
		progress = driven.NopProgress{}
	}
	return &SearchService{
		sessions:  sessions,
		transport: transport,
		sink:      sink,
		progress:  progress,
		pageSize:  domain.DefaultPageSize,
	}
}

// WithPageSize overrides the search page size.
func (s *SearchService) WithPageSize(size int) *SearchService {
	if size > 0 {
		s.pageSize = size
	}
	return s
}

// Search pages through every document matching opts until a page comes back
// empty. Volume is bounded only by the query itself, typically by Since.
func (s *SearchService) Search(ctx context.Context, creds domain.Credentials, opts domain.SearchOptions) (int, error) {
	session, err := s.sessions.Acquire(ctx, creds)
	if err != nil {
		return 0, fmt.Errorf("acquire session: %w", err)
	}
	return s.SearchWithSession(ctx, session, opts)
}

// SearchWithSession runs a search with an already acquired session.
func (s *SearchService) SearchWithSession(
	ctx context.Context, session *domain.Session, opts domain.SearchOptions,
) (int, error) {
	build := domain.DocumentSearchQuery(opts.Request, opts.Since, opts.SelectProperties)
	logger.Debug("Search query: %s", build(0, s.pageSize).QueryText)

	search := func(ctx context.Context, q domain.SearchQuery) ([]domain.Row, error) {
		return s.transport.Search(ctx, session, q)
	}
	cursor := NewPageCursor(searchPages(search, build), s.pageSize)

	count := 0
	err := cursor.Each(ctx, func(row domain.Row) error {
		rec := domain.NewDocumentRecord(row.Properties())
		if err := s.sink.WriteDocument(ctx, rec); err != nil {
			return fmt.Errorf("write document %s: %w", rec.Path, err)
		}
		count++
		return nil
	})

	s.progress.Printf("Found %d documents", count)
	if err != nil {
		return count, fmt.Errorf("search after %d pages: %w", cursor.Pages(), err)
	}
	return count, nil
}
