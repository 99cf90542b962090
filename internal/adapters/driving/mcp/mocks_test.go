package mcp

import (
	"context"
	"fmt"
	"io"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driving"
)

// mockSearcher writes its documents to the sink it was built with.
type mockSearcher struct {
	sink driven.RecordSink
	docs []domain.DocumentRecord
	err  error
	opts *domain.SearchOptions
}

func (m *mockSearcher) Search(ctx context.Context, _ domain.Credentials, opts domain.SearchOptions) (int, error) {
	*m.opts = opts
	for _, d := range m.docs {
		if err := m.sink.WriteDocument(ctx, d); err != nil {
			return 0, err
		}
	}
	return len(m.docs), m.err
}

func searchFactory(docs []domain.DocumentRecord, err error, seen *domain.SearchOptions) SearcherFactory {
	if seen == nil {
		seen = &domain.SearchOptions{}
	}
	return func(sink driven.RecordSink) driving.DocumentSearcher {
		return &mockSearcher{sink: sink, docs: docs, err: err, opts: seen}
	}
}

// mockCrawler writes its records to the sink it was built with.
type mockCrawler struct {
	sink    driven.RecordSink
	records []domain.ChangeRecord
	report  *domain.CrawlReport
	err     error
	opts    *domain.CrawlOptions
}

func (m *mockCrawler) Crawl(
	ctx context.Context, _ domain.Credentials, opts domain.CrawlOptions,
) (*domain.CrawlReport, error) {
	*m.opts = opts
	for _, r := range m.records {
		if err := m.sink.WriteChange(ctx, r); err != nil {
			return nil, err
		}
	}
	return m.report, m.err
}

func crawlFactory(
	records []domain.ChangeRecord, report *domain.CrawlReport, err error, seen *domain.CrawlOptions,
) CrawlerFactory {
	if seen == nil {
		seen = &domain.CrawlOptions{}
	}
	return func(sink driven.RecordSink) driving.ChangeCrawler {
		return &mockCrawler{sink: sink, records: records, report: report, err: err, opts: seen}
	}
}

// mockSites is a mock implementation of driving.SiteLister.
type mockSites struct {
	sites []string
	err   error
}

func (m *mockSites) Sites(_ context.Context, _ domain.Credentials) ([]string, error) {
	return m.sites, m.err
}

// mockLookup is a mock implementation of driving.DocumentLookup.
type mockLookup struct {
	record   *domain.DocumentRecord
	err      error
	site     string
	itemID   string
	uniqueID string
	docsOnly bool
}

func (m *mockLookup) ByItemID(
	_ context.Context, _ domain.Credentials, site, itemID string, docsOnly bool,
) (*domain.DocumentRecord, error) {
	m.site, m.itemID, m.docsOnly = site, itemID, docsOnly
	return m.record, m.err
}

func (m *mockLookup) ByUniqueID(
	_ context.Context, _ domain.Credentials, site, uniqueID string,
) (*domain.DocumentRecord, error) {
	m.site, m.uniqueID = site, uniqueID
	return m.record, m.err
}

func (m *mockLookup) Download(_ context.Context, _ domain.Credentials, _, _ string) (string, error) {
	return "", domain.ErrNotImplemented
}

// mockSessions hands out an empty session.
type mockSessions struct{}

func (mockSessions) Acquire(_ context.Context, creds domain.Credentials) (*domain.Session, error) {
	return &domain.Session{TenantURL: creds.TenantURL}, nil
}

// pagedTransport serves total search rows and records each page's start row.
type pagedTransport struct {
	total  int
	starts []int
}

func (m *pagedTransport) Search(_ context.Context, _ *domain.Session, q domain.SearchQuery) ([]domain.Row, error) {
	m.starts = append(m.starts, q.StartRow)
	var rows []domain.Row
	for i := q.StartRow; i < q.StartRow+q.RowLimit && i < m.total; i++ {
		key, value := domain.PropPath, fmt.Sprintf("https://t/sites/a/Shared Documents/%d.docx", i)
		rows = append(rows, domain.Row{Cells: []domain.Cell{{Key: &key, Value: &value}}})
	}
	return rows, nil
}

func (m *pagedTransport) OpenContainer(context.Context, *domain.Session, string, string) (*domain.Container, error) {
	return nil, domain.ErrNotImplemented
}

func (m *pagedTransport) QueryChanges(
	context.Context, *domain.Session, *domain.Container, domain.ChangeToken,
) ([]domain.RawChange, error) {
	return nil, domain.ErrNotImplemented
}

func (m *pagedTransport) GetListItem(
	context.Context, *domain.Session, string, string, string,
) (*domain.ListItem, error) {
	return nil, domain.ErrNotImplemented
}

func (m *pagedTransport) Download(context.Context, *domain.Session, string, string) (io.ReadCloser, error) {
	return nil, domain.ErrNotImplemented
}
