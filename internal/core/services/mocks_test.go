package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

// --- Mock implementations shared by the service tests ---

var errTransport = errors.New("boom")

type mockSessions struct {
	err   error
	calls int
}

func (m *mockSessions) Acquire(_ context.Context, creds domain.Credentials) (*domain.Session, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Session{TenantURL: creds.TenantURL, AccessToken: "tok"}, nil
}

// mockTransport serves scripted search results and change pages.
type mockTransport struct {
	mu sync.Mutex

	// searchRows is paged by StartRow/RowLimit for every Search call.
	searchRows []domain.Row
	searchErr  error
	// searchErrAt fails the search call whose StartRow equals it (when >= 0).
	searchErrAt int
	queries     []domain.SearchQuery

	// changePages maps a site URL to its change-log pages, served in order.
	changePages map[string][][]domain.RawChange
	changeErr   map[string]error
	tokens      map[string][]domain.ChangeToken

	openErr   map[string]error
	libraries []string

	items     map[string]*domain.ListItem
	itemErr   error
	downloads map[string]string
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		searchErrAt: -1,
		changePages: make(map[string][][]domain.RawChange),
		changeErr:   make(map[string]error),
		tokens:      make(map[string][]domain.ChangeToken),
		openErr:     make(map[string]error),
		items:       make(map[string]*domain.ListItem),
		downloads:   make(map[string]string),
	}
}

func (m *mockTransport) Search(_ context.Context, _ *domain.Session, q domain.SearchQuery) ([]domain.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)

	if m.searchErr != nil && (m.searchErrAt < 0 || m.searchErrAt == q.StartRow) {
		return nil, m.searchErr
	}
	if q.StartRow >= len(m.searchRows) {
		return nil, nil
	}
	end := len(m.searchRows)
	if q.RowLimit > 0 {
		end = min(q.StartRow+q.RowLimit, end)
	}
	return m.searchRows[q.StartRow:end], nil
}

func (m *mockTransport) OpenContainer(
	_ context.Context, _ *domain.Session, siteURL, library string,
) (*domain.Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.libraries = append(m.libraries, library)
	if err := m.openErr[siteURL]; err != nil {
		return nil, err
	}
	return &domain.Container{SiteURL: siteURL, ListID: "list-" + siteURL, Title: library}, nil
}

func (m *mockTransport) QueryChanges(
	_ context.Context, _ *domain.Session, c *domain.Container, token domain.ChangeToken,
) ([]domain.RawChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := m.tokens[c.SiteURL]
	m.tokens[c.SiteURL] = append(calls, token)

	pages := m.changePages[c.SiteURL]
	n := len(calls)
	if n < len(pages) {
		return pages[n], nil
	}
	if err := m.changeErr[c.SiteURL]; err != nil {
		return nil, err
	}
	return nil, nil
}

func (m *mockTransport) GetListItem(
	_ context.Context, _ *domain.Session, _, _, itemID string,
) (*domain.ListItem, error) {
	if m.itemErr != nil {
		return nil, m.itemErr
	}
	item, ok := m.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (m *mockTransport) Download(
	_ context.Context, _ *domain.Session, _, relativePath string,
) (io.ReadCloser, error) {
	content, ok := m.downloads[relativePath]
	if !ok {
		return nil, domain.ErrTransport
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (m *mockTransport) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// row builds a result row from alternating keys and values.
func row(kv ...string) domain.Row {
	var r domain.Row
	for i := 0; i+1 < len(kv); i += 2 {
		k, v := kv[i], kv[i+1]
		r.Cells = append(r.Cells, domain.Cell{Key: &k, Value: &v})
	}
	return r
}

func siteRow(path string) domain.Row {
	return row(domain.PropPath, path)
}

// change builds a raw change row.
func change(kind domain.ChangeKind, id, token, ts string) domain.RawChange {
	props := domain.Properties{}
	if id != "" {
		props[domain.PropUniqueID] = id
	}
	return domain.RawChange{Kind: kind, Token: domain.ChangeToken(token), Time: ts, Properties: props}
}

type recordingProgress struct {
	mu    sync.Mutex
	lines []string
}

func (p *recordingProgress) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, fmt.Sprintf(format, args...))
}

func (p *recordingProgress) contains(line string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range p.lines {
		if l == line {
			return true
		}
	}
	return false
}

type failingSink struct{ err error }

func (s failingSink) WriteChange(context.Context, domain.ChangeRecord) error     { return s.err }
func (s failingSink) WriteDocument(context.Context, domain.DocumentRecord) error { return s.err }
func (s failingSink) Close() error                                              { return nil }
