package services

import (
	"context"
	"fmt"
	"path"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentLookup = (*DocumentService)(nil)

// DocumentService resolves single documents and downloads their binaries.
// Each call is one request/response exchange without pagination.
type DocumentService struct {
	sessions  driven.SessionProvider
	transport driven.QueryTransport
	temp      driven.TempStore
	progress  driven.Progress
	library   string
}

// NewDocumentService creates a new document service.
// temp may be nil if Download is never called; progress is optional.
func NewDocumentService(
	sessions driven.SessionProvider,
	transport driven.QueryTransport,
	temp driven.TempStore,
	progress driven.Progress,
) *DocumentService {
	if progress == nil {
		progress = driven.NopProgress{}
	}
	return &DocumentService{
		sessions:  sessions,
		transport: transport,
		temp:      temp,
		progress:  progress,
		library:   DefaultLibrary,
	}
}

// WithLibrary overrides the document library used for item lookups.
func (s *DocumentService) WithLibrary(library string) *DocumentService {
	if library != "" {
		s.library = library
	}
	return s
}

// ByItemID resolves a library item to the search record of its file.
func (s *DocumentService) ByItemID(
	ctx context.Context, creds domain.Credentials, site, itemID string, docsOnly bool,
) (*domain.DocumentRecord, error) {
	session, err := s.sessions.Acquire(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}

	item, err := s.transport.GetListItem(ctx, session, site, s.library, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", itemID, err)
	}
	if docsOnly && !item.IsFile() {
		return nil, fmt.Errorf("item %s: %w", itemID, domain.ErrNotADocument)
	}

	return s.single(ctx, session, domain.PathQuery(item.EncodedAbsURL))
}

// ByUniqueID resolves a document by unique id inside a site.
func (s *DocumentService) ByUniqueID(
	ctx context.Context, creds domain.Credentials, site, uniqueID string,
) (*domain.DocumentRecord, error) {
	session, err := s.sessions.Acquire(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	return s.single(ctx, session, domain.UniqueIDQuery(site, uniqueID))
}

// Download fetches a file by server-relative path into a temporary file.
func (s *DocumentService) Download(
	ctx context.Context, creds domain.Credentials, site, relativePath string,
) (string, error) {
	if s.temp == nil {
		return "", fmt.Errorf("download: %w: no temp store configured", domain.ErrNotImplemented)
	}

	session, err := s.sessions.Acquire(ctx, creds)
	if err != nil {
		return "", fmt.Errorf("acquire session: %w", err)
	}

	s.progress.Printf(">>> Downloading file %s", relativePath)
	body, err := s.transport.Download(ctx, session, site, relativePath)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", relativePath, err)
	}
	defer body.Close()

	location, err := s.temp.Save(ctx, path.Base(relativePath), body)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", relativePath, err)
	}
	return location, nil
}

// single runs a one-row query and normalises the row.
func (s *DocumentService) single(
	ctx context.Context, session *domain.Session, query domain.SearchQuery,
) (*domain.DocumentRecord, error) {
	rows, err := s.transport.Search(ctx, session, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}

	rec := domain.NewDocumentRecord(rows[0].Properties())
	return &rec, nil
}
