package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

// QueryTransport issues requests against the remote document repository.
// Every method is a single request: no pagination, no retry of failed pages.
// Failures wrap domain.ErrTransport.
type QueryTransport interface {
	// Search runs one page of a search query and returns its raw rows.
	Search(ctx context.Context, session *domain.Session, query domain.SearchQuery) ([]domain.Row, error)

	// OpenContainer resolves a site's document library by title.
	OpenContainer(ctx context.Context, session *domain.Session, siteURL, library string) (*domain.Container, error)

	// QueryChanges returns the next page of the container's change log,
	// restricted to Add, Update and Delete events on items and files.
	// An empty token starts at the beginning of retained history.
	QueryChanges(
		ctx context.Context, session *domain.Session, container *domain.Container, token domain.ChangeToken,
	) ([]domain.RawChange, error)

	// GetListItem fetches a library item by its numeric id.
	GetListItem(
		ctx context.Context, session *domain.Session, siteURL, library, itemID string,
	) (*domain.ListItem, error)

	// Download streams a file's content. The caller must close the reader.
	Download(ctx context.Context, session *domain.Session, siteURL, relativePath string) (io.ReadCloser, error)
}
