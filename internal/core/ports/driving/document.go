package driving

import (
	"context"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

// DocumentLookup resolves single documents and downloads their content.
type DocumentLookup interface {
	// ByItemID resolves a library item to its search record.
	// With docsOnly set, folders resolve to domain.ErrNotADocument.
	ByItemID(ctx context.Context, creds domain.Credentials, site, itemID string, docsOnly bool) (*domain.DocumentRecord, error)

	// ByUniqueID resolves a document by unique id inside a site.
	ByUniqueID(ctx context.Context, creds domain.Credentials, site, uniqueID string) (*domain.DocumentRecord, error)

	// Download fetches a file and returns the temporary path it was written to.
	Download(ctx context.Context, creds domain.Credentials, site, relativePath string) (string, error)
}
