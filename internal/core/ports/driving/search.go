package driving

import (
	"context"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

// DocumentSearcher runs bounded document searches and emits one record per result.
type DocumentSearcher interface {
	// Search emits every matching document to the sink and returns the count.
	Search(ctx context.Context, creds domain.Credentials, opts domain.SearchOptions) (int, error)
}
