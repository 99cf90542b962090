package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

// ChangeLogRetriever walks one container's change log by chaining change tokens.
type ChangeLogRetriever struct {
	transport driven.QueryTransport
}

// NewChangeLogRetriever creates a retriever over the given transport.
func NewChangeLogRetriever(transport driven.QueryTransport) *ChangeLogRetriever {
	return &ChangeLogRetriever{transport: transport}
}

// Retrieve queries the container's change log from the start of retained history,
// feeding every row to a reconciler bounded by since. Each page resumes from the
// token of the previous page's last row; an empty page ends the walk.
//
// A failed query stops the walk. The partial change set accumulated so far is
// returned together with the error so the caller can keep it.
func (r *ChangeLogRetriever) Retrieve(
	ctx context.Context,
	session *domain.Session,
	container *domain.Container,
	since time.Time,
) (*domain.ChangeSet, error) {
	reconciler := NewReconciler(since)

	var token domain.ChangeToken
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return reconciler.Result(), err
		}

		changes, err := r.transport.QueryChanges(ctx, session, container, token)
		if err != nil {
			return reconciler.Result(), fmt.Errorf("query changes page %d: %w", page, err)
		}
		if len(changes) == 0 {
			return reconciler.Result(), nil
		}

		for _, change := range changes {
			reconciler.ApplyRaw(change)
		}

		// The trailing token is taken even when the last row was filtered out.
		next := changes[len(changes)-1].Token
		logger.Debug("Change page %d for %s: %d rows", page, container.SiteURL, len(changes))
		if next == "" || next == token {
			// Without a fresh token the next query would repeat this page.
			logger.Warn("Change log for %s returned no usable continuation token", container.SiteURL)
			return reconciler.Result(), nil
		}
		token = next
	}
}
