package driven

import (
	"context"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

// SessionProvider acquires an authenticated session for a tenant.
// Failures are fatal for a run and should wrap domain.ErrAuthInvalid
// or domain.ErrAuthRequired.
type SessionProvider interface {
	Acquire(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
}
