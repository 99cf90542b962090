package auth

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
)

// Ensure StaticSessionProvider implements the SessionProvider interface.
var _ driven.SessionProvider = (*StaticSessionProvider)(nil)

// StaticSessionProvider issues sessions carrying a pre-acquired access token.
// Username and password are not required.
type StaticSessionProvider struct {
	token string
}

// NewStaticSessionProvider creates a provider for an existing bearer token.
func NewStaticSessionProvider(token string) *StaticSessionProvider {
	return &StaticSessionProvider{token: token}
}

// Acquire returns a session for the tenant without a remote call.
func (p *StaticSessionProvider) Acquire(_ context.Context, creds domain.Credentials) (*domain.Session, error) {
	if creds.TenantURL == "" {
		return nil, domain.ErrInvalidInput
	}
	if p.token == "" {
		return nil, domain.ErrAuthRequired
	}
	return &domain.Session{
		TenantURL:   strings.TrimRight(creds.TenantURL, "/"),
		AccessToken: p.token,
		TokenType:   "Bearer",
	}, nil
}
