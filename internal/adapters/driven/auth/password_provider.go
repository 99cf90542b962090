package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

// DefaultTokenURL is the Microsoft identity platform token endpoint.
const DefaultTokenURL = "https://login.microsoftonline.com/organizations/oauth2/v2.0/token"

// Ensure PasswordSessionProvider implements the SessionProvider interface.
var _ driven.SessionProvider = (*PasswordSessionProvider)(nil)

// PasswordSessionProvider acquires sessions with the OAuth2 resource owner
// password grant. The requested scope is the tenant's default scope.
type PasswordSessionProvider struct {
	clientID   string
	tokenURL   string
	httpClient *http.Client
}

// PasswordOption configures a PasswordSessionProvider.
type PasswordOption func(*PasswordSessionProvider)

// WithHTTPClient sets the client used for token requests.
func WithHTTPClient(hc *http.Client) PasswordOption {
	return func(p *PasswordSessionProvider) {
		p.httpClient = hc
	}
}

// NewPasswordSessionProvider creates a password-grant session provider.
func NewPasswordSessionProvider(clientID, tokenURL string, opts ...PasswordOption) *PasswordSessionProvider {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	p := &PasswordSessionProvider{clientID: clientID, tokenURL: tokenURL}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire exchanges the user's credentials for an access token.
func (p *PasswordSessionProvider) Acquire(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if p.clientID == "" {
		return nil, fmt.Errorf("%w: client_id is not configured", domain.ErrAuthRequired)
	}

	tenant := strings.TrimRight(creds.TenantURL, "/")
	cfg := &oauth2.Config{
		ClientID: p.clientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  p.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{tenant + "/.default"},
	}

	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	logger.Debug("auth: requesting token for %s at %s", creds.Username, p.tokenURL)
	token, err := cfg.PasswordCredentialsToken(ctx, creds.Username, creds.Password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %w", domain.ErrAuthInvalid, err)
		}
		return nil, fmt.Errorf("%w: token request: %w", domain.ErrTransport, err)
	}

	return &domain.Session{
		TenantURL:   tenant,
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
		Expiry:      token.Expiry,
	}, nil
}
