// Package auth provides session providers that turn tenant credentials
// into an authenticated session.
package auth

import (
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
)

// Settings selects and configures a session provider.
type Settings struct {
	// AccessToken, when set, is used as-is and no token request is made.
	AccessToken string

	// ClientID is the application registered for the password grant.
	ClientID string

	// TokenURL overrides the token endpoint. Default: DefaultTokenURL
	TokenURL string
}

// NewSessionProvider returns a static provider when an access token is
// configured, otherwise a password-grant provider.
func NewSessionProvider(settings Settings, opts ...PasswordOption) driven.SessionProvider {
	if settings.AccessToken != "" {
		return NewStaticSessionProvider(settings.AccessToken)
	}
	return NewPasswordSessionProvider(settings.ClientID, settings.TokenURL, opts...)
}
