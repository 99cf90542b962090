package domain

import "time"

// Credentials identify a user on one remote tenant.
type Credentials struct {
	// TenantURL is the company root, e.g. https://contoso.sharepoint.com.
	TenantURL string

	// Username is the account login.
	Username string

	// Password is the account secret.
	Password string
}

// Validate checks that every field needed to acquire a session is present.
func (c Credentials) Validate() error {
	if c.TenantURL == "" {
		return ErrInvalidInput
	}
	if c.Username == "" || c.Password == "" {
		return ErrAuthRequired
	}
	return nil
}

// Session is an authenticated handle scoped to one tenant.
// It is created once per run and never mutated after acquisition,
// so it may be shared by concurrent site workers.
type Session struct {
	// TenantURL is the tenant the session was issued for.
	TenantURL string

	// AccessToken is the bearer credential presented to the query transport.
	AccessToken string

	// TokenType is the authorization scheme, usually "Bearer".
	TokenType string

	// Expiry is when the access token stops being valid. Zero means unknown.
	Expiry time.Time
}

// Valid returns true if the session carries a token that has not expired.
func (s *Session) Valid() bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return s.Expiry.IsZero() || time.Now().Before(s.Expiry)
}
