package sharepoint

import (
	"fmt"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeyCompanyURL       = "company_url"
	KeyUsername         = "username"
	KeyPassword         = "password"
	KeyLibrary          = "library"
	KeyPageSize         = "page_size"
	KeySearchRequest    = "search_request"
	KeySelectProperties = "select_properties"
	KeyClientID         = "client_id"
	KeyTokenURL         = "token_url"
	KeyWorkers          = "workers"
	KeyDocsOnly         = "docs_only"
	KeyAccessToken      = "access_token"
	KeyDataDir          = "data_dir"
)

// DefaultLibrary is the document library crawled when none is configured.
const DefaultLibrary = "Documents"

// Config holds the tenant and crawl settings.
type Config struct {
	// CompanyURL is the tenant root. Required.
	CompanyURL string

	Username string
	Password string

	// Library is the document library title. Default: Documents
	Library string

	// PageSize is the search page size. Default: 500
	PageSize int

	// SearchRequest is the default free-text document query.
	SearchRequest string

	// SelectProperties are extra result columns for document searches.
	SelectProperties []string

	// ClientID and TokenURL configure the password grant.
	ClientID string
	TokenURL string

	// Workers is the number of sites crawled concurrently. 0 or 1 is sequential.
	Workers int

	// DocsOnly rejects lookups that resolve to folders.
	DocsOnly bool

	// AccessToken, when set, replaces the password grant.
	AccessToken string

	// DataDir holds the run database. Default: ~/.sercha-sp/data
	DataDir string
}

// ParseConfig reads a Config from the config store, applying defaults.
func ParseConfig(store driven.ConfigStore) (*Config, error) {
	cfg := &Config{
		CompanyURL:       store.GetString(KeyCompanyURL),
		Username:         store.GetString(KeyUsername),
		Password:         store.GetString(KeyPassword),
		Library:          store.GetString(KeyLibrary),
		PageSize:         store.GetInt(KeyPageSize),
		SearchRequest:    store.GetString(KeySearchRequest),
		SelectProperties: domain.ParseSelectProperties(store.GetString(KeySelectProperties)),
		ClientID:         store.GetString(KeyClientID),
		TokenURL:         store.GetString(KeyTokenURL),
		Workers:          store.GetInt(KeyWorkers),
		DocsOnly:         store.GetBool(KeyDocsOnly),
		AccessToken:      store.GetString(KeyAccessToken),
		DataDir:          store.GetString(KeyDataDir),
	}

	if cfg.CompanyURL == "" {
		return nil, ErrConfigMissingURL
	}
	if cfg.Library == "" {
		cfg.Library = DefaultLibrary
	}
	if _, set := store.Get(KeyPageSize); !set {
		cfg.PageSize = domain.DefaultPageSize
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrConfigInvalidPageSize, cfg.PageSize)
	}
	if cfg.Workers < 0 {
		cfg.Workers = 0
	}
	return cfg, nil
}

// NeedsPassword reports whether a password must be supplied before a
// session can be acquired.
func (c *Config) NeedsPassword() bool {
	return c.AccessToken == "" && c.Password == ""
}

// Credentials returns the configured login for the tenant.
func (c *Config) Credentials() domain.Credentials {
	return domain.Credentials{
		TenantURL: trimURL(c.CompanyURL),
		Username:  c.Username,
		Password:  c.Password,
	}
}
