package driving

import (
	"context"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

// ChangeCrawler discovers sites and emits reconciled change records for each of them.
type ChangeCrawler interface {
	// Crawl runs one change-log crawl across every shared site of the tenant.
	// It returns an error wrapping domain.ErrPartialCrawl together with a
	// report when some sites failed but the others were processed.
	Crawl(ctx context.Context, creds domain.Credentials, opts domain.CrawlOptions) (*domain.CrawlReport, error)
}

// SiteLister lists the tenant's shared sites without crawling them.
type SiteLister interface {
	// Sites returns shared sites, most recently modified first. Personal
	// sites are excluded. On a failed page the sites found so far are
	// returned together with the error.
	Sites(ctx context.Context, creds domain.Credentials) ([]string, error)
}
