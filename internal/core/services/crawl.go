package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

// DefaultLibrary is the document library crawled on each site.
const DefaultLibrary = "Documents"

// Ensure CrawlOrchestrator implements the interfaces.
var (
	_ driving.ChangeCrawler = (*CrawlOrchestrator)(nil)
	_ driving.SiteLister    = (*CrawlOrchestrator)(nil)
)

// CrawlOrchestrator discovers the tenant's shared sites and crawls each
// site's change log, emitting reconciled change records to the sink.
type CrawlOrchestrator struct {
	sessions  driven.SessionProvider
	transport driven.QueryTransport
	sink      driven.RecordSink
	progress  driven.Progress
	retriever *ChangeLogRetriever
	pageSize  int

	// sinkMu serialises sink writes when sites are crawled concurrently.
	sinkMu sync.Mutex
}

// NewCrawlOrchestrator creates a new crawl orchestrator.
// progress is optional.
func NewCrawlOrchestrator(
	sessions driven.SessionProvider,
	transport driven.QueryTransport,
	sink driven.RecordSink,
	progress driven.Progress,
) *CrawlOrchestrator {
	if progress == nil {
		progress = driven.NopProgress{}
	}
	return &CrawlOrchestrator{
		sessions:  sessions,
		transport: transport,
		sink:      sink,
		progress:  progress,
		retriever: NewChangeLogRetriever(transport),
		pageSize:  domain.DefaultPageSize,
	}
}

// WithPageSize overrides the discovery page size.
func (o *CrawlOrchestrator) WithPageSize(size int) *CrawlOrchestrator {
	if size > 0 {
		o.pageSize = size
	}
	return o
}

// Crawl runs one change-log crawl.
//
// Validation and authentication failures abort before any site is touched.
// A failure inside one site is logged and recorded in the report; the other
// sites are still processed and the returned error wraps domain.ErrPartialCrawl.
func (o *CrawlOrchestrator) Crawl(
	ctx context.Context, creds domain.Credentials, opts domain.CrawlOptions,
) (*domain.CrawlReport, error) {
	// 1. Validate arguments
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Library == "" {
		opts.Library = DefaultLibrary
	}

	// 2. Acquire the run's session
	session, err := o.sessions.Acquire(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}

	// 3. Discover sites
	o.progress.Printf("Searching for sites...")
	sites, discoveryErr := o.DiscoverSites(ctx, session)
	if discoveryErr != nil && len(sites) == 0 {
		return nil, fmt.Errorf("discover sites: %w", discoveryErr)
	}
	if discoveryErr != nil {
		logger.Warn("Site discovery stopped after %d sites: %v", len(sites), discoveryErr)
	}
	logger.Info("Discovered %d shared sites", len(sites))

	report := &domain.CrawlReport{
		Sites:        make([]domain.SiteReport, len(sites)),
		DiscoveryErr: discoveryErr,
	}

	// 4. Crawl every site, isolating failures
	if opts.Workers < 2 {
		for i, site := range sites {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Sites[i] = o.crawlSite(ctx, session, site, opts)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i, site := range sites {
			g.Go(func() error {
				report.Sites[i] = o.crawlSite(gctx, session, site, opts)
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return report, err
		}
	}

	logger.Info("Crawl complete: %d sites, %d records, %d failed",
		len(report.Sites), report.Records(), report.Failed())
	return report, report.Err()
}

// Sites acquires a session and returns the tenant's shared sites.
func (o *CrawlOrchestrator) Sites(ctx context.Context, creds domain.Credentials) ([]string, error) {
	session, err := o.sessions.Acquire(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	sites, err := o.DiscoverSites(ctx, session)
	if err != nil {
		return sites, fmt.Errorf("discover sites: %w", err)
	}
	return sites, nil
}

// DiscoverSites lists every site and sub-web of the tenant, most recently
// modified first, without personal sites. Rows without a Path are skipped.
// On a failed page the sites found so far are returned with the error.
func (o *CrawlOrchestrator) DiscoverSites(ctx context.Context, session *domain.Session) ([]string, error) {
	search := func(ctx context.Context, q domain.SearchQuery) ([]domain.Row, error) {
		return o.transport.Search(ctx, session, q)
	}
	cursor := NewPageCursor(searchPages(search, domain.SiteDiscoveryQuery()), o.pageSize)

	var sites []string
	err := cursor.Each(ctx, func(row domain.Row) error {
		path, ok := row.Properties().Get(domain.PropPath)
		if !ok || path == "" {
			return nil
		}
		sites = append(sites, path)
		return nil
	})

	return FilterSites(sites), err
}

// FilterSites drops personal sites, keeping order.
func FilterSites(sites []string) []string {
	filtered := make([]string, 0, len(sites))
	for _, site := range sites {
		if domain.IsPersonalSite(site) {
			logger.Debug("Skipping personal site %s", site)
			continue
		}
		filtered = append(filtered, site)
	}
	return filtered
}

// crawlSite retrieves and emits one site's changes. It never returns an error;
// failures are carried in the report.
func (o *CrawlOrchestrator) crawlSite(
	ctx context.Context, session *domain.Session, site string, opts domain.CrawlOptions,
) domain.SiteReport {
	report := domain.SiteReport{Site: site}
	o.progress.Printf("Getting logs for site %s", site)

	container, err := o.transport.OpenContainer(ctx, session, site, opts.Library)
	if err != nil {
		report.Err = fmt.Errorf("open container: %w", err)
		o.progress.Printf("Failed to get logs for site %s: %v", site, err)
		return report
	}

	changes, err := o.retriever.Retrieve(ctx, session, container, opts.LastModifiedTime)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			report.Err = err
			return report
		}
		// The change log stops here for this run; what was gathered is still emitted.
		o.progress.Printf("Change log for site %s ended early: %v", site, err)
	}

	toIndex, toDelete, err := o.emit(ctx, site, changes)
	report.ToIndex = toIndex
	report.ToDelete = toDelete
	if err != nil {
		report.Err = fmt.Errorf("emit records: %w", err)
		o.progress.Printf("Failed to emit records for site %s: %v", site, err)
		return report
	}

	o.progress.Printf("%d documents to index", toIndex)
	o.progress.Printf("%d documents to delete", toDelete)
	return report
}

// emit writes the change set's records to the sink.
func (o *CrawlOrchestrator) emit(ctx context.Context, site string, changes *domain.ChangeSet) (int, int, error) {
	o.sinkMu.Lock()
	defer o.sinkMu.Unlock()

	var toIndex, toDelete int
	for _, rec := range changes.Records(site) {
		if err := o.sink.WriteChange(ctx, rec); err != nil {
			return toIndex, toDelete, err
		}
		if rec.Operation == domain.OperationIndex {
			toIndex++
		} else {
			toDelete++
		}
	}
	return toIndex, toDelete, nil
}
