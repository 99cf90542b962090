package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/services"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

var (
	changesSince   string
	changesWorkers int
	changesLibrary string
	changesEvery   time.Duration
	changesOverlap time.Duration
	changesMaxRuns int
	changesSinks   sinkFlags
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "List documents changed since a point in time",
	Long: `Crawls the change log of every shared site and prints one record per
document to index or to delete. Personal sites are skipped.

A failure inside one site does not stop the crawl. The command then exits
with status 2 after every other site has been processed.

With --every the crawl repeats. Each crawl starts its window where the
previous successful crawl started, minus --overlap. A crawl with failed
sites keeps its window so the next crawl retries it.

Examples:
  sercha-sp changes --last-modified-time "2024-01-01 00:00:00"
  sercha-sp changes --last-modified-time "2024-01-01 00:00:00" --workers 4 --sink jsonl,sqlite
  sercha-sp changes --last-modified-time "2024-01-01 00:00:00" --every 15m --sink nats`,
	Args: cobra.NoArgs,
	RunE: runChanges,
}

func init() {
	changesCmd.Flags().StringVarP(&changesSince, "last-modified-time", "t", "",
		"start of the change window, "+domain.LastModifiedLayout)
	changesCmd.Flags().IntVarP(&changesWorkers, "workers", "w", 0,
		"sites crawled concurrently (default from config, 0 = sequential)")
	changesCmd.Flags().StringVar(&changesLibrary, "library", "", "document library title (default from config)")
	changesCmd.Flags().DurationVar(&changesEvery, "every", 0, "repeat the crawl on this interval")
	changesCmd.Flags().DurationVar(&changesOverlap, "overlap", domain.DefaultWatchOverlap,
		"window overlap between repeated crawls")
	changesCmd.Flags().IntVar(&changesMaxRuns, "max-runs", 0, "stop after this many repeated crawls (0 = unlimited)")
	changesSinks.register(changesCmd)
	_ = changesCmd.MarkFlagRequired("last-modified-time")
	rootCmd.AddCommand(changesCmd)
}

func runChanges(cmd *cobra.Command, _ []string) error {
	since, err := domain.ParseLastModifiedTime(changesSince)
	if err != nil {
		return err
	}

	t, err := loadTenant(cmd)
	if err != nil {
		return err
	}

	opts := domain.CrawlOptions{
		LastModifiedTime: since,
		Library:          t.cfg.Library,
		Workers:          t.cfg.Workers,
	}
	if changesLibrary != "" {
		opts.Library = changesLibrary
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = changesWorkers
	}

	ctx := cmd.Context()
	sink, err := changesSinks.open(ctx, cmd, t, "changes")
	if err != nil {
		return err
	}

	logger.Section("Changes since " + since.Format(domain.LastModifiedLayout))
	crawler := services.NewCrawlOrchestrator(t.sessions, t.transport, sink, logger.Printer{}).
		WithPageSize(t.cfg.PageSize)

	if changesEvery > 0 {
		return watchChanges(cmd, crawler, t, opts, sink)
	}

	report, crawlErr := crawler.Crawl(ctx, t.cfg.Credentials(), opts)

	if err := sink.Close(); err != nil && crawlErr == nil {
		return fmt.Errorf("closing sink: %w", err)
	}
	if report != nil {
		logger.Progress("%d records from %d sites", report.Records(), len(report.Sites))
	}
	if errors.Is(crawlErr, domain.ErrPartialCrawl) {
		logger.Progress("%d of %d sites failed", report.Failed(), len(report.Sites))
	}
	return crawlErr
}

// watchChanges repeats the crawl until interrupted. Interruption is a
// normal exit.
func watchChanges(
	cmd *cobra.Command, crawler *services.CrawlOrchestrator, t *tenant, opts domain.CrawlOptions, sink driven.RecordSink,
) error {
	watcher := services.NewWatcher(crawler, t.cfg.Credentials(), opts, domain.WatchConfig{
		Interval: changesEvery,
		Overlap:  changesOverlap,
		MaxRuns:  changesMaxRuns,
	}, logger.Printer{})

	watchErr := watcher.Start(cmd.Context())
	if errors.Is(watchErr, context.Canceled) {
		watchErr = nil
	}
	if err := sink.Close(); err != nil && watchErr == nil {
		return fmt.Errorf("closing sink: %w", err)
	}

	history := watcher.History()
	records := 0
	for _, r := range history {
		records += r.Records
	}
	logger.Progress("%d records from %d crawls", records, len(history))

	// A run limit ends the loop without error; report how the last crawl went.
	if watchErr == nil && len(history) > 0 && cmd.Context().Err() == nil {
		watchErr = history[len(history)-1].Err
	}
	return watchErr
}
