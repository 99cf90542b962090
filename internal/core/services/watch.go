package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driving.Scheduler = (*Watcher)(nil)

// Watcher repeats change crawls on an interval. Each crawl starts its window
// where the previous successful crawl started, so consecutive windows overlap
// by at least the configured overlap and no change is missed.
type Watcher struct {
	crawler  driving.ChangeCrawler
	creds    domain.Credentials
	opts     domain.CrawlOptions
	config   domain.WatchConfig
	progress driven.Progress

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	history []domain.WatchResult
}

// NewWatcher creates a watcher. opts.LastModifiedTime is the first window start.
// progress is optional.
func NewWatcher(
	crawler driving.ChangeCrawler,
	creds domain.Credentials,
	opts domain.CrawlOptions,
	config domain.WatchConfig,
	progress driven.Progress,
) *Watcher {
	if progress == nil {
		progress = driven.NopProgress{}
	}
	return &Watcher{
		crawler:  crawler,
		creds:    creds,
		opts:     opts,
		config:   config,
		progress: progress,
		now:      time.Now,
		after:    time.After,
	}
}

// Start runs crawls until Stop is called, the context is cancelled, MaxRuns
// is reached, or a crawl fails on authentication or input. Other failures are
// logged and the next crawl reuses the same window.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.config.Validate(); err != nil {
		return err
	}
	if err := w.opts.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	stopCh, done := w.stopCh, w.done
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(done)
	}()

	opts := w.opts
	for run := 1; ; run++ {
		result := w.crawl(ctx, run, opts)
		if fatal(result.Err) {
			return result.Err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.config.MaxRuns > 0 && run >= w.config.MaxRuns {
			return nil
		}

		opts.LastModifiedTime = result.NextSince(w.config.Overlap)
		wait := w.config.Interval - result.EndedAt.Sub(result.StartedAt)
		logger.Debug("Next crawl in %s from %s", wait.Round(time.Second),
			opts.LastModifiedTime.Format(domain.LastModifiedLayout))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-w.after(max(wait, 0)):
		}
	}
}

// Stop ends the loop and waits for the current crawl to finish.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	done := w.done
	w.mu.Unlock()

	<-done
	return nil
}

// History returns the most recent results, oldest first.
func (w *Watcher) History() []domain.WatchResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]domain.WatchResult, len(w.history))
	copy(out, w.history)
	return out
}

func (w *Watcher) crawl(ctx context.Context, run int, opts domain.CrawlOptions) domain.WatchResult {
	result := domain.WatchResult{Run: run, Since: opts.LastModifiedTime, StartedAt: w.now()}
	w.progress.Printf("Crawl %d since %s", run, opts.LastModifiedTime.Format(domain.LastModifiedLayout))

	report, err := w.crawler.Crawl(ctx, w.creds, opts)
	result.EndedAt = w.now()
	result.Err = err
	if report != nil {
		result.Records = report.Records()
		result.FailedSites = report.Failed()
	}
	if err != nil && !fatal(err) {
		logger.Warn("Crawl %d failed, window kept at %s: %v",
			run, opts.LastModifiedTime.Format(domain.LastModifiedLayout), err)
	}

	w.mu.Lock()
	w.history = append(w.history, result)
	if len(w.history) > domain.WatchHistorySize {
		w.history = w.history[len(w.history)-domain.WatchHistorySize:]
	}
	w.mu.Unlock()
	return result
}

// fatal reports errors that the next crawl would hit again. Failures of
// single sites never are.
func fatal(err error) bool {
	if errors.Is(err, domain.ErrPartialCrawl) {
		return false
	}
	return errors.Is(err, domain.ErrAuthInvalid) ||
		errors.Is(err, domain.ErrAuthRequired) ||
		errors.Is(err, domain.ErrInvalidInput)
}
