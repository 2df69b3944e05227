package crawler

import (
	"context"
	"log/slog"

	"github.com/nao1215/seoscan/internal/fetch"
)

// Dispatcher drains the frontier into the fetch service, one request in
// flight at a time, and feeds every completion to the Processor.
//
// Design decision: The loop is strictly sequential. With one fetch in
// flight, every frontier and scoring mutation happens from this single
// flow, and per-page ordering of fetch, process, and link discovery is
// reproducible in tests. The politeness delay lives in the fetch client,
// not here.
type Dispatcher struct {
	frontier   *Frontier
	fetcher    fetch.Fetcher
	processor  *Processor
	logger     *slog.Logger
	maxPages   int
	onComplete func()
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMaxPages caps how many fetches a run may issue. Records still
// queued at the cap are abandoned and never reach reporting.
func WithMaxPages(n int) DispatcherOption {
	return func(d *Dispatcher) {
		d.maxPages = n
	}
}

// WithOnComplete registers the hook fired exactly once when the crawl
// finishes. Reporters register here.
func WithOnComplete(fn func()) DispatcherOption {
	return func(d *Dispatcher) {
		d.onComplete = fn
	}
}

// WithLogger sets the structured logger for crawl progress.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a Dispatcher for one crawl run.
func NewDispatcher(frontier *Frontier, fetcher fetch.Fetcher, processor *Processor, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		frontier:  frontier,
		fetcher:   fetcher,
		processor: processor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run crawls until the frontier drains, the page cap is hit, or the
// context is cancelled. Individual page failures are logged and
// recorded, never fatal. The completion hook fires once on every path
// out of the loop except context cancellation.
func (d *Dispatcher) Run(ctx context.Context) error {
	fetched := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.maxPages > 0 && fetched >= d.maxPages {
			d.logger.Warn("page limit reached, abandoning queued pages",
				"limit", d.maxPages, "pending", d.frontier.PendingCount())
			break
		}

		rec, ok := d.frontier.Next()
		if !ok {
			break
		}
		fetched++

		d.logger.Debug("fetching page", "url", rec.URL, "mode", rec.Mode.String())
		result, err := d.fetcher.Fetch(ctx, rec.URL)
		if err != nil {
			d.logger.Warn("fetch failed", "url", rec.URL, "error", err)
		}

		if err := d.processor.Process(rec, result, err); err != nil {
			// A processing error means a frontier invariant was
			// violated. Log it and keep crawling the rest.
			d.logger.Error("failed to process page", "url", rec.URL, "error", err)
		}

		if d.frontier.PendingCount() == 0 {
			break
		}
	}

	d.finish()
	return nil
}

// finish fires the completion hook. The hook runs at most once even if
// Run were called again on a drained frontier.
func (d *Dispatcher) finish() {
	if d.onComplete == nil {
		return
	}
	d.onComplete()
	d.onComplete = nil
}
