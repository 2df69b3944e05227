package crawler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/seoscan/internal/model"
)

var (
	// ErrUnknownURL is returned when a state transition targets a URL
	// the frontier has never seen.
	ErrUnknownURL = errors.New("no crawl record for url")
	// ErrStateTransition is returned when a mark call would move a
	// record backwards. States only advance.
	ErrStateTransition = errors.New("invalid crawl state transition")
)

// Frontier owns every CrawlRecord of a run and guarantees each
// canonical URL is enqueued at most once.
//
// Design decision: The frontier is an explicit instance handed to the
// dispatcher and processor, never package state, so multiple crawl runs
// can execute in one process. A mutex guards the record map because the
// dispatcher's worker count is configurable even though the default is
// a single fetch in flight.
type Frontier struct {
	mu      sync.Mutex
	records map[string]*model.CrawlRecord
	order   []string
	queue   []string
	pending int
	now     func() time.Time
}

// FrontierOption configures a Frontier.
type FrontierOption func(*Frontier)

// WithFrontierNow overrides the clock used for record timestamps.
func WithFrontierNow(now func() time.Time) FrontierOption {
	return func(f *Frontier) {
		f.now = now
	}
}

// NewFrontier creates an empty Frontier.
func NewFrontier(opts ...FrontierOption) *Frontier {
	f := &Frontier{
		records: make(map[string]*model.CrawlRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Enqueue registers a canonical URL for crawling. It returns false
// without effect when a record for the URL already exists. This is the
// single choke point for the at-most-once guarantee: the start URL,
// discovered in-scope links, and out-of-scope probes all pass through
// here.
func (f *Frontier) Enqueue(url, referrer string, mode model.Mode) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.records[url]; ok {
		return false
	}

	f.records[url] = &model.CrawlRecord{
		URL:      url,
		State:    model.StatePending,
		Mode:     mode,
		Referrer: referrer,
		QueuedAt: f.now(),
	}
	f.order = append(f.order, url)
	f.queue = append(f.queue, url)
	f.pending++

	return true
}

// Next pops the next pending record in enqueue order. It returns false
// when the queue is drained.
func (f *Frontier) Next() (*model.CrawlRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return nil, false
	}
	url := f.queue[0]
	f.queue = f.queue[1:]
	return f.records[url], true
}

// PendingCount reports how many enqueued records have not finished
// processing. The crawl is complete when this reaches zero.
func (f *Frontier) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// MarkFetched records the HTTP status for a pending record and advances
// it to Fetched. The record still counts as pending until one of the
// completing transitions runs.
func (f *Frontier) MarkFetched(url string, statusCode int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[url]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownURL, url)
	}
	if rec.State != model.StatePending {
		return fmt.Errorf("%w: %s is %s, want pending", ErrStateTransition, url, rec.State)
	}

	rec.State = model.StateFetched
	rec.StatusCode = statusCode
	return nil
}

// MarkAnalyzed stores the scoring outcome and advances the record to
// its terminal Analyzed state.
func (f *Frontier) MarkAnalyzed(url string, meta model.PageMeta, terms []model.TermFrequency, score int, analysis string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[url]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownURL, url)
	}
	if rec.State != model.StateFetched || rec.Mode != model.ModeAnalyze {
		return fmt.Errorf("%w: %s is %s/%s, want fetched/analyze", ErrStateTransition, url, rec.State, rec.Mode)
	}

	rec.State = model.StateAnalyzed
	rec.Meta = meta
	rec.Terms = terms
	rec.Score = score
	rec.Analysis = analysis
	f.complete(rec)
	return nil
}

// MarkProbed completes a probe-only record whose existence check
// succeeded.
func (f *Frontier) MarkProbed(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[url]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownURL, url)
	}
	if rec.State != model.StateFetched {
		return fmt.Errorf("%w: %s is %s, want fetched", ErrStateTransition, url, rec.State)
	}

	rec.State = model.StateProbedOnly
	f.complete(rec)
	return nil
}

// MarkSkipped completes an analyze-mode record that could not be
// scored: a non-HTML response or an error status. The record stays in
// Fetched state with its status code, so it counts as visited but never
// as analyzed.
func (f *Frontier) MarkSkipped(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[url]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownURL, url)
	}
	if rec.State != model.StateFetched {
		return fmt.Errorf("%w: %s is %s, want fetched", ErrStateTransition, url, rec.State)
	}

	f.complete(rec)
	return nil
}

// MarkFailed completes a record whose fetch failed at the transport
// level or whose probe hit an error status.
func (f *Frontier) MarkFailed(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[url]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownURL, url)
	}
	if rec.State.Terminal() {
		return fmt.Errorf("%w: %s already %s", ErrStateTransition, url, rec.State)
	}

	rec.State = model.StateFailed
	f.complete(rec)
	return nil
}

// complete stamps the completion time and decrements the pending count
// exactly once per record. Callers must hold the mutex.
func (f *Frontier) complete(rec *model.CrawlRecord) {
	if !rec.CompletedAt.IsZero() {
		return
	}
	rec.CompletedAt = f.now()
	f.pending--
}

// Record returns the record for a canonical URL.
func (f *Frontier) Record(url string) (*model.CrawlRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[url]
	return rec, ok
}

// Records returns all records in enqueue order.
func (f *Frontier) Records() []*model.CrawlRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := make([]*model.CrawlRecord, 0, len(f.order))
	for _, url := range f.order {
		records = append(records, f.records[url])
	}
	return records
}
