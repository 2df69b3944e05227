package crawler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/fetch"
	"github.com/nao1215/seoscan/internal/model"
	"github.com/nao1215/seoscan/internal/scoring"
)

// stubPage is one canned response served by stubFetcher.
type stubPage struct {
	status      int
	contentType string
	html        string
	err         error
}

// stubFetcher serves canned pages and records the fetch order.
type stubFetcher struct {
	pages   map[string]stubPage
	fetched []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*fetch.Result, error) {
	s.fetched = append(s.fetched, url)

	page, ok := s.pages[url]
	if !ok {
		return &fetch.Result{URL: url, StatusCode: 404}, nil
	}
	if page.err != nil {
		return nil, page.err
	}

	result := &fetch.Result{URL: url, StatusCode: page.status, ContentType: page.contentType}
	if page.status < 300 && strings.Contains(page.contentType, "text/html") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.html))
		if err != nil {
			return nil, err
		}
		result.Document = doc
	}
	return result, nil
}

// newTestRun wires a frontier, resolver, processor, and dispatcher for
// one crawl of the given stub site.
func newTestRun(t *testing.T, startURL string, fetcher *stubFetcher, opts ...DispatcherOption) (*Frontier, *Dispatcher) {
	t.Helper()

	scope, err := config.ParseScope(startURL)
	if err != nil {
		t.Fatalf("ParseScope(%q) error: %v", startURL, err)
	}

	frontier := NewFrontier()
	resolver := NewResolver(*scope, true)
	engine := scoring.NewEngine(scoring.WithNow(func() time.Time {
		return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	}))
	processor := NewProcessor(frontier, resolver, scoring.NewExtractor(nil), engine)
	dispatcher := NewDispatcher(frontier, fetcher, processor, opts...)

	canonical, ok := resolver.Canonicalize(scope.StartURL)
	if !ok {
		t.Fatalf("Canonicalize(%q) rejected", scope.StartURL)
	}
	frontier.Enqueue(canonical, "", model.ModeAnalyze)

	return frontier, dispatcher
}

// TestDispatcherRun tests a full crawl over a small stub site.
func TestDispatcherRun(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{pages: map[string]stubPage{
		"https://example.com/docs/": {
			status:      200,
			contentType: "text/html",
			html: `<html><head>
				<title>Docs Home</title>
				<meta name="last-modified" content="2026-05-30">
				<meta name="product" content="Suite">
			</head><body>
				<h1>docs home</h1>
				<p>docs home guide</p>
				<a href="page2.html">next</a>
				<a href="/other/page.html">outside</a>
				<a href="https://other.com/x">external</a>
				<a href="#top">top</a>
			</body></html>`,
		},
		"https://example.com/docs/page2.html": {
			status:      200,
			contentType: "text/html",
			html: `<html><head><title>Page Two</title></head>
				<body><h1>page two</h1><p>page two page two</p>
				<a href="index.html">back</a></body></html>`,
		},
		"https://example.com/other/page.html": {status: 200, contentType: "text/html", html: "<html></html>"},
		"https://other.com/x":                 {status: 404},
	}}

	frontier, dispatcher := newTestRun(t, "https://example.com/docs/", fetcher)

	if err := dispatcher.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := frontier.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d, want 0 after run", got)
	}

	wantStates := map[string]struct {
		state model.State
		mode  model.Mode
	}{
		"https://example.com/docs/":           {state: model.StateAnalyzed, mode: model.ModeAnalyze},
		"https://example.com/docs/page2.html": {state: model.StateAnalyzed, mode: model.ModeAnalyze},
		"https://example.com/other/page.html": {state: model.StateProbedOnly, mode: model.ModeProbeOnly},
		"https://other.com/x":                 {state: model.StateFailed, mode: model.ModeProbeOnly},
	}

	records := frontier.Records()
	if len(records) != len(wantStates) {
		t.Fatalf("record count = %d, want %d: %+v", len(records), len(wantStates), records)
	}
	for _, rec := range records {
		want, ok := wantStates[rec.URL]
		if !ok {
			t.Errorf("unexpected record %q", rec.URL)
			continue
		}
		if rec.State != want.state {
			t.Errorf("%s State = %v, want %v", rec.URL, rec.State, want.state)
		}
		if rec.Mode != want.mode {
			t.Errorf("%s Mode = %v, want %v", rec.URL, rec.Mode, want.mode)
		}
	}

	// The root page: +4 title boost (doc, home at frequency 2), +1
	// fresh, -1 product without version, +3 H1 with two title matches.
	root, _ := frontier.Record("https://example.com/docs/")
	if root.Score != 7 {
		t.Errorf("root Score = %d, want 7\nanalysis: %s", root.Score, root.Analysis)
	}
	if !strings.Contains(root.Analysis, "bad: product specified without version") {
		t.Errorf("root analysis = %q", root.Analysis)
	}

	// page2 links back to the directory index, which aliases to the
	// already-crawled root. No record for index.html may exist.
	if _, ok := frontier.Record("https://example.com/docs/index.html"); ok {
		t.Error("index.html was enqueued separately from its directory")
	}

	// The fragment link must not have produced a fetch.
	for _, url := range fetcher.fetched {
		if strings.Contains(url, "#") {
			t.Errorf("fetched fragment URL %q", url)
		}
	}
}

// TestDispatcherCompletionHook tests that the completion hook fires
// exactly once, after every fetch has been processed.
func TestDispatcherCompletionHook(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{pages: map[string]stubPage{
		"https://example.com/": {
			status:      200,
			contentType: "text/html",
			html:        `<html><body><a href="/a.html">a</a><a href="/b.html">b</a></body></html>`,
		},
		"https://example.com/a.html": {status: 200, contentType: "text/html", html: "<html></html>"},
		"https://example.com/b.html": {status: 200, contentType: "text/html", html: "<html></html>"},
	}}

	fired := 0
	var frontier *Frontier
	var pendingAtFire int

	f, dispatcher := newTestRun(t, "https://example.com/", fetcher,
		WithOnComplete(func() {
			fired++
			pendingAtFire = frontier.PendingCount()
		}))
	frontier = f

	if err := dispatcher.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if fired != 1 {
		t.Errorf("completion hook fired %d times, want 1", fired)
	}
	if pendingAtFire != 0 {
		t.Errorf("pending at completion = %d, want 0", pendingAtFire)
	}
	if got := len(fetcher.fetched); got != 3 {
		t.Errorf("fetched %d pages, want 3", got)
	}
}

// TestDispatcherTransportError tests that a failing page is recorded
// and the crawl continues.
func TestDispatcherTransportError(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{pages: map[string]stubPage{
		"https://example.com/": {
			status:      200,
			contentType: "text/html",
			html:        `<html><body><a href="/dead.html">dead</a><a href="/live.html">live</a></body></html>`,
		},
		"https://example.com/dead.html": {err: errors.New("connection refused")},
		"https://example.com/live.html": {status: 200, contentType: "text/html", html: "<html></html>"},
	}}

	frontier, dispatcher := newTestRun(t, "https://example.com/", fetcher)

	if err := dispatcher.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	dead, _ := frontier.Record("https://example.com/dead.html")
	if dead.State != model.StateFailed {
		t.Errorf("dead State = %v, want failed", dead.State)
	}

	// The page after the failure was still fetched.
	live, _ := frontier.Record("https://example.com/live.html")
	if live.StatusCode != 200 {
		t.Errorf("live StatusCode = %d, want 200 (crawl continued)", live.StatusCode)
	}
}

// TestDispatcherMaxPages tests the page cap.
func TestDispatcherMaxPages(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{pages: map[string]stubPage{
		"https://example.com/": {
			status:      200,
			contentType: "text/html",
			html: `<html><body>
				<a href="/a.html">a</a><a href="/b.html">b</a><a href="/c.html">c</a>
			</body></html>`,
		},
		"https://example.com/a.html": {status: 200, contentType: "text/html", html: "<html></html>"},
		"https://example.com/b.html": {status: 200, contentType: "text/html", html: "<html></html>"},
		"https://example.com/c.html": {status: 200, contentType: "text/html", html: "<html></html>"},
	}}

	fired := 0
	_, dispatcher := newTestRun(t, "https://example.com/", fetcher,
		WithMaxPages(2), WithOnComplete(func() { fired++ }))

	if err := dispatcher.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := len(fetcher.fetched); got != 2 {
		t.Errorf("fetched %d pages, want 2", got)
	}
	if fired != 1 {
		t.Errorf("completion hook fired %d times, want 1", fired)
	}
}

// TestDispatcherCancelledContext tests that cancellation stops the run
// without firing the completion hook.
func TestDispatcherCancelledContext(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{pages: map[string]stubPage{}}
	fired := 0
	_, dispatcher := newTestRun(t, "https://example.com/", fetcher,
		WithOnComplete(func() { fired++ }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := dispatcher.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if fired != 0 {
		t.Errorf("completion hook fired %d times, want 0", fired)
	}
}
