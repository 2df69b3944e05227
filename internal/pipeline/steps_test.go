package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/database"
	"github.com/nao1215/seoscan/internal/fetch"
	"github.com/nao1215/seoscan/internal/model"
)

// mapFetcher serves canned HTML pages by URL. URLs in fail return a
// transport-level error instead of a response.
type mapFetcher struct {
	pages map[string]string
	fail  map[string]error
}

func (m *mapFetcher) Fetch(_ context.Context, url string) (*fetch.Result, error) {
	if err, ok := m.fail[url]; ok {
		return nil, err
	}

	html, ok := m.pages[url]
	if !ok {
		return &fetch.Result{URL: url, StatusCode: 404}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &fetch.Result{URL: url, StatusCode: 200, ContentType: "text/html", Document: doc}, nil
}

// TestCrawlStep tests a crawl run end to end through the pipeline step.
func TestCrawlStep(t *testing.T) {
	t.Parallel()

	fetcher := &mapFetcher{pages: map[string]string{
		"https://example.com/docs/": `<html><head><title>Docs</title></head>
			<body><h1>docs</h1><p>docs docs guide</p>
			<a href="page2.html">next</a>
			<a href="missing.html">gone</a></body></html>`,
		"https://example.com/docs/page2.html": `<html><head><title>Two</title></head>
			<body><h1>two</h1><p>two two</p></body></html>`,
	}}

	cfg := config.NewConfig()
	cfg.Targets = []string{"https://example.com/docs/"}

	step := NewCrawlStep(cfg, WithFetcher(fetcher))
	report := model.NewCrawlReport("https://example.com/docs/")

	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("Do() error: %v", err)
	}

	if report.Host != "example.com" || report.BasePath != "/docs/" {
		t.Errorf("scope = %q %q", report.Host, report.BasePath)
	}
	if len(report.Records) != 3 {
		t.Fatalf("record count = %d, want 3: %+v", len(report.Records), report.Records)
	}

	var missing *model.CrawlRecord
	for _, rec := range report.Records {
		if strings.HasSuffix(rec.URL, "missing.html") {
			missing = rec
		}
	}
	if missing == nil || missing.StatusCode != 404 {
		t.Errorf("missing.html record = %+v, want 404", missing)
	}
}

// TestCrawlStepDropsStatuslessRecords tests that links failing at the
// transport level never reach the final record set. Links that answer
// with an error status keep their row and stay visible as broken.
func TestCrawlStepDropsStatuslessRecords(t *testing.T) {
	t.Parallel()

	fetcher := &mapFetcher{
		pages: map[string]string{
			"https://example.com/docs/": `<html><head><title>Docs</title></head>
				<body><h1>docs</h1><p>docs docs guide</p>
				<a href="https://dead.example.org/x">dead</a>
				<a href="missing.html">gone</a></body></html>`,
		},
		fail: map[string]error{
			"https://dead.example.org/x": errors.New("connection refused"),
		},
	}

	cfg := config.NewConfig()
	cfg.Targets = []string{"https://example.com/docs/"}

	step := NewCrawlStep(cfg, WithFetcher(fetcher))
	report := model.NewCrawlReport("https://example.com/docs/")

	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("Do() error: %v", err)
	}

	for _, rec := range report.Records {
		if !rec.Visited() {
			t.Errorf("statusless record %q kept in the record set (state=%s)", rec.URL, rec.State)
		}
	}
	if len(report.Records) != 2 {
		t.Fatalf("record count = %d, want 2: %+v", len(report.Records), report.Records)
	}

	report.Summarize()
	if report.BrokenLinks != 1 {
		t.Errorf("BrokenLinks = %d, want 1 (the 404 link)", report.BrokenLinks)
	}
}

// TestCrawlStepSiteOverrides tests that per-host config overrides apply.
func TestCrawlStepSiteOverrides(t *testing.T) {
	t.Parallel()

	subPathOff := false
	cfg := config.NewConfig()
	cfg.SiteConfigs = &config.File{
		Defaults: config.SiteConfig{DelayMilliseconds: 250},
		Sites: map[string]config.SiteConfig{
			"example.com": {
				MaxPages:    7,
				NoiseWords:  []string{"widget"},
				SubPathOnly: &subPathOff,
			},
		},
	}

	step := NewCrawlStep(cfg)
	settings := step.effectiveSettings("example.com")

	if settings.maxPages != 7 {
		t.Errorf("maxPages = %d, want 7", settings.maxPages)
	}
	if settings.crawlDelay.Milliseconds() != 250 {
		t.Errorf("crawlDelay = %v, want 250ms", settings.crawlDelay)
	}
	if settings.subPathOnly {
		t.Error("subPathOnly override not applied")
	}

	// Global noise words come first, the site's are appended.
	if settings.noiseWords[len(settings.noiseWords)-1] != "widget" {
		t.Errorf("noiseWords = %v, want widget appended", settings.noiseWords)
	}

	other := step.effectiveSettings("other.example.com")
	if other.maxPages != cfg.MaxPages {
		t.Errorf("other host maxPages = %d, want global default", other.maxPages)
	}
	if other.crawlDelay.Milliseconds() != 250 {
		t.Errorf("other host crawlDelay = %v, want defaults section applied", other.crawlDelay)
	}
}

// TestSummarizeStep tests counter recomputation.
func TestSummarizeStep(t *testing.T) {
	t.Parallel()

	report := model.NewCrawlReport("https://example.com/")
	report.Records = []*model.CrawlRecord{
		{URL: "https://example.com/", State: model.StateAnalyzed, StatusCode: 200, Score: 4},
		{URL: "https://example.com/gone", State: model.StateFailed, StatusCode: 404},
	}

	if err := NewSummarizeStep().Do(context.Background(), report); err != nil {
		t.Fatalf("Do() error: %v", err)
	}

	if report.PagesVisited != 2 || report.PagesAnalyzed != 1 || report.BrokenLinks != 1 {
		t.Errorf("summary = %d/%d/%d, want 2/1/1",
			report.PagesVisited, report.PagesAnalyzed, report.BrokenLinks)
	}
}

// TestSaveStep tests persistence through the pipeline step.
func TestSaveStep(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	}()

	report := model.NewCrawlReport("https://example.com/")
	report.Host = "example.com"
	report.Records = []*model.CrawlRecord{
		{URL: "https://example.com/", State: model.StateAnalyzed, StatusCode: 200, Score: 2},
	}
	report.Summarize()

	if err := NewSaveStep(db).Do(context.Background(), report); err != nil {
		t.Fatalf("Do() error: %v", err)
	}

	saved, err := db.GetLatestReport(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("GetLatestReport() error: %v", err)
	}
	if saved == nil || saved.PagesAnalyzed != 1 {
		t.Errorf("saved report = %+v", saved)
	}
}
