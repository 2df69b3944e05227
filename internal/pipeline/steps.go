package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/crawler"
	"github.com/nao1215/seoscan/internal/database"
	"github.com/nao1215/seoscan/internal/fetch"
	"github.com/nao1215/seoscan/internal/model"
	"github.com/nao1215/seoscan/internal/scoring"
)

// CrawlStep runs the complete crawl for the report's start URL: it
// derives the scope, wires the frontier, dispatcher, and scoring
// engine, and fills the report with the finished record set.
type CrawlStep struct {
	cfg     *config.Config
	logger  *slog.Logger
	fetcher fetch.Fetcher
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithFetcher overrides the fetch service. Tests use this to crawl
// canned pages without a network.
func WithFetcher(fetcher fetch.Fetcher) CrawlStepOption {
	return func(s *CrawlStep) {
		s.fetcher = fetcher
	}
}

// WithCrawlLogger sets the logger used for crawl progress.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a CrawlStep for the given configuration.
func NewCrawlStep(cfg *config.Config, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step's name for logging purposes.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do crawls the report's start URL and populates the record set.
// Records that never received a response are dropped here, before any
// reporting or storage step sees them.
func (s *CrawlStep) Do(ctx context.Context, report *model.CrawlReport) error {
	scope, err := config.ParseScope(report.StartURL)
	if err != nil {
		return fmt.Errorf("failed to derive crawl scope: %w", err)
	}
	report.Host = scope.Host
	report.BasePath = scope.BasePath

	settings := s.effectiveSettings(scope.Host)

	fetcher := s.fetcher
	if fetcher == nil {
		fetcher = fetch.NewClient(
			fetch.WithHTTPClient(&http.Client{Timeout: s.cfg.Timeout}),
			fetch.WithUserAgent(settings.userAgent),
			fetch.WithCrawlDelay(settings.crawlDelay),
			fetch.WithMaxBodySize(s.cfg.MaxBodySize),
		)
	}

	frontier := crawler.NewFrontier()
	resolver := crawler.NewResolver(*scope, settings.subPathOnly)
	processor := crawler.NewProcessor(
		frontier,
		resolver,
		scoring.NewExtractor(settings.noiseWords),
		scoring.NewEngine(),
	)
	dispatcher := crawler.NewDispatcher(frontier, fetcher, processor,
		crawler.WithMaxPages(settings.maxPages),
		crawler.WithLogger(s.logger),
		crawler.WithOnComplete(func() {
			s.logger.Debug("crawl complete", "host", scope.Host)
		}),
	)

	canonical, ok := resolver.Canonicalize(scope.StartURL)
	if !ok {
		return fmt.Errorf("start URL %q cannot be canonicalized", scope.StartURL)
	}
	frontier.Enqueue(canonical, "", model.ModeAnalyze)

	started := time.Now()
	report.DateCrawled = started
	if err := dispatcher.Run(ctx); err != nil {
		return fmt.Errorf("crawl aborted: %w", err)
	}
	report.Elapsed = time.Since(started)

	report.Records = report.Records[:0]
	for _, rec := range frontier.Records() {
		if !rec.Visited() {
			continue
		}
		report.Records = append(report.Records, rec)
	}

	return nil
}

// crawlSettings are the per-run values after applying site overrides.
type crawlSettings struct {
	noiseWords  []string
	crawlDelay  time.Duration
	maxPages    int
	userAgent   string
	subPathOnly bool
}

// effectiveSettings merges global configuration with the host's
// overrides from the .seoscan file.
func (s *CrawlStep) effectiveSettings(host string) crawlSettings {
	settings := crawlSettings{
		noiseWords:  s.cfg.NoiseWords,
		crawlDelay:  s.cfg.CrawlDelay,
		maxPages:    s.cfg.MaxPages,
		userAgent:   s.cfg.UserAgent,
		subPathOnly: s.cfg.SubPathOnly,
	}

	if s.cfg.SiteConfigs == nil {
		return settings
	}
	site := s.cfg.SiteConfigs.GetSiteConfig(host)

	settings.noiseWords = append(settings.noiseWords, site.NoiseWords...)
	if site.DelayMilliseconds > 0 {
		settings.crawlDelay = time.Duration(site.DelayMilliseconds) * time.Millisecond
	}
	if site.MaxPages > 0 {
		settings.maxPages = site.MaxPages
	}
	if site.UserAgent != "" {
		settings.userAgent = site.UserAgent
	}
	if site.SubPathOnly != nil {
		settings.subPathOnly = *site.SubPathOnly
	}

	return settings
}

// SummarizeStep recomputes the report's aggregate counters from its
// record set. It runs after the crawl and again after any step that
// modifies records.
type SummarizeStep struct{}

// NewSummarizeStep creates a SummarizeStep.
func NewSummarizeStep() *SummarizeStep {
	return &SummarizeStep{}
}

// Name returns the step's name for logging purposes.
func (s *SummarizeStep) Name() string {
	return "summarize"
}

// Do recomputes the aggregate counters.
func (s *SummarizeStep) Do(_ context.Context, report *model.CrawlReport) error {
	report.Summarize()
	return nil
}

// SaveStep persists the finished report in the crawl history database.
type SaveStep struct {
	db *database.CrawlDB
}

// NewSaveStep creates a SaveStep writing to the given database.
func NewSaveStep(db *database.CrawlDB) *SaveStep {
	return &SaveStep{db: db}
}

// Name returns the step's name for logging purposes.
func (s *SaveStep) Name() string {
	return "save"
}

// Do saves the report.
func (s *SaveStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if _, err := s.db.SaveCrawlReport(ctx, report); err != nil {
		return fmt.Errorf("failed to save crawl run: %w", err)
	}
	return nil
}
