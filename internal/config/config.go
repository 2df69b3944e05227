package config

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These are chosen for polite crawling of typical documentation-sized sites
// and can all be overridden via CLI flags or the .seoscan config file.
const (
	// DefaultTimeout is the connection timeout for each HTTP request.
	// 30 seconds is generous for slow shared hosting without letting a
	// single dead server stall the whole run for minutes.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPages limits the total number of URLs fetched per run.
	// This prevents runaway crawling on large or infinitely-generating
	// sites (calendars, faceted search). Override with --max-pages.
	DefaultMaxPages = 500

	// DefaultCrawlDelay is the minimum delay between requests.
	// This is a politeness setting enforced by the fetch client's rate
	// limiter; one request per second is conservative and respectful.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultBatchSize is the number of concurrent crawl runs when several
	// start URLs are given. Each run still fetches one page at a time.
	DefaultBatchSize = 4

	// DefaultUserAgent identifies seoscan in HTTP requests. A descriptive
	// User-Agent lets site operators identify crawler traffic in logs.
	DefaultUserAgent = "seoscan/1.0 (+https://github.com/nao1215/seoscan)"

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB covers any sane HTML page while preventing memory exhaustion
	// from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "seoscan"
)

// DefaultNoiseWords are domain noise terms removed from page corpora in
// addition to standard English stop words. They are common boilerplate on
// documentation and product sites and carry no SEO signal.
var DefaultNoiseWords = []string{
	"copyright", "rights", "reserved", "privacy", "policy",
	"cookie", "login", "logout", "click", "here",
}

// Config holds all configuration options for a seoscan invocation.
// It is populated from CLI flags plus the optional .seoscan file and passed
// through the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested sub-structs.
// The number of options is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// Targets is the list of start URLs to crawl. Each target gets its own
	// frontier and dispatcher; the scheme defaults to https when omitted.
	Targets []string

	// SubPathOnly restricts analysis to URLs under the start page's base
	// path. Same-host links outside the base path are existence-checked
	// only, like external links.
	SubPathOnly bool

	// Timeout is the connection timeout for each HTTP request.
	Timeout time.Duration

	// CrawlDelay is the minimum delay between requests during crawling.
	CrawlDelay time.Duration

	// MaxPages is the maximum number of URLs to fetch per run.
	MaxPages int

	// BatchSize is the number of concurrent runs for multiple targets.
	BatchSize int

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// NoiseWords are extra terms dropped from page corpora before counting
	// frequencies, on top of the built-in stop word list.
	NoiseWords []string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// CSVFile, when set, is the path the per-page CSV export is written to.
	CSVFile string

	// XLSXFile, when set, is the path the Excel workbook export is written to.
	XLSXFile string

	// MarkdownReport switches the main report output to Markdown.
	MarkdownReport bool

	// ReportFile, when set, receives the main report instead of stdout.
	ReportFile string

	// ShowReport controls whether the human-readable report is printed.
	ShowReport bool

	// ConfigFilePath is the path to the .seoscan configuration file.
	// Empty means search the current directory, then the home directory.
	ConfigFilePath string

	// SiteConfigs holds per-host overrides loaded from the config file.
	SiteConfigs *File

	// DBDir is the directory for the SQLite crawl history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether finished runs are saved for later
	// comparison with the compare command.
	SaveToDB bool
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero values
// because many defaults are non-zero. This also documents what the
// defaults are.
func NewConfig() *Config {
	return &Config{
		SubPathOnly: true,
		Timeout:     DefaultTimeout,
		CrawlDelay:  DefaultCrawlDelay,
		MaxPages:    DefaultMaxPages,
		BatchSize:   DefaultBatchSize,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		NoiseWords:  append([]string(nil), DefaultNoiseWords...),
		ShowReport:  true,
	}
}

// Scope describes the crawl boundary derived from a start URL.
type Scope struct {
	// Scheme is the URL scheme, defaulted to https when absent.
	Scheme string

	// Host is the in-scope host, lower-cased.
	Host string

	// StartURL is the normalized absolute start URL.
	StartURL string

	// BasePath is the directory portion of the start page path, always
	// ending in "/". Links outside it are probe-only when SubPathOnly is
	// enabled.
	BasePath string
}

// ParseScope derives the crawl scope from a raw start URL.
// A missing scheme defaults to https. The base path is the directory
// portion of the start page: "/docs/index.html" and "/docs/" both yield
// "/docs/".
func ParseScope(rawURL string) (*Scope, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return nil, ErrNoTarget
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL %q: %w", rawURL, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("start URL %q has no host: %w", rawURL, ErrNoTarget)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q in start URL %q", u.Scheme, rawURL)
	}

	host := strings.ToLower(u.Host)
	p := u.Path
	if p == "" {
		p = "/"
	}

	base := p
	if !strings.HasSuffix(base, "/") {
		// Strip the file component: /docs/index.html -> /docs/
		base = path.Dir(base)
		if base != "/" {
			base += "/"
		}
	}

	return &Scope{
		Scheme:   scheme,
		Host:     host,
		StartURL: scheme + "://" + host + p,
		BasePath: base,
	}, nil
}

// XDGDataDir returns the XDG data directory for seoscan.
// On Linux: ~/.local/share/seoscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for seoscan.
// On Linux: ~/.config/seoscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast with clear messages, and return the first
// error found because fixing one often makes the others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}
