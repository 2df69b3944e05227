package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Result is the outcome of a single page fetch.
type Result struct {
	// URL is the fetched URL.
	URL string
	// StatusCode is the HTTP status code.
	StatusCode int
	// ContentType is the response Content-Type header value.
	ContentType string
	// Document is the parsed HTML document, or nil when the response
	// was not HTML or had a non-success status.
	Document *goquery.Document
}

// HTML reports whether a parsed document is available for analysis.
func (r *Result) HTML() bool {
	return r.Document != nil
}

// Fetcher retrieves pages. The crawler depends on this interface so
// tests can substitute canned responses.
type Fetcher interface {
	// Fetch retrieves the page at url. It returns an error only for
	// transport failures; HTTP error statuses are reported through
	// Result.StatusCode.
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Client fetches pages over HTTP with a politeness delay between
// requests.
//
// Design decision: The delay is enforced with a rate limiter rather than
// a sleep after each request, so the first request of a run is never
// delayed and the pacing is owned by the client instead of the caller.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	userAgent   string
	maxBodySize int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client. Tests use this to
// point the client at an httptest server with a short timeout.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithCrawlDelay sets the minimum interval between requests.
// A non-positive delay disables pacing.
func WithCrawlDelay(delay time.Duration) ClientOption {
	return func(c *Client) {
		if delay <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
}

// WithMaxBodySize caps how many bytes of a response body are read and
// parsed. Bodies beyond the cap are truncated, not failed.
func WithMaxBodySize(n int64) ClientOption {
	return func(c *Client) {
		c.maxBodySize = n
	}
}

// NewClient creates a fetch client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Inf, 1),
		userAgent:   "seoscan",
		maxBodySize: 5 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves url, honoring the politeness delay. HTML responses
// with a status below 300 are parsed into a goquery document; everything
// else returns the status and content type only.
func (c *Client) Fetch(ctx context.Context, url string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for crawl delay: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close

	result := &Result{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode >= http.StatusMultipleChoices || !isHTML(result.ContentType) {
		return result, nil
	}

	// The charset reader converts legacy encodings to UTF-8 based on
	// the Content-Type header and document sniffing.
	body := io.LimitReader(resp.Body, c.maxBodySize)
	reader, err := charset.NewReader(body, result.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	result.Document = doc

	return result, nil
}

// isHTML reports whether a Content-Type header denotes an HTML page.
func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
