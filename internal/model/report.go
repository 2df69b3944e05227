package model

import "time"

// CrawlReport is the result of one complete crawl run.
// It is built by the pipeline from the frontier's record set after the
// completion hook fires, and is the unit stored in the crawl database.
type CrawlReport struct {
	// StartURL is the root page the crawl started from.
	StartURL string `json:"start_url"`

	// Host is the in-scope host, lower-cased.
	Host string `json:"host"`

	// BasePath is the directory portion of the start page path. Links
	// outside it are probe-only when sub-path restriction is enabled.
	BasePath string `json:"base_path"`

	// DateCrawled is when the crawl run started.
	DateCrawled time.Time `json:"date_crawled"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	// Records holds every visited URL in discovery order. Records that
	// never received a response are dropped before the report is built.
	Records []*CrawlRecord `json:"records"`

	// PagesVisited is the number of URLs that received a response.
	PagesVisited int `json:"pages_visited"`

	// PagesAnalyzed is the number of pages that were scored.
	PagesAnalyzed int `json:"pages_analyzed"`

	// BrokenLinks is the number of visited URLs with a failed fetch or a
	// status of 400 or higher.
	BrokenLinks int `json:"broken_links"`

	// Error holds the run-level error, if the crawl could not complete.
	// Per-page failures are recorded on the individual records instead.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewCrawlReport creates an empty report for the given start URL.
func NewCrawlReport(startURL string) *CrawlReport {
	return &CrawlReport{
		StartURL:    startURL,
		DateCrawled: time.Now(),
		Records:     make([]*CrawlRecord, 0),
	}
}

// Summarize recomputes the aggregate counters from the record set.
// Call after Records is populated.
func (r *CrawlReport) Summarize() {
	r.PagesVisited = 0
	r.PagesAnalyzed = 0
	r.BrokenLinks = 0

	for _, rec := range r.Records {
		if !rec.Visited() {
			continue
		}
		r.PagesVisited++
		if rec.Analyzed() {
			r.PagesAnalyzed++
		}
		if rec.Broken() {
			r.BrokenLinks++
		}
	}
}

// AnalyzedRecords returns only the scored records, in discovery order.
func (r *CrawlReport) AnalyzedRecords() []*CrawlRecord {
	out := make([]*CrawlRecord, 0, len(r.Records))
	for _, rec := range r.Records {
		if rec.Analyzed() {
			out = append(out, rec)
		}
	}
	return out
}

// BrokenRecords returns visited records that look broken, in discovery order.
func (r *CrawlReport) BrokenRecords() []*CrawlRecord {
	out := make([]*CrawlRecord, 0)
	for _, rec := range r.Records {
		if rec.Visited() && rec.Broken() {
			out = append(out, rec)
		}
	}
	return out
}

// AverageScore returns the mean score across analyzed pages, or 0 when
// no page was analyzed.
func (r *CrawlReport) AverageScore() float64 {
	analyzed := r.AnalyzedRecords()
	if len(analyzed) == 0 {
		return 0
	}

	total := 0
	for _, rec := range analyzed {
		total += rec.Score
	}
	return float64(total) / float64(len(analyzed))
}
