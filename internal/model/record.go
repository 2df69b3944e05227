package model

import "time"

// State represents the lifecycle stage of a crawl record.
//
// Design decision: We use a dedicated type with constants rather than a
// bare int or a set of booleans because:
//  1. Transitions are monotonic and easy to validate on a single enum
//  2. The "visited but not analyzed" distinction needs its own value
//  3. String() output makes logs and reports self-describing
type State int

const (
	// StatePending means the record was enqueued but not yet fetched.
	StatePending State = iota

	// StateFetched means the fetch completed and a status code was recorded,
	// but the page was not (or could not be) analyzed. Analyze-mode pages
	// with a non-HTML body or a status of 300 or higher stay in this state
	// and still count as visited.
	StateFetched

	// StateAnalyzed means the page content was scored. Terminal.
	StateAnalyzed

	// StateProbedOnly means the URL was existence-checked only. Terminal.
	StateProbedOnly

	// StateFailed means the fetch failed at the transport level. Terminal.
	StateFailed
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetched:
		return "fetched"
	case StateAnalyzed:
		return "analyzed"
	case StateProbedOnly:
		return "probed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed from s.
// StateFetched is terminal only for pages that were skipped; the frontier
// enforces that distinction, not the state itself.
func (s State) Terminal() bool {
	return s == StateAnalyzed || s == StateProbedOnly || s == StateFailed
}

// Mode determines how a URL is processed once fetched.
//
// Design decision: We carry a tagged mode on each record rather than a
// boolean "analyze" flag so that future modes (for example redirect
// following) extend the enum instead of multiplying flags.
type Mode int

const (
	// ModeAnalyze fetches the page, extracts content, discovers links,
	// and scores the page. Used for in-scope URLs.
	ModeAnalyze Mode = iota

	// ModeProbeOnly fetches the URL only to record its HTTP status.
	// Used for out-of-scope links so broken references are still found.
	ModeProbeOnly
)

// String returns the human-readable mode name.
func (m Mode) String() string {
	if m == ModeProbeOnly {
		return "probe"
	}
	return "analyze"
}

// PageMeta holds the SEO-relevant metadata extracted from an HTML page.
// All fields are empty strings until the page is analyzed.
type PageMeta struct {
	// Title is the text of the <title> element.
	Title string `json:"title,omitempty"`

	// Description is the content of <meta name="description">.
	Description string `json:"description,omitempty"`

	// Keywords is the content of <meta name="keywords">, comma separated.
	Keywords string `json:"keywords,omitempty"`

	// HeaderOne is the text of the first <h1> element, lower-cased.
	HeaderOne string `json:"header_one,omitempty"`

	// LastModified is the content of <meta name="last-modified">, unparsed.
	LastModified string `json:"last_modified,omitempty"`

	// Product is the content of <meta name="product">.
	Product string `json:"product,omitempty"`

	// Version is the content of <meta name="version">.
	Version string `json:"version,omitempty"`
}

// TermFrequency is one entry of a page's term frequency list.
// The list is ordered; scoring boosts mutate Count in place but never
// reorder entries after the initial sort.
type TermFrequency struct {
	// Term is the stemmed, case-folded body term.
	Term string `json:"term"`

	// Count is the term's frequency, including boost increments.
	Count int `json:"count"`
}

// CrawlRecord tracks one canonical URL for the lifetime of a crawl run.
// Exactly one record exists per canonical URL; the frontier owns creation
// and all state transitions.
type CrawlRecord struct {
	// URL is the canonical absolute URL and the record's unique key.
	URL string `json:"url"`

	// State is the record's lifecycle stage.
	State State `json:"state"`

	// Mode is fixed at enqueue time and never changes.
	Mode Mode `json:"mode"`

	// StatusCode is the HTTP status, or 0 while unset. Records that never
	// received a response keep 0 and are excluded from reporting.
	StatusCode int `json:"status_code"`

	// Referrer is the URL on which this one was discovered. Diagnostic only.
	Referrer string `json:"referrer,omitempty"`

	// QueuedAt is when the record was created by the frontier.
	QueuedAt time.Time `json:"queued_at"`

	// CompletedAt is when processing finished, zero until then.
	CompletedAt time.Time `json:"completed_at,omitzero"`

	// Meta holds extracted page metadata. Empty until StateAnalyzed.
	Meta PageMeta `json:"meta"`

	// Terms is the scored term frequency list, sorted by frequency at
	// scoring time. Probe-only records never populate it.
	Terms []TermFrequency `json:"terms,omitempty"`

	// Score is the final SEO score. Unbounded; may be negative.
	Score int `json:"score"`

	// Analysis is the semicolon-joined scoring rationale.
	Analysis string `json:"analysis,omitempty"`
}

// Visited reports whether the URL received an HTTP response.
// This is the single reporting predicate: records that never received a
// response (transport failures included) are excluded everywhere a
// record set is rendered, counted, or exported.
func (r *CrawlRecord) Visited() bool {
	return r.StatusCode != 0
}

// Analyzed reports whether the page was content-analyzed and scored.
func (r *CrawlRecord) Analyzed() bool {
	return r.State == StateAnalyzed
}

// Broken reports whether the URL looked broken to a link checker.
// Transport failures and 4xx/5xx statuses both qualify.
func (r *CrawlRecord) Broken() bool {
	return r.State == StateFailed || r.StatusCode >= 400
}
