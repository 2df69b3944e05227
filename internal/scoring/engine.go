package scoring

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nao1215/seoscan/internal/model"
)

// yearOld is the freshness threshold. Pages older than this lose a point.
const yearOld = 365 * 24 * time.Hour

// lastModifiedLayouts are the date formats tried, in order, when parsing
// a page's last-modified metadata.
var lastModifiedLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Result is the outcome of scoring a single page.
type Result struct {
	// Score is the accumulated signed score. It is unbounded and may
	// be negative for pages missing most metadata.
	Score int
	// Analysis is a semicolon-joined list of good/bad clauses
	// explaining every score contribution.
	Analysis string
	// Terms is the frequency list after noise filtering, sorted by
	// frequency descending. Boosts mutate the counts in place but the
	// order stays fixed from the initial sort, so a boosted term can
	// display a higher count than the term above it. Reports rely on
	// this to make boosted terms visible.
	Terms []model.TermFrequency
}

// Engine scores pages from their metadata and term frequencies.
//
// Design decision: Scoring is a pure function of its inputs plus the
// clock. The clock is injected so freshness tests can pin "now" and the
// 365-day boundary stays exact.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow overrides the clock used for freshness checks. Tests use this
// to make age calculations deterministic.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a scoring Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score applies the boost rules to one page and returns its score,
// analysis, and the sorted frequency list.
//
// The boost passes run in a fixed order: title, description, keywords,
// freshness, product/version, H1. Title and description boosts mutate
// term frequencies that the keyword pass then reads, so the order is
// load-bearing. Splitting the passes into independent ones would change
// scores on real pages.
func (e *Engine) Score(meta model.PageMeta, terms []model.TermFrequency) Result {
	sorted := prepareTerms(terms)
	index := make(map[string]int, len(sorted))
	for i, tf := range sorted {
		index[tf.Term] = i
	}

	headerWords := metaWords(meta.HeaderOne)

	var clauses []string
	score := 0
	headerInTitle := 0
	headerInDescription := 0
	headerInKeywords := 0

	// Title boost: +2 score and +2 frequency per title word already
	// frequent in the body.
	if meta.Title == "" {
		clauses = append(clauses, "very bad: no title")
	} else {
		matched := false
		for _, word := range metaWords(meta.Title) {
			if containsWord(headerWords, word) {
				headerInTitle++
			}
			if i, ok := index[word]; ok && sorted[i].Count > 1 {
				score += 2
				sorted[i].Count += 2
				matched = true
			}
		}
		if matched {
			clauses = append(clauses, "good: title words found in body text")
		} else {
			clauses = append(clauses, "bad: no title words found in body text")
		}
	}

	// Description boost: same rule as the title. It reads frequencies
	// the title pass may already have raised.
	if meta.Description == "" {
		clauses = append(clauses, "bad: no description")
	} else {
		matched := false
		for _, word := range metaWords(meta.Description) {
			if containsWord(headerWords, word) {
				headerInDescription++
			}
			if i, ok := index[word]; ok && sorted[i].Count > 1 {
				score += 2
				sorted[i].Count += 2
				matched = true
			}
		}
		if matched {
			clauses = append(clauses, "good: description words found in body text")
		} else {
			clauses = append(clauses, "bad: no description words found in body text")
		}
	}

	// Keyword boost: +1 per keyword word frequent at the time of the
	// check, which includes title and description boosts.
	if meta.Keywords == "" {
		clauses = append(clauses, "bad: no keywords")
	} else {
		matched := false
		for _, word := range keywordWords(meta.Keywords) {
			if containsWord(headerWords, word) {
				headerInKeywords++
			}
			if i, ok := index[word]; ok && sorted[i].Count > 1 {
				score++
				sorted[i].Count++
				matched = true
			}
		}
		if matched {
			clauses = append(clauses, "good: keywords found in body text")
		} else {
			clauses = append(clauses, "bad: keywords not found in body text")
		}
	}

	// Freshness: unparseable dates count as missing.
	if modified, ok := parseLastModified(meta.LastModified); ok {
		if e.now().Sub(modified) > yearOld {
			score--
			clauses = append(clauses, "bad: page over 1 year old")
		} else {
			score++
			clauses = append(clauses, "good: page is recent")
		}
	} else {
		score -= 2
		clauses = append(clauses, "bad: page missing last-modified")
	}

	// Product/version pairing. A version without a product is silently
	// ignored, matching the pairing rule reading only from product.
	if meta.Product != "" {
		if meta.Version == "" {
			score--
			clauses = append(clauses, "bad: product specified without version")
		} else {
			score++
			clauses = append(clauses, "good: product and version specified")
		}
	}

	// H1 presence, plus a point for every H1 word echoed in the three
	// metadata fields.
	if meta.HeaderOne != "" {
		score += 1 + headerInTitle + headerInDescription + headerInKeywords
		clauses = append(clauses, fmt.Sprintf(
			"good: H1 present; matches title %d, description %d, keywords %d",
			headerInTitle, headerInDescription, headerInKeywords))
	} else {
		score--
		clauses = append(clauses, "bad: page missing H1")
	}

	return Result{
		Score:    score,
		Analysis: strings.Join(clauses, "; "),
		Terms:    sorted,
	}
}

// prepareTerms drops pure symbol tokens and sorts by frequency
// descending. The sort is stable so equal-frequency terms keep their
// first-seen order. This is the display order for the rest of the run.
func prepareTerms(terms []model.TermFrequency) []model.TermFrequency {
	sorted := make([]model.TermFrequency, 0, len(terms))
	for _, tf := range terms {
		if !hasLetter(tf.Term) {
			continue
		}
		sorted = append(sorted, tf)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	return sorted
}

// metaWords splits a metadata field into normalized words, dropping
// words that normalize away.
func metaWords(field string) []string {
	words := make([]string, 0)
	for _, raw := range strings.Fields(field) {
		if w := NormalizeWord(raw); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// keywordWords splits a keywords field on commas, then on whitespace.
func keywordWords(field string) []string {
	words := make([]string, 0)
	for _, part := range strings.Split(field, ",") {
		words = append(words, metaWords(part)...)
	}
	return words
}

// containsWord reports whether words contains the given word.
func containsWord(words []string, word string) bool {
	for _, w := range words {
		if w == word {
			return true
		}
	}
	return false
}

// parseLastModified tries each known date layout in order. The second
// return value is false when the field is empty or matches no layout.
func parseLastModified(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range lastModifiedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
