package scoring

import (
	"html"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"

	"github.com/nao1215/seoscan/internal/model"
)

// stopWords are common English words excluded from term frequency counts.
// They dominate any corpus without carrying SEO signal.
//
// Design decision: We keep our own list rather than relying on the stemmer
// library's internal stop word handling because the list must be stable:
// scoring is deterministic and a library upgrade silently changing the
// corpus would change scores.
var stopWords = map[string]bool{
	"a": true, "about": true, "after": true, "all": true, "also": true,
	"an": true, "and": true, "any": true, "are": true, "as": true,
	"at": true, "be": true, "because": true, "been": true, "but": true,
	"by": true, "can": true, "come": true, "could": true, "day": true,
	"do": true, "does": true, "even": true, "first": true, "for": true,
	"from": true, "get": true, "give": true, "go": true, "had": true,
	"has": true, "have": true, "he": true, "her": true, "him": true,
	"his": true, "how": true, "i": true, "if": true, "in": true,
	"into": true, "is": true, "it": true, "its": true, "just": true,
	"know": true, "like": true, "look": true, "make": true, "may": true,
	"me": true, "more": true, "most": true, "my": true, "new": true,
	"no": true, "not": true, "now": true, "of": true, "on": true,
	"one": true, "only": true, "or": true, "other": true, "our": true,
	"out": true, "over": true, "say": true, "see": true, "she": true,
	"so": true, "some": true, "take": true, "than": true, "that": true,
	"the": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "time": true, "to": true,
	"two": true, "up": true, "us": true, "use": true, "very": true,
	"want": true, "was": true, "way": true, "we": true, "well": true,
	"were": true, "what": true, "when": true, "which": true, "who": true,
	"will": true, "with": true, "would": true, "you": true, "your": true,
}

// Extractor turns raw page text into a term frequency list.
// It owns the configured noise word set so one extractor can be shared by
// every page of a crawl run.
type Extractor struct {
	// noise holds normalized noise words to drop from the corpus,
	// in addition to the built-in stop words.
	noise map[string]bool
}

// NewExtractor creates an Extractor with the given noise words.
// Noise words pass through the same normalization as corpus terms so that
// configured surface forms match their stemmed counterparts.
func NewExtractor(noiseWords []string) *Extractor {
	noise := make(map[string]bool, len(noiseWords))
	for _, w := range noiseWords {
		if n := NormalizeWord(w); n != "" {
			noise[n] = true
		}
	}
	return &Extractor{noise: noise}
}

// Extract computes per-term frequencies for a single-document corpus.
// The input is plain text (tags already stripped); entities are decoded,
// digits and punctuation removed, terms case-folded and stemmed, and stop
// words plus configured noise words dropped. The returned list preserves
// first-seen order, which the scoring engine later sorts by frequency.
func (e *Extractor) Extract(text string) []model.TermFrequency {
	cleaned := stripNonLetters(html.UnescapeString(text))

	terms := make([]model.TermFrequency, 0)
	index := make(map[string]int)

	for _, raw := range strings.Fields(cleaned) {
		term := NormalizeWord(raw)
		if term == "" {
			continue
		}
		if stopWords[term] || e.noise[term] {
			continue
		}

		if i, ok := index[term]; ok {
			terms[i].Count++
			continue
		}
		index[term] = len(terms)
		terms = append(terms, model.TermFrequency{Term: term, Count: 1})
	}

	return terms
}

// NormalizeWord case-folds and stems a single word the same way corpus
// terms are normalized. It returns "" for words that normalize away
// entirely (pure digits, single letters, punctuation).
//
// The scoring engine uses this for title, description, keyword, and H1
// words so that metadata comparisons are consistent with the corpus.
func NormalizeWord(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	w = stripNonLetters(w)
	w = strings.TrimSpace(w)
	if len(w) < 2 {
		return ""
	}
	return english.Stem(w, false)
}

// stripNonLetters replaces every non-letter rune with a space.
// Digits are removed by design: version numbers and timestamps inflate
// frequencies without describing page content.
func stripNonLetters(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}
	return sb.String()
}

// hasLetter reports whether the term contains at least one letter.
// Terms without letters are pure symbol or operator tokens.
func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
