// Package scoring computes per-page SEO scores.
//
// The Extractor builds a term frequency list from a page's text corpus
// (title, description, keywords, body text). The Engine then applies a
// fixed sequence of boost rules against the page metadata: words shared
// between metadata fields and the body raise both the score and the
// matched term's frequency, so earlier boosts feed later ones. Freshness,
// product/version pairing, and H1 presence contribute fixed adjustments.
//
// Every adjustment is mirrored by a human-readable clause; the joined
// clauses form the per-page analysis shown in reports.
package scoring
