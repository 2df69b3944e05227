// Package crawler implements the crawl core: URL canonicalization,
// the crawl frontier, the fetch dispatcher, and the page processor.
//
// The Resolver turns raw hrefs into canonical URLs classified as
// analyze (in scope) or probe-only (existence check). The Frontier owns
// one CrawlRecord per canonical URL and guarantees at-most-once
// crawling. The Dispatcher drains pending records through the fetch
// service one at a time, and the Processor turns each completed fetch
// into state transitions, discovered links, and scores.
package crawler
