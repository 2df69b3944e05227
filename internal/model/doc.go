// Package model defines the data structures shared across seoscan.
//
// The central type is CrawlRecord: one per canonical URL, owned by the
// crawler's frontier, carrying the URL's state machine, extracted page
// metadata, and the final SEO score. CrawlReport aggregates the records
// of one finished run for reporting and persistence.
//
// Design decision: Models are plain data structures with minimal behavior.
// Business logic lives in the packages that operate on them (crawler,
// scoring, report). This keeps the model package dependency-free and
// usable by every other package without import cycles.
package model
