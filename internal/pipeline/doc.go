// Package pipeline orchestrates crawl runs as ordered steps.
//
// A Pipeline executes Steps (crawl, summarize, save) against one
// CrawlReport. The BatchProcessor fans a pipeline factory out over
// multiple start URLs with bounded concurrency; each run still fetches
// one page at a time, so per-site politeness is preserved.
package pipeline
