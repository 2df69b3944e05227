// Package database persists finished crawl runs in SQLite.
//
// Each saved run stores the full report as JSON alongside queryable
// summary columns. The compare command loads two runs of the same host
// and diffs their per-page scores; the history listing reads only the
// summary columns.
package database
