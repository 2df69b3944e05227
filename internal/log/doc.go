// Package log provides crawl logging built on the standard slog package.
//
// The TruncateHandler caps string attribute values so that page-derived
// content (titles, analysis strings, error bodies) cannot flood the log.
// NewLogger and NewJSONLogger construct ready-to-use loggers whose level
// follows the verbose flag: quiet runs log warnings and errors only.
package log
