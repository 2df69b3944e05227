// Package fetch retrieves and parses pages for the crawler.
//
// The Client paces requests with a configurable politeness delay,
// decodes legacy charsets to UTF-8, and parses HTML responses into
// goquery documents. Non-HTML and error responses come back with status
// and content type only, so the crawler can record broken or probe-only
// URLs without parsing anything.
package fetch
