// Package main provides the entry point for the seoscan CLI.
//
// seoscan crawls a website starting from a root page and scores every
// reachable page for SEO quality based on its metadata and body text.
//
// Usage:
//
//	seoscan crawl <url>
//	seoscan compare <host>
//
// See --help for all available options.
package main

// main is the entry point for seoscan.
func main() {
	Execute()
}
