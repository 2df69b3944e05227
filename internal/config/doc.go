// Package config manages seoscan configuration.
//
// Configuration comes from three layers, lowest precedence first:
//  1. Compiled-in defaults (NewConfig)
//  2. The optional .seoscan YAML file with per-host overrides
//  3. CLI flags parsed by the cmd package
//
// The package also derives the crawl Scope (scheme, host, base path) from
// a start URL; the base path is the directory portion of the start page
// and bounds which links are analyzed when SubPathOnly is enabled.
package config
