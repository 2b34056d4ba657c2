// Package storage persists scrapes as pretty-printed JSON files.
//
// Each source owns a root directory. A scrape is written to
// <root>/<YYYY>/<MM>/<DD>/<filename>.json using its tournament date, so the
// directory tree doubles as the ledger of already-scraped tournaments that the
// de-duplication policies read back through Index and IDs. Flat snapshot files
// (qualified-player lists) are written directly under the root.
package storage
