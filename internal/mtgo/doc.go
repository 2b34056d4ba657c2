// Package mtgo scrapes the official Magic Online decklist site.
//
// The site renders with JavaScript, so pages are fetched with a headless
// browser session. A crawl lists tournaments month by month
// (https://www.mtgo.com/decklists/YYYY/MM), skips those already persisted
// unless they are recent, and extracts each tournament page into a Scrape:
// metadata, decks, top-8 bracket and Swiss standings.
package mtgo
