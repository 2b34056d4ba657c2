// Package fetch retrieves raw page markup for the extractors.
//
// A Fetcher is a session handle owned by exactly one worker: HTTP wraps a
// plain net/http client (with optional legacy charset decoding) and Browser
// drives a headless Chrome through chromedp for pages rendered client-side.
// Both honor a settle delay: HTTP pauses before the request, Browser waits
// after navigation so scripts can populate the page.
package fetch
