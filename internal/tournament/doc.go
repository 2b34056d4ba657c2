// Package tournament defines the normalized records shared by every source.
//
// A Scrape is the aggregate persisted for one tournament: the tournament itself,
// its decks, its bracket rounds and its final standings. The package also holds
// the source-independent parsing rules (dates, decklist lines, format names) and
// the Swiss round-count policy table used to derive win/loss/draw counts.
package tournament
