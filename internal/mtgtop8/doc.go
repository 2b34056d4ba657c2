// Package mtgtop8 scrapes community-submitted tournaments from mtgtop8.com.
//
// Events are addressed by a numeric ID (event?e=<id>). A crawl probes the IDs
// above the highest one already persisted, in small concurrent bursts, and
// queues every page that holds an event. Event pages only list decks and
// placements: each decklist is fetched separately as text, after a throwaway
// request the server needs before it serves it. Pages are ISO-8859-1.
package mtgtop8
