// Package cli implements the command-line interface for mtg-scraper.
//
// The root command crawls one source (mtgo, mtgtop8 or mtgprime) over a
// month range or an ID span. Two sub-commands run the maintenance passes:
// gaps backfills the mtgtop8 IDs missing below the highest one persisted,
// and empty-decks re-scrapes the mtgo tournaments saved without decks. The
// package wires configuration, logging, storage roots and the worker pool
// together and prints a run summary as text or JSON.
package cli
