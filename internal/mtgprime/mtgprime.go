// Package mtgprime snapshots the list of players qualified for the French
// Duel Commander championship, published as an HTML table on mtgprime.fr.
package mtgprime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/barrins-project/mtg-scraper/internal/crawler"
	"github.com/barrins-project/mtg-scraper/internal/fetch"
	"github.com/barrins-project/mtg-scraper/internal/logger"
	"github.com/barrins-project/mtg-scraper/internal/storage"
	"github.com/barrins-project/mtg-scraper/internal/tournament"
)

const (
	DefaultURL      = "https://mtgprime.fr/championnat-france-duel-commander-2025-qualifies/"
	DefaultFilename = "2025_duel-commander_french-nationals_qualified_players.json"
)

// Column headers of the qualified-players table
const (
	ColumnSurname       = "Nom"
	ColumnName          = "Prénom"
	ColumnQualification = "Type de Qualif"
	ColumnRegion        = "Région"
	ColumnTournament    = "Tournoi de Qualification"
	ColumnRoute         = "CR / Open"
)

// Players reads the first table of the page. Columns are located by header,
// so their order does not matter; a missing column reads as empty cells.
func Players(doc *goquery.Document) ([]tournament.CircuitPlayer, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errors.New("no players table")
	}

	rows := table.Find("tr")
	header := table.Find("thead tr").First()
	if header.Length() == 0 {
		header = rows.First()
	}

	columns := make(map[string]int)
	header.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		columns[fetch.Text(cell)] = i
	})
	if _, ok := columns[ColumnSurname]; !ok {
		return nil, fmt.Errorf("players table has no %q column", ColumnSurname)
	}

	players := make([]tournament.CircuitPlayer, 0)
	rows.Each(func(_ int, row *goquery.Selection) {
		if row.IsSelection(header) {
			return
		}
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		cell := func(column string) string {
			i, ok := columns[column]
			if !ok || i >= cells.Length() {
				return ""
			}
			return fetch.Text(cells.Eq(i))
		}

		players = append(players, tournament.NewCircuitPlayer(
			cell(ColumnSurname),
			cell(ColumnName),
			cell(ColumnQualification),
			cell(ColumnRegion),
			cell(ColumnTournament),
			cell(ColumnRoute),
		))
	})
	return players, nil
}

// SessionFunc opens one fetch session
type SessionFunc func(ctx context.Context) (fetch.Fetcher, error)

// Options configures the snapshot
type Options struct {
	URL        string
	Filename   string
	NewSession SessionFunc
}

// Source fetches the page once and overwrites the snapshot file. It
// implements crawler.Source.
type Source struct {
	store *storage.Store
	opts  Options
}

// New creates the snapshot source over store
func New(store *storage.Store, opts Options) *Source {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Filename == "" {
		opts.Filename = DefaultFilename
	}
	if opts.NewSession == nil {
		opts.NewSession = func(context.Context) (fetch.Fetcher, error) {
			return fetch.NewHTTP(fetch.HTTPOptions{}), nil
		}
	}
	return &Source{store: store, opts: opts}
}

func (s *Source) Name() string { return "mtgprime" }

// Open implements crawler.Source.
func (s *Source) Open(ctx context.Context) (fetch.Fetcher, error) {
	return s.opts.NewSession(ctx)
}

// Produce queues the single page.
func (s *Source) Produce(_ context.Context, q crawler.Enqueuer, _ fetch.Fetcher) error {
	q.Enqueue(crawler.Task{ID: s.opts.URL, URL: s.opts.URL})
	return nil
}

// Process implements crawler.Source.
func (s *Source) Process(ctx context.Context, f fetch.Fetcher, task crawler.Task, settle time.Duration) (string, error) {
	page, err := f.Fetch(ctx, task.URL, settle)
	if err != nil {
		return "", err
	}
	doc, err := fetch.Parse(page)
	if err != nil {
		return "", err
	}

	players, err := Players(doc)
	if err != nil {
		return "", fmt.Errorf("%s: %w", task.URL, err)
	}
	logger.Info("qualified players read", logger.Fields{"url": task.URL, "count": len(players)})
	return s.store.SaveSnapshot(strings.TrimSpace(s.opts.Filename), players)
}
