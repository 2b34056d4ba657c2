package mtgo

import (
	"context"
	"time"

	"github.com/barrins-project/mtg-scraper/internal/crawler"
	"github.com/barrins-project/mtg-scraper/internal/fetch"
	"github.com/barrins-project/mtg-scraper/internal/logger"
	"github.com/barrins-project/mtg-scraper/internal/storage"
)

// EmptyDecks re-scrapes persisted tournaments whose deck list came back
// empty, typically because the page had not finished rendering. A successful
// re-scrape overwrites the file in place.
type EmptyDecks struct {
	store      *storage.Store
	newSession SessionFunc
}

// NewEmptyDecks creates the re-scrape source over store.
func NewEmptyDecks(store *storage.Store, newSession SessionFunc) *EmptyDecks {
	if newSession == nil {
		newSession = BrowserSession(fetch.BrowserOptions{})
	}
	return &EmptyDecks{store: store, newSession: newSession}
}

func (e *EmptyDecks) Name() string { return "mtgo-empty-decks" }

// Open implements crawler.Source.
func (e *EmptyDecks) Open(ctx context.Context) (fetch.Fetcher, error) {
	return e.newSession(ctx)
}

// Produce queues the URL of every persisted scrape without decks.
func (e *EmptyDecks) Produce(_ context.Context, q crawler.Enqueuer, _ fetch.Fetcher) error {
	records, err := e.store.EmptyDecks()
	if err != nil {
		return err
	}
	for _, r := range records {
		q.Enqueue(crawler.Task{ID: r.URL, URL: r.URL})
	}
	logger.Info("files without decks", logger.Fields{"count": len(records)})
	return nil
}

// Process implements crawler.Source.
func (e *EmptyDecks) Process(ctx context.Context, f fetch.Fetcher, task crawler.Task, settle time.Duration) (string, error) {
	return scrape(ctx, e.store, f, task, settle)
}
