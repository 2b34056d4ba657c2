package mtgo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/barrins-project/mtg-scraper/internal/crawler"
	"github.com/barrins-project/mtg-scraper/internal/dedup"
	"github.com/barrins-project/mtg-scraper/internal/fetch"
	"github.com/barrins-project/mtg-scraper/internal/logger"
	"github.com/barrins-project/mtg-scraper/internal/storage"
	"github.com/barrins-project/mtg-scraper/internal/tournament"
)

const (
	filenamePrefix     = "https://www.mtgo.com/decklist/"
	DefaultRecencyDays = 2
)

// Filename returns the file name a tournament URL is persisted under.
func Filename(url string) string {
	return Key(url) + ".json"
}

// Key is the de-duplication key of a tournament URL: its persisted file stem.
func Key(url string) string {
	return storage.Slug(strings.TrimPrefix(url, filenamePrefix))
}

// SessionFunc opens one browser session
type SessionFunc func(ctx context.Context) (fetch.Fetcher, error)

// Options configures a crawl
type Options struct {
	BaseURL string
	From    time.Time
	To      time.Time
	Force   bool
	// RecencyDays is how long a persisted tournament keeps being re-scraped.
	RecencyDays int
	// Settle is the first wait after loading a listing page.
	Settle     time.Duration
	MaxRetries int
	NewSession SessionFunc
	Now        func() time.Time
}

// Source crawls month listings. It implements crawler.Source.
type Source struct {
	store *storage.Store
	opts  Options
}

// New creates a listing crawler writing to store.
func New(store *storage.Store, opts Options) *Source {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RecencyDays <= 0 {
		opts.RecencyDays = DefaultRecencyDays
	}
	if opts.Settle <= 0 {
		opts.Settle = crawler.DefaultSettle
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = crawler.DefaultMaxRetries
	}
	if opts.NewSession == nil {
		opts.NewSession = BrowserSession(fetch.BrowserOptions{})
	}
	return &Source{store: store, opts: opts}
}

// BrowserSession returns a SessionFunc launching headless Chrome.
func BrowserSession(opts fetch.BrowserOptions) SessionFunc {
	return func(ctx context.Context) (fetch.Fetcher, error) {
		return fetch.NewBrowser(ctx, opts)
	}
}

func (s *Source) Name() string { return "mtgo" }

// Open implements crawler.Source.
func (s *Source) Open(ctx context.Context) (fetch.Fetcher, error) {
	return s.opts.NewSession(ctx)
}

// Produce walks every month of the range with the lent session and queues the
// tournaments the recency policy lets through.
func (s *Source) Produce(ctx context.Context, q crawler.Enqueuer, f fetch.Fetcher) error {
	idx, err := s.store.Index()
	if err != nil {
		return err
	}
	policy := dedup.Recency{Days: s.opts.RecencyDays, Force: s.opts.Force, Now: s.opts.Now}

	for _, ym := range tournament.MonthRange(s.opts.From, s.opts.To) {
		if err := ctx.Err(); err != nil {
			return err
		}

		url := ListingURL(s.opts.BaseURL, ym)
		queued := 0
		for _, link := range listMonth(ctx, f, url, s.opts.Settle, s.opts.MaxRetries) {
			date, _ := dedup.DateFromURL(link)
			if !policy.ShouldFetch(dedup.Candidate{Key: Key(link), Date: date}, idx) {
				logger.Debug("already scraped, skipping", logger.Fields{"url": link})
				continue
			}
			q.Enqueue(crawler.Task{ID: link, URL: link})
			queued++
		}

		logger.Info("month listed", logger.Fields{
			"month":  fmt.Sprintf("%d-%02d", ym.Year, int(ym.Month)),
			"queued": queued,
		})
	}
	return nil
}

// Process implements crawler.Source.
func (s *Source) Process(ctx context.Context, f fetch.Fetcher, task crawler.Task, settle time.Duration) (string, error) {
	return scrape(ctx, s.store, f, task, settle)
}

func scrape(ctx context.Context, store *storage.Store, f fetch.Fetcher, task crawler.Task, settle time.Duration) (string, error) {
	page := task.Page
	if page == "" {
		var err error
		if page, err = f.Fetch(ctx, task.URL, settle); err != nil {
			return "", err
		}
	}

	doc, err := fetch.Parse(page)
	if err != nil {
		return "", err
	}
	result, err := Extract(doc, task.URL)
	if err != nil {
		return "", err
	}
	return store.Save(result, Filename(task.URL))
}
