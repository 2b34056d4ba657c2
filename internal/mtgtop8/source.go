package mtgtop8

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/barrins-project/mtg-scraper/internal/crawler"
	"github.com/barrins-project/mtg-scraper/internal/dedup"
	"github.com/barrins-project/mtg-scraper/internal/fetch"
	"github.com/barrins-project/mtg-scraper/internal/logger"
	"github.com/barrins-project/mtg-scraper/internal/storage"
	"github.com/barrins-project/mtg-scraper/internal/tournament"
)

const (
	DefaultBaseURL = "https://mtgtop8.com/"
	DefaultSpan    = 1000
	DefaultBurst   = 10
	// DefaultSettle is the pause before every request, grown on retries.
	DefaultSettle = 500 * time.Millisecond
)

// Headers are sent with every request
var Headers = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET",
	"Access-Control-Allow-Headers": "Content-Type",
	"Access-Control-Max-Age":       "3600",
}

var eventIDPattern = regexp.MustCompile(`[?&]e=(\d+)`)

// EventURL returns the page of one event
func EventURL(base string, id int) string {
	return fmt.Sprintf("%sevent?e=%d", withSlash(base), id)
}

func warmURL(base string, deckID int) string {
	return fmt.Sprintf("%sevent?e=1&d=%d", withSlash(base), deckID)
}

func decklistURL(base string, deckID int) string {
	return fmt.Sprintf("%smtgo?d=%d", withSlash(base), deckID)
}

func withSlash(base string) string {
	if strings.HasSuffix(base, "/") {
		return base
	}
	return base + "/"
}

// IDFromURL reads the event ID of an event URL.
func IDFromURL(url string) (int, bool) {
	m := eventIDPattern.FindStringSubmatch(url)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	return id, err == nil
}

// Filename returns "<id>_<format>_<name>.json" for an event.
func Filename(id int, format, name string) string {
	return fmt.Sprintf("%d_%s_%s.json", id, storage.Slug(format), storage.Slug(name))
}

// SessionFunc opens one fetch session
type SessionFunc func(ctx context.Context) (fetch.Fetcher, error)

// HTTPSession returns a SessionFunc for ISO-8859-1 HTTP clients sending Headers.
func HTTPSession(opts fetch.HTTPOptions) SessionFunc {
	if opts.Charset == nil {
		opts.Charset = charmap.ISO8859_1
	}
	if opts.Headers == nil {
		opts.Headers = Headers
	}
	return func(context.Context) (fetch.Fetcher, error) {
		return fetch.NewHTTP(opts), nil
	}
}

// Options configures both crawls
type Options struct {
	BaseURL string
	// Span is the number of IDs probed above the highest persisted one.
	Span int
	// Burst is the number of event pages probed concurrently.
	Burst      int
	Force      bool
	ProbeDelay time.Duration
	NewSession SessionFunc
}

func (o *Options) setDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Span <= 0 {
		o.Span = DefaultSpan
	}
	if o.Burst <= 0 {
		o.Burst = DefaultBurst
	}
	if o.ProbeDelay <= 0 {
		o.ProbeDelay = DefaultSettle
	}
	if o.NewSession == nil {
		o.NewSession = HTTPSession(fetch.HTTPOptions{})
	}
}

// source holds what the live crawl and the backfill share
type source struct {
	store *storage.Store
	opts  Options
}

// Open implements crawler.Source.
func (s *source) Open(ctx context.Context) (fetch.Fetcher, error) {
	return s.opts.NewSession(ctx)
}

// Process implements crawler.Source: it extracts the event, fetches every
// decklist, and saves the result.
func (s *source) Process(ctx context.Context, f fetch.Fetcher, task crawler.Task, settle time.Duration) (string, error) {
	id, ok := IDFromURL(task.URL)
	if !ok {
		return "", fmt.Errorf("no event id in %s", task.URL)
	}

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
	t, err := Tournament(doc, task.URL)
	if err != nil {
		return "", err
	}

	refs := DeckRefs(doc, s.opts.BaseURL)
	decks := make([]tournament.Deck, 0, len(refs))
	for _, ref := range refs {
		text, err := fetch.Warmed(ctx, f, warmURL(s.opts.BaseURL, ref.ID), decklistURL(s.opts.BaseURL, ref.ID), settle)
		if err != nil {
			return "", fmt.Errorf("decklist %d of event %d: %w", ref.ID, id, err)
		}

		mainboard, sideboard := Decklist(text)
		if len(mainboard) == 0 {
			logger.Warn("deck without mainboard skipped", logger.Fields{"url": task.URL, "stage": "decks", "deck": ref.ID})
			continue
		}
		decks = append(decks, tournament.Deck{
			Date:      tournament.EpochDate,
			Player:    ref.Player,
			Result:    ref.Result,
			AnchorURI: ref.AnchorURI,
			Mainboard: mainboard,
			Sideboard: sideboard,
		})
	}

	return s.store.Save(tournament.NewScrape(t, decks, nil, nil), Filename(id, t.Format, t.Name))
}

// persisted maps the stored event IDs for the existence policy.
type persisted map[string]bool

func (p persisted) Has(key string) bool { return p[key] }

func newPersisted(ids []int) persisted {
	p := make(persisted, len(ids))
	for _, id := range ids {
		p[strconv.Itoa(id)] = true
	}
	return p
}

// probe fetches the event pages of ids, Burst at a time, and queues those
// holding an event that is not persisted yet. The bursts share session, which
// must be safe for concurrent use.
func (s *source) probe(ctx context.Context, q crawler.Enqueuer, session fetch.Fetcher, ids []int, idx dedup.Index) error {
	policy := dedup.Existence{Force: s.opts.Force}
	for start := 0; start < len(ids); start += s.opts.Burst {
		end := min(start+s.opts.Burst, len(ids))

		var wg sync.WaitGroup
		for _, id := range ids[start:end] {
			if !policy.ShouldFetch(dedup.Candidate{Key: strconv.Itoa(id)}, idx) {
				logger.Debug("event already scraped", logger.Fields{"id": id})
				continue
			}
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				s.probeOne(ctx, session, q, id)
			}(id)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *source) probeOne(ctx context.Context, f fetch.Fetcher, q crawler.Enqueuer, id int) {
	url := EventURL(s.opts.BaseURL, id)
	page, err := f.Fetch(ctx, url, s.opts.ProbeDelay)
	if err != nil {
		logger.Warn("event probe failed", logger.Fields{"id": id, "url": url, "error": err.Error()})
		return
	}
	if Missing(page) {
		logger.Debug("no event behind id", logger.Fields{"id": id})
		return
	}
	q.Enqueue(crawler.Task{ID: strconv.Itoa(id), URL: url, Page: page})
	logger.Debug("event queued", logger.Fields{"id": id})
}

// Crawl probes the Span IDs above the highest persisted one. It implements
// crawler.Source.
type Crawl struct {
	source
}

// NewCrawl creates the live crawl over store
func NewCrawl(store *storage.Store, opts Options) *Crawl {
	opts.setDefaults()
	return &Crawl{source{store: store, opts: opts}}
}

func (c *Crawl) Name() string { return "mtgtop8" }

// Produce implements crawler.Source.
func (c *Crawl) Produce(ctx context.Context, q crawler.Enqueuer, f fetch.Fetcher) error {
	ids, err := c.store.IDs()
	if err != nil {
		return err
	}
	maxID, err := c.store.MaxID()
	if err != nil {
		return err
	}
	first := maxID + 1

	candidates := make([]int, c.opts.Span)
	for i := range candidates {
		candidates[i] = first + i
	}
	logger.Info("probing events", logger.Fields{"from": first, "to": first + c.opts.Span - 1})
	return c.probe(ctx, q, f, candidates, newPersisted(ids))
}

// Gaps backfills the IDs missing below the highest persisted one. It
// implements crawler.Source.
type Gaps struct {
	source
}

// NewGaps creates the backfill over store
func NewGaps(store *storage.Store, opts Options) *Gaps {
	opts.setDefaults()
	return &Gaps{source{store: store, opts: opts}}
}

func (g *Gaps) Name() string { return "mtgtop8-gaps" }

// Produce implements crawler.Source.
func (g *Gaps) Produce(ctx context.Context, q crawler.Enqueuer, f fetch.Fetcher) error {
	ids, missing, err := g.gaps()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		logger.Info("nothing persisted, no gaps to fill", nil)
		return nil
	}

	logger.Info("missing events", logger.Fields{"count": len(missing)})
	return g.probe(ctx, q, f, missing, newPersisted(ids))
}

// Missing returns how many IDs are still missing below the highest persisted one.
func (g *Gaps) Missing() (int, error) {
	_, missing, err := g.gaps()
	return len(missing), err
}

func (g *Gaps) gaps() (ids, missing []int, err error) {
	if ids, err = g.store.IDs(); err != nil {
		return nil, nil, err
	}
	maxID, err := g.store.MaxID()
	if err != nil {
		return nil, nil, err
	}
	return ids, dedup.Gaps(ids, maxID), nil
}
