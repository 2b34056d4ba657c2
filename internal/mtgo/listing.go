package mtgo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/barrins-project/mtg-scraper/internal/fetch"
	"github.com/barrins-project/mtg-scraper/internal/logger"
	"github.com/barrins-project/mtg-scraper/internal/tournament"
	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultBaseURL lists tournaments when suffixed by YYYY/MM.
	DefaultBaseURL = "https://www.mtgo.com/decklists/"
	siteURL        = "https://www.mtgo.com"
	listingLinks   = "#decklists > div.site-content > div.container-page-fluid.decklists-page > ul > li > a"
)

// ListingURL returns the page listing the tournaments of one month.
func ListingURL(base string, ym tournament.YearMonth) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return fmt.Sprintf("%s%d/%02d", base, ym.Year, int(ym.Month))
}

// Links returns the absolute tournament URLs of a listing page.
func Links(doc *goquery.Document) []string {
	links := make([]string, 0)
	doc.Find(listingLinks).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = siteURL + href
		}
		links = append(links, href)
	})
	return links
}

// settleSchedule doubles the settle delay after each empty listing.
func settleSchedule(initial time.Duration, retries int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = initial << uint(retries)
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// listMonth loads a month listing, retrying with a longer settle delay while
// the page renders no links. It gives up after retries extra attempts and
// returns whatever it found.
func listMonth(ctx context.Context, f fetch.Fetcher, url string, settle time.Duration, retries int) []string {
	schedule := settleSchedule(settle, retries)
	for attempt := 0; attempt <= retries; attempt++ {
		wait := schedule.NextBackOff()
		page, err := f.Fetch(ctx, url, wait)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("listing fetch failed", logger.Fields{"url": url, "attempt": attempt + 1, "error": err.Error()})
			continue
		}

		doc, err := fetch.Parse(page)
		if err != nil {
			logger.Warn("listing unreadable", logger.Fields{"url": url, "attempt": attempt + 1, "error": err.Error()})
			continue
		}
		if links := Links(doc); len(links) > 0 {
			return links
		}
		logger.Debug("listing rendered no links", logger.Fields{"url": url, "attempt": attempt + 1, "settle": wait.String()})
	}
	return nil
}
