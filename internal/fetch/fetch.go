package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/barrins-project/mtg-scraper/internal/logger"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:52.0) Gecko/20100101 Firefox/52.0"

// Fetcher retrieves the markup of one page.
type Fetcher interface {
	Fetch(ctx context.Context, url string, settle time.Duration) (string, error)
	Close() error
}

// StatusError reports a non-200 HTTP response
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.Code, e.URL)
}

// Sleep pauses for d, returning early with ctx's error if it is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Warmed issues a throwaway request to warmURL, which some servers need before
// they serve url, then returns the markup of url. Warm-up failures are ignored.
func Warmed(ctx context.Context, f Fetcher, warmURL, url string, settle time.Duration) (string, error) {
	if _, err := f.Fetch(ctx, warmURL, settle); err != nil {
		logger.Debug("warm-up request failed", logger.Fields{"url": warmURL, "error": err.Error()})
	}
	return f.Fetch(ctx, url, settle)
}
