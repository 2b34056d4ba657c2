package crawler

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/barrins-project/mtg-scraper/internal/fetch"
)

// Backoff gives the settle delay for a task's attempt (0 for the first try).
type Backoff interface {
	Delay(attempt int) time.Duration
}

// Linear grows the delay proportionally to the attempt: Base, 2*Base, 3*Base...
type Linear struct {
	Base time.Duration
}

// Delay implements Backoff.
func (l Linear) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return l.Base * time.Duration(attempt+1)
}

// Pacer throttles one worker between tasks.
type Pacer interface {
	Throttle(ctx context.Context) error
}

// fixedPacer sleeps for a fixed pause after every task.
type fixedPacer struct {
	pause time.Duration
}

// NewFixedPacer returns a Pacer waiting pause on every call, however long the
// preceding task took. Only cancelling ctx cuts the pause short.
func NewFixedPacer(pause time.Duration) Pacer {
	return fixedPacer{pause: pause}
}

func (p fixedPacer) Throttle(ctx context.Context) error {
	return fetch.Sleep(ctx, p.pause)
}

// ratePacer spaces task starts at least interval apart.
type ratePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer returns a Pacer backed by a token bucket of size one. Unlike
// NewFixedPacer it does not wait after a task that already lasted interval.
func NewRatePacer(interval time.Duration) Pacer {
	return &ratePacer{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (p *ratePacer) Throttle(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// noPacer never waits
type noPacer struct{}

func (noPacer) Throttle(context.Context) error { return nil }
