package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/barrins-project/mtg-scraper/internal/logger"
)

// BrowserOptions configures a headless Chrome session
type BrowserOptions struct {
	UserAgent string
	// ExecPath points at a Chrome binary; empty lets chromedp look it up.
	ExecPath string
}

// Browser is one headless Chrome session. It is not safe for concurrent use.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
}

// NewBrowser starts a headless Chrome process.
func NewBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		logger.Debug("chromedp", logger.Fields{"message": fmt.Sprintf(format, v...)})
	}))

	// An empty Run launches the browser so start-up errors surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return &Browser{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
	}, nil
}

// Fetch navigates to url, waits settle and returns the rendered document.
func (b *Browser) Fetch(ctx context.Context, url string, settle time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	var html string
	err := chromedp.Run(b.ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	logger.RecordTiming("fetch.browser", time.Since(start))
	if err != nil {
		logger.IncrCounter("fetch.errors")
		return "", fmt.Errorf("browser navigation to %s: %w", url, err)
	}
	return html, nil
}

// Close shuts the browser down. Further calls are no-ops.
func (b *Browser) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = chromedp.Cancel(b.ctx)
		b.cancel()
		b.allocCancel()
	})
	return err
}
