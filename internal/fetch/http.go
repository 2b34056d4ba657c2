package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/barrins-project/mtg-scraper/internal/logger"
)

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 30 * time.Second

// HTTPOptions configures an HTTP fetcher
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	Headers   map[string]string
	// Charset decodes response bodies to UTF-8. Nil means the body already is UTF-8.
	Charset encoding.Encoding
	// Client overrides the default client, mainly for tests.
	Client *http.Client
}

// HTTP fetches pages with a plain GET request. It is safe for concurrent use.
type HTTP struct {
	client *http.Client
	opts   HTTPOptions
}

// NewHTTP creates an HTTP fetcher
func NewHTTP(opts HTTPOptions) *HTTP {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
		}
	}

	return &HTTP{
		client: client,
		opts:   opts,
	}
}

// Fetch waits settle, then GETs url and returns its decoded body.
func (h *HTTP) Fetch(ctx context.Context, url string, settle time.Duration) (string, error) {
	if err := Sleep(ctx, settle); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", h.opts.UserAgent)
	for k, v := range h.opts.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	logger.RecordTiming("fetch.http", time.Since(start))
	if err != nil {
		logger.IncrCounter("fetch.errors")
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		logger.IncrCounter("fetch.errors")
		return "", &StatusError{URL: url, Code: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if h.opts.Charset != nil {
		body = transform.NewReader(resp.Body, h.opts.Charset.NewDecoder())
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("reading body of %s: %w", url, err)
	}
	return string(data), nil
}

// Close releases idle connections.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
