package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/barrins-project/mtg-scraper/internal/crawler"
	"github.com/barrins-project/mtg-scraper/internal/logger"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Summary describes one finished crawl
type Summary struct {
	Source     string        `json:"source"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Stats      crawler.Stats `json:"stats"`
	Metrics    logger.Fields `json:"metrics,omitempty"`
}

// WriteSummary writes the summary in the specified format
func WriteSummary(w io.Writer, summary *Summary, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatText:
		return writeText(w, summary, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the summary as JSON
func writeJSON(w io.Writer, summary *Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

// writeText outputs the summary as human-readable text
func writeText(w io.Writer, summary *Summary, verbose bool) error {
	s := summary.Stats
	elapsed := summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second)

	if _, err := fmt.Fprintf(w, "%s: %d queued, %d saved, %d retried, %d abandoned in %s\n",
		summary.Source, s.Queued, s.Done, s.Retried, s.Abandoned, elapsed); err != nil {
		return err
	}
	if !verbose || len(summary.Metrics) == 0 {
		return nil
	}

	names := make([]string, 0, len(summary.Metrics))
	for name := range summary.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "  %s: %v\n", name, summary.Metrics[name]); err != nil {
			return err
		}
	}
	return nil
}
