package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/barrins-project/mtg-scraper/internal/config"
	"github.com/barrins-project/mtg-scraper/internal/crawler"
	"github.com/barrins-project/mtg-scraper/internal/fetch"
	"github.com/barrins-project/mtg-scraper/internal/logger"
	"github.com/barrins-project/mtg-scraper/internal/mtgo"
	"github.com/barrins-project/mtg-scraper/internal/mtgprime"
	"github.com/barrins-project/mtg-scraper/internal/mtgtop8"
	"github.com/barrins-project/mtg-scraper/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// Source names accepted by --source
const (
	SourceMTGO     = "mtgo"
	SourceMTGTop8  = "mtgtop8"
	SourceMTGPrime = "mtgprime"
)

// Storage roots below the data directory, one per source site
const (
	dirMTGO     = "mtgo"
	dirMTGTop8  = "mtgtop8.com"
	dirMTGPrime = "mtgprime.fr"
)

// MonthLayout is the format of --date-from and --date-to.
const MonthLayout = "2006-01"

// ErrDateFormat is printed as is when a month flag does not parse.
var ErrDateFormat = errors.New("Erreur : le format des dates doit être YYYY-MM, ex: 2022-01")

var (
	flagSource     string
	flagDateFrom   string
	flagDateTo     string
	flagSpan       int
	flagForce      bool
	flagWorkers    int
	flagConfigFile string
	flagDataDir    string
	flagFormat     string
	flagVerbose    bool
)

// DefaultDateRange returns the default months: the month of five days ago
// through the current month.
func DefaultDateRange(now time.Time) (from, to string) {
	return now.AddDate(0, 0, -5).Format(MonthLayout), now.Format(MonthLayout)
}

// ParseMonth reads a YYYY-MM flag value.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, ErrDateFormat
	}
	return t, nil
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	from, to := DefaultDateRange(time.Now())

	cmd := &cobra.Command{
		Use:   "mtg-scraper",
		Short: "Extract MTG tournaments from different sources",
		Long: `A CLI tool to scrape Magic: The Gathering tournaments.
Decklists, standings and brackets are saved as one JSON file per tournament,
under <data-dir>/<source>/YYYY/MM/DD/.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawl,
	}

	cmd.Flags().StringVar(&flagSource, "source", SourceMTGO, "Source being scraped: mtgo, mtgtop8 or mtgprime")
	cmd.Flags().StringVar(&flagDateFrom, "date-from", from, "First month to crawl (YYYY-MM)")
	cmd.Flags().StringVar(&flagDateTo, "date-to", to, "Last month to crawl (YYYY-MM)")
	cmd.Flags().IntVar(&flagSpan, "span", mtgtop8.DefaultSpan, "Number of mtgtop8 event IDs to inspect")
	cmd.Flags().BoolVar(&flagForce, "force", false, "Scrape tournaments even if already persisted")

	cmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "Number of concurrent workers (default from config)")
	cmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "Path to a YAML config file (default "+config.DefaultFile+" if present)")
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Root directory of scraped files (default from config)")
	cmd.PersistentFlags().StringVar(&flagFormat, "format", string(FormatText), "Summary format: text or json")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newGapsCmd(), newEmptyDecksCmd())
	return cmd
}

func newGapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gaps",
		Short: "Backfill the mtgtop8 events missing below the highest persisted ID",
		Args:  cobra.NoArgs,
		RunE:  runGaps,
	}
}

func newEmptyDecksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "empty-decks",
		Short: "Re-scrape the mtgo tournaments saved without any deck",
		Args:  cobra.NoArgs,
		RunE:  runEmptyDecks,
	}
}

// setup loads the configuration, applies the flags and installs the logger.
func setup(cmd *cobra.Command) (*config.Config, OutputFormat, error) {
	format := OutputFormat(flagFormat)
	if format != FormatText && format != FormatJSON {
		return nil, "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = flagDataDir
	}
	if flags.Changed("workers") {
		cfg.Crawler.Workers = flagWorkers
	}
	if flags.Changed("span") {
		cfg.MTGTop8.Span = flagSpan
	}
	if flagVerbose {
		cfg.LogLevel = string(logger.LevelDebug)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	logger.SetDefault(logger.New(logger.ParseLevel(cfg.LogLevel), cmd.ErrOrStderr()))
	logger.Debug("configuration loaded", logger.Fields{
		"data_dir": cfg.DataDir,
		"workers":  cfg.Crawler.Workers,
	})
	return cfg, format, nil
}

func openStore(cfg *config.Config, dir string) (*storage.Store, error) {
	store, err := storage.New(cfg.SourceDir(dir))
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// runCrawl is the root command logic
func runCrawl(cmd *cobra.Command, args []string) error {
	dateFrom, err := ParseMonth(flagDateFrom)
	if err != nil {
		return err
	}
	dateTo, err := ParseMonth(flagDateTo)
	if err != nil {
		return err
	}
	if dateTo.Before(dateFrom) {
		return fmt.Errorf("--date-from %s is after --date-to %s", flagDateFrom, flagDateTo)
	}

	cfg, format, err := setup(cmd)
	if err != nil {
		return err
	}

	var (
		src    crawler.Source
		settle time.Duration
	)
	switch flagSource {
	case SourceMTGO:
		store, err := openStore(cfg, dirMTGO)
		if err != nil {
			return err
		}
		src = mtgo.New(store, mtgo.Options{
			BaseURL:     cfg.MTGO.BaseURL,
			From:        dateFrom,
			To:          dateTo,
			Force:       flagForce,
			RecencyDays: cfg.MTGO.RecencyDays,
			Settle:      cfg.MTGO.Settle,
			MaxRetries:  cfg.Crawler.MaxRetries,
			NewSession:  browserSession(cfg),
		})
		settle = cfg.MTGO.Settle

	case SourceMTGTop8:
		store, err := openStore(cfg, dirMTGTop8)
		if err != nil {
			return err
		}
		src = mtgtop8.NewCrawl(store, mtgtop8Options(cfg))
		settle = cfg.MTGTop8.Settle

	case SourceMTGPrime:
		store, err := openStore(cfg, dirMTGPrime)
		if err != nil {
			return err
		}
		src = mtgprime.New(store, mtgprime.Options{
			URL:      cfg.MTGPrime.URL,
			Filename: cfg.MTGPrime.Filename,
			NewSession: func(context.Context) (fetch.Fetcher, error) {
				return fetch.NewHTTP(httpOptions(cfg)), nil
			},
		})
		// A single page: one worker is enough.
		cfg.Crawler.Workers = 1
		settle = cfg.Crawler.Throttle

	default:
		return fmt.Errorf("invalid source: %s (must be mtgo, mtgtop8 or mtgprime)", flagSource)
	}

	_, err = run(cmd, cfg, format, src, crawler.Sequential, settle)
	return err
}

// runGaps backfills missing mtgtop8 IDs while they are being probed.
func runGaps(cmd *cobra.Command, args []string) error {
	cfg, format, err := setup(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, dirMTGTop8)
	if err != nil {
		return err
	}
	gaps := mtgtop8.NewGaps(store, mtgtop8Options(cfg))

	if _, err := run(cmd, cfg, format, gaps, crawler.Concurrent, cfg.MTGTop8.Settle); err != nil {
		return err
	}

	missing, err := gaps.Missing()
	if err != nil {
		return fmt.Errorf("counting gaps: %w", err)
	}
	logger.Info("events still missing", logger.Fields{"count": missing})
	return nil
}

func runEmptyDecks(cmd *cobra.Command, args []string) error {
	cfg, format, err := setup(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, dirMTGO)
	if err != nil {
		return err
	}
	src := mtgo.NewEmptyDecks(store, browserSession(cfg))

	_, err = run(cmd, cfg, format, src, crawler.Sequential, cfg.MTGO.Settle)
	return err
}

// run drives one crawl and writes its summary. Interrupting the process
// cancels the crawl; work already persisted is kept.
func run(cmd *cobra.Command, cfg *config.Config, format OutputFormat, src crawler.Source, mode crawler.Mode, settle time.Duration) (crawler.Stats, error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	metrics := logger.NewMetrics()
	pool := crawler.NewPool(crawler.Options{
		Workers:    cfg.Crawler.Workers,
		MaxRetries: cfg.Crawler.MaxRetries,
		Backoff:    crawler.Linear{Base: settle},
		NewPacer:   cfg.Crawler.NewPacer,
		Logger:     logger.Default(),
		Metrics:    metrics,
	})

	started := time.Now()
	stats, err := pool.Run(ctx, src, mode)

	summary := &Summary{
		Source:     src.Name(),
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		Stats:      stats,
		Metrics:    metrics.Snapshot(),
	}
	for name, v := range logger.MetricsSnapshot() {
		summary.Metrics[name] = v
	}
	if werr := WriteSummary(cmd.OutOrStdout(), summary, format, flagVerbose); werr != nil {
		return stats, fmt.Errorf("writing summary: %w", werr)
	}
	if err != nil {
		return stats, fmt.Errorf("%s crawl: %w", src.Name(), err)
	}
	return stats, nil
}

func httpOptions(cfg *config.Config) fetch.HTTPOptions {
	return fetch.HTTPOptions{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.Crawler.HTTPTimeout,
	}
}

func mtgtop8Options(cfg *config.Config) mtgtop8.Options {
	return mtgtop8.Options{
		BaseURL:    cfg.MTGTop8.BaseURL,
		Span:       cfg.MTGTop8.Span,
		Burst:      cfg.MTGTop8.Burst,
		Force:      flagForce,
		ProbeDelay: cfg.MTGTop8.Settle,
		NewSession: mtgtop8.HTTPSession(httpOptions(cfg)),
	}
}

func browserSession(cfg *config.Config) mtgo.SessionFunc {
	return mtgo.BrowserSession(fetch.BrowserOptions{
		UserAgent: cfg.Crawler.UserAgent,
		ExecPath:  cfg.MTGO.ChromePath,
	})
}

// Execute runs the CLI
func Execute() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and maps its outcome to an exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		if errors.Is(err, ErrDateFormat) {
			fmt.Fprintln(stderr, err)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return ExitError
	}
	return ExitSuccess
}
