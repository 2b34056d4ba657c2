// Package config loads crawler settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// MTG_SCRAPER_* environment variables (a .env file in the working directory
// is read first, without overriding variables already set). Command-line
// flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/barrins-project/mtg-scraper/internal/crawler"
	"github.com/barrins-project/mtg-scraper/internal/fetch"
	"github.com/barrins-project/mtg-scraper/internal/mtgo"
	"github.com/barrins-project/mtg-scraper/internal/mtgprime"
	"github.com/barrins-project/mtg-scraper/internal/mtgtop8"
)

const (
	// DefaultFile is read from the working directory when no file is given.
	DefaultFile = "mtg-scraper.yaml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "MTG_SCRAPER_"
)

// Pacing modes of crawler.pacing
const (
	// PacingFixed pauses for the whole throttle after every task.
	PacingFixed = "fixed"
	// PacingRate only keeps task starts one throttle apart.
	PacingRate = "rate"
)

type Config struct {
	DataDir  string         `yaml:"data_dir"`
	LogLevel string         `yaml:"log_level"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
	MTGO     MTGOConfig     `yaml:"mtgo"`
	MTGTop8  MTGTop8Config  `yaml:"mtgtop8"`
	MTGPrime MTGPrimeConfig `yaml:"mtgprime"`
}

type CrawlerConfig struct {
	Workers     int           `yaml:"workers"`
	MaxRetries  int           `yaml:"max_retries"`
	Throttle    time.Duration `yaml:"throttle"` // pause of one worker after each task
	Pacing      string        `yaml:"pacing"`
	UserAgent   string        `yaml:"user_agent"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

type MTGOConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Settle      time.Duration `yaml:"settle"` // wait after navigation, multiplied on retries
	RecencyDays int           `yaml:"recency_days"`
	ChromePath  string        `yaml:"chrome_path"`
}

type MTGTop8Config struct {
	BaseURL string        `yaml:"base_url"`
	Settle  time.Duration `yaml:"settle"` // pause before every request, multiplied on retries
	Span    int           `yaml:"span"`
	Burst   int           `yaml:"burst"`
}

type MTGPrimeConfig struct {
	URL      string `yaml:"url"`
	Filename string `yaml:"filename"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		DataDir:  "scraped",
		LogLevel: "info",
		Crawler: CrawlerConfig{
			Workers:     crawler.DefaultWorkers,
			MaxRetries:  crawler.DefaultMaxRetries,
			Throttle:    crawler.DefaultThrottle,
			Pacing:      PacingFixed,
			HTTPTimeout: fetch.DefaultTimeout,
		},
		MTGO: MTGOConfig{
			BaseURL:     mtgo.DefaultBaseURL,
			Settle:      crawler.DefaultSettle,
			RecencyDays: mtgo.DefaultRecencyDays,
		},
		MTGTop8: MTGTop8Config{
			BaseURL: mtgtop8.DefaultBaseURL,
			Settle:  mtgtop8.DefaultSettle,
			Span:    mtgtop8.DefaultSpan,
			Burst:   mtgtop8.DefaultBurst,
		},
		MTGPrime: MTGPrimeConfig{
			URL:      mtgprime.DefaultURL,
			Filename: mtgprime.DefaultFilename,
		},
	}
}

// NewPacer builds the pacer of one worker for the configured mode.
func (c CrawlerConfig) NewPacer() crawler.Pacer {
	if c.Pacing == PacingRate {
		return crawler.NewRatePacer(c.Throttle)
	}
	return crawler.NewFixedPacer(c.Throttle)
}

// Load builds the configuration from path (or DefaultFile when path is empty
// and that file exists) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides settings from MTG_SCRAPER_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DATA_DIR":      &c.DataDir,
		"LOG_LEVEL":     &c.LogLevel,
		"USER_AGENT":    &c.Crawler.UserAgent,
		"PACING":        &c.Crawler.Pacing,
		"CHROME_PATH":   &c.MTGO.ChromePath,
		"MTGO_URL":      &c.MTGO.BaseURL,
		"MTGTOP8_URL":   &c.MTGTop8.BaseURL,
		"MTGPRIME_URL":  &c.MTGPrime.URL,
		"MTGPRIME_FILE": &c.MTGPrime.Filename,
	}
	for key, field := range strs {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*field = v
		}
	}

	ints := map[string]*int{
		"WORKERS":      &c.Crawler.Workers,
		"MAX_RETRIES":  &c.Crawler.MaxRetries,
		"RECENCY_DAYS": &c.MTGO.RecencyDays,
		"SPAN":         &c.MTGTop8.Span,
		"BURST":        &c.MTGTop8.Burst,
	}
	for key, field := range ints {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*field = n
	}

	durations := map[string]*time.Duration{
		"THROTTLE":       &c.Crawler.Throttle,
		"HTTP_TIMEOUT":   &c.Crawler.HTTPTimeout,
		"MTGO_SETTLE":    &c.MTGO.Settle,
		"MTGTOP8_SETTLE": &c.MTGTop8.Settle,
	}
	for key, field := range durations {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*field = d
	}
	return nil
}

// Validate rejects settings the crawler cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return errors.New("data_dir must not be empty")
	case c.Crawler.Workers < 1:
		return fmt.Errorf("crawler.workers must be at least 1, got %d", c.Crawler.Workers)
	case c.Crawler.MaxRetries < 1:
		return fmt.Errorf("crawler.max_retries must be at least 1, got %d", c.Crawler.MaxRetries)
	case c.Crawler.Throttle < 0:
		return fmt.Errorf("crawler.throttle must not be negative")
	case c.Crawler.Pacing != PacingFixed && c.Crawler.Pacing != PacingRate:
		return fmt.Errorf("crawler.pacing must be %q or %q, got %q", PacingFixed, PacingRate, c.Crawler.Pacing)
	case c.MTGO.RecencyDays < 1:
		return fmt.Errorf("mtgo.recency_days must be at least 1, got %d", c.MTGO.RecencyDays)
	case c.MTGO.Settle <= 0 || c.MTGTop8.Settle <= 0:
		return errors.New("settle delays must be positive")
	case c.MTGTop8.Span < 1 || c.MTGTop8.Burst < 1:
		return errors.New("mtgtop8.span and mtgtop8.burst must be at least 1")
	}
	return nil
}

// SourceDir returns the storage root of a source below DataDir.
func (c *Config) SourceDir(name string) string {
	return filepath.Join(c.DataDir, name)
}
