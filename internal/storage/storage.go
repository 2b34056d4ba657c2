package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/barrins-project/mtg-scraper/internal/tournament"
)

const fileExt = ".json"

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s, collapses every run of non-alphanumeric characters into
// a single "-" and trims leading and trailing separators.
func Slug(s string) string {
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Store handles persistence under one source root
type Store struct {
	root string
}

// New creates a Store rooted at root, creating the directory if needed.
func New(root string) (*Store, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(root, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		root = filepath.Join(home, root[2:])
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Store{root: root}, nil
}

// Root returns the store's root directory
func (s *Store) Root() string {
	return s.root
}

// PathFor returns the path a scrape with the given date and filename is written to.
func (s *Store) PathFor(date tournament.Date, filename string) string {
	if !strings.HasSuffix(filename, fileExt) {
		filename += fileExt
	}
	return filepath.Join(
		s.root,
		fmt.Sprintf("%04d", date.Year()),
		fmt.Sprintf("%02d", int(date.Month())),
		fmt.Sprintf("%02d", date.Day()),
		filename,
	)
}

// Save validates the scrape, writes it under its tournament date and returns
// the file path. An existing file at that path is overwritten.
func (s *Store) Save(scrape *tournament.Scrape, filename string) (string, error) {
	if err := scrape.Validate(); err != nil {
		return "", fmt.Errorf("saving %s: %w", scrape.Tournament.URL, err)
	}

	path := s.PathFor(scrape.Tournament.Date, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating date directory: %w", err)
	}

	if err := writeJSON(path, scrape); err != nil {
		return "", err
	}
	return path, nil
}

// SaveSnapshot writes v to <root>/<filename>, replacing the previous snapshot.
func (s *Store) SaveSnapshot(filename string, v interface{}) (string, error) {
	path := filepath.Join(s.root, filename)
	if err := writeJSON(path, v); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Load reads a persisted scrape
func (s *Store) Load(path string) (*tournament.Scrape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scrape: %w", err)
	}

	var scrape tournament.Scrape
	if err := json.Unmarshal(data, &scrape); err != nil {
		return nil, fmt.Errorf("parsing scrape %s: %w", path, err)
	}
	return &scrape, nil
}

// walk calls fn for every JSON file below the root. A missing root is empty.
func (s *Store) walk(fn func(path string) error) error {
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != fileExt {
			return nil
		}
		return fn(path)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Index is the set of persisted file stems, mapped to their paths
type Index map[string]string

// Has reports whether a record with the given stem is persisted.
func (idx Index) Has(key string) bool {
	_, ok := idx[key]
	return ok
}

// Index lists every persisted record below the root.
func (s *Store) Index() (Index, error) {
	idx := make(Index)
	err := s.walk(func(path string) error {
		idx[strings.TrimSuffix(filepath.Base(path), fileExt)] = path
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", s.root, err)
	}
	return idx, nil
}

// IDFromPath reads the numeric ID prefix of an "<id>_<format>_<name>.json" file.
func IDFromPath(path string) (int, error) {
	stem := strings.TrimSuffix(filepath.Base(path), fileExt)
	prefix, _, _ := strings.Cut(stem, "_")
	id, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("no numeric id in %s", filepath.Base(path))
	}
	return id, nil
}

// IDs returns the sorted numeric IDs of the persisted records, ignoring files
// that carry none.
func (s *Store) IDs() ([]int, error) {
	seen := make(map[int]bool)
	err := s.walk(func(path string) error {
		if id, err := IDFromPath(path); err == nil {
			seen[id] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing ids in %s: %w", s.root, err)
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// MaxID returns the highest persisted numeric ID, or 0.
func (s *Store) MaxID() (int, error) {
	ids, err := s.IDs()
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return ids[len(ids)-1], nil
}

// Record identifies a persisted scrape
type Record struct {
	Path string
	URL  string
}

// EmptyDecks lists persisted scrapes whose deck list is empty. Unreadable
// files are skipped.
func (s *Store) EmptyDecks() ([]Record, error) {
	var records []Record
	err := s.walk(func(path string) error {
		scrape, err := s.Load(path)
		if err != nil {
			return nil
		}
		if len(scrape.Decks) == 0 && scrape.Tournament.URL != "" {
			records = append(records, Record{Path: path, URL: scrape.Tournament.URL})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", s.root, err)
	}
	return records, nil
}
