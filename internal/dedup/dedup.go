// Package dedup decides whether a tournament needs to be (re-)fetched, given
// the index of records already persisted.
package dedup

import (
	"regexp"
	"time"

	"github.com/barrins-project/mtg-scraper/internal/tournament"
)

// Index is the persisted-record lookup the policies consult
type Index interface {
	Has(key string) bool
}

// Candidate is an identifier about to be queued. Key is the identifier as it
// appears in the index; Date is the event date when known.
type Candidate struct {
	Key  string
	Date tournament.Date
}

// Policy decides whether a candidate must be fetched
type Policy interface {
	ShouldFetch(c Candidate, idx Index) bool
}

// Existence skips every candidate already persisted.
type Existence struct {
	Force bool
}

// ShouldFetch implements Policy.
func (p Existence) ShouldFetch(c Candidate, idx Index) bool {
	return p.Force || !idx.Has(c.Key)
}

// Recency re-fetches a persisted candidate only while its event is younger
// than Days days. Undated persisted candidates are never re-fetched.
type Recency struct {
	Days  int
	Force bool
	Now   func() time.Time
}

// ShouldFetch implements Policy.
func (p Recency) ShouldFetch(c Candidate, idx Index) bool {
	if p.Force || !idx.Has(c.Key) {
		return true
	}
	if c.Date.IsZero() {
		return false
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	age := now().Sub(c.Date.Time)
	return age < time.Duration(p.Days)*24*time.Hour
}

var urlDatePattern = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)

// DateFromURL returns the first YYYY-MM-DD date embedded in url.
func DateFromURL(url string) (tournament.Date, bool) {
	match := urlDatePattern.FindString(url)
	if match == "" {
		return tournament.Date{}, false
	}
	return tournament.ParseDate(match, tournament.DateLayout)
}

// Gaps returns, in ascending order, the IDs in 1..maxID missing from persisted.
func Gaps(persisted []int, maxID int) []int {
	have := make(map[int]bool, len(persisted))
	for _, id := range persisted {
		have[id] = true
	}

	missing := make([]int, 0)
	for id := 1; id <= maxID; id++ {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
