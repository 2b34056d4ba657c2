package dedup

import (
	"reflect"
	"testing"
	"time"

	"github.com/barrins-project/mtg-scraper/internal/tournament"
)

type setIndex map[string]bool

func (s setIndex) Has(key string) bool { return s[key] }

func TestExistence(t *testing.T) {
	idx := setIndex{"51234": true}

	tests := []struct {
		name   string
		policy Existence
		key    string
		want   bool
	}{
		{"new id", Existence{}, "51235", true},
		{"known id", Existence{}, "51234", false},
		{"known id forced", Existence{Force: true}, "51234", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.ShouldFetch(Candidate{Key: tt.key}, idx); got != tt.want {
				t.Errorf("ShouldFetch(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestRecency(t *testing.T) {
	now := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	idx := setIndex{"known": true}

	tests := []struct {
		name      string
		policy    Recency
		candidate Candidate
		want      bool
	}{
		{
			name:      "not persisted",
			policy:    Recency{Days: 2, Now: clock},
			candidate: Candidate{Key: "new", Date: tournament.NewDate(2020, time.May, 1)},
			want:      true,
		},
		{
			name:      "persisted and old",
			policy:    Recency{Days: 2, Now: clock},
			candidate: Candidate{Key: "known", Date: tournament.NewDate(2024, time.January, 1)},
			want:      false,
		},
		{
			name:      "persisted and recent",
			policy:    Recency{Days: 2, Now: clock},
			candidate: Candidate{Key: "known", Date: tournament.NewDate(2024, time.January, 9)},
			want:      true,
		},
		{
			name:      "persisted exactly at threshold",
			policy:    Recency{Days: 2, Now: clock},
			candidate: Candidate{Key: "known", Date: tournament.NewDate(2024, time.January, 8)},
			want:      false,
		},
		{
			name:      "persisted without date",
			policy:    Recency{Days: 2, Now: clock},
			candidate: Candidate{Key: "known"},
			want:      false,
		},
		{
			name:      "forced",
			policy:    Recency{Days: 2, Force: true, Now: clock},
			candidate: Candidate{Key: "known", Date: tournament.NewDate(2020, time.January, 1)},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.ShouldFetch(tt.candidate, idx); got != tt.want {
				t.Errorf("ShouldFetch(%+v) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestDateFromURL(t *testing.T) {
	got, ok := DateFromURL("https://www.mtgo.com/decklist/modern-challenge-32-2024-01-0412345")
	if !ok || got != tournament.NewDate(2024, time.January, 4) {
		t.Errorf("DateFromURL() = %v, %v; want 2024-01-04", got, ok)
	}

	if _, ok := DateFromURL("https://www.mtgo.com/decklist/modern-league"); ok {
		t.Error("DateFromURL() found a date in an undated URL")
	}
}

func TestGaps(t *testing.T) {
	tests := []struct {
		persisted []int
		maxID     int
		want      []int
	}{
		{[]int{1, 2, 4, 6}, 6, []int{3, 5}},
		{[]int{6, 4, 2, 1}, 6, []int{3, 5}},
		{[]int{1, 2, 3}, 3, []int{}},
		{nil, 3, []int{1, 2, 3}},
		{nil, 0, []int{}},
	}

	for _, tt := range tests {
		if got := Gaps(tt.persisted, tt.maxID); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Gaps(%v, %d) = %v, want %v", tt.persisted, tt.maxID, got, tt.want)
		}
	}
}
