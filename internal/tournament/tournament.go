package tournament

import (
	"errors"
	"fmt"
)

// Sentinel values written when a source does not expose a field. Downstream
// consumers must tolerate them.
const (
	UnknownFormat     = "Unknown Format"
	UnknownPlayer     = "Unknown Player"
	UnknownRound      = "Unknown Round"
	UnknownTournament = "Unknown Tournament"
	UnknownResult     = "0-0-0"
)

// ErrMissingField is returned when a mandatory tournament attribute is absent.
var ErrMissingField = errors.New("missing required field")

// Tournament is one competitive event at a source site. Its URL is its identity.
type Tournament struct {
	Date    Date   `json:"date"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Format  string `json:"format"`
	Players int    `json:"players"`
}

// CardEntry is one line of a decklist
type CardEntry struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}

// Deck is one player's card list submitted to a tournament
type Deck struct {
	Date      Date        `json:"date"`
	Player    string      `json:"player"`
	Result    *int        `json:"result"`
	AnchorURI string      `json:"anchor_uri"`
	Mainboard []CardEntry `json:"mainboard"`
	Sideboard []CardEntry `json:"sideboard"`
}

// Valid reports whether the deck carries at least one mainboard card.
func (d *Deck) Valid() bool {
	return len(d.Mainboard) > 0
}

// Match is one bracket pairing. Player1 is the winner when the source says so.
type Match struct {
	Player1 string `json:"player_1"`
	Player2 string `json:"player_2"`
	Result  string `json:"result"`
}

// Round groups the matches of one bracket round
type Round struct {
	RoundName string  `json:"round_name"`
	Matches   []Match `json:"matches"`
}

// Standing is one player's final ranking row.
// Wins, Losses and Draws are derived from Points, see NewStanding.
type Standing struct {
	Rank   int     `json:"rank"`
	Player string  `json:"player"`
	Points int     `json:"points"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	Draws  int     `json:"draws"`
	OMWP   float64 `json:"omwp"`
	GWP    float64 `json:"gwp"`
	OGWP   float64 `json:"ogwp"`
}

// Scrape is the unit of persistence: one file per tournament.
type Scrape struct {
	Tournament Tournament `json:"tournament"`
	Decks      []Deck     `json:"decks"`
	Rounds     []Round    `json:"rounds"`
	Standings  []Standing `json:"standings"`
}

// NewScrape assembles a Scrape from extractor outputs. Nil slices become empty
// so the persisted document always carries the four keys, and the tournament
// date is propagated onto decks that lack one.
func NewScrape(t Tournament, decks []Deck, rounds []Round, standings []Standing) *Scrape {
	s := &Scrape{
		Tournament: t,
		Decks:      decks,
		Rounds:     rounds,
		Standings:  standings,
	}
	if s.Decks == nil {
		s.Decks = []Deck{}
	}
	if s.Rounds == nil {
		s.Rounds = []Round{}
	}
	if s.Standings == nil {
		s.Standings = []Standing{}
	}
	s.PropagateDate()
	return s
}

// PropagateDate copies the tournament date onto every deck whose date is
// unknown (zero or the epoch sentinel).
func (s *Scrape) PropagateDate() {
	for i := range s.Decks {
		if s.Decks[i].Date.IsZero() || s.Decks[i].Date.Equal(EpochDate.Time) {
			s.Decks[i].Date = s.Tournament.Date
		}
	}
}

// Validate checks the invariants a Scrape must hold before it is persisted.
func (s *Scrape) Validate() error {
	if s.Tournament.Date.IsZero() {
		return fmt.Errorf("tournament date: %w", ErrMissingField)
	}
	if s.Tournament.URL == "" {
		return fmt.Errorf("tournament url: %w", ErrMissingField)
	}
	for i := range s.Decks {
		if !s.Decks[i].Valid() {
			return fmt.Errorf("deck %d of %s has an empty mainboard", i, s.Tournament.URL)
		}
	}
	return nil
}

// IntPtr returns a pointer to v, for optional deck placements.
func IntPtr(v int) *int {
	return &v
}
