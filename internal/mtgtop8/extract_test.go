package mtgtop8

import (
	"os"
	"reflect"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/barrins-project/mtg-scraper/internal/fetch"
	"github.com/barrins-project/mtg-scraper/internal/tournament"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/fixtures/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return string(data)
}

func parse(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := fetch.Parse(page)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func TestTournament(t *testing.T) {
	doc := parse(t, loadFixture(t, "mtgtop8_event.html"))

	got, err := Tournament(doc, "https://mtgtop8.com/event?e=3")
	if err != nil {
		t.Fatalf("Tournament() error = %v", err)
	}

	want := tournament.Tournament{
		Date:    tournament.NewDate(2024, 1, 14),
		Name:    "Legacy Challenge",
		URL:     "https://mtgtop8.com/event?e=3",
		Format:  "Legacy",
		Players: 32,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tournament() = %+v, want %+v", got, want)
	}
}

func TestTournament_EdgeCases(t *testing.T) {
	tests := []struct {
		name       string
		html       string
		wantErr    bool
		wantFormat string
		wantName   string
	}{
		{
			name:    "no metadata",
			html:    `<div class="event_title">Casual night</div>`,
			wantErr: true,
		},
		{
			name:    "invalid date",
			html:    `<div><div class="meta_arch">Modern</div><div>31/02/24</div></div>`,
			wantErr: true,
		},
		{
			name:       "unknown format",
			html:       `<div><div class="meta_arch">Highlander</div><div>02/03/24</div></div>`,
			wantFormat: tournament.UnknownFormat,
			wantName:   tournament.UnknownTournament,
		},
		{
			name:       "title without venue",
			html:       `<div class="event_title">Duel Commander Weekly</div><div><div class="meta_arch">Duel Commander</div><div>02/03/24</div></div>`,
			wantFormat: "Duel Commander",
			wantName:   "Duel Commander Weekly",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tournament(parse(t, tt.html), "https://mtgtop8.com/event?e=9")
			if tt.wantErr {
				if err == nil {
					t.Errorf("Tournament() error = nil, want missing field")
				}
				return
			}
			if err != nil {
				t.Fatalf("Tournament() error = %v", err)
			}
			if got.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", got.Format, tt.wantFormat)
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Players != 0 {
				t.Errorf("Players = %d, want 0", got.Players)
			}
		})
	}
}

func TestDeckRefs(t *testing.T) {
	doc := parse(t, loadFixture(t, "mtgtop8_event.html"))

	want := []DeckRef{
		{ID: 600001, Player: "Alice", Result: tournament.IntPtr(1), AnchorURI: "https://mtgtop8.com/event?e=3&d=600001&f=LE"},
		{ID: 600002, Player: "Bob", Result: tournament.IntPtr(3), AnchorURI: "https://mtgtop8.com/event?e=3&d=600002&f=LE"},
		{ID: 600003, Player: "Carol", Result: tournament.IntPtr(9)},
		{ID: 600004, Player: "Dave", Result: tournament.IntPtr(10)},
	}
	if got := DeckRefs(doc, DefaultBaseURL); !reflect.DeepEqual(got, want) {
		t.Errorf("DeckRefs() = %+v, want %+v", got, want)
	}
}

func TestDeckRefs_MergesByID(t *testing.T) {
	doc := parse(t, `<div class="S14">
		<div label="#9"><input type="radio" value="7">Burn - Alice</div>
		<div label="#12"><input type="radio" value="8">Elves - Bob</div>
		<div label="#10"><input type="radio" value="7">Burn - Alice Cooper</div>
	</div>`)

	want := []DeckRef{
		{ID: 7, Player: "Alice Cooper", Result: tournament.IntPtr(10)},
		{ID: 8, Player: "Bob", Result: tournament.IntPtr(12)},
	}
	if got := DeckRefs(doc, DefaultBaseURL); !reflect.DeepEqual(got, want) {
		t.Errorf("DeckRefs() = %+v, want %+v", got, want)
	}
}

func TestDecklist(t *testing.T) {
	main, side := Decklist("4 Thassa's Oracle\r\n4 Brainstorm\r\n1 A-Lim-Dûl's Vault\r\n\r\nSideboard\r\n2 Force of Negation\r\n")

	wantMain := []tournament.CardEntry{
		{Count: 4, Name: "Thassa's Oracle"},
		{Count: 4, Name: "Brainstorm"},
		{Count: 1, Name: "Lim-Dûl's Vault"},
	}
	if !reflect.DeepEqual(main, wantMain) {
		t.Errorf("mainboard = %+v, want %+v", main, wantMain)
	}
	wantSide := []tournament.CardEntry{{Count: 2, Name: "Force of Negation"}}
	if !reflect.DeepEqual(side, wantSide) {
		t.Errorf("sideboard = %+v, want %+v", side, wantSide)
	}

	main, side = Decklist("60 Relentless Rats")
	if len(main) != 1 || len(side) != 0 || side == nil {
		t.Errorf("Decklist() without sideboard = %+v / %#v", main, side)
	}
}

func TestMissing(t *testing.T) {
	if !Missing("<html><body><div>No event could be found.</div></body></html>") {
		t.Error("Missing() = false for the placeholder page")
	}
	if Missing(loadFixture(t, "mtgtop8_event.html")) {
		t.Error("Missing() = true for an event page")
	}
}

func TestURLs(t *testing.T) {
	if got := EventURL("https://mtgtop8.com", 42); got != "https://mtgtop8.com/event?e=42" {
		t.Errorf("EventURL() = %q", got)
	}
	if got := warmURL(DefaultBaseURL, 7); got != "https://mtgtop8.com/event?e=1&d=7" {
		t.Errorf("warmURL() = %q", got)
	}
	if got := decklistURL(DefaultBaseURL, 7); got != "https://mtgtop8.com/mtgo?d=7" {
		t.Errorf("decklistURL() = %q", got)
	}

	tests := []struct {
		url    string
		want   int
		wantOK bool
	}{
		{"https://mtgtop8.com/event?e=42", 42, true},
		{"https://mtgtop8.com/event?e=42&f=LE", 42, true},
		{"https://mtgtop8.com/event?d=42", 0, false},
	}
	for _, tt := range tests {
		got, ok := IDFromURL(tt.url)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("IDFromURL(%q) = %d, %v, want %d, %v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(3, "Legacy", "Legacy Challenge"); got != "3_legacy_legacy-challenge.json" {
		t.Errorf("Filename() = %q", got)
	}
}
