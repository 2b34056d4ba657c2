package mtgtop8

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/barrins-project/mtg-scraper/internal/fetch"
	"github.com/barrins-project/mtg-scraper/internal/logger"
	"github.com/barrins-project/mtg-scraper/internal/tournament"
)

// NoEventMarker is shown instead of an event for unused IDs.
const NoEventMarker = "No event could be found."

const sideboardMarker = "Sideboard"

var (
	metaDatePattern = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{2})`)
	playersPattern  = regexp.MustCompile(`(?i)(\d+)\s+players`)
	deckIDPattern   = regexp.MustCompile(`d=(\d+)`)
	rankPattern     = regexp.MustCompile(`^(\d+)(?:-\d+)?$`)
)

// Missing reports whether page is the placeholder of an unused event ID.
func Missing(page string) bool {
	return strings.Contains(page, NoEventMarker)
}

// DeckRef is a deck listed on an event page. Its cards live on another page.
type DeckRef struct {
	ID        int
	Player    string
	Result    *int
	AnchorURI string
}

// Tournament reads the event metadata. The event date is mandatory; an
// unrecognized format falls back to the sentinel.
func Tournament(doc *goquery.Document, url string) (tournament.Tournament, error) {
	meta := doc.Find("div.meta_arch").First()
	blocks := meta.Parent().Find("div")

	date, ok := metaDate(blocks)
	if !ok {
		return tournament.Tournament{}, fmt.Errorf("event date of %s: %w", url, tournament.ErrMissingField)
	}

	return tournament.Tournament{
		Date:    date,
		Name:    eventName(doc),
		URL:     url,
		Format:  tournament.DetectFormat(fetch.JoinedText(meta, " ")),
		Players: playerCount(blocks),
	}, nil
}

// metaDate finds the first dd/mm/yy date in the metadata block.
func metaDate(blocks *goquery.Selection) (tournament.Date, bool) {
	var date tournament.Date
	found := false
	blocks.EachWithBreak(func(_ int, div *goquery.Selection) bool {
		m := metaDatePattern.FindStringSubmatch(fetch.JoinedText(div, " "))
		if m == nil {
			return true
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		d := tournament.NewDate(2000+year, time.Month(month), day)
		if d.Day() != day || int(d.Month()) != month {
			return true
		}
		date, found = d, true
		return false
	})
	return date, found
}

func playerCount(blocks *goquery.Selection) int {
	count := 0
	blocks.EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if m := playersPattern.FindStringSubmatch(fetch.JoinedText(div, " ")); m != nil {
			count, _ = strconv.Atoi(m[1])
			return false
		}
		return true
	})
	return count
}

// eventName strips the "@ venue" suffix of the event title.
func eventName(doc *goquery.Document) string {
	title := fetch.JoinedText(doc.Find("div.event_title").First(), " ")
	name, _, _ := strings.Cut(title, "@")
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return tournament.UnknownTournament
}

// DeckRefs lists the top-N decks then the out-of-top decks of the page. An
// ID seen twice keeps its first position and its last description.
func DeckRefs(doc *goquery.Document, baseURL string) []DeckRef {
	var order []int
	byID := make(map[int]DeckRef)
	add := func(ref DeckRef) {
		if _, seen := byID[ref.ID]; !seen {
			order = append(order, ref.ID)
		}
		byID[ref.ID] = ref
	}

	doc.Find("div.S14 a[href^='?e=']").Each(func(_ int, a *goquery.Selection) {
		ref, err := topDeck(a, baseURL)
		if err != nil {
			logger.Warn("top deck skipped", logger.Fields{"stage": "decks", "error": err.Error()})
			return
		}
		add(ref)
	})
	doc.Find("div.S14 input[type='radio']").Each(func(_ int, input *goquery.Selection) {
		ref, err := otherDeck(input)
		if err != nil {
			logger.Warn("deck skipped", logger.Fields{"stage": "decks", "error": err.Error()})
			return
		}
		add(ref)
	})

	refs := make([]DeckRef, 0, len(order))
	for _, id := range order {
		refs = append(refs, byID[id])
	}
	return refs
}

func topDeck(a *goquery.Selection, baseURL string) (DeckRef, error) {
	href, _ := a.Attr("href")
	m := deckIDPattern.FindStringSubmatch(href)
	if m == nil {
		return DeckRef{}, fmt.Errorf("no deck id in %q", href)
	}
	id, _ := strconv.Atoi(m[1])

	ref := DeckRef{
		ID:        id,
		Player:    tournament.UnknownPlayer,
		AnchorURI: strings.TrimSuffix(baseURL, "/") + "/event" + href,
	}

	row := a.Parent().Parent().Parent()
	if player := fetch.Text(row.Find("a.player").First()); player != "" {
		ref.Player = player
	}
	row.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if m := rankPattern.FindStringSubmatch(fetch.Text(div)); m != nil {
			rank, _ := strconv.Atoi(m[1])
			ref.Result = tournament.IntPtr(rank)
			return false
		}
		return true
	})
	return ref, nil
}

// otherDeck reads a radio entry such as `<div label="#12"><input value="42">Deck - Player</div>`.
func otherDeck(input *goquery.Selection) (DeckRef, error) {
	value, _ := input.Attr("value")
	id, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return DeckRef{}, fmt.Errorf("deck id %q: %w", value, err)
	}

	ref := DeckRef{ID: id, Player: tournament.UnknownPlayer}

	label := trailingText(input)
	if label == "" {
		label = fetch.JoinedText(input.Parent(), " ")
	}
	if _, player, ok := strings.Cut(label, " - "); ok {
		label = player
	}
	if label = strings.TrimSpace(label); label != "" {
		ref.Player = label
	}

	rank, _ := input.Parent().Attr("label")
	if _, after, ok := strings.Cut(rank, "#"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(after)); err == nil {
			ref.Result = tournament.IntPtr(n)
		}
	}
	return ref, nil
}

// trailingText collects the text nodes following a void element.
func trailingText(sel *goquery.Selection) string {
	if len(sel.Nodes) == 0 {
		return ""
	}
	var b strings.Builder
	for n := sel.Nodes[0].NextSibling; n != nil && n.Type == html.TextNode; n = n.NextSibling {
		b.WriteString(n.Data)
	}
	return strings.TrimSpace(b.String())
}

// Decklist splits a plain-text MTGO export on its "Sideboard" header.
func Decklist(text string) (mainboard, sideboard []tournament.CardEntry) {
	main, side, _ := strings.Cut(text, sideboardMarker)
	return tournament.ParseCardList(main), tournament.ParseCardList(side)
}
