package mtgo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/barrins-project/mtg-scraper/internal/fetch"
	"github.com/barrins-project/mtg-scraper/internal/logger"
	"github.com/barrins-project/mtg-scraper/internal/tournament"
)

const (
	postedOnPrefix    = "Posted on "
	standingsSelector = "#decklistStandings table.hidden-xs tbody"
	standingColumns   = 6
)

// Extract reads a whole tournament page. It fails only when the tournament
// metadata is unusable; malformed decks, matches and standings are skipped.
func Extract(doc *goquery.Document, url string) (*tournament.Scrape, error) {
	t, err := Tournament(doc, url)
	if err != nil {
		return nil, err
	}
	return tournament.NewScrape(t, Decks(doc, url), Rounds(doc), Standings(doc, t.Players)), nil
}

// Tournament reads the event metadata. The page shows the posting date, one
// day after the event was played.
func Tournament(doc *goquery.Document, url string) (tournament.Tournament, error) {
	posted := fetch.Text(doc.Find("p.decklist-posted-on").First())
	posted = strings.TrimSpace(strings.Replace(posted, postedOnPrefix, "", 1))
	if posted == "" {
		return tournament.Tournament{}, fmt.Errorf("posted-on date of %s: %w", url, tournament.ErrMissingField)
	}

	date, ok := tournament.ParseDate(posted)
	if !ok {
		return tournament.Tournament{}, fmt.Errorf("unparsable posted-on date %q of %s: %w", posted, url, tournament.ErrMissingField)
	}

	name := fetch.Text(doc.Find("h1.decklist-title").First())
	if name == "" {
		name = tournament.UnknownTournament
	}

	return tournament.Tournament{
		Date:    date.AddDays(-1),
		Name:    name,
		URL:     url,
		Format:  tournament.DetectFormat(name),
		Players: tournament.FirstInt(fetch.Text(doc.Find("h2.decklist-player-count").First())),
	}, nil
}

// Decks reads every decklist section of the page.
func Decks(doc *goquery.Document, url string) []tournament.Deck {
	decks := make([]tournament.Deck, 0)
	doc.Find("section.decklist").Each(func(i int, section *goquery.Selection) {
		deck, err := parseDeck(section, url)
		if err != nil {
			logger.Warn("deck skipped", logger.Fields{
				"url":   url,
				"stage": "decks",
				"index": i,
				"error": err.Error(),
			})
			return
		}
		decks = append(decks, deck)
	})
	return decks
}

func parseDeck(section *goquery.Selection, url string) (tournament.Deck, error) {
	id, ok := section.Attr("id")
	if !ok || id == "" {
		return tournament.Deck{}, fmt.Errorf("deck anchor: %w", tournament.ErrMissingField)
	}

	info := fetch.JoinedText(section.Find("p.decklist-player").First(), " ")
	cut := strings.LastIndex(info, " (")
	if cut < 0 {
		return tournament.Deck{}, fmt.Errorf("no placement in player line %q", info)
	}
	player := strings.TrimSpace(info[:cut])

	date, ok := tournament.ParseDate(fetch.Text(section.Find("p.decklist-date").First()))
	if !ok {
		date = tournament.EpochDate
	}

	deck := tournament.Deck{
		Date:      date,
		Player:    player,
		Result:    placement(info[cut+2:]),
		AnchorURI: url + "#" + id,
		Mainboard: cards(section.Find(".decklist-sort-type .decklist-category")),
		Sideboard: cards(section.Find(".decklist-sideboard").First()),
	}
	if !deck.Valid() {
		return tournament.Deck{}, fmt.Errorf("empty mainboard for %s", deck.AnchorURI)
	}
	return deck, nil
}

// placement reads "5th Place)" as 5. Swiss records such as "5-0)" carry no rank.
func placement(text string) *int {
	before, _, _ := strings.Cut(text, "Place")
	before = strings.TrimSpace(before)
	if len(before) < 3 {
		return nil
	}
	n, err := strconv.Atoi(before[:len(before)-2])
	if err != nil {
		return nil
	}
	return tournament.IntPtr(n)
}

func cards(categories *goquery.Selection) []tournament.CardEntry {
	entries := make([]tournament.CardEntry, 0)
	categories.Find(".decklist-category-card").Each(func(_ int, card *goquery.Selection) {
		if entry, ok := tournament.ParseCardLine(fetch.JoinedText(card, " ")); ok {
			entries = append(entries, entry)
		}
	})
	return entries
}

// Rounds reads the top-8 bracket.
func Rounds(doc *goquery.Document) []tournament.Round {
	rounds := make([]tournament.Round, 0)
	doc.Find(".decklist-bracket-round").Each(func(_ int, block *goquery.Selection) {
		name := fetch.Text(block.Find(".decklist-bracket-round-title").First())
		if name == "" {
			name = tournament.UnknownRound
		}

		matches := make([]tournament.Match, 0)
		block.Find(".decklist-bracket-match-wrapper").Each(func(_ int, wrapper *goquery.Selection) {
			matches = append(matches, parseMatch(wrapper))
		})
		rounds = append(rounds, tournament.Round{RoundName: name, Matches: matches})
	})
	return rounds
}

// parseMatch reads a winner/loser pair. The winner's line carries the score.
func parseMatch(wrapper *goquery.Selection) tournament.Match {
	players := wrapper.Find(".decklist-bracket-player")
	if players.Length() != 2 {
		return tournament.Match{
			Player1: tournament.UnknownPlayer,
			Player2: tournament.UnknownPlayer,
			Result:  tournament.UnknownResult,
		}
	}

	winner, score := tournament.SplitResult(players.Eq(0).Text())
	return tournament.Match{
		Player1: winner,
		Player2: fetch.Text(players.Eq(1)),
		Result:  score,
	}
}

// Standings reads the Swiss standings table. Rows that do not have exactly
// six columns, or whose numbers do not parse, are skipped.
func Standings(doc *goquery.Document, players int) []tournament.Standing {
	standings := make([]tournament.Standing, 0)
	doc.Find(standingsSelector).First().Find("tr").Each(func(i int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() == 0 {
			return
		}

		standing, err := parseStanding(cols, players)
		if err != nil {
			logger.Warn("standing row skipped", logger.Fields{
				"stage": "standings",
				"row":   i,
				"error": err.Error(),
			})
			return
		}
		standings = append(standings, standing)
	})
	return standings
}

func parseStanding(cols *goquery.Selection, players int) (tournament.Standing, error) {
	if cols.Length() != standingColumns {
		return tournament.Standing{}, fmt.Errorf("got %d columns, want %d", cols.Length(), standingColumns)
	}
	col := func(i int) string { return fetch.Text(cols.Eq(i)) }

	rank, err := strconv.Atoi(col(0))
	if err != nil {
		return tournament.Standing{}, fmt.Errorf("rank: %w", err)
	}
	points, err := strconv.Atoi(col(2))
	if err != nil {
		return tournament.Standing{}, fmt.Errorf("points: %w", err)
	}

	var ratios [3]float64
	for i := range ratios {
		ratios[i], err = percent(col(3 + i))
		if err != nil {
			return tournament.Standing{}, err
		}
	}

	return tournament.NewStanding(rank, col(1), points, players, ratios[0], ratios[1], ratios[2]), nil
}

func percent(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimRight(strings.TrimSpace(text), "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("percentage %q: %w", text, err)
	}
	return v / 100, nil
}
