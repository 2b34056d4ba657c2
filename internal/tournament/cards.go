package tournament

import (
	"regexp"
	"strconv"
	"strings"
)

var cardLinePattern = regexp.MustCompile(`^(\d+)[xX]?\s+(.+)$`)

// ParseCardLine reads a "<qty>[x] <name>" decklist line.
// Lines without a leading quantity are rejected.
func ParseCardLine(line string) (CardEntry, bool) {
	matches := cardLinePattern.FindStringSubmatch(strings.TrimSpace(line))
	if matches == nil {
		return CardEntry{}, false
	}

	count, err := strconv.Atoi(matches[1])
	if err != nil || count <= 0 {
		return CardEntry{}, false
	}

	name := SanitizeCardName(matches[2])
	if name == "" {
		return CardEntry{}, false
	}

	return CardEntry{Count: count, Name: name}, true
}

// ParseCardList parses every line of a plain-text decklist, dropping lines
// that are not card entries.
func ParseCardList(text string) []CardEntry {
	entries := make([]CardEntry, 0)
	for _, line := range strings.Split(text, "\n") {
		if entry, ok := ParseCardLine(line); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// SanitizeCardName strips the alchemy "A-" prefix and repairs HTML escaping
// left in exported decklists.
func SanitizeCardName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "A-")
	name = strings.ReplaceAll(name, "&amp;", "&")
	return name
}
