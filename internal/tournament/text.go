package tournament

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	resultSeparator = regexp.MustCompile(`\s{2,}|\t|\n`)
	integerPattern  = regexp.MustCompile(`\d+`)
)

// SplitResult separates a player name from a trailing score token such as
// "Alice  2-1-0". Without a recognizable separator the whole text is the name.
func SplitResult(text string) (name, score string) {
	text = strings.TrimSpace(text)
	loc := resultSeparator.FindStringIndex(text)
	if loc == nil {
		return text, ""
	}
	return strings.TrimSpace(text[:loc[0]]), strings.TrimSpace(text[loc[1]:])
}

// FirstInt returns the first integer found in text, or 0.
func FirstInt(text string) int {
	match := integerPattern.FindString(text)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}
