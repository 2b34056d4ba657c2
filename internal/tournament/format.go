package tournament

import "strings"

// Formats is the known vocabulary of game formats, in matching order.
var Formats = []string{
	"Standard",
	"Pioneer",
	"Modern",
	"Legacy",
	"Vintage",
	"Duel Commander",
	"Pauper",
	"Premodern",
}

// DetectFormat returns the first known format contained in text,
// or UnknownFormat.
func DetectFormat(text string) string {
	for _, format := range Formats {
		if strings.Contains(text, format) {
			return format
		}
	}
	return UnknownFormat
}
