package tournament

import "strings"

// CircuitPlayer is one row of a qualified-players list.
type CircuitPlayer struct {
	Surname             string `json:"surname"`
	Name                string `json:"name"`
	Alias               string `json:"alias"`
	IsQualified         bool   `json:"is_qualified"`
	IsChallenger        bool   `json:"is_challenger"`
	IsInvited           bool   `json:"is_invited"`
	Region              string `json:"region"`
	Tournament          string `json:"tournament"`
	IsRegionalQualifier bool   `json:"is_regional_qualifier"`
	IsOpenQualifier     bool   `json:"is_open_qualifier"`
	IsOther             bool   `json:"is_other"`
}

// ParseText normalizes a free-text cell: surrounding space is trimmed and
// empty or "nan" placeholders become "".
func ParseText(cell string) string {
	cell = strings.TrimSpace(cell)
	if strings.EqualFold(cell, "nan") {
		return ""
	}
	return cell
}

// ParseFlag reports whether marker appears in the cell.
func ParseFlag(cell, marker string) bool {
	return strings.Contains(cell, marker)
}

// NewCircuitPlayer builds a player from already-parsed cells. When either the
// surname or the first name is missing the remaining one is kept as an alias.
func NewCircuitPlayer(surname, name, qualification, region, tournament, route string) CircuitPlayer {
	surname = ParseText(surname)
	name = ParseText(name)

	var alias string
	if surname == "" || name == "" {
		alias = surname
		if alias == "" {
			alias = name
		}
		surname, name = "", ""
	}

	regional := ParseFlag(route, "CR")
	open := ParseFlag(route, "Open")

	return CircuitPlayer{
		Surname:             surname,
		Name:                name,
		Alias:               alias,
		IsQualified:         true,
		IsChallenger:        ParseFlag(qualification, "Challenger"),
		IsInvited:           ParseFlag(qualification, "Invité"),
		Region:              ParseText(region),
		Tournament:          ParseText(tournament),
		IsRegionalQualifier: regional,
		IsOpenQualifier:     open,
		IsOther:             !(regional || open),
	}
}
