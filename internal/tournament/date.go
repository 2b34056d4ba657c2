package tournament

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 day layout used in persisted files.
const DateLayout = "2006-01-02"

// DefaultDateLayouts are tried in order by ParseDate.
var DefaultDateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"January 02, 2006",
	"January 2, 2006",
}

// EpochDate is the fallback for optional dates that could not be read
// (the release date of the first card set).
var EpochDate = NewDate(1993, time.August, 5)

// Date is a calendar day. It serializes as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate returns the UTC midnight of the given day
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. A null value leaves the date zero.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// ParseDate parses text with each layout in turn; the first success wins.
// DefaultDateLayouts are used when no layout is given.
func ParseDate(text string, layouts ...string) (Date, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Date{}, false
	}
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, text); err == nil {
			return DateOf(t), true
		}
	}

	return Date{}, false
}

// YearMonth is one month of a crawl range
type YearMonth struct {
	Year  int
	Month time.Month
}

// MonthRange lists every month from from to to, both inclusive.
// It returns nil when to is before from.
func MonthRange(from, to time.Time) []YearMonth {
	var months []YearMonth
	for year := from.Year(); year <= to.Year(); year++ {
		start := time.January
		if year == from.Year() {
			start = from.Month()
		}
		end := time.December
		if year == to.Year() {
			end = to.Month()
		}
		for month := start; month <= end; month++ {
			months = append(months, YearMonth{Year: year, Month: month})
		}
	}
	return months
}
