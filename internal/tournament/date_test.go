package tournament

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		layouts  []string
		want     Date
		wantFail bool
	}{
		{
			name: "slash format",
			text: "01/05/2024",
			want: NewDate(2024, time.January, 5),
		},
		{
			name: "slash format without leading zeros",
			text: "1/5/2024",
			want: NewDate(2024, time.January, 5),
		},
		{
			name: "slash format with one padded field",
			text: "12/5/2023",
			want: NewDate(2023, time.December, 5),
		},
		{
			name: "long month format",
			text: "January 05, 2024",
			want: NewDate(2024, time.January, 5),
		},
		{
			name: "long month single digit day",
			text: "March 7, 2025",
			want: NewDate(2025, time.March, 7),
		},
		{
			name: "surrounding whitespace",
			text: "  08/05/1993 ",
			want: EpochDate,
		},
		{
			name:    "custom layout",
			text:    "05/01/24",
			layouts: []string{"02/01/06"},
			want:    NewDate(2024, time.January, 5),
		},
		{
			name:     "empty",
			text:     "",
			wantFail: true,
		},
		{
			name:     "garbage",
			text:     "yesterday",
			wantFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.text, tt.layouts...)
			if tt.wantFail {
				if ok {
					t.Errorf("ParseDate(%q) = %v, want failure", tt.text, got)
				}
				return
			}
			if !ok {
				t.Fatalf("ParseDate(%q) failed", tt.text)
			}
			if !got.Equal(tt.want.Time) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(2024, time.January, 4)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"2024-01-04"` {
		t.Errorf("Marshal() = %s, want \"2024-01-04\"", data)
	}

	var decoded Date
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded != d {
		t.Errorf("Unmarshal() = %v, want %v", decoded, d)
	}

	if err := json.Unmarshal([]byte(`"04/01/2024"`), &decoded); err == nil {
		t.Error("Unmarshal() of a non-ISO date should fail")
	}
}

func TestDate_AddDays(t *testing.T) {
	got := NewDate(2024, time.March, 1).AddDays(-1)
	if got.String() != "2024-02-29" {
		t.Errorf("AddDays(-1) = %s, want 2024-02-29", got)
	}
}

func TestMonthRange(t *testing.T) {
	from := time.Date(2023, time.November, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	got := MonthRange(from, to)
	want := []YearMonth{
		{2023, time.November},
		{2023, time.December},
		{2024, time.January},
		{2024, time.February},
	}

	if len(got) != len(want) {
		t.Fatalf("MonthRange() returned %d months, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MonthRange()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if got := MonthRange(to, from); len(got) != 0 {
		t.Errorf("MonthRange(reversed) = %v, want empty", got)
	}
}
