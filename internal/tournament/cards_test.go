package tournament

import (
	"reflect"
	"testing"
)

func TestParseCardLine(t *testing.T) {
	tests := []struct {
		line   string
		want   CardEntry
		wantOK bool
	}{
		{"4x Lightning Bolt", CardEntry{Count: 4, Name: "Lightning Bolt"}, true},
		{"4 Lightning Bolt", CardEntry{Count: 4, Name: "Lightning Bolt"}, true},
		{"12X Mountain", CardEntry{Count: 12, Name: "Mountain"}, true},
		{"  1 Fire // Ice  ", CardEntry{Count: 1, Name: "Fire // Ice"}, true},
		{"1 A-Ragavan, Nimble Pilferer", CardEntry{Count: 1, Name: "Ragavan, Nimble Pilferer"}, true},
		{"2 Minsc &amp; Boo, Timeless Heroes", CardEntry{Count: 2, Name: "Minsc & Boo, Timeless Heroes"}, true},
		{"A-Ragavan, Nimble Pilferer", CardEntry{}, false},
		{"Sideboard", CardEntry{}, false},
		{"0 Island", CardEntry{}, false},
		{"4", CardEntry{}, false},
		{"", CardEntry{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseCardLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseCardLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseCardLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseCardList(t *testing.T) {
	text := "4 Lightning Bolt\n\nnot a card\n20 Mountain\r\n"

	got := ParseCardList(text)
	want := []CardEntry{
		{Count: 4, Name: "Lightning Bolt"},
		{Count: 20, Name: "Mountain"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCardList() = %+v, want %+v", got, want)
	}
}

func TestParseCardList_Empty(t *testing.T) {
	got := ParseCardList("")
	if got == nil || len(got) != 0 {
		t.Errorf("ParseCardList(\"\") = %#v, want empty non-nil slice", got)
	}
}
