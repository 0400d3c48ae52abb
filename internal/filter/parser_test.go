package filter

import (
	"testing"
	"time"
)

func TestParseDateRange(t *testing.T) {
	// A fixed reference date in early February
	now := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    string
		wantFrom time.Time
		wantTo   time.Time
		wantErr  bool
	}{
		{"same month short", "Mar 1-15",
			time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 15, 23, 59, 59, 0, time.UTC), false},
		{"same month long", "March 1 - 15",
			time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 15, 23, 59, 59, 0, time.UTC), false},
		{"cross month", "March 1 - April 15",
			time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.April, 15, 23, 59, 59, 0, time.UTC), false},
		{"cross year", "Dec 25 - Jan 5",
			time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC),
			time.Date(2027, time.January, 5, 23, 59, 59, 0, time.UTC), false},
		{"whole month", "march",
			time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC), false},
		{"past month rolls to next year", "Jan",
			time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2027, time.January, 31, 23, 59, 59, 0, time.UTC), false},
		{"current month stays", "Feb 1-3",
			time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.February, 3, 23, 59, 59, 0, time.UTC), false},
		{"sept abbreviation", "Sept",
			time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.September, 30, 23, 59, 59, 0, time.UTC), false},
		{"reversed days", "Mar 15-1", time.Time{}, time.Time{}, true},
		{"day out of range", "Feb 1-30", time.Time{}, time.Time{}, true},
		{"empty", "  ", time.Time{}, time.Time{}, true},
		{"not a month", "Smarch 1-5", time.Time{}, time.Time{}, true},
		{"numeric", "2026-03-01", time.Time{}, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := ParseDateRange(tt.input, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDateRange(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !from.Equal(tt.wantFrom) {
				t.Errorf("ParseDateRange(%q) from = %v, want %v", tt.input, from, tt.wantFrom)
			}
			if !to.Equal(tt.wantTo) {
				t.Errorf("ParseDateRange(%q) to = %v, want %v", tt.input, to, tt.wantTo)
			}
		})
	}
}

func TestParseDateRange_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	now := time.Date(2026, time.February, 10, 12, 0, 0, 0, loc)

	from, _, err := ParseDateRange("Mar 1-2", now)
	if err != nil {
		t.Fatalf("ParseDateRange() error = %v", err)
	}
	if from.Location() != loc {
		t.Errorf("ParseDateRange() location = %v, want %v", from.Location(), loc)
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in   string
		want time.Month
	}{
		{"jan", time.January},
		{"January", time.January},
		{"SEPT", time.September},
		{"may", time.May},
		{"nope", 0},
	}
	for _, tt := range tests {
		if got := parseMonth(tt.in); got != tt.want {
			t.Errorf("parseMonth(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
