package event

import (
	"fmt"
	"strings"
	"time"
)

// inputLayouts are tried in order by ParseTime. Layouts without a zone are
// interpreted in loc.
var inputLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2 2006 15:04",
	"Jan 2 2006",
}

// ParseTime parses a user-entered timestamp. It accepts RFC 3339 (with its
// zone), datetime-local style "2006-01-02T15:04", "2006-01-02 15:04" and
// plain dates; zone-less inputs are placed in loc (time.Local when nil).
func ParseTime(input string, loc *time.Location) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("time cannot be empty")
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t, nil
	}

	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised time %q (use 2006-01-02T15:04 or RFC 3339)", input)
}

// FormatInput renders t in the datetime-local layout accepted by ParseTime
func FormatInput(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02T15:04")
}

// IsPast reports whether the event has already ended
func (e *Event) IsPast(now time.Time) bool {
	if e.EndTime.IsZero() {
		return false // Can't determine, don't filter
	}
	return e.EndTime.Before(now)
}

// IsUpcoming reports whether the event has not started yet
func (e *Event) IsUpcoming(now time.Time) bool {
	if e.StartTime.IsZero() {
		return true // Can't determine, include it
	}
	return e.StartTime.After(now)
}

// IsWithinDays checks if an event starts within N days from now.
// Returns true if days <= 0 (feature disabled).
func (e *Event) IsWithinDays(now time.Time, days int) bool {
	if days <= 0 {
		return true
	}
	if e.StartTime.IsZero() {
		return true
	}
	cutoff := now.AddDate(0, 0, days)
	return e.StartTime.After(now) && e.StartTime.Before(cutoff)
}
