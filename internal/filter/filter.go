package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/forrev/forrev-cli/internal/event"
)

// Filter holds event filtering criteria. The zero value matches everything.
type Filter struct {
	DateFrom *time.Time
	DateTo   *time.Time

	// Titles and Locations match on case-insensitive substrings
	Titles    []string
	Locations []string

	// Owner keeps only events created by this username
	Owner string

	WeekendsOnly bool
	UpcomingOnly bool

	// Now is the reference time for UpcomingOnly; zero means time.Now
	Now time.Time
}

// NewFilter creates a filter with no active criteria
func NewFilter() *Filter {
	return &Filter{}
}

// IsEmpty reports whether the filter matches every event
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Titles) == 0 &&
		len(f.Locations) == 0 &&
		f.Owner == "" &&
		!f.WeekendsOnly &&
		!f.UpcomingOnly
}

// Matches reports whether evt passes every active criterion. An event
// matches a date range when any part of it falls inside the range.
func (f *Filter) Matches(evt event.Event) bool {
	if f.DateFrom != nil && evt.EndTime.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && evt.StartTime.After(*f.DateTo) {
		return false
	}

	if f.WeekendsOnly {
		weekday := evt.StartTime.Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			return false
		}
	}

	if f.UpcomingOnly {
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		if evt.IsPast(now) {
			return false
		}
	}

	if f.Owner != "" && evt.CreatedBy != f.Owner {
		return false
	}

	if !containsAny(evt.Title, f.Titles) {
		return false
	}
	if !containsAny(evt.Location, f.Locations) {
		return false
	}

	return true
}

// Apply returns the matching events in their original order. The input is
// never modified.
func (f *Filter) Apply(events []event.Event) []event.Event {
	filtered := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if f.IsEmpty() || f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}

// String describes the active criteria, e.g.
// "From: Mar 1, 2026 | To: Mar 15, 2026 | Title: meetup | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Titles) > 0 {
		parts = append(parts, fmt.Sprintf("Title: %s", strings.Join(f.Titles, ", ")))
	}
	if len(f.Locations) > 0 {
		parts = append(parts, fmt.Sprintf("Location: %s", strings.Join(f.Locations, ", ")))
	}
	if f.Owner != "" {
		parts = append(parts, fmt.Sprintf("Owner: %s", f.Owner))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}
	if f.UpcomingOnly {
		parts = append(parts, "Upcoming only")
	}

	return strings.Join(parts, " | ")
}

func containsAny(value string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	lower := strings.ToLower(value)
	for _, needle := range needles {
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(needle))) {
			return true
		}
	}
	return false
}
