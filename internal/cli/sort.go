package cli

import (
	"sort"
	"strings"

	"github.com/forrev/forrev-cli/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	// SortNone keeps the service order, newest first
	SortNone       SortOrder = ""
	SortByCreated  SortOrder = "created"
	SortByStart    SortOrder = "start"
	SortByTitle    SortOrder = "title"
	SortByLocation SortOrder = "location"
)

// sortEvents sorts events in place. Ties keep their existing order.
func sortEvents(events []event.Event, order SortOrder) {
	switch order {
	case SortByCreated:
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		})
	case SortByStart:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByStart(events[i], events[j])
		})
	case SortByTitle:
		sort.SliceStable(events, func(i, j int) bool {
			a, b := strings.ToLower(events[i].Title), strings.ToLower(events[j].Title)
			if a != b {
				return a < b
			}
			return compareByStart(events[i], events[j])
		})
	case SortByLocation:
		sort.SliceStable(events, func(i, j int) bool {
			a, b := strings.ToLower(events[i].Location), strings.ToLower(events[j].Location)
			if a != b {
				return a < b
			}
			return compareByStart(events[i], events[j])
		})
	}
}

// compareByStart orders by start time, placing events without one last
func compareByStart(a, b event.Event) bool {
	if a.StartTime.IsZero() {
		return false
	}
	if b.StartTime.IsZero() {
		return true
	}
	return a.StartTime.Before(b.StartTime)
}
