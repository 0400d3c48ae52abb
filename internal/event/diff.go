package event

import (
	"sort"
	"time"
)

// DiffResult describes how a freshly fetched collection differs from the
// previous one.
type DiffResult struct {
	Added   []Event
	Removed []Event
	Changed []*EventChange
}

// Empty reports whether nothing changed
func (d *DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares two confirmed collections keyed by EventID
func Diff(previous, current []Event) *DiffResult {
	result := &DiffResult{
		Added:   make([]Event, 0),
		Removed: make([]Event, 0),
		Changed: make([]*EventChange, 0),
	}

	before := make(map[int]Event, len(previous))
	for _, evt := range previous {
		before[evt.EventID] = evt
	}

	seen := make(map[int]bool, len(current))
	for _, evt := range current {
		seen[evt.EventID] = true
		old, exists := before[evt.EventID]
		if !exists {
			result.Added = append(result.Added, evt)
			continue
		}
		result.Changed = append(result.Changed, DetectChanges(&old, &evt)...)
	}

	for _, evt := range previous {
		if !seen[evt.EventID] {
			result.Removed = append(result.Removed, evt)
		}
	}

	sort.Slice(result.Added, func(i, j int) bool {
		return result.Added[i].EventID < result.Added[j].EventID
	})
	sort.Slice(result.Removed, func(i, j int) bool {
		return result.Removed[i].EventID < result.Removed[j].EventID
	})

	return result
}

// EventChange represents one field that differs between two versions of an event
type EventChange struct {
	EventID    int    `json:"event_id"`
	ChangeType string `json:"change_type"` // "title", "description", "location", "start_time", "end_time"
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
}

// DetectChanges compares two versions of the same event
func DetectChanges(previous, current *Event) []*EventChange {
	var changes []*EventChange

	add := func(kind, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, &EventChange{
				EventID:    current.EventID,
				ChangeType: kind,
				OldValue:   oldValue,
				NewValue:   newValue,
			})
		}
	}

	add("title", previous.Title, current.Title)
	add("description", previous.Description, current.Description)
	add("location", previous.Location, current.Location)
	if !previous.StartTime.Equal(current.StartTime) {
		add("start_time", previous.StartTime.Format(time.RFC3339), current.StartTime.Format(time.RFC3339))
	}
	if !previous.EndTime.Equal(current.EndTime) {
		add("end_time", previous.EndTime.Format(time.RFC3339), current.EndTime.Format(time.RFC3339))
	}

	return changes
}
