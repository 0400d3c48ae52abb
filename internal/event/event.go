package event

import (
	"fmt"
	"strings"
	"time"
)

// Event represents a forrev calendar event as confirmed by the service
type Event struct {
	EventID     int       `json:"event_id"`
	CreatedBy   string    `json:"created_by"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	URL         string    `json:"url,omitempty"` // hyperlinked resource URL, kept verbatim
}

// Draft is the body of a create or update request
type Draft struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// DraftFrom pre-fills a draft with the current values of an event
func DraftFrom(e Event) Draft {
	return Draft{
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
	}
}

// ValidationError is a client-detected problem with a draft. It never reaches
// the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that every field is filled in and that the event ends after
// it starts.
func (d Draft) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"title", d.Title},
		{"description", d.Description},
		{"location", d.Location},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: "all fields are required"}
		}
	}
	if d.StartTime.IsZero() {
		return &ValidationError{Field: "start_time", Message: "all fields are required"}
	}
	if d.EndTime.IsZero() {
		return &ValidationError{Field: "end_time", Message: "all fields are required"}
	}

	if !d.StartTime.Before(d.EndTime) {
		return &ValidationError{Field: "end_time", Message: "end time must be after start time"}
	}

	return nil
}

// OwnedBy reports whether username authored the event
func (e *Event) OwnedBy(username string) bool {
	return username != "" && e.CreatedBy == username
}

// Duration returns how long the event runs
func (e *Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// FilterByOwner returns the events authored by username, preserving order
func FilterByOwner(events []Event, username string) []Event {
	filtered := make([]Event, 0, len(events))
	for _, evt := range events {
		if evt.OwnedBy(username) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}
