package event

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func validDraft() Draft {
	start := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)
	return Draft{
		Title:       "Summer BBQ",
		Description: "Bring a dish",
		Location:    "Central Park",
		StartTime:   start,
		EndTime:     start.Add(3 * time.Hour),
	}
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(d *Draft)
		wantField string
	}{
		{
			name:   "valid draft",
			mutate: func(d *Draft) {},
		},
		{
			name:      "blank title",
			mutate:    func(d *Draft) { d.Title = "   " },
			wantField: "title",
		},
		{
			name:      "missing description",
			mutate:    func(d *Draft) { d.Description = "" },
			wantField: "description",
		},
		{
			name:      "missing location",
			mutate:    func(d *Draft) { d.Location = "" },
			wantField: "location",
		},
		{
			name:      "missing start",
			mutate:    func(d *Draft) { d.StartTime = time.Time{} },
			wantField: "start_time",
		},
		{
			name:      "missing end",
			mutate:    func(d *Draft) { d.EndTime = time.Time{} },
			wantField: "end_time",
		},
		{
			name:      "end equals start",
			mutate:    func(d *Draft) { d.EndTime = d.StartTime },
			wantField: "end_time",
		},
		{
			name:      "end before start",
			mutate:    func(d *Draft) { d.EndTime = d.StartTime.Add(-time.Minute) },
			wantField: "end_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := d.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Validate() field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestDraftFrom(t *testing.T) {
	evt := Event{
		EventID:     7,
		CreatedBy:   "alice",
		Title:       "Standup",
		Description: "Daily sync",
		Location:    "Room 4",
		StartTime:   time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 1, 5, 9, 15, 0, 0, time.UTC),
	}

	d := DraftFrom(evt)
	if d.Title != evt.Title || d.Location != evt.Location || !d.StartTime.Equal(evt.StartTime) {
		t.Errorf("DraftFrom() = %+v, want fields copied from %+v", d, evt)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("DraftFrom() produced invalid draft: %v", err)
	}
}

func TestEventJSON(t *testing.T) {
	payload := `{
		"event_id": 42,
		"created_by": "bob",
		"title": "Picnic",
		"description": "Snacks",
		"location": "Lakeside",
		"start_time": "2026-05-01T12:00:00Z",
		"end_time": "2026-05-01T15:00:00+02:00",
		"created_at": "2026-04-01T08:30:00.123456Z",
		"updated_at": "2026-04-02T08:30:00Z",
		"url": "http://localhost:8000/events/42/"
	}`

	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if evt.EventID != 42 {
		t.Errorf("EventID = %d, want 42", evt.EventID)
	}
	if evt.CreatedBy != "bob" {
		t.Errorf("CreatedBy = %q, want bob", evt.CreatedBy)
	}
	if got := evt.Duration(); got != time.Hour {
		t.Errorf("Duration() = %v, want 1h (zone offsets respected)", got)
	}
}

func TestOwnedBy(t *testing.T) {
	evt := Event{EventID: 1, CreatedBy: "alice"}

	if !evt.OwnedBy("alice") {
		t.Error("OwnedBy(alice) = false, want true")
	}
	if evt.OwnedBy("bob") {
		t.Error("OwnedBy(bob) = true, want false")
	}
	if (&Event{}).OwnedBy("") {
		t.Error("OwnedBy(\"\") on ownerless event = true, want false")
	}
}

func TestFilterByOwner(t *testing.T) {
	events := []Event{
		{EventID: 3, CreatedBy: "alice"},
		{EventID: 2, CreatedBy: "bob"},
		{EventID: 1, CreatedBy: "alice"},
	}

	got := FilterByOwner(events, "alice")
	if len(got) != 2 {
		t.Fatalf("FilterByOwner() returned %d events, want 2", len(got))
	}
	if got[0].EventID != 3 || got[1].EventID != 1 {
		t.Errorf("FilterByOwner() order = [%d %d], want [3 1]", got[0].EventID, got[1].EventID)
	}
}
