package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/forrev/forrev-cli/internal/event"
	"github.com/forrev/forrev-cli/internal/overlay"
	"github.com/forrev/forrev-cli/internal/session"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

const timeLayout = "Mon Jan 2 2006 15:04"

// ListResult is an event listing
type ListResult struct {
	Scope      string        `json:"scope"`
	Filter     string        `json:"filter,omitempty"`
	Events     []event.Event `json:"events"`
	EventCount int           `json:"event_count"`
}

// DetailResult is a single event with the actions the current user may take
type DetailResult struct {
	Event     event.Event `json:"event"`
	CanEdit   bool        `json:"can_edit"`
	CanDelete bool        `json:"can_delete"`
}

// SessionResult describes who is logged in
type SessionResult struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	BaseURL       string `json:"base_url"`
}

func newDetailResult(evt event.Event, aff overlay.Affordances) *DetailResult {
	return &DetailResult{Event: evt, CanEdit: aff.Edit, CanDelete: aff.Delete}
}

func newSessionResult(st session.State, baseURL string) *SessionResult {
	return &SessionResult{
		Authenticated: st.Status == session.Authenticated,
		Username:      st.Username,
		BaseURL:       baseURL,
	}
}

// WriteList writes an event listing in the specified format
func WriteList(w io.Writer, result *ListResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeListText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteDetail writes one event in the specified format
func WriteDetail(w io.Writer, result *DetailResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		writeEventText(w, result.Event)
		var actions []string
		if result.CanEdit {
			actions = append(actions, fmt.Sprintf("forrev edit %d", result.Event.EventID))
		}
		if result.CanDelete {
			actions = append(actions, fmt.Sprintf("forrev delete %d", result.Event.EventID))
		}
		if len(actions) > 0 {
			fmt.Fprintf(w, "\n%s %s\n", color.New(color.Faint).Sprint("You own this event:"), strings.Join(actions, ", "))
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteSession writes the session state in the specified format
func WriteSession(w io.Writer, result *SessionResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		if !result.Authenticated {
			fmt.Fprintf(w, "Not logged in to %s\n", result.BaseURL)
			return nil
		}
		fmt.Fprintf(w, "Logged in to %s as %s\n", result.BaseURL, color.New(color.Bold).Sprint(result.Username))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeListText(w io.Writer, result *ListResult) error {
	if result.Filter != "" {
		fmt.Fprintf(w, "Filter: %s\n", result.Filter)
	}

	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	id := color.New(color.FgCyan)
	for _, evt := range result.Events {
		fmt.Fprintf(w, "%s %s\n", id.Sprintf("#%d", evt.EventID), color.New(color.Bold).Sprint(evt.Title))
		fmt.Fprintf(w, "     %s @ %s\n", formatSpan(evt.StartTime, evt.EndTime), evt.Location)
		fmt.Fprintf(w, "     by %s\n", evt.CreatedBy)
	}

	label := "events"
	if result.EventCount == 1 {
		label = "event"
	}
	fmt.Fprintf(w, "\nTotal: %d %s\n", result.EventCount, label)
	return nil
}

func writeEventText(w io.Writer, evt event.Event) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgCyan).Sprintf("#%d", evt.EventID), color.New(color.Bold).Sprint(evt.Title))
	fmt.Fprintf(w, "  When:     %s\n", formatSpan(evt.StartTime, evt.EndTime))
	fmt.Fprintf(w, "  Where:    %s\n", evt.Location)
	fmt.Fprintf(w, "  By:       %s\n", evt.CreatedBy)
	if evt.Description != "" {
		fmt.Fprintf(w, "  About:    %s\n", evt.Description)
	}
	if !evt.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  Created:  %s\n", evt.CreatedAt.Local().Format(timeLayout))
	}
	if !evt.UpdatedAt.IsZero() && !evt.UpdatedAt.Equal(evt.CreatedAt) {
		fmt.Fprintf(w, "  Updated:  %s\n", evt.UpdatedAt.Local().Format(timeLayout))
	}
}

// formatSpan renders a start/end pair, omitting the end date when the event
// finishes on the day it starts
func formatSpan(start, end time.Time) string {
	start, end = start.Local(), end.Local()
	if start.IsZero() {
		return "TBD"
	}
	if end.IsZero() {
		return start.Format(timeLayout)
	}
	if start.Year() == end.Year() && start.YearDay() == end.YearDay() {
		return fmt.Sprintf("%s - %s", start.Format(timeLayout), end.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s", start.Format(timeLayout), end.Format(timeLayout))
}
