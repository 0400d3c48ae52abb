package calendar

import (
	"fmt"
	"io"
	"net/url"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/forrev/forrev-cli/internal/event"
)

const productID = "-//forrev//forrev-cli//EN"

// Options controls an export
type Options struct {
	// Domain qualifies event UIDs, usually the service host
	Domain string
	// Now stamps the export; zero means time.Now
	Now time.Time
}

// DomainFor derives the UID domain from a service base URL
func DomainFor(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return "forrev"
	}
	return u.Hostname()
}

// UID returns the stable identifier of an event in exported feeds
func UID(evt event.Event, domain string) string {
	return fmt.Sprintf("event-%d@%s", evt.EventID, domain)
}

// Build creates a calendar holding one VEVENT per event, in order
func Build(events []event.Event, opts Options) *ical.Calendar {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	domain := opts.Domain
	if domain == "" {
		domain = "forrev"
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)

	for _, evt := range events {
		ve := cal.AddEvent(UID(evt, domain))
		ve.SetDtStampTime(now.UTC())
		ve.SetStartAt(evt.StartTime.UTC())
		ve.SetEndAt(evt.EndTime.UTC())
		ve.SetSummary(evt.Title)
		ve.SetLocation(evt.Location)

		description := evt.Description
		if evt.CreatedBy != "" {
			description = fmt.Sprintf("%s\n\nOrganised by %s", description, evt.CreatedBy)
		}
		ve.SetDescription(description)

		if !evt.CreatedAt.IsZero() {
			ve.SetCreatedTime(evt.CreatedAt.UTC())
		}
		if !evt.UpdatedAt.IsZero() {
			ve.SetModifiedAt(evt.UpdatedAt.UTC())
		}
		if evt.URL != "" {
			ve.SetURL(evt.URL)
		}
	}

	return cal
}

// GenerateICS renders events as an .ics document
func GenerateICS(events []event.Event, opts Options) string {
	return Build(events, opts).Serialize()
}

// Write renders events as an .ics document to w
func Write(w io.Writer, events []event.Event, opts Options) error {
	if _, err := io.WriteString(w, GenerateICS(events, opts)); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}
