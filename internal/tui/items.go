package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/forrev/forrev-cli/internal/event"
)

const listTimeLayout = "Mon Jan 2 15:04"

type eventItem struct {
	evt event.Event
}

func (i eventItem) FilterValue() string { return i.evt.Title + " " + i.evt.Location }
func (i eventItem) Title() string       { return i.evt.Title }
func (i eventItem) Description() string {
	when := "TBD"
	if !i.evt.StartTime.IsZero() {
		when = i.evt.StartTime.Local().Format(listTimeLayout)
	}
	return fmt.Sprintf("%s @ %s · by %s", when, i.evt.Location, i.evt.CreatedBy)
}

func eventItems(events []event.Event) []list.Item {
	items := make([]list.Item, 0, len(events))
	for _, evt := range events {
		items = append(items, eventItem{evt: evt})
	}
	return items
}

func newEventList() list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = "Events"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("event", "events")
	l.DisableQuitKeybindings()
	return l
}
