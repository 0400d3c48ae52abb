package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/forrev/forrev-cli/internal/event"
	"github.com/forrev/forrev-cli/internal/overlay"
	"github.com/forrev/forrev-cli/internal/session"
	"github.com/forrev/forrev-cli/internal/store"
)

const detailTimeLayout = "Mon Jan 2 2006 15:04"

func (m model) View() string {
	var body string
	switch {
	case m.login != nil:
		body = m.login.view(m.width, m.busy)
	case m.form != nil:
		body = m.form.view(m.width, m.busy)
	default:
		switch st := m.ctrl.State(); st.Kind {
		case overlay.Detail:
			body = m.detailView(st.Event)
		default:
			body = m.list.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		"",
		body,
		"",
		m.statusView(),
		styleMuted().Render(m.helpText()),
	)
}

func (m model) headerView() string {
	who := "not logged in"
	switch st := m.gate.State(); st.Status {
	case session.Resolving:
		who = "checking session..."
	case session.Authenticated:
		who = "logged in as " + st.Username
	}

	scope := "all events"
	if m.scope.Kind == store.ScopeAuthored {
		scope = "my events"
	}

	return styleHeader().Render("forrev") + "  " +
		styleMuted().Render(fmt.Sprintf("%s · %s · %s", m.baseURL, who, scope))
}

func (m model) detailView(evt event.Event) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(styleLabel().Render(label) + value + "\n")
	}
	row("When", formatSpan(evt.StartTime, evt.EndTime))
	row("Where", evt.Location)
	row("By", evt.CreatedBy)
	if evt.Description != "" {
		b.WriteString("\n" + evt.Description + "\n")
	}

	if m.confirming {
		b.WriteString("\n" + styleError().Render(fmt.Sprintf("Delete %q? y: delete   n: keep", evt.Title)))
	}

	return renderModalBox(m.width, evt.Title, strings.TrimRight(b.String(), "\n"))
}

func (m model) statusView() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return styleError().Render(m.status)
	}
	return styleOK().Render(m.status)
}

func (m model) helpText() string {
	if m.login != nil || m.form != nil {
		return ""
	}

	st := m.ctrl.State()
	if st.Kind == overlay.Detail {
		if m.confirming {
			return ""
		}
		keys := []string{"esc: back"}
		aff := m.ctrl.Affordances()
		if aff.Edit {
			keys = append(keys, "e: edit")
		}
		if aff.Delete {
			keys = append(keys, "d: delete")
		}
		return strings.Join(keys, "   ")
	}

	keys := []string{"enter: open", "/: filter", "n: new", "m: mine/all", "r: refresh"}
	if m.authenticated() {
		keys = append(keys, "l: log out")
	} else {
		keys = append(keys, "l: log in")
	}
	keys = append(keys, "q: quit")
	return strings.Join(keys, "   ")
}

func formatSpan(start, end time.Time) string {
	if start.IsZero() {
		return "TBD"
	}
	start, end = start.Local(), end.Local()
	if end.IsZero() {
		return start.Format(detailTimeLayout)
	}
	if start.Year() == end.Year() && start.YearDay() == end.YearDay() {
		return start.Format(detailTimeLayout) + " - " + end.Format("15:04")
	}
	return start.Format(detailTimeLayout) + " - " + end.Format(detailTimeLayout)
}
