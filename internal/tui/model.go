package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/forrev/forrev-cli/internal/event"
	"github.com/forrev/forrev-cli/internal/logger"
	"github.com/forrev/forrev-cli/internal/notifier"
	"github.com/forrev/forrev-cli/internal/overlay"
	"github.com/forrev/forrev-cli/internal/remote"
	"github.com/forrev/forrev-cli/internal/session"
	"github.com/forrev/forrev-cli/internal/store"
)

type resolvedMsg struct{ state session.State }

type loadedMsg struct {
	scope store.Scope
	err   error
}

type fetchedMsg struct {
	id  int
	evt event.Event
	err error
}

type submittedMsg struct {
	kind overlay.Kind
	evt  event.Event
	err  error
}

type loginMsg struct {
	state session.State
	err   error
}

type logoutMsg struct{}

type noticeMsg struct{ notice notifier.Notice }

type eventsChangedMsg struct{}

type sessionChangedMsg struct{ state session.State }

type model struct {
	ctx     context.Context
	gate    *session.Gate
	store   *store.Store
	ctrl    *overlay.Controller
	bridge  *bridge
	baseURL string

	width  int
	height int

	list  list.Model
	scope store.Scope

	// form is the open create or edit form; login is the login form
	form  *form
	login *form

	confirming bool
	busy       bool
	loading    bool

	status    string
	statusErr bool
}

func newModel(ctx context.Context, opts Options) model {
	b := &bridge{}
	n := notifier.Func(func(n notifier.Notice) error {
		b.deliver(noticeMsg{notice: n})
		return nil
	})

	st := store.New(opts.Remote, n)
	st.Subscribe(func([]event.Event) {
		b.deliver(eventsChangedMsg{})
	})
	opts.Gate.Subscribe(func(s session.State) {
		b.deliver(sessionChangedMsg{state: s})
	})

	return model{
		ctx:     ctx,
		gate:    opts.Gate,
		store:   st,
		ctrl:    overlay.New(st, opts.Gate),
		bridge:  b,
		baseURL: opts.BaseURL,
		width:   80,
		height:  24,
		list:    newEventList(),
		scope:   store.All(),
	}
}

func (m model) Init() tea.Cmd {
	return m.resolveCmd()
}

func (m model) resolveCmd() tea.Cmd {
	ctx, gate := m.ctx, m.gate
	return func() tea.Msg {
		return resolvedMsg{state: gate.Resolve(ctx)}
	}
}

func (m *model) loadCmd() tea.Cmd {
	m.loading = true
	m.setStatus("Loading events...", false)

	ctx, st, scope := m.ctx, m.store, m.scope
	return func() tea.Msg {
		return loadedMsg{scope: scope, err: st.Load(ctx, scope)}
	}
}

func (m model) fetchCmd(id int) tea.Cmd {
	ctx, st := m.ctx, m.store
	return func() tea.Msg {
		evt, err := st.Get(ctx, id)
		return fetchedMsg{id: id, evt: evt, err: err}
	}
}

func (m model) submitCmd(kind overlay.Kind, draft event.Draft) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		var (
			evt event.Event
			err error
		)
		if kind == overlay.Create {
			evt, err = ctrl.SubmitCreate(ctx, draft)
		} else {
			evt, err = ctrl.SubmitEdit(ctx, draft)
		}
		return submittedMsg{kind: kind, evt: evt, err: err}
	}
}

func (m model) loginCmd(username, password string) tea.Cmd {
	ctx, gate := m.ctx, m.gate
	return func() tea.Msg {
		st, err := gate.Login(ctx, username, password)
		return loginMsg{state: st, err: err}
	}
}

func (m model) logoutCmd() tea.Cmd {
	ctx, gate := m.ctx, m.gate
	return func() tea.Msg {
		gate.Logout(ctx)
		return logoutMsg{}
	}
}

func (m *model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// reloadCmd drops the events of the previous view before loading m.scope
func (m *model) reloadCmd() tea.Cmd {
	m.store.Reset()
	refresh := m.refreshList()
	load := m.loadCmd()
	return tea.Batch(refresh, load)
}

func (m *model) refreshList() tea.Cmd {
	return m.list.SetItems(eventItems(m.store.Events()))
}

func (m model) authenticated() bool {
	return m.gate.State().Status == session.Authenticated
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-5, 3))
		return m, nil

	case resolvedMsg:
		if m.scope.Kind == store.ScopeAuthored && msg.state.Status != session.Authenticated {
			m.scope = store.All()
		}
		cmd := m.loadCmd()
		return m, cmd

	case loadedMsg:
		if errors.Is(msg.err, store.ErrStale) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.setStatus(remote.Message(msg.err)+" Press r to retry.", true)
			return m, nil
		}
		m.setStatus(loadStatus(m.store.Len(), m.store.LastDiff()), false)
		cmd := m.refreshList()
		return m, cmd

	case fetchedMsg:
		if msg.err != nil {
			m.setStatus(remote.Message(msg.err), true)
			return m, nil
		}
		st := m.ctrl.State()
		if st.Kind == overlay.Detail && st.Event.EventID == msg.id && !m.confirming {
			m.ctrl.OpenDetail(msg.evt)
		}
		return m, nil

	case submittedMsg:
		m.busy = false
		if msg.err != nil {
			if m.form != nil && m.ctrl.State().Kind == msg.kind {
				m.form.err = remote.Message(msg.err)
			}
			return m, nil
		}
		m.form = nil
		if msg.kind == overlay.Create {
			m.setStatus(fmt.Sprintf("Created %q.", msg.evt.Title), false)
		} else {
			m.setStatus(fmt.Sprintf("Saved %q.", msg.evt.Title), false)
		}
		cmd := m.refreshList()
		return m, cmd

	case loginMsg:
		m.busy = false
		if msg.err != nil {
			if m.login != nil {
				m.login.err = remote.Message(msg.err)
			}
			return m, nil
		}
		m.login = nil
		cmd := m.loadCmd()
		m.setStatus("Logged in as "+msg.state.Username+".", false)
		return m, cmd

	case logoutMsg:
		m.busy = false
		m.ctrl.Close()
		m.form = nil
		m.confirming = false
		m.scope = store.All()
		cmd := m.reloadCmd()
		m.setStatus("Logged out.", false)
		return m, cmd

	case sessionChangedMsg:
		if msg.state.Status != session.Anonymous {
			return m, nil
		}
		// forms and the authored scope need a session
		if kind := m.ctrl.State().Kind; kind == overlay.Create || kind == overlay.Edit {
			m.ctrl.Close()
			m.form = nil
			m.busy = false
		}
		if m.scope.Kind != store.ScopeAuthored {
			return m, nil
		}
		m.scope = store.All()
		cmd := m.reloadCmd()
		return m, cmd

	case noticeMsg:
		logger.Debug("Showing notice", logger.Fields{"notice": msg.notice.String()})
		m.setStatus(noticeStatus(msg.notice), true)
		cmd := m.refreshList()
		return m, cmd

	case eventsChangedMsg:
		cmd := m.refreshList()
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login != nil {
		return m.handleLoginKey(msg)
	}

	switch m.ctrl.State().Kind {
	case overlay.Detail:
		if m.confirming {
			return m.handleConfirmKey(msg)
		}
		return m.handleDetailKey(msg)
	case overlay.Create, overlay.Edit:
		return m.handleFormKey(msg)
	}
	return m.handleListKey(msg)
}

func (m model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "enter":
		item, ok := m.list.SelectedItem().(eventItem)
		if !ok {
			return m, nil
		}
		m.ctrl.OpenDetail(item.evt)
		return m, m.fetchCmd(item.evt.EventID)

	case "n":
		if !m.authenticated() {
			return m.openLogin("Log in to create events.")
		}
		m.ctrl.OpenCreate()
		m.form = newEventForm("New event", event.Draft{})
		return m, nil

	case "m":
		if !m.authenticated() {
			return m.openLogin("Log in to see your events.")
		}
		if m.scope.Kind == store.ScopeAuthored {
			m.scope = store.All()
		} else {
			m.scope = store.AuthoredBy(m.gate.Username())
		}
		cmd := m.reloadCmd()
		return m, cmd

	case "r":
		cmd := m.loadCmd()
		return m, cmd

	case "l":
		if m.authenticated() {
			m.busy = true
			return m, m.logoutCmd()
		}
		return m.openLogin("")
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace":
		m.ctrl.Close()

	case "e":
		if !m.ctrl.Affordances().Edit {
			return m, nil
		}
		if err := m.ctrl.OpenEdit(); err != nil {
			m.setStatus(remote.Message(err), true)
			return m, nil
		}
		m.form = newEventForm("Edit event", event.DraftFrom(m.ctrl.State().Event))

	case "d":
		if m.ctrl.Affordances().Delete {
			m.confirming = true
		}
	}
	return m, nil
}

func (m model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.confirming = false
		title := m.ctrl.State().Event.Title
		issued, err := m.ctrl.Delete(m.ctx, nil)
		if err != nil {
			m.setStatus(remote.Message(err), true)
			return m, nil
		}
		if issued {
			m.setStatus(fmt.Sprintf("Deleting %q...", title), false)
		}
	case "n", "esc", "q":
		m.confirming = false
	}
	return m, nil
}

func (m model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.ctrl.Close()
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.ctrl.Close()
		m.form = nil
		return m, nil
	case "tab", "down":
		m.form.next()
		return m, nil
	case "shift+tab", "up":
		m.form.prev()
		return m, nil
	case "enter":
		if !m.form.onLast() {
			m.form.next()
			return m, nil
		}
		return m.submitForm()
	case "ctrl+s":
		return m.submitForm()
	}

	return m, m.form.update(msg)
}

func (m model) submitForm() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	draft, err := m.form.draft()
	if err != nil {
		m.form.err = remote.Message(err)
		return m, nil
	}
	m.form.err = ""
	m.busy = true
	return m, m.submitCmd(m.ctrl.State().Kind, draft)
}

func (m model) openLogin(reason string) (tea.Model, tea.Cmd) {
	m.login = newLoginForm()
	m.login.err = reason
	return m, nil
}

func (m model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.login = nil
		return m, nil
	case "tab", "down":
		m.login.next()
		return m, nil
	case "shift+tab", "up":
		m.login.prev()
		return m, nil
	case "enter", "ctrl+s":
		if !m.login.onLast() && msg.String() == "enter" {
			m.login.next()
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.login.err = ""
		return m, m.loginCmd(m.login.value(fieldUsername), m.login.value(fieldPassword))
	}
	return m, m.login.update(msg)
}

func loadStatus(count int, diff *event.DiffResult) string {
	s := fmt.Sprintf("%d events.", count)
	if count == 1 {
		s = "1 event."
	}
	if diff != nil && len(diff.Added) > 0 {
		s += fmt.Sprintf(" %d new since last refresh.", len(diff.Added))
	}
	return s
}

func noticeStatus(n notifier.Notice) string {
	if n.Op == "delete" {
		return fmt.Sprintf("Could not delete event %d: %s", n.EventID, remote.Message(n.Err))
	}
	return remote.Message(n.Err)
}
