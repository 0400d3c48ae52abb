package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/forrev/forrev-cli/internal/event"
)

// Event form fields, in focus order
const (
	fieldTitle = iota
	fieldDescription
	fieldLocation
	fieldStart
	fieldEnd
)

// Login form fields
const (
	fieldUsername = iota
	fieldPassword
)

type fieldDef struct {
	label       string
	placeholder string
	limit       int
	secret      bool
}

type formField struct {
	label string
	input textinput.Model
}

// form is a column of labelled text inputs with one focused at a time
type form struct {
	title  string
	fields []formField
	focus  int
	err    string
}

func newForm(title string, defs ...fieldDef) *form {
	f := &form{title: title}
	for _, s := range defs {
		in := textinput.New()
		in.Placeholder = s.placeholder
		in.CharLimit = s.limit
		in.Width = 40
		in.Cursor.SetMode(cursor.CursorStatic)
		if s.secret {
			in.EchoMode = textinput.EchoPassword
		}
		f.fields = append(f.fields, formField{label: s.label, input: in})
	}
	f.setFocus(0)
	return f
}

func newEventForm(title string, d event.Draft) *form {
	f := newForm(title,
		fieldDef{label: "Title", placeholder: "Board games", limit: 20},
		fieldDef{label: "Description", placeholder: "What is happening", limit: 100},
		fieldDef{label: "Location", placeholder: "Where", limit: 30},
		fieldDef{label: "Starts", placeholder: "2026-03-14T18:00"},
		fieldDef{label: "Ends", placeholder: "2026-03-14T21:00"},
	)
	f.fields[fieldTitle].input.SetValue(d.Title)
	f.fields[fieldDescription].input.SetValue(d.Description)
	f.fields[fieldLocation].input.SetValue(d.Location)
	f.fields[fieldStart].input.SetValue(event.FormatInput(d.StartTime))
	f.fields[fieldEnd].input.SetValue(event.FormatInput(d.EndTime))
	return f
}

func newLoginForm() *form {
	return newForm("Log in",
		fieldDef{label: "Username", placeholder: "username"},
		fieldDef{label: "Password", secret: true},
	)
}

func (f *form) value(i int) string {
	return f.fields[i].input.Value()
}

func (f *form) setValue(i int, v string) {
	f.fields[i].input.SetValue(v)
}

func (f *form) setFocus(i int) {
	for j := range f.fields {
		f.fields[j].input.Blur()
	}
	f.focus = i
	f.fields[i].input.Focus()
}

func (f *form) next() {
	f.setFocus((f.focus + 1) % len(f.fields))
}

func (f *form) prev() {
	f.setFocus((f.focus - 1 + len(f.fields)) % len(f.fields))
}

func (f *form) onLast() bool {
	return f.focus == len(f.fields)-1
}

// update forwards msg to the focused input
func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

// draft reads an event draft from the form. Times that do not parse are a
// validation error on their field.
func (f *form) draft() (event.Draft, error) {
	d := event.Draft{
		Title:       f.value(fieldTitle),
		Description: f.value(fieldDescription),
		Location:    f.value(fieldLocation),
	}

	var err error
	if d.StartTime, err = f.timeValue(fieldStart, "start_time"); err != nil {
		return d, err
	}
	if d.EndTime, err = f.timeValue(fieldEnd, "end_time"); err != nil {
		return d, err
	}
	return d, nil
}

// timeValue parses field i; blank is the zero time so that validation can
// report it as missing
func (f *form) timeValue(i int, name string) (time.Time, error) {
	raw := strings.TrimSpace(f.value(i))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := event.ParseTime(raw, nil)
	if err != nil {
		return time.Time{}, &event.ValidationError{Field: name, Message: err.Error()}
	}
	return t, nil
}

func (f *form) view(width int, busy bool) string {
	var b strings.Builder
	for i, fld := range f.fields {
		label := styleLabel().Render(fld.label)
		if i == f.focus {
			label = styleLabel().Foreground(colorAccent).Render(fld.label)
		}
		b.WriteString(label + fld.input.View() + "\n")
	}
	if f.err != "" {
		b.WriteString("\n" + styleError().Render(f.err) + "\n")
	}
	if busy {
		b.WriteString("\n" + styleMuted().Render("Saving...") + "\n")
	}
	b.WriteString("\n" + styleMuted().Render("tab: next field   enter/ctrl+s: save   esc: cancel"))
	return renderModalBox(width, f.title, b.String())
}
