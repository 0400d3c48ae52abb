package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forrev/forrev-cli/internal/event"
	"github.com/forrev/forrev-cli/internal/overlay"
	"github.com/forrev/forrev-cli/internal/remote"
	"github.com/forrev/forrev-cli/internal/remote/remotetest"
)

var testStart = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func testDraft(title, location string) event.Draft {
	return event.Draft{
		Title:       title,
		Description: "About " + title,
		Location:    location,
		StartTime:   testStart,
		EndTime:     testStart.Add(2 * time.Hour),
	}
}

type cliEnv struct {
	srv        *remotetest.Server
	dir        string
	configPath string
}

func newEnv(t *testing.T) *cliEnv {
	t.Helper()
	color.NoColor = true

	srv := remotetest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddUser("alice", "pw")
	srv.AddUser("bob", "pw")

	dir := t.TempDir()
	t.Setenv("FORREV_BASE_URL", srv.URL)
	t.Setenv("FORREV_DATA_DIR", filepath.Join(dir, "data"))

	return &cliEnv{srv: srv, dir: dir, configPath: filepath.Join(dir, "config.yaml")}
}

type result struct {
	out    string
	errOut string
	err    error
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func (e *cliEnv) login(t *testing.T, username string) {
	t.Helper()
	res := e.run(t, "", "login", "-u", username, "-p", "pw")
	require.NoError(t, res.err, res.errOut)
}

func TestLoginWhoamiLogout(t *testing.T) {
	env := newEnv(t)

	res := env.run(t, "", "login", "-u", "alice", "-p", "pw")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "as alice")

	// the session survives between invocations
	res = env.run(t, "", "whoami")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Logged in to "+env.srv.URL)
	assert.Contains(t, res.out, "alice")

	res = env.run(t, "", "logout")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Logged out.")

	res = env.run(t, "", "whoami")
	require.Error(t, res.err)
	assert.Equal(t, ExitAuth, ExitCode(res.err))
	assert.Contains(t, res.out, "Not logged in")
}

func TestLogin_PromptsForMissingValues(t *testing.T) {
	env := newEnv(t)

	res := env.run(t, "alice\npw\n", "login")
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "Username: ")
	assert.Contains(t, res.errOut, "Password: ")
	assert.Contains(t, res.out, "as alice")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newEnv(t)

	res := env.run(t, "", "login", "-u", "alice", "-p", "nope")
	require.Error(t, res.err)
	assert.Equal(t, ExitAuth, ExitCode(res.err))
	assert.Equal(t, "Invalid Credentials", remote.Message(res.err))
}

func TestLogin_BlankPasswordNeverReachesService(t *testing.T) {
	env := newEnv(t)

	res := env.run(t, "\n", "login", "-u", "alice")
	require.Error(t, res.err)
	var verr *event.ValidationError
	assert.True(t, errors.As(res.err, &verr))
	assert.Equal(t, 0, env.srv.Calls(http.MethodPost, "/auth/login/"))
}

func TestRegister(t *testing.T) {
	env := newEnv(t)

	res := env.run(t, "", "register", "-u", "carol", "-e", "carol@example.com", "-p", "secret")
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "as carol")

	res = env.run(t, "", "register", "-u", "alice", "-e", "a@example.com", "-p", "pw")
	require.Error(t, res.err)
	assert.Contains(t, remote.Message(res.err), "already exists")
}

func TestCreate_RequiresLogin(t *testing.T) {
	env := newEnv(t)

	res := env.run(t, "", "create", "-t", "Games", "-d", "Fun", "-l", "Hall",
		"--start", "2026-06-01T18:00", "--end", "2026-06-01T20:00")
	require.Error(t, res.err)
	assert.Equal(t, ExitAuth, ExitCode(res.err))
	assert.Contains(t, remote.Message(res.err), "forrev login")
	assert.Empty(t, env.srv.Events())
}

func TestCreate_ListAndShow(t *testing.T) {
	env := newEnv(t)
	env.srv.Seed("bob", testDraft("Older", "Park"))
	env.login(t, "alice")

	res := env.run(t, "", "create", "-t", "Games", "-d", "Board games", "-l", "Library",
		"--start", "2026-06-01T18:00", "--end", "2026-06-01T20:00")
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "Created:")
	assert.Contains(t, res.out, "Games")

	events := env.srv.Events()
	require.Len(t, events, 2)
	created := events[0]
	assert.Equal(t, "alice", created.CreatedBy)

	res = env.run(t, "", "list", "--format", "json")
	require.NoError(t, res.err)
	var list ListResult
	require.NoError(t, json.Unmarshal([]byte(res.out), &list))
	assert.Equal(t, 2, list.EventCount)
	assert.Equal(t, "Games", list.Events[0].Title, "newest first")

	id := strconv.Itoa(created.EventID)
	res = env.run(t, "", "show", id)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Board games")
	assert.Contains(t, res.out, "forrev edit "+id)

	res = env.run(t, "", "show", id, "--format", "json")
	require.NoError(t, res.err)
	var detail DetailResult
	require.NoError(t, json.Unmarshal([]byte(res.out), &detail))
	assert.True(t, detail.CanEdit)
	assert.True(t, detail.CanDelete)

	env.login(t, "bob")
	res = env.run(t, "", "show", id, "--format", "json")
	require.NoError(t, res.err)
	detail = DetailResult{}
	require.NoError(t, json.Unmarshal([]byte(res.out), &detail))
	assert.False(t, detail.CanEdit)
	assert.False(t, detail.CanDelete)
}

func TestCreate_InvalidDraftNeverReachesService(t *testing.T) {
	env := newEnv(t)
	env.login(t, "alice")

	res := env.run(t, "", "create", "-t", "Games", "-l", "Hall",
		"--start", "2026-06-01T18:00", "--end", "2026-06-01T20:00")
	require.Error(t, res.err)
	assert.Contains(t, remote.Message(res.err), "all fields are required")

	res = env.run(t, "", "create", "-t", "Games", "-d", "Fun", "-l", "Hall",
		"--start", "2026-06-01T20:00", "--end", "2026-06-01T18:00")
	require.Error(t, res.err)
	assert.Contains(t, remote.Message(res.err), "end time must be after start time")

	res = env.run(t, "", "create", "-t", "Games", "-d", "Fun", "-l", "Hall",
		"--start", "whenever", "--end", "2026-06-01T18:00")
	require.Error(t, res.err)
	assert.Contains(t, remote.Message(res.err), "start_time")

	assert.Equal(t, 0, env.srv.Calls(http.MethodPost, "/events/"))
}

func TestCreate_ServerFieldError(t *testing.T) {
	env := newEnv(t)
	env.login(t, "alice")

	res := env.run(t, "", "create", "-t", "A title that is far too long", "-d", "Fun", "-l", "Hall",
		"--start", "2026-06-01T18:00", "--end", "2026-06-01T20:00")
	require.Error(t, res.err)
	assert.Equal(t, ExitError, ExitCode(res.err))
	assert.Contains(t, remote.Message(res.err), "title")
	assert.Empty(t, env.srv.Events())
}

func TestEdit_KeepsUnchangedFields(t *testing.T) {
	env := newEnv(t)
	seeded := env.srv.Seed("alice", testDraft("Talk", "Room 1"))
	env.login(t, "alice")

	res := env.run(t, "", "edit", strconv.Itoa(seeded.EventID), "--location", "Room 4")
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "Updated:")

	events := env.srv.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Talk", events[0].Title)
	assert.Equal(t, "Room 4", events[0].Location)
	assert.Equal(t, seeded.Description, events[0].Description)
	assert.True(t, seeded.StartTime.Equal(events[0].StartTime))
}

func TestEdit_ForeignEvent(t *testing.T) {
	env := newEnv(t)
	seeded := env.srv.Seed("bob", testDraft("Bobs", "Park"))
	env.login(t, "alice")

	res := env.run(t, "", "edit", strconv.Itoa(seeded.EventID), "--title", "Mine now")
	require.Error(t, res.err)
	assert.True(t, errors.Is(res.err, overlay.ErrNotOwner))
	assert.Equal(t, 0, env.srv.Calls(http.MethodPut, "/events/{id}/"))
	assert.Equal(t, "Bobs", env.srv.Events()[0].Title)
}

func TestEdit_MissingEvent(t *testing.T) {
	env := newEnv(t)
	env.login(t, "alice")

	res := env.run(t, "", "edit", "999", "--title", "Nothing")
	require.Error(t, res.err)
	assert.Contains(t, remote.Message(res.err), "No Event matches")
}

func TestDelete(t *testing.T) {
	env := newEnv(t)
	seeded := env.srv.Seed("alice", testDraft("Gone", "Hall"))
	env.login(t, "alice")
	id := strconv.Itoa(seeded.EventID)

	res := env.run(t, "n\n", "delete", id)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Cancelled.")
	assert.Contains(t, res.errOut, `Delete "Gone"?`)
	assert.Len(t, env.srv.Events(), 1)

	res = env.run(t, "y\n", "delete", id)
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "Deleted event "+id)
	assert.Empty(t, env.srv.Events())
}

func TestDelete_FailureIsReported(t *testing.T) {
	env := newEnv(t)
	seeded := env.srv.Seed("alice", testDraft("Stays", "Hall"))
	env.login(t, "alice")
	env.srv.Fail(http.MethodDelete, "/events/{id}/", http.StatusInternalServerError, `{"detail": "try later"}`)

	res := env.run(t, "", "delete", "--yes", strconv.Itoa(seeded.EventID))
	require.Error(t, res.err)
	var reported *reportedError
	assert.True(t, errors.As(res.err, &reported))
	assert.Equal(t, ExitError, ExitCode(res.err))
	assert.Contains(t, res.errOut, "error:")
	assert.Contains(t, res.errOut, "try later")
	assert.Len(t, env.srv.Events(), 1)
}

func TestDelete_ForeignEvent(t *testing.T) {
	env := newEnv(t)
	seeded := env.srv.Seed("bob", testDraft("Bobs", "Park"))
	env.login(t, "alice")

	res := env.run(t, "", "delete", "--yes", strconv.Itoa(seeded.EventID))
	require.Error(t, res.err)
	assert.True(t, errors.Is(res.err, overlay.ErrNotOwner))
	assert.Equal(t, 0, env.srv.Calls(http.MethodDelete, "/events/{id}/"))
}

func TestList_FiltersAndSort(t *testing.T) {
	env := newEnv(t)
	env.srv.Seed("bob", testDraft("Yoga", "Park"))
	env.srv.Seed("alice", testDraft("Chess", "Library"))
	env.srv.Seed("alice", testDraft("Archery", "Park"))

	decode := func(out string) []string {
		var list ListResult
		require.NoError(t, json.Unmarshal([]byte(out), &list))
		titles := make([]string, 0, len(list.Events))
		for _, evt := range list.Events {
			titles = append(titles, evt.Title)
		}
		return titles
	}

	res := env.run(t, "", "list", "--format", "json")
	require.NoError(t, res.err)
	assert.Equal(t, []string{"Archery", "Chess", "Yoga"}, decode(res.out))

	res = env.run(t, "", "list", "--format", "json", "--location", "park", "--sort", "title")
	require.NoError(t, res.err)
	assert.Equal(t, []string{"Archery", "Yoga"}, decode(res.out))

	res = env.run(t, "", "list", "--format", "json", "--owner", "bob")
	require.NoError(t, res.err)
	assert.Equal(t, []string{"Yoga"}, decode(res.out))

	res = env.run(t, "", "list", "--mine")
	require.Error(t, res.err)
	assert.Equal(t, ExitAuth, ExitCode(res.err))

	env.login(t, "alice")
	res = env.run(t, "", "list", "--mine", "--format", "json")
	require.NoError(t, res.err)
	assert.Equal(t, []string{"Archery", "Chess"}, decode(res.out))

	res = env.run(t, "", "list", "--title", "chess")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Filter: Title: chess")
	assert.Contains(t, res.out, "Total: 1 event")

	res = env.run(t, "", "list", "--sort", "bogus")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid --sort")
}

func TestList_Empty(t *testing.T) {
	env := newEnv(t)

	res := env.run(t, "", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "No events found.")
}

func TestProfile(t *testing.T) {
	env := newEnv(t)
	env.srv.Seed("bob", testDraft("Yoga", "Park"))
	env.srv.Seed("alice", testDraft("Chess", "Library"))

	res := env.run(t, "", "profile")
	require.Error(t, res.err)
	assert.Equal(t, ExitAuth, ExitCode(res.err))

	env.login(t, "alice")
	res = env.run(t, "", "profile")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "alice")
	assert.Contains(t, res.out, "Chess")
	assert.NotContains(t, res.out, "Yoga")
}

func TestExport(t *testing.T) {
	env := newEnv(t)
	seeded := env.srv.Seed("bob", testDraft("Yoga", "Park"))

	res := env.run(t, "", "export")
	require.NoError(t, res.err, res.errOut)
	assert.True(t, strings.HasPrefix(res.out, "BEGIN:VCALENDAR"))
	assert.Contains(t, res.out, "SUMMARY:Yoga")
	assert.Contains(t, res.out, "event-"+strconv.Itoa(seeded.EventID)+"@127.0.0.1")

	path := filepath.Join(env.dir, "events.ics")
	res = env.run(t, "", "export", "--out", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "Exported 1 events")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SUMMARY:Yoga")
}

func TestInvalidConfiguration(t *testing.T) {
	env := newEnv(t)

	res := env.run(t, "", "list", "--format", "xml")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid configuration")
}

func TestNetworkFailure(t *testing.T) {
	env := newEnv(t)
	env.srv.Close()

	res := env.run(t, "", "list")
	require.Error(t, res.err)
	assert.True(t, remote.IsNetwork(res.err))
	assert.Contains(t, remote.Message(res.err), "Could not reach")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"auth", errLoginRequired, ExitAuth},
		{"reported auth", &reportedError{err: &remote.AuthError{Status: 401}}, ExitAuth},
		{"server", &remote.ServerError{Status: 500, Message: "boom"}, ExitError},
		{"plain", errors.New("boom"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseEventID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int
		wantErr bool
	}{
		{"42", 42, false},
		{"#7", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := parseEventID(tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseEventID(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseEventID(%q) = %d, want %d", tt.arg, got, tt.want)
		}
	}
}
