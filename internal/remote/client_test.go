package remote_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forrev/forrev-cli/internal/event"
	"github.com/forrev/forrev-cli/internal/remote"
	"github.com/forrev/forrev-cli/internal/remote/remotetest"
)

func newClient(t *testing.T, srv *remotetest.Server) *remote.Client {
	t.Helper()
	client, err := remote.NewClient(remote.Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

func sampleDraft(title string) event.Draft {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return event.Draft{
		Title:       title,
		Description: "Monthly meetup",
		Location:    "Library",
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr bool
	}{
		{"default", "", remote.DefaultBaseURL, false},
		{"adds trailing slash", "http://example.com/api", "http://example.com/api/", false},
		{"keeps trailing slash", "https://example.com/", "https://example.com/", false},
		{"rejects scheme", "ftp://example.com/", "", true},
		{"rejects missing scheme", "example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := remote.NewClient(remote.Options{BaseURL: tt.baseURL})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.BaseURL())
		})
	}
}

func TestClient_LoginPrimesCSRF(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.AddUser("alice", "pw")

	client := newClient(t, srv)
	result, err := client.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/auth/csrf/"))

	info, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.True(t, info.IsAuthenticated)
	assert.Equal(t, "alice", info.User.Username)

	names := make(map[string]bool)
	for _, c := range client.Cookies() {
		names[c.Name] = true
	}
	assert.True(t, names[remote.SessionCookieName], "session cookie should be held")
	assert.True(t, names[remote.CSRFCookieName], "csrf cookie should be held")
}

func TestClient_LoginInvalidCredentials(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.AddUser("alice", "pw")

	client := newClient(t, srv)
	_, err := client.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, remote.IsAuth(err))
	assert.Equal(t, "Invalid Credentials", remote.Message(err))
}

func TestClient_CurrentUserAnonymous(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()

	client := newClient(t, srv)
	_, err := client.CurrentUser(context.Background())
	require.Error(t, err)
	assert.True(t, remote.IsAuth(err))
}

func TestClient_Logout(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.AddUser("alice", "pw")

	ctx := context.Background()
	client := newClient(t, srv)
	_, err := client.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, client.Logout(ctx))

	_, err = client.CurrentUser(ctx)
	assert.True(t, remote.IsAuth(err), "session should be gone after logout, got %v", err)
}

func TestClient_Register(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()

	ctx := context.Background()
	client := newClient(t, srv)
	result, err := client.Register(ctx, "carol", "carol@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "carol", result.User.Username)

	_, err = client.Register(ctx, "carol", "carol@example.com", "pw")
	require.Error(t, err)
	assert.Equal(t, "Username already exists", remote.Message(err))
}

func TestClient_EventLifecycle(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.AddUser("alice", "pw")

	ctx := context.Background()
	client := newClient(t, srv)
	_, err := client.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	created, err := client.CreateEvent(ctx, sampleDraft("Book club"))
	require.NoError(t, err)
	assert.Equal(t, "alice", created.CreatedBy)
	assert.NotZero(t, created.EventID)

	events, err := client.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, created.EventID, events[0].EventID)
	assert.True(t, created.StartTime.Equal(events[0].StartTime))

	update := sampleDraft("Book club v2")
	updated, err := client.UpdateEvent(ctx, created.EventID, update)
	require.NoError(t, err)
	assert.Equal(t, "Book club v2", updated.Title)

	fetched, err := client.GetEvent(ctx, created.EventID)
	require.NoError(t, err)
	assert.Equal(t, "Book club v2", fetched.Title)

	require.NoError(t, client.DeleteEvent(ctx, created.EventID))
	assert.Empty(t, srv.Events())

	_, err = client.GetEvent(ctx, created.EventID)
	var serverErr *remote.ServerError
	require.True(t, errors.As(err, &serverErr))
	assert.Equal(t, http.StatusNotFound, serverErr.Status)
}

func TestClient_CreateRequiresLogin(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()

	client := newClient(t, srv)
	_, err := client.CreateEvent(context.Background(), sampleDraft("Anon"))
	require.Error(t, err)
	assert.True(t, remote.IsAuth(err))
	assert.Empty(t, srv.Events())
}

func TestClient_UpdateForeignEvent(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.AddUser("bob", "pw")
	foreign := srv.Seed("alice", sampleDraft("Alice only"))

	ctx := context.Background()
	client := newClient(t, srv)
	_, err := client.Login(ctx, "bob", "pw")
	require.NoError(t, err)

	_, err = client.UpdateEvent(ctx, foreign.EventID, sampleDraft("Hijack"))
	require.Error(t, err)
	assert.True(t, remote.IsAuth(err))
	assert.Equal(t, "You do not have permission to perform this action.", remote.Message(err))
	assert.Equal(t, "Alice only", srv.Events()[0].Title)
}

func TestClient_FieldTooLong(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.AddUser("alice", "pw")

	ctx := context.Background()
	client := newClient(t, srv)
	_, err := client.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = client.CreateEvent(ctx, sampleDraft("A title that is far too long for the service"))
	var serverErr *remote.ServerError
	require.True(t, errors.As(err, &serverErr), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, serverErr.Status)
	assert.Equal(t, "title: Ensure this field has no more than 20 characters.", serverErr.Message)
}

func TestClient_CSRFRejection(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.AddUser("alice", "pw")

	ctx := context.Background()
	client := newClient(t, srv)
	_, err := client.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	srv.Fail(http.MethodDelete, "/events/{id}/", http.StatusForbidden,
		`<html><body><div id="summary"><h1>Forbidden (403)</h1><p>CSRF verification failed. Request aborted.</p></div></body></html>`)
	err = client.DeleteEvent(ctx, 42)
	require.Error(t, err)
	assert.True(t, remote.IsAuth(err))
	assert.Equal(t, "Forbidden (403): CSRF verification failed. Request aborted.", remote.Message(err))
}

func TestClient_RestoredCookies(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.AddUser("alice", "pw")

	ctx := context.Background()
	first := newClient(t, srv)
	_, err := first.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	second, err := remote.NewClient(remote.Options{BaseURL: srv.URL, Cookies: first.Cookies()})
	require.NoError(t, err)
	info, err := second.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", info.User.Username)

	second.ClearCookies()
	_, err = second.CurrentUser(ctx)
	assert.True(t, remote.IsAuth(err))
}

func TestClient_NetworkError(t *testing.T) {
	srv := remotetest.NewServer()
	client := newClient(t, srv)
	srv.Close()

	_, err := client.ListEvents(context.Background())
	require.Error(t, err)
	assert.True(t, remote.IsNetwork(err), "got %T: %v", err, err)
	assert.Equal(t, "Could not reach the forrev service. Check your connection and retry.", remote.Message(err))
}

func TestClient_CanceledContext(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newClient(t, srv)
	_, err := client.ListEvents(ctx)
	require.Error(t, err)
	assert.True(t, remote.IsNetwork(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_ServerErrorStatus(t *testing.T) {
	srv := remotetest.NewServer()
	defer srv.Close()
	srv.Fail(http.MethodGet, "/events/", http.StatusInternalServerError, "")

	client := newClient(t, srv)
	_, err := client.ListEvents(context.Background())
	var serverErr *remote.ServerError
	require.True(t, errors.As(err, &serverErr))
	assert.Equal(t, http.StatusInternalServerError, serverErr.Status)
	assert.Equal(t, "Internal Server Error", serverErr.Message)
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", remote.DefaultBaseURL, false},
		{"http://127.0.0.1:8000", "http://127.0.0.1:8000/", false},
		{"https://forrev.example.com/api/", "https://forrev.example.com/api/", false},
		{"localhost:8000", "", true},
	}

	for _, tt := range tests {
		got, err := remote.NormalizeBaseURL(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeBaseURL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
