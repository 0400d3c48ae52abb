// Package remotetest provides an in-memory fake of the forrev service for
// tests. It enforces the session cookie, the CSRF header and event ownership
// the way the real service does, and can inject failures per route.
package remotetest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forrev/forrev-cli/internal/event"
)

const csrfFailurePage = `<!DOCTYPE html>
<html lang="en"><head><title>403 Forbidden</title></head>
<body><div id="summary"><h1>Forbidden (403)</h1><p>CSRF verification failed. Request aborted.</p></div></body></html>`

type account struct {
	email    string
	password string
}

type failure struct {
	status int
	body   string
}

// Server is a fake forrev service listening on a local port
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]account
	sessions map[string]string // session id -> username
	events   []event.Event     // newest first
	nextID   int
	failures map[string][]failure
	calls    map[string]int
	now      func() time.Time
}

// NewServer starts a fake service. Call Close when done.
func NewServer() *Server {
	s := &Server{
		users:    make(map[string]account),
		sessions: make(map[string]string),
		events:   make([]event.Event, 0),
		nextID:   1,
		failures: make(map[string][]failure),
		calls:    make(map[string]int),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}

	r := chi.NewRouter()
	s.route(r, http.MethodGet, "/auth/csrf/", s.handleCSRF)
	s.route(r, http.MethodGet, "/auth/user/", s.handleCurrentUser)
	s.route(r, http.MethodPost, "/auth/login/", s.requireCSRF(s.handleLogin))
	s.route(r, http.MethodPost, "/auth/logout/", s.requireCSRF(s.handleLogout))
	s.route(r, http.MethodPost, "/auth/register/", s.requireCSRF(s.handleRegister))
	s.route(r, http.MethodGet, "/events/", s.handleListEvents)
	s.route(r, http.MethodPost, "/events/", s.requireCSRF(s.requireUser(s.handleCreateEvent)))
	s.route(r, http.MethodGet, "/events/{id}/", s.handleGetEvent)
	s.route(r, http.MethodPut, "/events/{id}/", s.requireCSRF(s.requireUser(s.handleUpdateEvent)))
	s.route(r, http.MethodDelete, "/events/{id}/", s.requireCSRF(s.requireUser(s.handleDeleteEvent)))

	s.Server = httptest.NewServer(r)
	return s
}

// Key identifies a route for Fail and Calls, e.g. "DELETE /events/{id}/"
func Key(method, pattern string) string {
	return method + " " + pattern
}

// route registers h and wraps it with call counting and failure injection
func (s *Server) route(r chi.Router, method, pattern string, h http.HandlerFunc) {
	key := Key(method, pattern)
	r.MethodFunc(method, pattern, func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.calls[key]++
		var injected *failure
		if queue := s.failures[key]; len(queue) > 0 {
			injected = &queue[0]
			s.failures[key] = queue[1:]
		}
		s.mu.Unlock()

		if injected != nil {
			if strings.HasPrefix(strings.TrimSpace(injected.body), "<") {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
			} else {
				w.Header().Set("Content-Type", "application/json")
			}
			w.WriteHeader(injected.status)
			fmt.Fprint(w, injected.body)
			return
		}
		h(w, req)
	})
}

// Fail makes the next call to the route answer with status and body instead
// of being handled. Calls queue up.
func (s *Server) Fail(method, pattern string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Key(method, pattern)
	s.failures[key] = append(s.failures[key], failure{status: status, body: body})
}

// Calls returns how many requests reached the route
func (s *Server) Calls(method, pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[Key(method, pattern)]
}

// AddUser registers an account
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = account{email: username + "@example.com", password: password}
}

// Seed stores an event authored by owner and returns it as the service
// would. Seeded events are prepended like created ones.
func (s *Server) Seed(owner string, draft event.Draft) event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(owner, draft)
}

// Events returns the stored events, newest first
func (s *Server) Events() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out
}

// SetOwner rewrites an event's author, simulating a change made elsewhere
func (s *Server) SetOwner(id int, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		s.events[i].CreatedBy = owner
	}
}

// BaseURL returns the root URL with a trailing slash
func (s *Server) BaseURL() string {
	return s.URL + "/"
}

func (s *Server) insertLocked(owner string, draft event.Draft) event.Event {
	now := s.now()
	evt := event.Event{
		EventID:     s.nextID,
		CreatedBy:   owner,
		Title:       draft.Title,
		Description: draft.Description,
		Location:    draft.Location,
		StartTime:   draft.StartTime,
		EndTime:     draft.EndTime,
		CreatedAt:   now,
		UpdatedAt:   now,
		URL:         fmt.Sprintf("%s/events/%d/", s.URL, s.nextID),
	}
	s.nextID++
	s.events = append([]event.Event{evt}, s.events...)
	return evt
}

func (s *Server) indexLocked(id int) int {
	for i := range s.events {
		if s.events[i].EventID == id {
			return i
		}
	}
	return -1
}

func (s *Server) userFor(r *http.Request) string {
	cookie, err := r.Cookie("sessionid")
	if err != nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[cookie.Value]
}

func (s *Server) requireCSRF(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("csrftoken")
		if err != nil || cookie.Value == "" || r.Header.Get("X-CSRFToken") != cookie.Value {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, csrfFailurePage)
			return
		}
		next(w, r)
	}
}

func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.userFor(r) == "" {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleCSRF(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: randomToken(), Path: "/"})
	writeJSON(w, http.StatusOK, map[string]string{"detail": "CSRF cookie set"})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	username := s.userFor(r)
	if username == "" {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"detail": "Authentication credentials were not provided.",
		})
		return
	}

	s.mu.Lock()
	email := s.users[username].email
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"isAuthenticated": true,
		"user":            map[string]string{"username": username, "email": email},
	})
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username and Password are required"})
		return
	}

	s.mu.Lock()
	acct, ok := s.users[creds.Username]
	if !ok || acct.password != creds.Password {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid Credentials"})
		return
	}
	sessionID := randomToken()
	s.sessions[sessionID] = creds.Username
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: sessionID, Path: "/", HttpOnly: true})
	// The service rotates the CSRF token on login
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: randomToken(), Path: "/"})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login Successful",
		"user":    map[string]string{"username": creds.Username, "email": acct.email},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("sessionid"); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout Successful"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username and Password are required"})
		return
	}

	s.mu.Lock()
	if _, exists := s.users[creds.Username]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username already exists"})
		return
	}
	s.users[creds.Username] = account{email: creds.Email, password: creds.Password}
	sessionID := randomToken()
	s.sessions[sessionID] = creds.Username
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: sessionID, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration Successful",
		"user":    map[string]string{"username": creds.Username, "email": creds.Email},
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Events())
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	var evt event.Event
	if i >= 0 {
		evt = s.events[i]
	}
	s.mu.Unlock()

	if i < 0 {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, evt)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	owner := s.userFor(r)
	s.mu.Lock()
	evt := s.insertLocked(owner, draft)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, evt)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	user := s.userFor(r)
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		writeNotFound(w)
		return
	}
	if s.events[i].CreatedBy != user {
		s.mu.Unlock()
		writeForbidden(w)
		return
	}
	evt := &s.events[i]
	evt.Title = draft.Title
	evt.Description = draft.Description
	evt.Location = draft.Location
	evt.StartTime = draft.StartTime
	evt.EndTime = draft.EndTime
	evt.UpdatedAt = s.now()
	updated := *evt
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	user := s.userFor(r)
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		writeNotFound(w)
		return
	}
	if s.events[i].CreatedBy != user {
		s.mu.Unlock()
		writeForbidden(w)
		return
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// decodeDraft applies the service's own field limits
func decodeDraft(w http.ResponseWriter, r *http.Request) (event.Draft, bool) {
	var draft event.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error - " + err.Error()})
		return draft, false
	}

	limits := []struct {
		field string
		value string
		max   int
	}{
		{"title", draft.Title, 20},
		{"description", draft.Description, 100},
		{"location", draft.Location, 30},
	}
	for _, l := range limits {
		if len(l.value) > l.max {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				l.field: {fmt.Sprintf("Ensure this field has no more than %d characters.", l.max)},
			})
			return draft, false
		}
	}
	return draft, true
}

func eventID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w)
		return 0, false
	}
	return id, true
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No Event matches the given query."})
}

func writeForbidden(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, map[string]string{
		"detail": "You do not have permission to perform this action.",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func randomToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
