package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/forrev/forrev-cli/internal/event"
	"github.com/forrev/forrev-cli/internal/logger"
	"github.com/forrev/forrev-cli/internal/remote"
)

// Status is the resolution state of a session
type Status int

const (
	Resolving Status = iota
	Anonymous
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// State is a snapshot of the session. Username is set only when Authenticated.
type State struct {
	Status   Status
	Username string
}

// Remote is the part of the service client the gate needs
type Remote interface {
	CurrentUser(ctx context.Context) (*remote.SessionInfo, error)
	Login(ctx context.Context, username, password string) (*remote.AuthResult, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, username, email, password string) (*remote.AuthResult, error)
}

// Gate owns the session state for one root scope
type Gate struct {
	remote Remote

	mu          sync.Mutex
	state       State
	generation  uint64
	subscribers map[int]func(State)
	nextSub     int
}

// NewGate creates a gate in the Resolving state
func NewGate(r Remote) *Gate {
	return &Gate{
		remote:      r,
		state:       State{Status: Resolving},
		subscribers: make(map[int]func(State)),
	}
}

// State returns the current session state
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Username returns the authenticated username, or "" otherwise
func (g *Gate) Username() string {
	return g.State().Username
}

// Subscribe registers fn to be called after every state change. The returned
// function removes the subscription.
func (g *Gate) Subscribe(fn func(State)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextSub
	g.nextSub++
	g.subscribers[id] = fn

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subscribers, id)
	}
}

// Resolve asks the service who the session belongs to. The gate is Resolving
// until the answer arrives; failures of any kind leave it Anonymous. A result
// that was overtaken by a later Resolve, Login or Logout is dropped.
func (g *Gate) Resolve(ctx context.Context) State {
	gen := g.begin()
	g.commit(gen, State{Status: Resolving})

	next := State{Status: Anonymous}
	info, err := g.remote.CurrentUser(ctx)
	switch {
	case err == nil:
		next = State{Status: Authenticated, Username: info.User.Username}
	case remote.IsAuth(err):
		logger.Debug("Session is anonymous", logger.Fields{"error": err.Error()})
	default:
		logger.Warn("Could not resolve session, treating as anonymous", logger.Fields{"error": err.Error()})
	}

	g.commit(gen, next)
	return g.State()
}

// IsOwner reports whether the current user authored e
func (g *Gate) IsOwner(e event.Event) bool {
	st := g.State()
	return st.Status == Authenticated && e.OwnedBy(st.Username)
}

// RequireAuth reports whether a view that needs a logged-in user may render.
// redirect is called once the session is known to be Anonymous; nothing
// happens while it is still Resolving.
func (g *Gate) RequireAuth(redirect func()) bool {
	switch g.State().Status {
	case Authenticated:
		return true
	case Anonymous:
		if redirect != nil {
			redirect()
		}
	}
	return false
}

// Login authenticates with the service and re-resolves the session
func (g *Gate) Login(ctx context.Context, username, password string) (State, error) {
	if err := requireCredentials(username, password); err != nil {
		return g.State(), err
	}

	if _, err := g.remote.Login(ctx, username, password); err != nil {
		return g.State(), fmt.Errorf("logging in: %w", err)
	}
	logger.Info("Logged in", logger.Fields{"username": username})

	return g.Resolve(ctx), nil
}

// Register creates an account; the service logs the new user in
func (g *Gate) Register(ctx context.Context, username, email, password string) (State, error) {
	if err := requireCredentials(username, password); err != nil {
		return g.State(), err
	}

	if _, err := g.remote.Register(ctx, username, email, password); err != nil {
		return g.State(), fmt.Errorf("registering: %w", err)
	}
	logger.Info("Registered", logger.Fields{"username": username})

	return g.Resolve(ctx), nil
}

// Logout ends the session on the service and becomes Anonymous whatever the
// outcome. Failures are logged.
func (g *Gate) Logout(ctx context.Context) {
	gen := g.begin()

	if err := g.remote.Logout(ctx); err != nil {
		logger.Warn("Logout failed, clearing local session anyway", logger.Fields{"error": err.Error()})
	}

	g.commit(gen, State{Status: Anonymous})
}

func requireCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return &event.ValidationError{Field: "username", Message: "username and password are required"}
	}
	if password == "" {
		return &event.ValidationError{Field: "password", Message: "username and password are required"}
	}
	return nil
}

// begin starts a state-changing operation and returns its generation
func (g *Gate) begin() uint64 {
	g.mu.Lock()
	g.generation++
	gen := g.generation
	g.mu.Unlock()
	return gen
}

// commit installs next if no later operation has started, then notifies
// subscribers outside the lock
func (g *Gate) commit(gen uint64, next State) {
	g.mu.Lock()
	if gen != g.generation {
		g.mu.Unlock()
		logger.Debug("Dropping superseded session result", logger.Fields{"status": next.Status.String()})
		return
	}
	changed := g.state != next
	g.state = next
	subs := make([]func(State), 0, len(g.subscribers))
	for _, fn := range g.subscribers {
		subs = append(subs, fn)
	}
	g.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range subs {
		fn(next)
	}
}
