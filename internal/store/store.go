package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/forrev/forrev-cli/internal/event"
	"github.com/forrev/forrev-cli/internal/logger"
	"github.com/forrev/forrev-cli/internal/notifier"
)

var (
	// ErrStale is returned by Load when a later Load or Reset overtook it.
	// The collection is left as the later call set it.
	ErrStale = errors.New("load superseded by a newer request")

	// ErrNotFound means the event is not in the collection
	ErrNotFound = errors.New("event not in collection")
)

// Remote is the part of the service client the store needs
type Remote interface {
	ListEvents(ctx context.Context) ([]event.Event, error)
	GetEvent(ctx context.Context, id int) (*event.Event, error)
	CreateEvent(ctx context.Context, draft event.Draft) (*event.Event, error)
	UpdateEvent(ctx context.Context, id int, draft event.Draft) (*event.Event, error)
	DeleteEvent(ctx context.Context, id int) error
}

// ScopeKind selects which events a view holds
type ScopeKind int

const (
	ScopeAll ScopeKind = iota
	ScopeAuthored
)

// Scope is the filter applied to a loaded collection
type Scope struct {
	Kind  ScopeKind
	Owner string
}

// All is the scope of the main list
func All() Scope {
	return Scope{Kind: ScopeAll}
}

// AuthoredBy is the scope of a profile page
func AuthoredBy(owner string) Scope {
	return Scope{Kind: ScopeAuthored, Owner: owner}
}

func (s Scope) String() string {
	if s.Kind == ScopeAuthored {
		return "authored:" + s.Owner
	}
	return "all"
}

// Store owns one event collection
type Store struct {
	remote   Remote
	notifier notifier.Notifier

	mu          sync.Mutex
	events      []event.Event
	scope       Scope
	loaded      bool
	lastDiff    *event.DiffResult
	generation  uint64
	subscribers map[int]func([]event.Event)
	nextSub     int
}

// New creates an empty store. Failed removals are reported to n; a nil n
// discards them.
func New(r Remote, n notifier.Notifier) *Store {
	if n == nil {
		n = notifier.Discard
	}
	return &Store{
		remote:      r,
		notifier:    n,
		events:      make([]event.Event, 0),
		lastDiff:    event.Diff(nil, nil),
		subscribers: make(map[int]func([]event.Event)),
	}
}

// Events returns a copy of the collection in display order
func (s *Store) Events() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the number of events held
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Find returns the held event with the given id, or ErrNotFound
func (s *Store) Find(id int) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.events[i], nil
	}
	return event.Event{}, fmt.Errorf("event %d: %w", id, ErrNotFound)
}

// Scope returns the scope of the last committed load
func (s *Store) Scope() Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// LastDiff describes what the last committed Load changed compared to the
// collection it replaced. The first load reports no change.
func (s *Store) LastDiff() *event.DiffResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDiff
}

// Subscribe registers fn to receive the collection after every change. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func([]event.Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Load fetches every event and replaces the collection. Only the most
// recently issued Load commits; an overtaken one returns ErrStale.
func (s *Store) Load(ctx context.Context, scope Scope) error {
	if scope.Kind == ScopeAuthored && scope.Owner == "" {
		return fmt.Errorf("loading authored events: owner is required")
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	start := time.Now()
	fetched, err := s.remote.ListEvents(ctx)
	if err != nil {
		logger.Warn("Failed to load events", logger.Fields{"scope": scope.String(), "error": err.Error()})
		return fmt.Errorf("loading events: %w", err)
	}

	if scope.Kind == ScopeAuthored {
		fetched = event.FilterByOwner(fetched, scope.Owner)
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		logger.Debug("Discarding stale load", logger.Fields{"scope": scope.String()})
		return ErrStale
	}
	diff := event.Diff(nil, nil)
	if s.loaded && s.scope == scope {
		diff = event.Diff(s.events, fetched)
	}
	s.events = fetched
	s.scope = scope
	logger.SetGauge("store.events", float64(len(fetched)))
	s.loaded = true
	s.lastDiff = diff
	subs, snapshot := s.subscribersLocked()
	s.mu.Unlock()

	logger.Info("Loaded events", logger.Fields{
		"scope":    scope.String(),
		"count":    len(snapshot),
		"added":    len(diff.Added),
		"removed":  len(diff.Removed),
		"changed":  len(diff.Changed),
		"duration": time.Since(start).String(),
	})
	publish(subs, snapshot)
	return nil
}

// Create submits a draft and prepends the confirmed event. An invalid draft
// is rejected without contacting the service.
func (s *Store) Create(ctx context.Context, draft event.Draft) (event.Event, error) {
	if err := draft.Validate(); err != nil {
		return event.Event{}, err
	}

	created, err := s.remote.CreateEvent(ctx, draft)
	if err != nil {
		logger.Warn("Failed to create event", logger.Fields{"error": err.Error()})
		return event.Event{}, fmt.Errorf("creating event: %w", err)
	}

	s.mu.Lock()
	// a load that resolved while the create was in flight may already hold it
	if i := s.indexLocked(created.EventID); i >= 0 {
		s.events = append(s.events[:i:i], s.events[i+1:]...)
	}
	s.events = append([]event.Event{*created}, s.events...)
	subs, snapshot := s.subscribersLocked()
	s.mu.Unlock()

	logger.Info("Created event", logger.Fields{"event_id": created.EventID})
	publish(subs, snapshot)
	return *created, nil
}

// Update submits a draft for an existing event and replaces it in place with
// the confirmed version. The event stays even if it no longer matches the
// current scope.
func (s *Store) Update(ctx context.Context, id int, draft event.Draft) (event.Event, error) {
	if err := draft.Validate(); err != nil {
		return event.Event{}, err
	}

	updated, err := s.remote.UpdateEvent(ctx, id, draft)
	if err != nil {
		logger.Warn("Failed to update event", logger.Fields{"event_id": id, "error": err.Error()})
		return event.Event{}, fmt.Errorf("updating event %d: %w", id, err)
	}

	s.mu.Lock()
	replaced := s.replaceLocked(*updated)
	subs, snapshot := s.subscribersLocked()
	s.mu.Unlock()

	logger.Info("Updated event", logger.Fields{"event_id": id, "in_collection": replaced})
	if replaced {
		publish(subs, snapshot)
	}
	return *updated, nil
}

// Remove deletes an event and drops it from the collection once the service
// confirms. A failure is returned and also handed to the notifier, since the
// caller may not be waiting for it.
func (s *Store) Remove(ctx context.Context, id int) error {
	if err := s.remote.DeleteEvent(ctx, id); err != nil {
		logger.Warn("Failed to delete event", logger.Fields{"event_id": id, "error": err.Error()})
		wrapped := fmt.Errorf("deleting event %d: %w", id, err)
		if nerr := s.notifier.Notify(notifier.Notice{Op: "delete", EventID: id, Err: wrapped, At: time.Now()}); nerr != nil {
			logger.Error("Failed to deliver notice", logger.Fields{"event_id": id}, nerr)
		}
		return wrapped
	}

	s.mu.Lock()
	removed := false
	if i := s.indexLocked(id); i >= 0 {
		s.events = append(s.events[:i:i], s.events[i+1:]...)
		removed = true
	}
	subs, snapshot := s.subscribersLocked()
	s.mu.Unlock()

	logger.Info("Deleted event", logger.Fields{"event_id": id})
	if removed {
		publish(subs, snapshot)
	}
	return nil
}

// Get fetches the canonical version of one event. If the collection holds it,
// it is replaced in place; Get never inserts.
func (s *Store) Get(ctx context.Context, id int) (event.Event, error) {
	fetched, err := s.remote.GetEvent(ctx, id)
	if err != nil {
		return event.Event{}, fmt.Errorf("fetching event %d: %w", id, err)
	}

	s.mu.Lock()
	replaced := s.replaceLocked(*fetched)
	subs, snapshot := s.subscribersLocked()
	s.mu.Unlock()

	if replaced {
		publish(subs, snapshot)
	}
	return *fetched, nil
}

// Reset empties the collection and discards any load still in flight
func (s *Store) Reset() {
	s.mu.Lock()
	s.generation++
	s.events = make([]event.Event, 0)
	s.scope = All()
	s.loaded = false
	s.lastDiff = event.Diff(nil, nil)
	subs, snapshot := s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snapshot)
}

func (s *Store) indexLocked(id int) int {
	for i := range s.events {
		if s.events[i].EventID == id {
			return i
		}
	}
	return -1
}

func (s *Store) replaceLocked(evt event.Event) bool {
	i := s.indexLocked(evt.EventID)
	if i < 0 {
		return false
	}
	// Copy on write so snapshots handed out earlier stay intact
	next := s.snapshotLocked()
	next[i] = evt
	s.events = next
	return true
}

func (s *Store) snapshotLocked() []event.Event {
	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) subscribersLocked() ([]func([]event.Event), []event.Event) {
	subs := make([]func([]event.Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs, s.snapshotLocked()
}

func publish(subs []func([]event.Event), snapshot []event.Event) {
	for _, fn := range subs {
		fn(snapshot)
	}
}
