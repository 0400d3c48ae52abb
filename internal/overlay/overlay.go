package overlay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/forrev/forrev-cli/internal/event"
	"github.com/forrev/forrev-cli/internal/logger"
)

var (
	// ErrInvalidTransition means the requested overlay cannot be reached from
	// the current one
	ErrInvalidTransition = errors.New("invalid overlay transition")

	// ErrNotOwner means the current user did not author the event
	ErrNotOwner = errors.New("only the owner can change this event")

	// ErrBusy means a submission is already waiting for the service
	ErrBusy = errors.New("a submission is already in progress")
)

// Kind identifies which overlay is open
type Kind int

const (
	Closed Kind = iota
	Detail
	Create
	Edit
)

func (k Kind) String() string {
	switch k {
	case Closed:
		return "closed"
	case Detail:
		return "detail"
	case Create:
		return "create"
	case Edit:
		return "edit"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// State is the open overlay. Event is set for Detail and Edit only.
type State struct {
	Kind  Kind
	Event event.Event
}

// Affordances lists the actions a view may offer for the open Detail
type Affordances struct {
	Edit   bool
	Delete bool
}

// Owner answers whether the current user authored an event
type Owner interface {
	IsOwner(e event.Event) bool
}

// Mutator applies confirmed changes to the event collection
type Mutator interface {
	Create(ctx context.Context, draft event.Draft) (event.Event, error)
	Update(ctx context.Context, id int, draft event.Draft) (event.Event, error)
	Remove(ctx context.Context, id int) error
}

// Controller is the overlay state machine for one view
type Controller struct {
	store Mutator
	owner Owner

	mu      sync.Mutex
	state   State
	err     error
	pending bool
	// opened counts overlay openings so a submission only closes the
	// overlay it was made from
	opened uint64

	deletes sync.WaitGroup
}

// New creates a controller with every overlay closed
func New(store Mutator, owner Owner) *Controller {
	return &Controller{store: store, owner: owner}
}

// State returns the open overlay
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error of the last failed submission in the open form
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Pending reports whether a submission is waiting for the service
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// OpenDetail shows e, replacing whatever overlay was open
func (c *Controller) OpenDetail(e event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openLocked(State{Kind: Detail, Event: e})
}

// OpenCreate shows an empty create form, replacing whatever overlay was open
func (c *Controller) OpenCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openLocked(State{Kind: Create})
}

// OpenEdit switches the open Detail to the edit form of the same event
func (c *Controller) OpenEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind != Detail {
		return fmt.Errorf("%w: edit from %s", ErrInvalidTransition, c.state.Kind)
	}
	if !c.owner.IsOwner(c.state.Event) {
		return ErrNotOwner
	}
	c.openLocked(State{Kind: Edit, Event: c.state.Event})
	return nil
}

// Close closes any open overlay and forgets its event
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openLocked(State{Kind: Closed})
}

// Affordances reports which actions the open Detail may offer. It is
// recomputed from the session on every call.
func (c *Controller) Affordances() Affordances {
	st := c.State()
	if st.Kind != Detail || !c.owner.IsOwner(st.Event) {
		return Affordances{}
	}
	return Affordances{Edit: true, Delete: true}
}

// SubmitCreate submits the create form. The overlay closes only if the
// service confirms; otherwise it stays open and Err holds the failure.
func (c *Controller) SubmitCreate(ctx context.Context, draft event.Draft) (event.Event, error) {
	opened, err := c.beginSubmit(Create)
	if err != nil {
		return event.Event{}, err
	}

	created, err := c.store.Create(ctx, draft)
	c.finishSubmit(opened, err)
	return created, err
}

// SubmitEdit submits the edit form for the event being edited
func (c *Controller) SubmitEdit(ctx context.Context, draft event.Draft) (event.Event, error) {
	opened, err := c.beginSubmit(Edit)
	if err != nil {
		return event.Event{}, err
	}

	c.mu.Lock()
	id := c.state.Event.EventID
	c.mu.Unlock()

	updated, err := c.store.Update(ctx, id, draft)
	c.finishSubmit(opened, err)
	return updated, err
}

// Delete asks confirm about the event in the open Detail. On yes the overlay
// closes at once and the removal runs in the background; its failure reaches
// the store's notifier. It reports whether the removal was issued.
func (c *Controller) Delete(ctx context.Context, confirm func(event.Event) bool) (bool, error) {
	st := c.State()
	if st.Kind != Detail {
		return false, fmt.Errorf("%w: delete from %s", ErrInvalidTransition, st.Kind)
	}
	if !c.owner.IsOwner(st.Event) {
		return false, ErrNotOwner
	}
	if confirm != nil && !confirm(st.Event) {
		return false, nil
	}

	c.mu.Lock()
	if c.state.Kind == Detail && c.state.Event.EventID == st.Event.EventID {
		c.openLocked(State{Kind: Closed})
	}
	c.mu.Unlock()

	id := st.Event.EventID
	bg := context.WithoutCancel(ctx)
	c.deletes.Add(1)
	go func() {
		defer c.deletes.Done()
		if err := c.store.Remove(bg, id); err != nil {
			logger.Debug("Background delete failed", logger.Fields{"event_id": id, "error": err.Error()})
		}
	}()
	return true, nil
}

// Wait blocks until every background delete has finished
func (c *Controller) Wait() {
	c.deletes.Wait()
}

func (c *Controller) openLocked(next State) {
	c.state = next
	c.err = nil
	c.opened++
}

func (c *Controller) beginSubmit(want Kind) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind != want {
		return 0, fmt.Errorf("%w: submit %s while %s is open", ErrInvalidTransition, want, c.state.Kind)
	}
	if c.pending {
		return 0, ErrBusy
	}
	c.pending = true
	c.err = nil
	return c.opened, nil
}

func (c *Controller) finishSubmit(opened uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = false
	if c.opened != opened {
		// The form was closed or replaced while the request was in flight
		return
	}
	if err != nil {
		c.err = err
		return
	}
	c.openLocked(State{Kind: Closed})
}
