package remote

import (
	"context"
	"fmt"

	"github.com/forrev/forrev-cli/internal/event"
)

func eventPath(id int) string {
	return fmt.Sprintf("events/%d/", id)
}

// ListEvents fetches every event, newest first
func (c *Client) ListEvents(ctx context.Context) ([]event.Event, error) {
	events := make([]event.Event, 0)
	if err := c.do(ctx, "list_events", c.base.New().Get("events/"), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent fetches a single event
func (c *Client) GetEvent(ctx context.Context, id int) (*event.Event, error) {
	var evt event.Event
	if err := c.do(ctx, "get_event", c.base.New().Get(eventPath(id)), &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

// CreateEvent submits a draft and returns the event the service stored
func (c *Client) CreateEvent(ctx context.Context, draft event.Draft) (*event.Event, error) {
	s, err := c.mutating(ctx)
	if err != nil {
		return nil, err
	}

	var evt event.Event
	if err := c.do(ctx, "create_event", s.Post("events/").BodyJSON(draft), &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

// UpdateEvent replaces an event and returns the stored result
func (c *Client) UpdateEvent(ctx context.Context, id int, draft event.Draft) (*event.Event, error) {
	s, err := c.mutating(ctx)
	if err != nil {
		return nil, err
	}

	var evt event.Event
	if err := c.do(ctx, "update_event", s.Put(eventPath(id)).BodyJSON(draft), &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

// DeleteEvent removes an event
func (c *Client) DeleteEvent(ctx context.Context, id int) error {
	s, err := c.mutating(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, "delete_event", s.Delete(eventPath(id)), nil)
}
