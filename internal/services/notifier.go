package services

import (
	"context"
	"time"
)

// EventKind describes what happened to an entity.
type EventKind string

// Entity names the collection an event refers to.
type Entity string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"

	EntityTransaction Entity = "transaction"
	EntityTag         Entity = "tag"
)

// Event is emitted after a mutation has been persisted.
type Event struct {
	Kind   EventKind `json:"kind"`
	Entity Entity    `json:"entity"`
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
}

// Notifier receives change events. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event) error

func (f NotifierFunc) Notify(ctx context.Context, e Event) error {
	return f(ctx, e)
}

func newEvent(kind EventKind, entity Entity, id string) Event {
	return Event{Kind: kind, Entity: entity, ID: id, At: time.Now().UTC()}
}
