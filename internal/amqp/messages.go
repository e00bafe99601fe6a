package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"jbudget/internal/services"
)

// ContentType of every published change event.
const ContentType = "application/json"

// EncodeEvent converts a change event to its JSON body.
func EncodeEvent(e services.Event) ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses a JSON body and rejects events with an unknown kind or
// entity, or without an id.
func DecodeEvent(data []byte) (services.Event, error) {
	var e services.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return services.Event{}, err
	}
	switch e.Kind {
	case services.EventCreated, services.EventUpdated, services.EventDeleted:
	default:
		return services.Event{}, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	switch e.Entity {
	case services.EntityTransaction, services.EntityTag:
	default:
		return services.Event{}, fmt.Errorf("unknown event entity %q", e.Entity)
	}
	if e.ID == "" {
		return services.Event{}, fmt.Errorf("event without id")
	}
	return e, nil
}

// newPublishing wraps e in a persistent message with a fresh message id.
func newPublishing(e services.Event) (amqp091.Publishing, error) {
	body, err := EncodeEvent(e)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	return amqp091.Publishing{
		ContentType:  ContentType,
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.New().String(),
		Type:         string(e.Entity) + "." + string(e.Kind),
		Timestamp:    at,
		Body:         body,
	}, nil
}
