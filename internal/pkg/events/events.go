// Package events publishes domain events after a change is committed.
// Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"time"
)

// Type names an event; it is also the topic suffix.
type Type string

const (
	UserRegistered Type = "user.registered"
	AdminCreated   Type = "admin.created"
	AdminUpdated   Type = "admin.updated"
	UserDeleted    Type = "user.deleted"
	StudentCreated Type = "student.created"
	StudentUpdated Type = "student.updated"
	StudentDeleted Type = "student.deleted"
)

// Event is one domain event. Key orders events of the same entity on a
// partition.
type Event struct {
	Type       Type        `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// New stamps an event with the current time
func New(eventType Type, key string, payload interface{}) Event {
	return Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
}

// Publisher sends events somewhere
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
