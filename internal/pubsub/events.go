// Package pubsub fans typed events out to context-scoped subscribers.
package pubsub

import "time"

// EventType says what happened to the payload.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event is one published payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Filter decides whether a payload is delivered to a subscription.
type Filter[T any] func(payload T) bool
