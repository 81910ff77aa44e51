// Package messaging defines broker-agnostic event publishing.
package messaging

import (
	"context"
)

// Event is a message with a routing subject and an encoded body.
type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
