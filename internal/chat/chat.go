// Package chat carries meeting chat change events between the API and
// connected viewers.
package chat

import (
	"context"

	"github.com/foxseedlab/sirius/internal/repository"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

type Event struct {
	Type    EventType              `json:"type"`
	RoomID  string                 `json:"room_id"`
	Message repository.ChatMessage `json:"message"`
}

type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, roomID string) (Subscription, error)
}

type Subscription interface {
	// Events is closed once the subscription ends.
	Events() <-chan Event
	Close() error
}
