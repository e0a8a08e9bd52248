// Package events defines the realtime event vocabulary and the Publisher
// interface services use to push events to connected clients. The concrete
// implementation lives in internal/realtime; passing the publisher into
// service constructors keeps the gateway out of global state.
package events

import (
	"context"

	"github.com/google/uuid"
)

// Realtime event names carried over the per-user channels.
const (
	TaskCreated      = "task:created"
	TaskUpdated      = "task:updated"
	TaskDeleted      = "task:deleted"
	TaskCommentAdded = "task:comment_added"
	NotificationNew  = "notification:new"
)

// Event is a named payload delivered to a user's realtime channel.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Publisher delivers events to every active connection of a target user.
// Delivery is best-effort: publishing to a user with no connections is a
// no-op, and implementations must never block the caller on a slow consumer.
type Publisher interface {
	PublishToUser(ctx context.Context, userID uuid.UUID, event Event)
}

// NoopPublisher discards all events. It stands in for the realtime gateway in
// tests and in tools that run service code without a socket server.
type NoopPublisher struct{}

// PublishToUser implements Publisher.
func (NoopPublisher) PublishToUser(ctx context.Context, userID uuid.UUID, event Event) {}
