package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/events"
)

// PublishedEvent records a single PublishToUser call.
type PublishedEvent struct {
	UserID uuid.UUID
	Event  events.Event
}

// RecordingPublisher is an events.Publisher that records everything it is
// asked to deliver.
type RecordingPublisher struct {
	mu        sync.Mutex
	published []PublishedEvent
}

// NewRecordingPublisher creates an empty RecordingPublisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

var _ events.Publisher = (*RecordingPublisher)(nil)

// PublishToUser implements events.Publisher.PublishToUser
func (p *RecordingPublisher) PublishToUser(ctx context.Context, userID uuid.UUID, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, PublishedEvent{UserID: userID, Event: event})
}

// Events returns all recorded events in publication order.
func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.published...)
}

// EventsFor returns the recorded events addressed to the given user.
func (p *RecordingPublisher) EventsFor(userID uuid.UUID) []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result []PublishedEvent
	for _, e := range p.published {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	return result
}
