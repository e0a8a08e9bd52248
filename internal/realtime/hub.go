// Package realtime implements the websocket gateway: an explicit registry
// mapping user IDs to their active connections, and an HTTP handler that
// authenticates handshakes and upgrades them. The hub is the concrete
// events.Publisher injected into the services and the lifecycle sweeper.
package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/events"
)

// sendBufferSize is the per-connection event buffer. A consumer that falls
// this far behind is disconnected rather than allowed to block publishers.
const sendBufferSize = 32

// Hub maintains the user-to-connections registry, rebuilt on every connect
// and disconnect. A user may hold any number of concurrent connections; each
// receives every event published to that user.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[*session]struct{}
	closed   bool
	logger   *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions: make(map[uuid.UUID]map[*session]struct{}),
		logger:   logger.With("component", "realtime_hub"),
	}
}

// Ensure Hub implements events.Publisher
var _ events.Publisher = (*Hub)(nil)

// PublishToUser implements events.Publisher. Delivery to each connection is
// non-blocking: a session whose buffer is full is closed and pruned.
func (h *Hub) PublishToUser(ctx context.Context, userID uuid.UUID, event events.Event) {
	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions[userID]))
	for s := range h.sessions[userID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	for _, s := range targets {
		select {
		case <-s.done:
			// Session is tearing down; skip it.
		case s.send <- event:
		default:
			h.logger.Warn("dropping slow realtime consumer",
				"user_id", userID,
				"event", event.Name)
			s.close()
		}
	}

	h.logger.Debug("event published",
		"user_id", userID,
		"event", event.Name,
		"connections", len(targets))
}

// ConnectionCount returns the number of active connections for the user.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// Close disconnects every session. Used during graceful shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*session
	for _, set := range h.sessions {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}

func (h *Hub) register(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.sessions[s.userID]
	if !ok {
		set = make(map[*session]struct{})
		h.sessions[s.userID] = set
	}
	set[s] = struct{}{}
	h.logger.Debug("client connected",
		"user_id", s.userID,
		"connections", len(set))
	return true
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[s.userID]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.sessions, s.userID)
	}
	h.logger.Debug("client disconnected",
		"user_id", s.userID,
		"connections", len(set))
}
