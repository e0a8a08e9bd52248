package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/taskhive/taskhive-api/internal/events"
)

const (
	// writeWait is the deadline for writing a single frame.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before it is
	// considered dead.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait so pings keep the read
	// deadline alive.
	pingPeriod = 50 * time.Second
)

// session is one websocket connection bound to an authenticated user.
// The send channel is never closed; done signals teardown so publishers can
// never hit a closed channel.
type session struct {
	hub       *Hub
	conn      *websocket.Conn
	userID    uuid.UUID
	send      chan events.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *session {
	return &session{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan events.Event, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// close tears the connection down exactly once. Closing done stops the write
// pump; closing the conn unblocks the read pump.
func (s *session) close() {
	s.closeOnce.Do(func() {
		s.hub.unregister(s)
		close(s.done)
		_ = s.conn.Close()
	})
}

// writePump serializes all writes to the connection: queued events and
// keepalive pings.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case event := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains and discards inbound frames; the protocol is push-only.
// It exists to process control frames and to detect closed connections.
func (s *session) readPump() {
	defer s.close()

	s.conn.SetReadLimit(1024)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
