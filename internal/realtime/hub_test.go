package realtime_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/events"
	"github.com/taskhive/taskhive-api/internal/realtime"
	"github.com/taskhive/taskhive-api/internal/service/auth"
)

const testSecret = "realtime-test-secret-key-long-enough!!"

type hubFixture struct {
	hub    *realtime.Hub
	jwt    auth.JWTService
	server *httptest.Server
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()

	hub := realtime.NewHub(slog.Default())
	jwtService := auth.NewTestJWTService(testSecret, 15*time.Minute, time.Now)
	handler := realtime.NewHandler(hub, jwtService, slog.Default(), func(*http.Request) bool { return true })

	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})

	return &hubFixture{hub: hub, jwt: jwtService, server: server}
}

func (f *hubFixture) dial(t *testing.T, userID uuid.UUID) *websocket.Conn {
	t.Helper()

	token, err := f.jwt.GenerateToken(context.Background(), userID, domain.RoleUser)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConnections(t *testing.T, hub *realtime.Hub, userID uuid.UUID, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ConnectionCount(userID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("user %s never reached %d connections", userID, want)
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event events.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestHubDeliversToAllUserConnections(t *testing.T) {
	f := newHubFixture(t)

	userA := uuid.New()
	userB := uuid.New()

	connA1 := f.dial(t, userA)
	connA2 := f.dial(t, userA)
	connB := f.dial(t, userB)

	waitForConnections(t, f.hub, userA, 2)
	waitForConnections(t, f.hub, userB, 1)

	f.hub.PublishToUser(context.Background(), userA, events.Event{
		Name: events.TaskUpdated,
		Data: map[string]string{"id": "t1"},
	})

	// Both of A's connections receive the event.
	for _, conn := range []*websocket.Conn{connA1, connA2} {
		event := readEvent(t, conn)
		assert.Equal(t, events.TaskUpdated, event.Name)
	}

	// B's connection stays silent.
	require.NoError(t, connB.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var event events.Event
	err := connB.ReadJSON(&event)
	assert.Error(t, err, "user B must not receive user A's events")
}

func TestHubRejectsMissingOrInvalidToken(t *testing.T) {
	f := newHubFixture(t)

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?token=garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestHubPrunesClosedConnections(t *testing.T) {
	f := newHubFixture(t)

	userID := uuid.New()
	conn := f.dial(t, userID)
	waitForConnections(t, f.hub, userID, 1)

	require.NoError(t, conn.Close())
	waitForConnections(t, f.hub, userID, 0)

	// Publishing to a user with no connections is a harmless no-op.
	f.hub.PublishToUser(context.Background(), userID, events.Event{Name: events.TaskDeleted})
}

func TestHubPublishAfterCloseIsNoop(t *testing.T) {
	hub := realtime.NewHub(slog.Default())
	hub.Close()
	hub.PublishToUser(context.Background(), uuid.New(), events.Event{Name: events.TaskCreated})
}
