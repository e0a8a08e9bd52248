package realtime

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/service/auth"
)

// Handler authenticates websocket handshakes and hands upgraded connections
// to the hub.
type Handler struct {
	hub        *Hub
	jwtService auth.JWTService
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates a new websocket Handler.
// checkOrigin, when non-nil, overrides the upgrader's origin policy (the
// server wires the configured client origin here; tests allow everything).
func NewHandler(hub *Hub, jwtService auth.JWTService, logger *slog.Logger, checkOrigin func(*http.Request) bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		hub:        hub,
		jwtService: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger.With("component", "realtime_handler"),
	}
}

// ServeHTTP implements http.Handler. The access token comes from the token
// query parameter or a bearer Authorization header; the connection is
// registered under the authenticated user's ID.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication token required")
		return
	}

	claims, err := h.jwtService.ValidateToken(r.Context(), token)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	s := newSession(h.hub, conn, claims.UserID)
	if !h.hub.register(s) {
		// Hub is shutting down.
		_ = conn.Close()
		return
	}

	go s.writePump()
	go s.readPump()
}

func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
