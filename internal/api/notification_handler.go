package api

import (
	"log/slog"
	"net/http"

	"github.com/taskhive/taskhive-api/internal/api/middleware"
	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/service"
)

// NotificationHandler handles notification inbox requests.
type NotificationHandler struct {
	notifications service.NotificationService
	logger        *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications service.NotificationService, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger.With("component", "notification_handler"),
	}
}

// List handles GET /notifications. It returns the authenticated user's
// notifications, newest-first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	notifications, err := h.notifications.ListForUser(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to list notifications", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, notifications)
}

// MarkAllRead handles POST /notifications/read. It marks every unread
// notification of the authenticated user as read and reports the count.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	updated, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to mark notifications read", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]int64{"updated": updated})
}
