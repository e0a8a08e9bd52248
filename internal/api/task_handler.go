package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/api/middleware"
	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/store"
)

// TaskHandler handles task CRUD and comment requests.
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
		logger:      logger.With("component", "task_handler"),
	}
}

// List handles GET /tasks. Supported query parameters: status, priority,
// q (title substring), due_from, due_to (RFC 3339).
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter, err := taskFilterFromQuery(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.taskService.List(r.Context(), actor, filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to list tasks", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := taskIDFromURL(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.taskService.Get(r.Context(), actor, id)
	if err != nil {
		h.respondTaskError(w, r, err, "Failed to load task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	task, err := h.taskService.Create(r.Context(), actor, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		EndDate:     req.EndDate,
		AssignedTo:  req.AssignedTo,
		Subtasks:    req.Subtasks,
	})
	if err != nil {
		h.respondTaskError(w, r, err, "Failed to create task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// Update handles PUT /tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := taskIDFromURL(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	task, err := h.taskService.Update(r.Context(), actor, id, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		EndDate:     req.EndDate,
		AssignedTo:  req.AssignedTo,
		Subtasks:    req.Subtasks,
	})
	if err != nil {
		h.respondTaskError(w, r, err, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := taskIDFromURL(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := h.taskService.Delete(r.Context(), actor, id); err != nil {
		h.respondTaskError(w, r, err, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddComment handles POST /tasks/{id}/comments.
func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := taskIDFromURL(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req AddCommentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	task, err := h.taskService.AddComment(r.Context(), actor, id, req.Text)
	if err != nil {
		h.respondTaskError(w, r, err, "Failed to add comment")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// respondTaskError maps service and store errors to HTTP status codes.
func (h *TaskHandler) respondTaskError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case store.IsNotFoundError(err):
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
	case errors.Is(err, service.ErrForbidden):
		shared.RespondWithError(w, r, http.StatusForbidden, "You do not have access to this task")
	case errors.Is(err, service.ErrInvalidTransition):
		shared.RespondWithError(w, r, http.StatusConflict, "Invalid status transition")
	case errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
	default:
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, fallback, err)
	}
}

// taskIDFromURL parses the {id} route parameter.
func taskIDFromURL(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// taskFilterFromQuery builds a store.TaskFilter from the request query.
func taskFilterFromQuery(r *http.Request) (store.TaskFilter, error) {
	q := r.URL.Query()
	filter := store.TaskFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Query:    q.Get("q"),
	}

	if filter.Status != "" && !domain.ValidStatus(filter.Status) {
		return store.TaskFilter{}, domain.ErrInvalidStatus
	}
	if filter.Priority != "" && !domain.ValidPriority(filter.Priority) {
		return store.TaskFilter{}, domain.ErrInvalidPriority
	}

	if raw := q.Get("due_from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return store.TaskFilter{}, errors.New("due_from must be an RFC 3339 timestamp")
		}
		filter.DueFrom = &t
	}
	if raw := q.Get("due_to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return store.TaskFilter{}, errors.New("due_to must be an RFC 3339 timestamp")
		}
		filter.DueTo = &t
	}

	return filter, nil
}
