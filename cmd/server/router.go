package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taskhive/taskhive-api/internal/api"
	apiMiddleware "github.com/taskhive/taskhive-api/internal/api/middleware"
	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/realtime"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		app.googleVerifier,
		app.logger,
	)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	notificationHandler := api.NewNotificationHandler(app.notificationService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	// The websocket endpoint authenticates on its own (handshake token), so
	// it sits outside the bearer middleware.
	wsHandler := realtime.NewHandler(app.hub, app.jwtService, app.logger, nil)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		shared.RespondWithJSON(w, req, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/refresh", authHandler.Refresh)
	r.Post("/auth/google", authHandler.GoogleLogin)

	r.Handle("/ws", wsHandler)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/auth/me", authHandler.Me)
		r.Put("/auth/profile/avatar", authHandler.UpdateAvatar)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Get("/{id}", taskHandler.Get)
			r.Put("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
			r.Post("/{id}/comments", taskHandler.AddComment)
		})

		r.Get("/notifications", notificationHandler.List)
		r.Post("/notifications/read", notificationHandler.MarkAllRead)
	})

	return r
}
