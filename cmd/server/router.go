package main

import (
	"net/http"

	"github.com/fieldops/workforce-api/internal/api"
	apiMiddleware "github.com/fieldops/workforce-api/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	taskHandler := api.NewTaskHandler(app.lifecycleService, app.queryService, app.logger)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.CreateTasks)
			r.Post("/update", taskHandler.UpdateTasks)
			r.Post("/assign-by-reference", taskHandler.AssignByReference)
			r.Post("/fetch-by-date", taskHandler.FetchByWindow)
			r.Post("/fetch-due-by", taskHandler.FetchDueBy)
			r.Get("/priority/{priority}", taskHandler.FetchByPriority)
			r.Get("/{id}", taskHandler.GetTask)
			r.Patch("/{id}/priority", taskHandler.UpdatePriority)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
