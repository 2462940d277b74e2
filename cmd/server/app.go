package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/fieldops/workforce-api/internal/config"
	"github.com/fieldops/workforce-api/internal/domain"
	"github.com/fieldops/workforce-api/internal/platform/memory"
	"github.com/fieldops/workforce-api/internal/platform/postgres"
	"github.com/fieldops/workforce-api/internal/service"
	"github.com/fieldops/workforce-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when the memory driver is configured.
	db *sql.DB

	taskStore store.TaskStore

	lifecycleService service.TaskLifecycleService
	queryService     service.TaskQueryService
}

// newApplication creates a new application instance with all dependencies
// initialized: database connection, migrations, stores and services.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("using in-memory task store; all data is lost on shutdown")
		app.taskStore = memory.NewMemoryTaskStore()
	default:
		db, err := setupAppDatabase(cfg, logger)
		if err != nil {
			return nil, err
		}
		app.db = db

		if err := runMigrations(db, logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	}

	catalog := domain.DefaultCatalog()

	var err error
	app.lifecycleService, err = service.NewTaskLifecycleService(app.taskStore, catalog, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize lifecycle service: %w", err)
	}

	app.queryService, err = service.NewTaskQueryService(app.taskStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize query service: %w", err)
	}

	logger.Info("application dependencies initialized")
	return app, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
