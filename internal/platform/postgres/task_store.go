// Package postgres provides PostgreSQL-backed implementations of the
// store interfaces.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fieldops/workforce-api/internal/domain"
	"github.com/fieldops/workforce-api/internal/platform/logger"
	"github.com/fieldops/workforce-api/internal/store"
	"github.com/google/uuid"
)

// taskColumns is the column list shared by every SELECT in this store.
const taskColumns = `id, reference_id, reference_type, task_type, assignee_id,
	status, priority, deadline_at, description, activity, created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// ListByReference implements store.TaskStore.ListByReference
// Results are ordered by creation time, oldest first.
func (s *PostgresTaskStore) ListByReference(
	ctx context.Context,
	referenceID int64,
	referenceType domain.ReferenceType,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE reference_id = $1 AND reference_type = $2
		ORDER BY created_at, id
	`, taskColumns)

	rows, err := s.db.QueryContext(ctx, query, referenceID, string(referenceType))
	if err != nil {
		log.Error("failed to list tasks by reference",
			slog.String("error", err.Error()),
			slog.Int64("reference_id", referenceID),
			slog.String("reference_type", string(referenceType)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

// ListByAssignees implements store.TaskStore.ListByAssignees
func (s *PostgresTaskStore) ListByAssignees(
	ctx context.Context,
	assigneeIDs []int64,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(assigneeIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE assignee_id = ANY($1)
		ORDER BY created_at, id
	`, taskColumns)

	rows, err := s.db.QueryContext(ctx, query, assigneeIDs)
	if err != nil {
		log.Error("failed to list tasks by assignees",
			slog.String("error", err.Error()),
			slog.Int("assignee_count", len(assigneeIDs)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

// ListByPriority implements store.TaskStore.ListByPriority
func (s *PostgresTaskStore) ListByPriority(
	ctx context.Context,
	priority domain.Priority,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE priority = $1
		ORDER BY created_at, id
	`, taskColumns)

	rows, err := s.db.QueryContext(ctx, query, string(priority))
	if err != nil {
		log.Error("failed to list tasks by priority",
			slog.String("error", err.Error()),
			slog.String("priority", string(priority)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

// Save implements store.TaskStore.Save
// It upserts the task, handling domain validation first.
func (s *PostgresTaskStore) Save(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during save",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	activity, err := json.Marshal(task.Activity)
	if err != nil {
		return fmt.Errorf("failed to marshal activity log: %w", err)
	}

	query := `
		INSERT INTO tasks (id, reference_id, reference_type, task_type, assignee_id,
			status, priority, deadline_at, description, activity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			assignee_id = EXCLUDED.assignee_id,
			status      = EXCLUDED.status,
			priority    = EXCLUDED.priority,
			deadline_at = EXCLUDED.deadline_at,
			description = EXCLUDED.description,
			activity    = EXCLUDED.activity,
			updated_at  = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.ReferenceID,
		string(task.ReferenceType),
		string(task.Type),
		task.AssigneeID,
		string(task.Status),
		nullableString(string(task.Priority)),
		task.DeadlineAt,
		task.Description,
		activity,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to save task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	log.Debug("task saved",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// SaveAll implements store.TaskStore.SaveAll
// When the store holds a plain connection the tasks are upserted inside a
// single transaction so a cancel-then-create pair is persisted together.
// When the store already operates on a transaction, the tasks are saved
// on that transaction directly.
func (s *PostgresTaskStore) SaveAll(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	if db, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			txStore := s.WithTx(tx)
			for _, task := range tasks {
				if err := txStore.Save(ctx, task); err != nil {
					return err
				}
			}
			return nil
		})
	}

	for _, task := range tasks {
		if err := s.Save(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads a single task row in taskColumns order.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task     domain.Task
		refType  string
		taskType string
		status   string
		priority sql.NullString
		activity []byte
	)

	err := row.Scan(
		&task.ID,
		&task.ReferenceID,
		&refType,
		&taskType,
		&task.AssigneeID,
		&status,
		&priority,
		&task.DeadlineAt,
		&task.Description,
		&activity,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.ReferenceType = domain.ReferenceType(refType)
	task.Type = domain.TaskType(taskType)
	task.Status = domain.TaskStatus(status)
	if priority.Valid {
		task.Priority = domain.Priority(priority.String)
	}

	if len(activity) > 0 {
		if err := json.Unmarshal(activity, &task.Activity); err != nil {
			return nil, fmt.Errorf("failed to unmarshal activity log: %w", err)
		}
	}

	return &task, nil
}

// collectTasks drains rows into a task slice.
func collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tasks, nil
}

// nullableString maps the empty string to SQL NULL. Tasks created by the
// assign-by-reference path carry no priority until one is set explicitly.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
