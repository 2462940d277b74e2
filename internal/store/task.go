package store

import (
	"context"
	"database/sql"

	"github.com/fieldops/workforce-api/internal/domain"
	"github.com/google/uuid"
)

// TaskStore defines the interface for task data persistence.
//
// The lifecycle engine only requires a key-addressable store with range
// and predicate scans: lookup by ID, scan by reference, scan by assignee
// set, scan by priority, and upsert. Anything beyond that (indexes,
// transactional batching) is an implementation concern.
type TaskStore interface {
	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByReference retrieves all tasks for the given
	// (reference ID, reference type) pair, regardless of status or type.
	// Results are ordered by creation time, oldest first.
	ListByReference(
		ctx context.Context,
		referenceID int64,
		referenceType domain.ReferenceType,
	) ([]*domain.Task, error)

	// ListByAssignees retrieves all tasks owned by any of the given
	// assignees, regardless of status. An empty assignee set yields an
	// empty result.
	ListByAssignees(ctx context.Context, assigneeIDs []int64) ([]*domain.Task, error)

	// ListByPriority retrieves all tasks at the given priority,
	// regardless of status.
	ListByPriority(ctx context.Context, priority domain.Priority) ([]*domain.Task, error)

	// Save upserts a single task. The task must be valid according to
	// domain validation rules.
	Save(ctx context.Context, task *domain.Task) error

	// SaveAll upserts the given tasks as one unit. Implementations backed
	// by a transactional store MUST make this atomic; the lifecycle engine
	// relies on it to persist a cancel-then-create pair together.
	SaveAll(ctx context.Context, tasks []*domain.Task) error

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
