// Package memory provides an in-memory implementation of the store
// interfaces. It backs the test suites and the memory database driver
// used for local development.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/fieldops/workforce-api/internal/domain"
	"github.com/fieldops/workforce-api/internal/store"
	"github.com/google/uuid"
)

// MemoryTaskStore implements store.TaskStore with a mutex-guarded map.
// Tasks are deep-copied on the way in and out so callers can never
// mutate stored state without going through Save.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task
}

// NewMemoryTaskStore creates an empty in-memory task store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks: make(map[uuid.UUID]*domain.Task),
	}
}

// Ensure MemoryTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*MemoryTaskStore)(nil)

// GetByID implements store.TaskStore.GetByID
func (s *MemoryTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return copyTask(task), nil
}

// ListByReference implements store.TaskStore.ListByReference
func (s *MemoryTaskStore) ListByReference(
	ctx context.Context,
	referenceID int64,
	referenceType domain.ReferenceType,
) ([]*domain.Task, error) {
	return s.list(func(t *domain.Task) bool {
		return t.ReferenceID == referenceID && t.ReferenceType == referenceType
	}), nil
}

// ListByAssignees implements store.TaskStore.ListByAssignees
func (s *MemoryTaskStore) ListByAssignees(
	ctx context.Context,
	assigneeIDs []int64,
) ([]*domain.Task, error) {
	ids := make(map[int64]struct{}, len(assigneeIDs))
	for _, id := range assigneeIDs {
		ids[id] = struct{}{}
	}

	return s.list(func(t *domain.Task) bool {
		_, ok := ids[t.AssigneeID]
		return ok
	}), nil
}

// ListByPriority implements store.TaskStore.ListByPriority
func (s *MemoryTaskStore) ListByPriority(
	ctx context.Context,
	priority domain.Priority,
) ([]*domain.Task, error) {
	return s.list(func(t *domain.Task) bool {
		return t.Priority == priority
	}), nil
}

// Save implements store.TaskStore.Save
func (s *MemoryTaskStore) Save(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[task.ID] = copyTask(task)
	return nil
}

// SaveAll implements store.TaskStore.SaveAll
// All tasks are validated first, then stored under a single lock, so a
// cancel-then-create pair becomes visible together.
func (s *MemoryTaskStore) SaveAll(ctx context.Context, tasks []*domain.Task) error {
	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range tasks {
		s.tasks[task.ID] = copyTask(task)
	}
	return nil
}

// WithTx implements store.TaskStore.WithTx
// The memory store has no transactions; the same store is returned.
func (s *MemoryTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return s
}

// list returns copies of all tasks matching the predicate, ordered by
// creation time then ID for deterministic results.
func (s *MemoryTaskStore) list(match func(*domain.Task) bool) []*domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Task
	for _, task := range s.tasks {
		if match(task) {
			out = append(out, copyTask(task))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// copyTask returns a deep copy of the task, including its activity log.
func copyTask(task *domain.Task) *domain.Task {
	clone := *task
	if len(task.Activity) > 0 {
		clone.Activity = make([]domain.TaskActivity, len(task.Activity))
		copy(clone.Activity, task.Activity)
	}
	return &clone
}
