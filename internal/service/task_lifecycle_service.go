package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldops/workforce-api/internal/domain"
	"github.com/google/uuid"
)

// TaskRepository defines the repository interface for the task services.
// This is aligned with store.TaskStore so any store implementation
// satisfies it directly.
type TaskRepository interface {
	// GetByID retrieves a task by its unique ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByReference retrieves all tasks for a (reference ID, reference type) pair
	ListByReference(
		ctx context.Context,
		referenceID int64,
		referenceType domain.ReferenceType,
	) ([]*domain.Task, error)

	// ListByAssignees retrieves all tasks owned by any of the given assignees
	ListByAssignees(ctx context.Context, assigneeIDs []int64) ([]*domain.Task, error)

	// ListByPriority retrieves all tasks at the given priority
	ListByPriority(ctx context.Context, priority domain.Priority) ([]*domain.Task, error)

	// Save upserts a single task
	Save(ctx context.Context, task *domain.Task) error

	// SaveAll upserts the given tasks as one unit
	SaveAll(ctx context.Context, tasks []*domain.Task) error
}

// CreateTaskParams describes one item of a create batch.
type CreateTaskParams struct {
	ReferenceID   int64
	ReferenceType domain.ReferenceType
	TaskType      domain.TaskType
	AssigneeID    int64
	Priority      domain.Priority
	DeadlineAt    time.Time
	PerformedBy   int64
}

// UpdateTaskParams describes one item of an update batch. Nil fields are
// left unchanged.
type UpdateTaskParams struct {
	TaskID      uuid.UUID
	Status      *domain.TaskStatus
	Description *string
	PerformedBy int64
}

// AssignByReferenceParams describes a reassignment of every applicable
// task type of a reference to a new assignee.
type AssignByReferenceParams struct {
	ReferenceID   int64
	ReferenceType domain.ReferenceType
	AssigneeID    int64
	PerformedBy   int64
}

// TaskLifecycleService owns creation, supersession and direct mutation of
// task records. It enforces the single-active-task-per-type invariant:
// for a (reference ID, reference type, task type) triple at most one task
// is assigned or started at any time.
type TaskLifecycleService interface {
	// GetTask retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// CreateTasks processes the batch sequentially: for each item, open
	// tasks of the same (reference, type) key are cancelled and one new
	// assigned task is created. A failing item halts the remainder of
	// the batch; earlier items are not rolled back.
	// Returns the created tasks in request order.
	CreateTasks(ctx context.Context, items []CreateTaskParams) ([]*domain.Task, error)

	// UpdateTasks processes the batch sequentially: for each item, the
	// task is loaded by ID and the supplied status and/or description
	// are applied. Status changes go through the transition table.
	// Returns the updated tasks in request order.
	UpdateTasks(ctx context.Context, items []UpdateTaskParams) ([]*domain.Task, error)

	// AssignByReference cancels every open task of every applicable task
	// type of the reference and creates one fresh assigned task per type
	// for the new assignee, even for types that had no open task.
	// Returns a confirmation message.
	AssignByReference(ctx context.Context, params AssignByReferenceParams) (string, error)

	// UpdateTaskPriority overwrites the task's priority. There is no
	// status precondition.
	UpdateTaskPriority(
		ctx context.Context,
		taskID uuid.UUID,
		priority domain.Priority,
		performedBy int64,
	) (*domain.Task, error)
}

// taskLifecycleServiceImpl implements the TaskLifecycleService interface
type taskLifecycleServiceImpl struct {
	taskRepo TaskRepository
	catalog  *domain.Catalog
	refLocks *keyedMutex
	logger   *slog.Logger
}

// NewTaskLifecycleService creates a new TaskLifecycleService.
// It returns an error if any of the required dependencies are nil.
func NewTaskLifecycleService(
	taskRepo TaskRepository,
	catalog *domain.Catalog,
	logger *slog.Logger,
) (TaskLifecycleService, error) {
	if taskRepo == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "taskRepo cannot be nil",
		}
	}
	if catalog == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "catalog cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskLifecycleServiceImpl{
		taskRepo: taskRepo,
		catalog:  catalog,
		refLocks: newKeyedMutex(),
		logger:   logger.With("component", "task_lifecycle_service"),
	}, nil
}

// GetTask retrieves a single task by ID.
func (s *taskLifecycleServiceImpl) GetTask(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("get_task", "failed to load task", err)
	}
	return task, nil
}

// CreateTasks implements TaskLifecycleService.CreateTasks.
func (s *taskLifecycleServiceImpl) CreateTasks(
	ctx context.Context,
	items []CreateTaskParams,
) ([]*domain.Task, error) {
	created := make([]*domain.Task, 0, len(items))

	for i, item := range items {
		task, err := s.createOne(ctx, item)
		if err != nil {
			s.logger.Error("create batch halted",
				"error", err,
				"item_index", i,
				"reference_id", item.ReferenceID,
				"task_type", item.TaskType)
			return nil, err
		}
		created = append(created, task)
	}

	return created, nil
}

// createOne cancels any open task sharing the item's (reference, type)
// key and creates the replacement, persisting both together. The whole
// sequence runs under the per-reference lock.
func (s *taskLifecycleServiceImpl) createOne(
	ctx context.Context,
	item CreateTaskParams,
) (*domain.Task, error) {
	if !s.isApplicable(item.ReferenceType, item.TaskType) {
		return nil, NewTaskServiceError("create_tasks", "task type not applicable",
			fmt.Errorf("%w: %s for reference type %s",
				domain.ErrInvalidTaskType, item.TaskType, item.ReferenceType))
	}

	unlock := s.refLocks.Lock(referenceKey(item.ReferenceID, item.ReferenceType))
	defer unlock()

	existing, err := s.taskRepo.ListByReference(ctx, item.ReferenceID, item.ReferenceType)
	if err != nil {
		return nil, NewTaskServiceError("create_tasks", "failed to list existing tasks", err)
	}

	// Cancel open tasks of the same type before creating the replacement.
	// Completed tasks stay untouched.
	batch := supersedeOpenTasks(existing, item.TaskType, item.PerformedBy)

	task, err := domain.NewTask(
		item.ReferenceID,
		item.ReferenceType,
		item.TaskType,
		item.AssigneeID,
		item.Priority,
		item.DeadlineAt,
		item.PerformedBy,
	)
	if err != nil {
		return nil, NewTaskServiceError("create_tasks", "failed to build task", err)
	}
	batch = append(batch, task)

	if err := s.taskRepo.SaveAll(ctx, batch); err != nil {
		return nil, NewTaskServiceError("create_tasks", "failed to persist tasks", err)
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"reference_id", task.ReferenceID,
		"reference_type", task.ReferenceType,
		"task_type", task.Type,
		"assignee_id", task.AssigneeID,
		"superseded_count", len(batch)-1)
	return task, nil
}

// UpdateTasks implements TaskLifecycleService.UpdateTasks.
func (s *taskLifecycleServiceImpl) UpdateTasks(
	ctx context.Context,
	items []UpdateTaskParams,
) ([]*domain.Task, error) {
	updated := make([]*domain.Task, 0, len(items))

	for _, item := range items {
		task, err := s.taskRepo.GetByID(ctx, item.TaskID)
		if err != nil {
			return nil, NewTaskServiceError("update_tasks", "failed to load task", err)
		}

		if item.Status != nil {
			if err := task.UpdateStatus(*item.Status, item.PerformedBy); err != nil {
				return nil, NewTaskServiceError("update_tasks", "failed to update status", err)
			}
		}
		if item.Description != nil {
			task.UpdateDescription(*item.Description, item.PerformedBy)
		}

		if err := s.taskRepo.Save(ctx, task); err != nil {
			return nil, NewTaskServiceError("update_tasks", "failed to persist task", err)
		}
		updated = append(updated, task)
	}

	return updated, nil
}

// AssignByReference implements TaskLifecycleService.AssignByReference.
func (s *taskLifecycleServiceImpl) AssignByReference(
	ctx context.Context,
	params AssignByReferenceParams,
) (string, error) {
	applicable := s.catalog.ApplicableTaskTypes(params.ReferenceType)
	if len(applicable) == 0 {
		return "", NewTaskServiceError("assign_by_reference", "unknown reference type",
			fmt.Errorf("%w: %q", domain.ErrInvalidReferenceType, params.ReferenceType))
	}

	unlock := s.refLocks.Lock(referenceKey(params.ReferenceID, params.ReferenceType))
	defer unlock()

	existing, err := s.taskRepo.ListByReference(ctx, params.ReferenceID, params.ReferenceType)
	if err != nil {
		return "", NewTaskServiceError("assign_by_reference", "failed to list existing tasks", err)
	}

	// Reassignment is cancel-then-recreate per applicable type, in catalog
	// order. A replacement is created even when no open task existed.
	for _, taskType := range applicable {
		batch := supersedeOpenTasks(existing, taskType, params.PerformedBy)

		task, err := domain.NewTask(
			params.ReferenceID,
			params.ReferenceType,
			taskType,
			params.AssigneeID,
			"",
			time.Time{},
			params.PerformedBy,
		)
		if err != nil {
			return "", NewTaskServiceError("assign_by_reference", "failed to build task", err)
		}
		task.AddComment(
			fmt.Sprintf("Task reassigned to user %d.", params.AssigneeID),
			params.PerformedBy,
		)
		batch = append(batch, task)

		if err := s.taskRepo.SaveAll(ctx, batch); err != nil {
			return "", NewTaskServiceError("assign_by_reference", "failed to persist tasks", err)
		}

		s.logger.Info("task type reassigned",
			"reference_id", params.ReferenceID,
			"reference_type", params.ReferenceType,
			"task_type", taskType,
			"assignee_id", params.AssigneeID,
			"superseded_count", len(batch)-1)
	}

	return fmt.Sprintf("Tasks assigned successfully for reference %d", params.ReferenceID), nil
}

// UpdateTaskPriority implements TaskLifecycleService.UpdateTaskPriority.
func (s *taskLifecycleServiceImpl) UpdateTaskPriority(
	ctx context.Context,
	taskID uuid.UUID,
	priority domain.Priority,
	performedBy int64,
) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, NewTaskServiceError("update_priority", "failed to load task", err)
	}

	if err := task.UpdatePriority(priority, performedBy); err != nil {
		return nil, NewTaskServiceError("update_priority", "invalid priority", err)
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, NewTaskServiceError("update_priority", "failed to persist task", err)
	}

	return task, nil
}

// isApplicable reports whether the catalog lists the task type for the
// reference type.
func (s *taskLifecycleServiceImpl) isApplicable(
	refType domain.ReferenceType,
	taskType domain.TaskType,
) bool {
	for _, t := range s.catalog.ApplicableTaskTypes(refType) {
		if t == taskType {
			return true
		}
	}
	return false
}

// supersedeOpenTasks cancels every open (not completed, not already
// cancelled) task of the given type and returns the mutated tasks so the
// caller can persist them together with the replacement.
func supersedeOpenTasks(
	existing []*domain.Task,
	taskType domain.TaskType,
	actorID int64,
) []*domain.Task {
	var superseded []*domain.Task
	for _, old := range existing {
		if old.Type != taskType || !old.IsOpen() || old.Status == domain.TaskStatusCancelled {
			continue
		}
		old.Supersede(actorID)
		superseded = append(superseded, old)
	}
	return superseded
}
