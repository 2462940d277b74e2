package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldops/workforce-api/internal/domain"
)

// TaskQueryService answers window, due-by and priority queries over task
// records. Each query applies deliberately different filtering rules; see
// the method comments before "fixing" any of them.
type TaskQueryService interface {
	// FetchByWindow returns the assignees' tasks whose status is not
	// cancelled and whose deadline lies in [start, end] inclusive.
	FetchByWindow(
		ctx context.Context,
		assigneeIDs []int64,
		start, end time.Time,
	) ([]*domain.Task, error)

	// FetchDueBy returns the assignees' tasks that are still active
	// (assigned or started) and due on or before end. Tasks that started
	// before the window but are still open are deliberately included:
	// without a distinct start-time field on the entity they cannot be
	// told apart from tasks that both started and are due in the window,
	// so the policy folds both into "active and due by end".
	FetchDueBy(ctx context.Context, assigneeIDs []int64, end time.Time) ([]*domain.Task, error)

	// FetchByPriority returns all tasks at the given priority with no
	// status filter: cancelled and completed tasks are included.
	FetchByPriority(ctx context.Context, priority domain.Priority) ([]*domain.Task, error)
}

// taskQueryServiceImpl implements the TaskQueryService interface
type taskQueryServiceImpl struct {
	taskRepo TaskRepository
	logger   *slog.Logger
}

// NewTaskQueryService creates a new TaskQueryService.
// It returns an error if the repository is nil.
func NewTaskQueryService(taskRepo TaskRepository, logger *slog.Logger) (TaskQueryService, error) {
	if taskRepo == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "taskRepo cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskQueryServiceImpl{
		taskRepo: taskRepo,
		logger:   logger.With("component", "task_query_service"),
	}, nil
}

// FetchByWindow implements TaskQueryService.FetchByWindow.
func (s *taskQueryServiceImpl) FetchByWindow(
	ctx context.Context,
	assigneeIDs []int64,
	start, end time.Time,
) ([]*domain.Task, error) {
	tasks, err := s.taskRepo.ListByAssignees(ctx, assigneeIDs)
	if err != nil {
		return nil, NewTaskServiceError("fetch_by_window", "failed to list tasks", err)
	}

	filtered := make([]*domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Status == domain.TaskStatusCancelled {
			continue
		}
		// Window bounds are inclusive on both ends.
		if task.DeadlineAt.Before(start) || task.DeadlineAt.After(end) {
			continue
		}
		filtered = append(filtered, task)
	}

	s.logger.Debug("window fetch",
		"assignee_count", len(assigneeIDs),
		"total", len(tasks),
		"matched", len(filtered))
	return filtered, nil
}

// FetchDueBy implements TaskQueryService.FetchDueBy.
func (s *taskQueryServiceImpl) FetchDueBy(
	ctx context.Context,
	assigneeIDs []int64,
	end time.Time,
) ([]*domain.Task, error) {
	tasks, err := s.taskRepo.ListByAssignees(ctx, assigneeIDs)
	if err != nil {
		return nil, NewTaskServiceError("fetch_due_by", "failed to list tasks", err)
	}

	filtered := make([]*domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if !task.IsActive() {
			continue
		}
		if task.DeadlineAt.After(end) {
			continue
		}
		filtered = append(filtered, task)
	}

	return filtered, nil
}

// FetchByPriority implements TaskQueryService.FetchByPriority.
func (s *taskQueryServiceImpl) FetchByPriority(
	ctx context.Context,
	priority domain.Priority,
) ([]*domain.Task, error) {
	tasks, err := s.taskRepo.ListByPriority(ctx, priority)
	if err != nil {
		return nil, NewTaskServiceError("fetch_by_priority", "failed to list tasks", err)
	}
	return tasks, nil
}
