package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusAssigned  TaskStatus = "assigned"
	TaskStatusStarted   TaskStatus = "started"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Priority classifies a task independently of its status. It is mutable
// at any point in the task's lifecycle.
type Priority string

// Possible priority values.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// DefaultDescription is set on every newly created task until a caller
// overwrites it explicitly.
const DefaultDescription = "New task created."

// Task-specific validation errors.
var (
	ErrTaskIDEmpty          = errors.New("task ID cannot be empty")
	ErrTaskReferenceIDEmpty = errors.New("task reference ID cannot be empty")
	ErrTaskAssigneeIDEmpty  = errors.New("task assignee ID cannot be empty")
)

// TaskActivity is a single entry in a task's append-only activity log.
type TaskActivity struct {
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	ActorID     int64     `json:"actor_id,omitempty"`
}

// Task represents a unit of work performed against an external business
// object (a "reference") by a human assignee. For a given
// (ReferenceID, ReferenceType, Type) triple at most one task may be in an
// active status (assigned or started) at any time; superseded tasks are
// soft-cancelled and kept as history.
type Task struct {
	ID            uuid.UUID      `json:"id"`
	ReferenceID   int64          `json:"reference_id"`
	ReferenceType ReferenceType  `json:"reference_type"`
	Type          TaskType       `json:"task_type"`
	AssigneeID    int64          `json:"assignee_id"`
	Status        TaskStatus     `json:"status"`
	Priority      Priority       `json:"priority"`
	DeadlineAt    time.Time      `json:"deadline_at"`
	Description   string         `json:"description"`
	Activity      []TaskActivity `json:"activity,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewTask creates a new Task in the assigned status with the default
// description and a freshly generated ID. The creation is recorded as the
// first activity log entry. Returns an error if validation fails.
func NewTask(
	referenceID int64,
	referenceType ReferenceType,
	taskType TaskType,
	assigneeID int64,
	priority Priority,
	deadlineAt time.Time,
	actorID int64,
) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:            uuid.New(),
		ReferenceID:   referenceID,
		ReferenceType: referenceType,
		Type:          taskType,
		AssigneeID:    assigneeID,
		Status:        TaskStatusAssigned,
		Priority:      priority,
		DeadlineAt:    deadlineAt,
		Description:   DefaultDescription,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	task.appendActivity(fmt.Sprintf("Task created and assigned to user %d.", assigneeID), actorID)
	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.ReferenceID == 0 {
		return ErrTaskReferenceIDEmpty
	}

	if !t.ReferenceType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidReferenceType, t.ReferenceType)
	}

	if !t.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTaskType, t.Type)
	}

	if t.AssigneeID == 0 {
		return ErrTaskAssigneeIDEmpty
	}

	if !isValidTaskStatus(t.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidTaskStatus, t.Status)
	}

	if t.Priority != "" && !isValidPriority(t.Priority) {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}

	return nil
}

// IsActive reports whether the task counts against the single-active-task
// invariant, i.e. it is assigned or started.
func (t *Task) IsActive() bool {
	return t.Status == TaskStatusAssigned || t.Status == TaskStatusStarted
}

// IsOpen reports whether the task may still be superseded. Completed tasks
// are protected from implicit cancellation; everything else is open.
func (t *Task) IsOpen() bool {
	return t.Status != TaskStatusCompleted
}

// UpdateStatus moves the task to the given status through the transition
// table. Setting the current status again is a no-op. Returns
// ErrIllegalTransition if the target is not reachable from the current state.
func (t *Task) UpdateStatus(status TaskStatus, actorID int64) error {
	if !isValidTaskStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidTaskStatus, status)
	}

	if status == t.Status {
		return nil
	}

	if !CanTransition(t.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, t.Status, status)
	}

	t.Status = status
	t.touch()
	t.appendActivity(fmt.Sprintf("Status changed to %s.", status), actorID)
	return nil
}

// Supersede cancels the task because a newer task of the same
// (reference, type) key replaces it. Completed tasks are never superseded;
// callers must check IsOpen first.
func (t *Task) Supersede(actorID int64) {
	if t.Status == TaskStatusCancelled {
		return
	}

	t.Status = TaskStatusCancelled
	t.touch()
	t.appendActivity("Task cancelled: superseded by a newer task.", actorID)
}

// UpdateDescription overwrites the free-text description.
func (t *Task) UpdateDescription(description string, actorID int64) {
	t.Description = description
	t.touch()
	t.appendActivity("Description updated.", actorID)
}

// UpdatePriority overwrites the priority classification. There is no
// status precondition; cancelled and completed tasks can be reprioritised.
func (t *Task) UpdatePriority(priority Priority, actorID int64) error {
	if !isValidPriority(priority) {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	t.Priority = priority
	t.touch()
	t.appendActivity(fmt.Sprintf("Priority changed to %s.", priority), actorID)
	return nil
}

// AddComment appends a free-form note to the activity log without
// changing any other field.
func (t *Task) AddComment(comment string, actorID int64) {
	t.touch()
	t.appendActivity(comment, actorID)
}

func (t *Task) appendActivity(description string, actorID int64) {
	t.Activity = append(t.Activity, TaskActivity{
		Description: description,
		Timestamp:   time.Now().UTC(),
		ActorID:     actorID,
	})
}

func (t *Task) touch() {
	t.UpdatedAt = time.Now().UTC()
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusAssigned, TaskStatusStarted, TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// isValidPriority checks if the given priority is a valid Priority.
func isValidPriority(priority Priority) bool {
	switch priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// ParseTaskStatus converts a wire value into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !isValidTaskStatus(status) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskStatus, s)
	}
	return status, nil
}

// ParsePriority converts a wire value into a Priority.
func ParsePriority(s string) (Priority, error) {
	priority := Priority(s)
	if !isValidPriority(priority) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return priority, nil
}
