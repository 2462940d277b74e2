// Package api contains the HTTP transport layer: request and response
// models, handlers and the error-to-status mapping.
package api

import (
	"time"

	"github.com/fieldops/workforce-api/internal/domain"
)

// CreateTaskItem is one element of a create batch.
type CreateTaskItem struct {
	ReferenceID   int64     `json:"reference_id"   validate:"required"`
	ReferenceType string    `json:"reference_type" validate:"required,oneof=order entity"`
	TaskType      string    `json:"task_type"      validate:"required"`
	AssigneeID    int64     `json:"assignee_id"    validate:"required"`
	Priority      string    `json:"priority"       validate:"omitempty,oneof=high medium low"`
	DeadlineAt    time.Time `json:"deadline_at"    validate:"required"`
}

// CreateTasksRequest is the body of POST /api/tasks.
type CreateTasksRequest struct {
	PerformedBy int64            `json:"performed_by" validate:"required"`
	Requests    []CreateTaskItem `json:"requests"     validate:"required,min=1,dive"`
}

// UpdateTaskItem is one element of an update batch. Nil fields are left
// unchanged.
type UpdateTaskItem struct {
	TaskID      string  `json:"task_id"     validate:"required,uuid"`
	TaskStatus  *string `json:"task_status" validate:"omitempty,oneof=assigned started completed cancelled"`
	Description *string `json:"description"`
}

// UpdateTasksRequest is the body of POST /api/tasks/update.
type UpdateTasksRequest struct {
	PerformedBy int64            `json:"performed_by" validate:"required"`
	Requests    []UpdateTaskItem `json:"requests"     validate:"required,min=1,dive"`
}

// AssignByReferenceRequest is the body of POST /api/tasks/assign-by-reference.
type AssignByReferenceRequest struct {
	PerformedBy   int64  `json:"performed_by"   validate:"required"`
	ReferenceID   int64  `json:"reference_id"   validate:"required"`
	ReferenceType string `json:"reference_type" validate:"required,oneof=order entity"`
	AssigneeID    int64  `json:"assignee_id"    validate:"required"`
}

// FetchByDateRequest is the body of the window and due-by fetches. The
// due-by fetch ignores StartDate.
type FetchByDateRequest struct {
	AssigneeIDs []int64   `json:"assignee_ids" validate:"required,min=1"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"     validate:"required"`
}

// UpdatePriorityRequest is the body of PATCH /api/tasks/{id}/priority.
type UpdatePriorityRequest struct {
	PerformedBy int64  `json:"performed_by" validate:"required"`
	Priority    string `json:"priority"     validate:"required,oneof=high medium low"`
}

// TaskActivityResponse is one activity log entry of a task.
type TaskActivityResponse struct {
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	ActorID     int64     `json:"actor_id,omitempty"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID            string                 `json:"id"`
	ReferenceID   int64                  `json:"reference_id"`
	ReferenceType string                 `json:"reference_type"`
	TaskType      string                 `json:"task_type"`
	AssigneeID    int64                  `json:"assignee_id"`
	Status        string                 `json:"status"`
	Priority      string                 `json:"priority,omitempty"`
	DeadlineAt    time.Time              `json:"deadline_at"`
	Description   string                 `json:"description"`
	Activity      []TaskActivityResponse `json:"activity,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// MessageResponse carries a confirmation message for operations that do
// not return records.
type MessageResponse struct {
	Message string `json:"message"`
}

// taskToResponse converts a domain.Task to a TaskResponse.
func taskToResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:            task.ID.String(),
		ReferenceID:   task.ReferenceID,
		ReferenceType: string(task.ReferenceType),
		TaskType:      string(task.Type),
		AssigneeID:    task.AssigneeID,
		Status:        string(task.Status),
		Priority:      string(task.Priority),
		DeadlineAt:    task.DeadlineAt,
		Description:   task.Description,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}

	for _, entry := range task.Activity {
		resp.Activity = append(resp.Activity, TaskActivityResponse{
			Description: entry.Description,
			Timestamp:   entry.Timestamp,
			ActorID:     entry.ActorID,
		})
	}

	return resp
}

// tasksToResponse converts a task slice, always yielding a non-nil slice
// so empty results serialize as [] rather than null.
func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskToResponse(task))
	}
	return out
}
