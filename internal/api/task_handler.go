package api

import (
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/fieldops/workforce-api/internal/api/shared"
	"github.com/fieldops/workforce-api/internal/domain"
	"github.com/fieldops/workforce-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	lifecycle service.TaskLifecycleService
	queries   service.TaskQueryService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(
	lifecycle service.TaskLifecycleService,
	queries service.TaskQueryService,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	// Report field errors under their JSON names so the per-field error
	// map matches the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &TaskHandler{
		lifecycle: lifecycle,
		queries:   queries,
		validator: v,
		logger:    logger.With("component", "task_handler"),
	}
}

// GetTask handles GET /api/tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.lifecycle.GetTask(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// CreateTasks handles POST /api/tasks requests.
func (h *TaskHandler) CreateTasks(w http.ResponseWriter, r *http.Request) {
	var req CreateTasksRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, ValidationErrorMap(err))
		return
	}

	items := make([]service.CreateTaskParams, 0, len(req.Requests))
	for _, item := range req.Requests {
		items = append(items, service.CreateTaskParams{
			ReferenceID:   item.ReferenceID,
			ReferenceType: domain.ReferenceType(item.ReferenceType),
			TaskType:      domain.TaskType(item.TaskType),
			AssigneeID:    item.AssigneeID,
			Priority:      domain.Priority(item.Priority),
			DeadlineAt:    item.DeadlineAt,
			PerformedBy:   req.PerformedBy,
		})
	}

	created, err := h.lifecycle.CreateTasks(r.Context(), items)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, tasksToResponse(created))
}

// UpdateTasks handles POST /api/tasks/update requests.
func (h *TaskHandler) UpdateTasks(w http.ResponseWriter, r *http.Request) {
	var req UpdateTasksRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, ValidationErrorMap(err))
		return
	}

	items := make([]service.UpdateTaskParams, 0, len(req.Requests))
	for _, item := range req.Requests {
		taskID, err := uuid.Parse(item.TaskID)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
			return
		}

		params := service.UpdateTaskParams{
			TaskID:      taskID,
			Description: item.Description,
			PerformedBy: req.PerformedBy,
		}
		if item.TaskStatus != nil {
			status := domain.TaskStatus(*item.TaskStatus)
			params.Status = &status
		}
		items = append(items, params)
	}

	updated, err := h.lifecycle.UpdateTasks(r.Context(), items)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(updated))
}

// AssignByReference handles POST /api/tasks/assign-by-reference requests.
func (h *TaskHandler) AssignByReference(w http.ResponseWriter, r *http.Request) {
	var req AssignByReferenceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, ValidationErrorMap(err))
		return
	}

	message, err := h.lifecycle.AssignByReference(r.Context(), service.AssignByReferenceParams{
		ReferenceID:   req.ReferenceID,
		ReferenceType: domain.ReferenceType(req.ReferenceType),
		AssigneeID:    req.AssigneeID,
		PerformedBy:   req.PerformedBy,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: message})
}

// FetchByWindow handles POST /api/tasks/fetch-by-date requests.
func (h *TaskHandler) FetchByWindow(w http.ResponseWriter, r *http.Request) {
	var req FetchByDateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, ValidationErrorMap(err))
		return
	}

	tasks, err := h.queries.FetchByWindow(r.Context(), req.AssigneeIDs, req.StartDate, req.EndDate)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// FetchDueBy handles POST /api/tasks/fetch-due-by requests.
func (h *TaskHandler) FetchDueBy(w http.ResponseWriter, r *http.Request) {
	var req FetchByDateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, ValidationErrorMap(err))
		return
	}

	tasks, err := h.queries.FetchDueBy(r.Context(), req.AssigneeIDs, req.EndDate)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// UpdatePriority handles PATCH /api/tasks/{id}/priority requests.
func (h *TaskHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req UpdatePriorityRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, ValidationErrorMap(err))
		return
	}

	_, err = h.lifecycle.UpdateTaskPriority(
		r.Context(), id, domain.Priority(req.Priority), req.PerformedBy)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK,
		MessageResponse{Message: "Task priority updated successfully"})
}

// FetchByPriority handles GET /api/tasks/priority/{priority} requests.
func (h *TaskHandler) FetchByPriority(w http.ResponseWriter, r *http.Request) {
	priority, err := domain.ParsePriority(chi.URLParam(r, "priority"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid priority")
		return
	}

	tasks, err := h.queries.FetchByPriority(r.Context(), priority)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}
