package api_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldops/workforce-api/internal/api"
	"github.com/fieldops/workforce-api/internal/domain"
	"github.com/fieldops/workforce-api/internal/service"
	"github.com/fieldops/workforce-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"service not found", service.ErrTaskNotFound, http.StatusNotFound},
		{"store not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"illegal transition", domain.ErrIllegalTransition, http.StatusBadRequest},
		{"invalid task type", domain.ErrInvalidTaskType, http.StatusBadRequest},
		{"invalid priority", domain.ErrInvalidPriority, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, api.MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Run("known errors get specific messages", func(t *testing.T) {
		assert.Equal(t, "Task not found", api.GetSafeErrorMessage(service.ErrTaskNotFound))
		assert.Equal(t, "Illegal status transition",
			api.GetSafeErrorMessage(domain.ErrIllegalTransition))
	})

	t.Run("unknown errors never leak details", func(t *testing.T) {
		msg := api.GetSafeErrorMessage(errors.New("pq: connection refused on 10.0.0.3"))
		assert.Equal(t, "An unexpected error occurred", msg)
	})

	t.Run("wrapped errors are unwrapped", func(t *testing.T) {
		wrapped := service.NewTaskServiceError("update_tasks", "failed to update status",
			domain.ErrIllegalTransition)
		assert.Equal(t, "Illegal status transition", api.GetSafeErrorMessage(wrapped))
	})
}

func TestValidationErrorMap(t *testing.T) {
	t.Run("non-validator error yields a generic entry", func(t *testing.T) {
		fields := api.ValidationErrorMap(errors.New("boom"))
		assert.Equal(t, map[string]string{"request": "invalid request"}, fields)
	})
}
