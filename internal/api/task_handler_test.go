package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/workforce-api/internal/api"
	"github.com/fieldops/workforce-api/internal/domain"
	"github.com/fieldops/workforce-api/internal/platform/memory"
	"github.com/fieldops/workforce-api/internal/service"
)

// testServer wires the handler onto the production routes backed by an
// in-memory store.
type testServer struct {
	router    chi.Router
	taskStore *memory.MemoryTaskStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	taskStore := memory.NewMemoryTaskStore()

	lifecycle, err := service.NewTaskLifecycleService(taskStore, domain.DefaultCatalog(), logger)
	require.NoError(t, err)
	queries, err := service.NewTaskQueryService(taskStore, logger)
	require.NoError(t, err)

	handler := api.NewTaskHandler(lifecycle, queries, logger)

	r := chi.NewRouter()
	r.Route("/api/tasks", func(r chi.Router) {
		r.Post("/", handler.CreateTasks)
		r.Post("/update", handler.UpdateTasks)
		r.Post("/assign-by-reference", handler.AssignByReference)
		r.Post("/fetch-by-date", handler.FetchByWindow)
		r.Post("/fetch-due-by", handler.FetchDueBy)
		r.Get("/priority/{priority}", handler.FetchByPriority)
		r.Get("/{id}", handler.GetTask)
		r.Patch("/{id}/priority", handler.UpdatePriority)
	})

	return &testServer{router: r, taskStore: taskStore}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) seedTask(t *testing.T, status domain.TaskStatus) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(101, domain.ReferenceTypeOrder, domain.TaskTypeCreateInvoice,
		7, domain.PriorityMedium, time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC), 1)
	require.NoError(t, err)
	task.Status = status
	require.NoError(t, ts.taskStore.Save(context.Background(), task))
	return task
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func TestGetTaskEndpoint(t *testing.T) {
	t.Run("returns the task", func(t *testing.T) {
		ts := newTestServer(t)
		task := ts.seedTask(t, domain.TaskStatusAssigned)

		rec := ts.do(t, http.MethodGet, "/api/tasks/"+task.ID.String(), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		decodeBody(t, rec, &body)
		assert.Equal(t, task.ID.String(), body["id"])
		assert.Equal(t, "assigned", body["status"])
		assert.Equal(t, "create_invoice", body["task_type"])
	})

	t.Run("unknown task yields 404", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodGet, "/api/tasks/"+uuid.NewString(), nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
		var body errorBody
		decodeBody(t, rec, &body)
		assert.Equal(t, "Task not found", body.Error)
	})

	t.Run("malformed ID yields 400", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodGet, "/api/tasks/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateTasksEndpoint(t *testing.T) {
	t.Run("creates tasks and returns 201", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{
			"performed_by": 1,
			"requests": []map[string]interface{}{{
				"reference_id":   101,
				"reference_type": "order",
				"task_type":      "create_invoice",
				"assignee_id":    7,
				"priority":       "high",
				"deadline_at":    "2026-09-20T09:00:00Z",
			}},
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		var body []map[string]interface{}
		decodeBody(t, rec, &body)
		require.Len(t, body, 1)
		assert.Equal(t, "assigned", body[0]["status"])
		assert.Equal(t, "high", body[0]["priority"])
	})

	t.Run("missing performed_by yields a field error", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{
			"requests": []map[string]interface{}{{
				"reference_id":   101,
				"reference_type": "order",
				"task_type":      "create_invoice",
				"assignee_id":    7,
				"deadline_at":    "2026-09-20T09:00:00Z",
			}},
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body errorBody
		decodeBody(t, rec, &body)
		assert.Equal(t, "Validation failed", body.Error)
		assert.Equal(t, "required field", body.Fields["performed_by"])
	})

	t.Run("unknown reference type yields a field error", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{
			"performed_by": 1,
			"requests": []map[string]interface{}{{
				"reference_id":   101,
				"reference_type": "shipment",
				"task_type":      "create_invoice",
				"assignee_id":    7,
				"deadline_at":    "2026-09-20T09:00:00Z",
			}},
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body errorBody
		decodeBody(t, rec, &body)
		assert.Equal(t, "invalid value", body.Fields["reference_type"])
	})

	t.Run("inapplicable task type yields 400", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{
			"performed_by": 1,
			"requests": []map[string]interface{}{{
				"reference_id":   101,
				"reference_type": "entity",
				"task_type":      "create_invoice",
				"assignee_id":    7,
				"deadline_at":    "2026-09-20T09:00:00Z",
			}},
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body errorBody
		decodeBody(t, rec, &body)
		assert.Equal(t, "Invalid task type", body.Error)
	})

	t.Run("malformed JSON yields 400", func(t *testing.T) {
		ts := newTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateTasksEndpoint(t *testing.T) {
	t.Run("starts an assigned task", func(t *testing.T) {
		ts := newTestServer(t)
		task := ts.seedTask(t, domain.TaskStatusAssigned)

		rec := ts.do(t, http.MethodPost, "/api/tasks/update", map[string]interface{}{
			"performed_by": 1,
			"requests": []map[string]interface{}{{
				"task_id":     task.ID.String(),
				"task_status": "started",
			}},
		})

		require.Equal(t, http.StatusOK, rec.Code)
		var body []map[string]interface{}
		decodeBody(t, rec, &body)
		require.Len(t, body, 1)
		assert.Equal(t, "started", body[0]["status"])
	})

	t.Run("illegal transition yields 400", func(t *testing.T) {
		ts := newTestServer(t)
		task := ts.seedTask(t, domain.TaskStatusCompleted)

		rec := ts.do(t, http.MethodPost, "/api/tasks/update", map[string]interface{}{
			"performed_by": 1,
			"requests": []map[string]interface{}{{
				"task_id":     task.ID.String(),
				"task_status": "cancelled",
			}},
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body errorBody
		decodeBody(t, rec, &body)
		assert.Equal(t, "Illegal status transition", body.Error)
	})

	t.Run("unknown task yields 404", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/tasks/update", map[string]interface{}{
			"performed_by": 1,
			"requests": []map[string]interface{}{{
				"task_id":     uuid.NewString(),
				"task_status": "started",
			}},
		})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown status value yields a field error", func(t *testing.T) {
		ts := newTestServer(t)
		task := ts.seedTask(t, domain.TaskStatusAssigned)

		rec := ts.do(t, http.MethodPost, "/api/tasks/update", map[string]interface{}{
			"performed_by": 1,
			"requests": []map[string]interface{}{{
				"task_id":     task.ID.String(),
				"task_status": "archived",
			}},
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body errorBody
		decodeBody(t, rec, &body)
		assert.Equal(t, "invalid value", body.Fields["task_status"])
	})
}

func TestAssignByReferenceEndpoint(t *testing.T) {
	t.Run("assigns every applicable task type", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/tasks/assign-by-reference", map[string]interface{}{
			"performed_by":   1,
			"reference_id":   301,
			"reference_type": "order",
			"assignee_id":    9,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		decodeBody(t, rec, &body)
		assert.Equal(t, "Tasks assigned successfully for reference 301", body["message"])

		tasks, err := ts.taskStore.ListByReference(
			context.Background(), 301, domain.ReferenceTypeOrder)
		require.NoError(t, err)
		assert.Len(t, tasks, 3)
	})

	t.Run("missing assignee yields a field error", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/tasks/assign-by-reference", map[string]interface{}{
			"performed_by":   1,
			"reference_id":   301,
			"reference_type": "order",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body errorBody
		decodeBody(t, rec, &body)
		assert.Equal(t, "required field", body.Fields["assignee_id"])
	})
}

func TestFetchByDateEndpoints(t *testing.T) {
	t.Run("window fetch returns matching tasks", func(t *testing.T) {
		ts := newTestServer(t)
		task := ts.seedTask(t, domain.TaskStatusAssigned)

		rec := ts.do(t, http.MethodPost, "/api/tasks/fetch-by-date", map[string]interface{}{
			"assignee_ids": []int64{7},
			"start_date":   "2026-09-01T00:00:00Z",
			"end_date":     "2026-09-30T00:00:00Z",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		var body []map[string]interface{}
		decodeBody(t, rec, &body)
		require.Len(t, body, 1)
		assert.Equal(t, task.ID.String(), body[0]["id"])
	})

	t.Run("empty result serializes as an empty array", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/tasks/fetch-by-date", map[string]interface{}{
			"assignee_ids": []int64{7},
			"start_date":   "2026-09-01T00:00:00Z",
			"end_date":     "2026-09-30T00:00:00Z",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})

	t.Run("missing assignee_ids yields a field error", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/tasks/fetch-by-date", map[string]interface{}{
			"end_date": "2026-09-30T00:00:00Z",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body errorBody
		decodeBody(t, rec, &body)
		assert.Equal(t, "required field", body.Fields["assignee_ids"])
	})

	t.Run("due-by fetch excludes completed tasks", func(t *testing.T) {
		ts := newTestServer(t)
		active := ts.seedTask(t, domain.TaskStatusStarted)
		ts.seedTask(t, domain.TaskStatusCompleted)

		rec := ts.do(t, http.MethodPost, "/api/tasks/fetch-due-by", map[string]interface{}{
			"assignee_ids": []int64{7},
			"end_date":     "2026-09-30T00:00:00Z",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		var body []map[string]interface{}
		decodeBody(t, rec, &body)
		require.Len(t, body, 1)
		assert.Equal(t, active.ID.String(), body[0]["id"])
	})
}

func TestUpdatePriorityEndpoint(t *testing.T) {
	t.Run("updates the priority", func(t *testing.T) {
		ts := newTestServer(t)
		task := ts.seedTask(t, domain.TaskStatusAssigned)

		rec := ts.do(t, http.MethodPatch,
			fmt.Sprintf("/api/tasks/%s/priority", task.ID), map[string]interface{}{
				"performed_by": 1,
				"priority":     "high",
			})

		require.Equal(t, http.StatusOK, rec.Code)

		stored, err := ts.taskStore.GetByID(context.Background(), task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PriorityHigh, stored.Priority)
	})

	t.Run("unknown priority yields a field error", func(t *testing.T) {
		ts := newTestServer(t)
		task := ts.seedTask(t, domain.TaskStatusAssigned)

		rec := ts.do(t, http.MethodPatch,
			fmt.Sprintf("/api/tasks/%s/priority", task.ID), map[string]interface{}{
				"performed_by": 1,
				"priority":     "urgent",
			})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body errorBody
		decodeBody(t, rec, &body)
		assert.Equal(t, "invalid value", body.Fields["priority"])
	})

	t.Run("unknown task yields 404", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPatch,
			fmt.Sprintf("/api/tasks/%s/priority", uuid.NewString()), map[string]interface{}{
				"performed_by": 1,
				"priority":     "high",
			})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFetchByPriorityEndpoint(t *testing.T) {
	t.Run("returns tasks regardless of status", func(t *testing.T) {
		ts := newTestServer(t)
		ts.seedTask(t, domain.TaskStatusAssigned)
		ts.seedTask(t, domain.TaskStatusCancelled)

		rec := ts.do(t, http.MethodGet, "/api/tasks/priority/medium", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var body []map[string]interface{}
		decodeBody(t, rec, &body)
		assert.Len(t, body, 2)
	})

	t.Run("unknown priority yields 400", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodGet, "/api/tasks/priority/urgent", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
