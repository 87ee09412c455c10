package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/repo/memory"
	"github.com/KarpovAlexandrGo/todo-service/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() http.Handler {
	// Часы с шагом, чтобы порядок по CreatedAt был однозначным.
	clock := time.Now()
	repo := memory.NewTaskRepository(memory.WithClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}))
	uc := usecase.NewTaskUseCase(repo)
	r := chi.NewRouter()
	NewTaskHandler(uc).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) TaskResponse {
	t.Helper()
	var resp TaskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func createTask(t *testing.T, h http.Handler, title string, expiry time.Time) TaskResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/tasks", map[string]any{
		"title":    title,
		"expiryAt": expiry,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeTask(t, rec)
}

func TestCreateTask(t *testing.T) {
	h := newTestRouter()

	rec := do(t, h, http.MethodPost, "/api/v1/tasks", map[string]any{
		"title":       "Buy milk",
		"description": "two liters",
		"expiryAt":    time.Now().Add(time.Hour),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "updatedAt")

	task := decodeTask(t, rec)
	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	require.NotNil(t, task.Description)
	assert.Equal(t, "two liters", *task.Description)
	assert.Equal(t, 0, task.CompletionPercentage)
	assert.False(t, task.IsDone)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestCreateTask_Validation(t *testing.T) {
	h := newTestRouter()
	expiry := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		body any
	}{
		{"malformed json", "{"},
		{"missing title", map[string]any{"expiryAt": expiry}},
		{"title too long", map[string]any{"title": strings.Repeat("a", 101), "expiryAt": expiry}},
		{"description too long", map[string]any{"title": "t", "description": strings.Repeat("a", 5001), "expiryAt": expiry}},
		{"missing expiry", map[string]any{"title": "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/tasks", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestGetTask(t *testing.T) {
	h := newTestRouter()
	created := createTask(t, h, "read me", time.Now().Add(time.Hour))

	rec := do(t, h, http.MethodGet, "/api/v1/tasks/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeTask(t, rec).ID)

	rec = do(t, h, http.MethodGet, "/api/v1/tasks/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateTask(t *testing.T) {
	h := newTestRouter()
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	created := createTask(t, h, "old", expiry)

	rec := do(t, h, http.MethodPut, "/api/v1/tasks/"+created.ID.String(), map[string]any{
		"title":                "new",
		"expiryAt":             expiry,
		"completionPercentage": 30,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	task := decodeTask(t, rec)
	assert.Equal(t, "new", task.Title)
	assert.Equal(t, 30, task.CompletionPercentage)
	assert.NotNil(t, task.UpdatedAt)

	rec = do(t, h, http.MethodPut, "/api/v1/tasks/"+created.ID.String(), map[string]any{
		"title":                "new",
		"expiryAt":             expiry,
		"completionPercentage": 101,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/v1/tasks/"+uuid.NewString(), map[string]any{
		"title":    "x",
		"expiryAt": expiry,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkTaskAsDone(t *testing.T) {
	h := newTestRouter()
	created := createTask(t, h, "finish", time.Now().Add(time.Hour))

	rec := do(t, h, http.MethodPatch, "/api/v1/tasks/"+created.ID.String()+"/done", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	task := decodeTask(t, rec)
	assert.True(t, task.IsDone)
	assert.Equal(t, 100, task.CompletionPercentage)
}

func TestUpdateCompletionPercentage(t *testing.T) {
	h := newTestRouter()
	created := createTask(t, h, "progress", time.Now().Add(time.Hour))
	path := "/api/v1/tasks/" + created.ID.String() + "/completionPercentage"

	rec := do(t, h, http.MethodPatch, path, map[string]any{"completionPercentage": 55})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 55, decodeTask(t, rec).CompletionPercentage)

	rec = do(t, h, http.MethodPatch, path, map[string]any{"completionPercentage": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTask(t *testing.T) {
	h := newTestRouter()
	created := createTask(t, h, "remove", time.Now().Add(time.Hour))
	path := "/api/v1/tasks/" + created.ID.String()

	rec := do(t, h, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, h, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTasks(t *testing.T) {
	h := newTestRouter()
	first := createTask(t, h, "first", time.Now().Add(30*24*time.Hour))
	second := createTask(t, h, "second", time.Now().Add(30*24*time.Hour))

	rec := do(t, h, http.MethodGet, "/api/v1/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tasks []TaskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tasks))
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)

	rec = do(t, h, http.MethodGet, "/api/v1/tasks?filterBy=OnlyNextDay", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/tasks?filterBy=99", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidationMessage(t *testing.T) {
	h := NewTaskHandler(nil)
	err := h.validate.Struct(CreateTaskRequest{Title: strings.Repeat("a", 101), ExpiryAt: time.Now()})
	require.Error(t, err)
	assert.Equal(t, "Title: must satisfy max=100", validationMessage(err))
}
