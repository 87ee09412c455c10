package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryApp(t *testing.T) *App {
	t.Helper()

	a, err := New(&config.Config{
		HTTPPort:        "0",
		StorageDriver:   config.StorageDriverMemory,
		CacheTTL:        time.Second,
		LogLevel:        "error",
		ServiceName:     "todo-service",
		ShutdownTimeout: time.Second,
	})
	require.NoError(t, err)
	return a
}

func TestApp_Health(t *testing.T) {
	a := newMemoryApp(t)

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApp_TaskLifecycle(t *testing.T) {
	a := newMemoryApp(t)
	h := a.Server.Handler

	body, err := json.Marshal(map[string]any{"title": "ship it", "expiryAt": time.Now().Add(time.Hour)})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/tasks", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/tasks/"+created.ID+"/done", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/tasks/"+created.ID, nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApp_Metrics(t *testing.T) {
	a := newMemoryApp(t)

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/api/v1/tasks`)
}

func TestApp_ServeStopsOnContextCancel(t *testing.T) {
	a := newMemoryApp(t)
	a.Server.Addr = "127.0.0.1:0"

	closed := false
	a.closers = append(a.closers, func(context.Context) error {
		closed = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
	assert.True(t, closed)
	assert.Nil(t, a.closers)
}

func TestApp_ServeReturnsListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { busy.Close() })

	a := newMemoryApp(t)
	a.Server.Addr = busy.Addr().String()

	err = a.serve(context.Background())
	assert.ErrorContains(t, err, "server failed")
}
