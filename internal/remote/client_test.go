package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/weekplanner/internal/model"
	"github.com/existflow/weekplanner/internal/planner"
)

var _ planner.RecordStore = (*Client)(nil)

func newTestClient(t *testing.T, handler http.Handler) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "session.json")
	c, err := NewClient(srv.URL+"/", WithSessionPath(path))
	require.NoError(t, err)
	return c, path
}

func loginHandler(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"invalid credentials"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(authResponse{
			Token:     "tok",
			UserID:    "u1",
			ExpiresAt: time.Now().Add(time.Hour).Format(time.RFC3339),
		})
	})
}

func TestLoginPersistsSession(t *testing.T) {
	mux := http.NewServeMux()
	loginHandler(mux)
	c, path := newTestClient(t, mux)
	ctx := context.Background()

	err := c.Login(ctx, "ada", "wrong")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	assert.ErrorContains(t, err, "invalid credentials")
	assert.False(t, c.IsLoggedIn())

	require.NoError(t, c.Login(ctx, "ada", "secret123"))
	assert.True(t, c.IsLoggedIn())

	again, err := NewClient(c.ServerURL(), WithSessionPath(path))
	require.NoError(t, err)
	assert.True(t, again.IsLoggedIn())
	assert.Equal(t, "u1", again.Session().UserID)

	// a session from another server is ignored
	other, err := NewClient("http://elsewhere.test", WithSessionPath(path))
	require.NoError(t, err)
	assert.False(t, other.IsLoggedIn())
}

func TestRecordStoreCalls(t *testing.T) {
	mux := http.NewServeMux()
	loginHandler(mux)

	var patched map[string]json.RawMessage
	mux.HandleFunc("/api/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "2025-01-06", r.URL.Query().Get("week_start"))
			_, _ = io.WriteString(w, `[{"id":"t1","task":"a","client":"UAF","hours":1.5,"day":"Maandag","priority":"high","completed":false,"week_start":"2025-01-06"}]`)
		case http.MethodPost:
			var req createTaskRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "2025-01-06", req.WeekStart)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(model.Task{ID: "t2", Task: req.Task, Client: req.Client, Hours: req.Hours, WeekStart: req.WeekStart})
		}
	})
	mux.HandleFunc("/api/v1/tasks/t1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	mux.HandleFunc("/api/v1/clients", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"client already exists"}`)
	})
	mux.HandleFunc("/api/v1/import", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"internal error"}`)
	})

	c, _ := newTestClient(t, mux)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "ada", "secret123"))

	tasks, err := c.PlacedTasks(ctx, "2025-01-06")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.Monday, tasks[0].Day)

	task, err := c.CreateTask(ctx, model.TaskDraft{Task: "b", Client: "UAF", Hours: 2}, "2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, "t2", task.ID)

	inbox := model.DayNone
	require.NoError(t, c.UpdateTask(ctx, "t1", model.TaskPatch{Day: &inbox}))
	assert.Equal(t, json.RawMessage("null"), patched["day"])
	assert.NotContains(t, patched, "task")

	require.NoError(t, c.DeleteTask(ctx, "t1"))

	_, err = c.CreateClient(ctx, "Acme")
	assert.ErrorIs(t, err, model.ErrDuplicateClient)

	_, err = c.Import(ctx, model.ImportBatch{Clients: []string{"UAF"}})
	assert.True(t, IsStatus(err, http.StatusInternalServerError))

	_, err = c.InboxTasks(ctx)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLogoutForgetsSession(t *testing.T) {
	mux := http.NewServeMux()
	loginHandler(mux)
	mux.HandleFunc("/api/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c, path := newTestClient(t, mux)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "ada", "secret123"))
	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.IsLoggedIn())

	again, err := NewClient(c.ServerURL(), WithSessionPath(path))
	require.NoError(t, err)
	assert.False(t, again.IsLoggedIn())
}
