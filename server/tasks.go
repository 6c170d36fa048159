package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/existflow/weekplanner/internal/calendar"
	"github.com/existflow/weekplanner/internal/logger"
	"github.com/existflow/weekplanner/internal/model"
)

type createTaskRequest struct {
	model.TaskDraft
	WeekStart string `json:"week_start"`
}

type createClientRequest struct {
	Name string `json:"name"`
}

// validWeekStart checks a week key is a Monday. Keys are calendar dates, so
// the zone does not matter.
func validWeekStart(s string) error {
	_, err := calendar.ParseWeekStart(s, time.UTC)
	return err
}

func (s *Server) storeError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return jsonError(c, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrDuplicateClient):
		return jsonError(c, http.StatusConflict, err.Error())
	}
	logger.Error("Store operation failed", logger.F("op", op), logger.F("error", err.Error()))
	return jsonError(c, http.StatusInternalServerError, "internal error")
}

// handleListPlaced returns the placed tasks of ?week_start=
func (s *Server) handleListPlaced(c echo.Context) error {
	weekStart := c.QueryParam("week_start")
	if err := validWeekStart(weekStart); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	tasks, err := s.userStore(c).PlacedTasks(c.Request().Context(), weekStart)
	if err != nil {
		return s.storeError(c, "list placed", err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// handleListInbox returns every unplaced task
func (s *Server) handleListInbox(c echo.Context) error {
	tasks, err := s.userStore(c).InboxTasks(c.Request().Context())
	if err != nil {
		return s.storeError(c, "list inbox", err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// handleCreateTask stores a new task and returns it with its id
func (s *Server) handleCreateTask(c echo.Context) error {
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	draft := req.TaskDraft.Normalize()
	if err := draft.Validate(); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	if err := validWeekStart(req.WeekStart); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	task, err := s.userStore(c).CreateTask(c.Request().Context(), draft, req.WeekStart)
	if err != nil {
		return s.storeError(c, "create task", err)
	}
	return c.JSON(http.StatusCreated, task)
}

// handleUpdateTask applies a partial update. "day": null moves the task to
// the inbox, so the body is decoded directly rather than bound.
func (s *Server) handleUpdateTask(c echo.Context) error {
	var patch model.TaskPatch
	if err := json.NewDecoder(c.Request().Body).Decode(&patch); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if err := patch.Validate(); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	if patch.WeekStart != nil {
		if err := validWeekStart(*patch.WeekStart); err != nil {
			return jsonError(c, http.StatusBadRequest, err.Error())
		}
	}
	if patch.Task != nil {
		trimmed := strings.TrimSpace(*patch.Task)
		patch.Task = &trimmed
	}
	if patch.Client != nil {
		trimmed := strings.TrimSpace(*patch.Client)
		patch.Client = &trimmed
	}

	if err := s.userStore(c).UpdateTask(c.Request().Context(), c.Param("id"), patch); err != nil {
		return s.storeError(c, "update task", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleDeleteTask removes a task. Deleting twice is not an error.
func (s *Server) handleDeleteTask(c echo.Context) error {
	if err := s.userStore(c).DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return s.storeError(c, "delete task", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleListClients returns the clients in creation order
func (s *Server) handleListClients(c echo.Context) error {
	clients, err := s.userStore(c).Clients(c.Request().Context())
	if err != nil {
		return s.storeError(c, "list clients", err)
	}
	return c.JSON(http.StatusOK, clients)
}

// handleCreateClient adds a client; a taken name yields 409
func (s *Server) handleCreateClient(c echo.Context) error {
	var req createClientRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return jsonError(c, http.StatusBadRequest, model.ErrInvalidClient.Error())
	}

	client, err := s.userStore(c).CreateClient(c.Request().Context(), name)
	if err != nil {
		return s.storeError(c, "create client", err)
	}
	return c.JSON(http.StatusCreated, client)
}

// handleImport applies a migration batch all-or-nothing
func (s *Server) handleImport(c echo.Context) error {
	var batch model.ImportBatch
	if err := c.Bind(&batch); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if batch.Key != "" {
		if _, err := uuid.Parse(batch.Key); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid import key")
		}
	}

	clients := batch.Clients[:0]
	for _, name := range batch.Clients {
		if name = strings.TrimSpace(name); name != "" {
			clients = append(clients, name)
		}
	}
	batch.Clients = clients

	for i := range batch.Tasks {
		t := &batch.Tasks[i]
		t.TaskDraft = t.TaskDraft.Normalize()
		if err := t.Validate(); err != nil {
			return jsonError(c, http.StatusBadRequest, fmt.Sprintf("task %d: %v", i, err))
		}
		if err := validWeekStart(t.WeekStart); err != nil {
			return jsonError(c, http.StatusBadRequest, fmt.Sprintf("task %d: %v", i, err))
		}
	}

	res, err := s.userStore(c).Import(c.Request().Context(), batch)
	if err != nil {
		return s.storeError(c, "import", err)
	}

	logger.Info("Import applied",
		logger.F("user", c.Get("user_id")),
		logger.F("clients", res.Clients),
		logger.F("tasks", res.Tasks),
		logger.F("replayed", res.Replayed))
	return c.JSON(http.StatusOK, res)
}
