package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/existflow/weekplanner/internal/model"
)

type createTaskRequest struct {
	model.TaskDraft
	WeekStart string `json:"week_start"`
}

// PlacedTasks returns the placed tasks of the week starting weekStart
func (c *Client) PlacedTasks(ctx context.Context, weekStart string) ([]model.Task, error) {
	tasks := []model.Task{}
	q := url.Values{"week_start": {weekStart}}
	err := c.do(ctx, http.MethodGet, "/tasks?"+q.Encode(), nil, &tasks)
	return tasks, err
}

// InboxTasks returns every unplaced task
func (c *Client) InboxTasks(ctx context.Context) ([]model.Task, error) {
	tasks := []model.Task{}
	err := c.do(ctx, http.MethodGet, "/tasks/inbox", nil, &tasks)
	return tasks, err
}

// Clients returns the client list in creation order
func (c *Client) Clients(ctx context.Context) ([]model.Client, error) {
	clients := []model.Client{}
	err := c.do(ctx, http.MethodGet, "/clients", nil, &clients)
	return clients, err
}

// CreateTask stores a task and returns it with its server id
func (c *Client) CreateTask(ctx context.Context, draft model.TaskDraft, weekStart string) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodPost, "/tasks", createTaskRequest{TaskDraft: draft, WeekStart: weekStart}, &task)
	return task, err
}

// UpdateTask sends a partial update
func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	return c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), patch, nil)
}

// DeleteTask removes a task
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

// CreateClient adds a client; a taken name yields model.ErrDuplicateClient
func (c *Client) CreateClient(ctx context.Context, name string) (model.Client, error) {
	var client model.Client
	err := c.do(ctx, http.MethodPost, "/clients", map[string]string{"name": name}, &client)
	return client, err
}

// Import sends a migration batch
func (c *Client) Import(ctx context.Context, batch model.ImportBatch) (model.ImportResult, error) {
	var res model.ImportResult
	err := c.do(ctx, http.MethodPost, "/import", batch, &res)
	return res, err
}
