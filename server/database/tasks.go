package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/existflow/weekplanner/internal/model"
)

// importChunk bounds the rows per INSERT, well under the 65535 parameter
// limit of the wire protocol
const importChunk = 500

var taskColumns = []string{
	"id", "task", "client", "hours", "day", "priority", "completed",
	"to_char(week_start, 'YYYY-MM-DD') AS week_start", "updated_at",
}

var taskInsertColumns = []string{
	"user_id", "task", "client", "hours", "day", "priority", "completed", "week_start",
}

type taskRow struct {
	ID        string         `db:"id"`
	Task      string         `db:"task"`
	Client    string         `db:"client"`
	Hours     float64        `db:"hours"`
	Day       sql.NullString `db:"day"`
	Priority  string         `db:"priority"`
	Completed bool           `db:"completed"`
	WeekStart string         `db:"week_start"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r taskRow) toModel() model.Task {
	return model.Task{
		ID:        r.ID,
		Task:      r.Task,
		Client:    r.Client,
		Hours:     r.Hours,
		Day:       model.Day(r.Day.String),
		Priority:  model.Priority(r.Priority),
		Completed: r.Completed,
		WeekStart: r.WeekStart,
		UpdatedAt: r.UpdatedAt,
	}
}

func dayValue(d model.Day) interface{} {
	if d == model.DayNone {
		return nil
	}
	return string(d)
}

// UserStore is the record store of one user. Every statement is filtered
// by the user id.
type UserStore struct {
	store  *Store
	userID string
}

// ForUser scopes the store to userID
func (s *Store) ForUser(userID string) *UserStore {
	return &UserStore{store: s, userID: userID}
}

func (u *UserStore) selectTasks(ctx context.Context, where ...squirrel.Sqlizer) ([]model.Task, error) {
	q := u.store.sb.Select(taskColumns...).
		From("planner_tasks").
		Where(squirrel.Eq{"user_id": u.userID})
	for _, w := range where {
		q = q.Where(w)
	}
	query, args, err := q.OrderBy("created_at", "id").ToSql()
	if err != nil {
		return nil, err
	}

	var rows []taskRow
	if err := u.store.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toModel())
	}
	return tasks, nil
}

// PlacedTasks returns the tasks on a weekday of the week starting weekStart
func (u *UserStore) PlacedTasks(ctx context.Context, weekStart string) ([]model.Task, error) {
	return u.selectTasks(ctx,
		squirrel.Eq{"week_start": weekStart},
		squirrel.NotEq{"day": nil})
}

// InboxTasks returns every unplaced task regardless of week
func (u *UserStore) InboxTasks(ctx context.Context) ([]model.Task, error) {
	return u.selectTasks(ctx, squirrel.Eq{"day": nil})
}

// Clients returns the client list in creation order
func (u *UserStore) Clients(ctx context.Context) ([]model.Client, error) {
	query, args, err := u.store.sb.Select("id", "name", "created_at").
		From("planner_clients").
		Where(squirrel.Eq{"user_id": u.userID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	clients := []model.Client{}
	if err := u.store.db.SelectContext(ctx, &clients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}
	return clients, nil
}

// CreateTask inserts a task in weekStart and returns it with its id
func (u *UserStore) CreateTask(ctx context.Context, draft model.TaskDraft, weekStart string) (model.Task, error) {
	query, args, err := u.store.sb.Insert("planner_tasks").
		Columns(taskInsertColumns...).
		Values(u.userID, draft.Task, draft.Client, draft.Hours, dayValue(draft.Day),
			string(draft.Priority.OrDefault()), false, weekStart).
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Task{}, err
	}

	var row taskRow
	if err := u.store.db.GetContext(ctx, &row, query, args...); err != nil {
		return model.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return row.toModel(), nil
}

// UpdateTask applies patch to the task
func (u *UserStore) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.ErrNotFound
	}
	if patch.Empty() {
		return nil
	}

	set := map[string]interface{}{}
	if patch.Task != nil {
		set["task"] = *patch.Task
	}
	if patch.Client != nil {
		set["client"] = *patch.Client
	}
	if patch.Hours != nil {
		set["hours"] = *patch.Hours
	}
	if patch.Day != nil {
		set["day"] = dayValue(*patch.Day)
	}
	if patch.Priority != nil {
		set["priority"] = string(*patch.Priority)
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	if patch.WeekStart != nil {
		set["week_start"] = *patch.WeekStart
	}
	set["updated_at"] = squirrel.Expr("NOW()")

	query, args, err := u.store.sb.Update("planner_tasks").
		SetMap(set).
		Where(squirrel.Eq{"id": id, "user_id": u.userID}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := u.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteTask removes the task. Deleting a missing task succeeds.
func (u *UserStore) DeleteTask(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	query, args, err := u.store.sb.Delete("planner_tasks").
		Where(squirrel.Eq{"id": id, "user_id": u.userID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := u.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// CreateClient adds a client label
func (u *UserStore) CreateClient(ctx context.Context, name string) (model.Client, error) {
	query, args, err := u.store.sb.Insert("planner_clients").
		Columns("user_id", "name").
		Values(u.userID, name).
		Suffix("RETURNING id, name, created_at").
		ToSql()
	if err != nil {
		return model.Client{}, err
	}

	var c model.Client
	if err := u.store.db.GetContext(ctx, &c, query, args...); err != nil {
		if isUniqueViolation(err) {
			return model.Client{}, model.ErrDuplicateClient
		}
		return model.Client{}, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}

// Import writes a migration batch in one transaction. Existing clients are
// left alone; tasks are always inserted. A batch carrying a key is applied
// at most once per user: replaying the key returns the stored result.
func (u *UserStore) Import(ctx context.Context, batch model.ImportBatch) (model.ImportResult, error) {
	var result model.ImportResult
	if batch.Empty() {
		return result, nil
	}

	err := u.store.withTx(ctx, func(tx *sqlx.Tx) error {
		if batch.Key != "" {
			claimed, err := u.claimImport(ctx, tx, batch.Key)
			if err != nil {
				return err
			}
			if !claimed {
				result, err = u.importResult(ctx, tx, batch.Key)
				result.Replayed = true
				return err
			}
		}

		if len(batch.Clients) > 0 {
			q := u.store.sb.Insert("planner_clients").Columns("user_id", "name")
			for _, name := range batch.Clients {
				q = q.Values(u.userID, name)
			}
			query, args, err := q.Suffix("ON CONFLICT (user_id, name) DO NOTHING").ToSql()
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to import clients: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil {
				result.Clients = int(n)
			}
		}

		for start := 0; start < len(batch.Tasks); start += importChunk {
			end := start + importChunk
			if end > len(batch.Tasks) {
				end = len(batch.Tasks)
			}

			q := u.store.sb.Insert("planner_tasks").Columns(taskInsertColumns...)
			for _, t := range batch.Tasks[start:end] {
				q = q.Values(u.userID, t.Task, t.Client, t.Hours, dayValue(t.Day),
					string(t.Priority.OrDefault()), t.Completed, t.WeekStart)
			}
			query, args, err := q.ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to import tasks: %w", err)
			}
			result.Tasks += end - start
		}

		if batch.Key != "" {
			return u.recordImport(ctx, tx, batch.Key, result)
		}
		return nil
	})
	if err != nil {
		return model.ImportResult{}, err
	}
	return result, nil
}

// claimImport inserts the import key and reports whether this call owns it.
// A concurrent claim of the same key waits on the unique index.
func (u *UserStore) claimImport(ctx context.Context, tx *sqlx.Tx, key string) (bool, error) {
	query, args, err := u.store.sb.Insert("planner_imports").
		Columns("user_id", "idempotency_key").
		Values(u.userID, key).
		Suffix("ON CONFLICT (user_id, idempotency_key) DO NOTHING").
		ToSql()
	if err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to claim import: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (u *UserStore) importResult(ctx context.Context, tx *sqlx.Tx, key string) (model.ImportResult, error) {
	query, args, err := u.store.sb.Select("clients", "tasks").
		From("planner_imports").
		Where(squirrel.Eq{"user_id": u.userID, "idempotency_key": key}).
		ToSql()
	if err != nil {
		return model.ImportResult{}, err
	}
	var res model.ImportResult
	if err := tx.GetContext(ctx, &res, query, args...); err != nil {
		return model.ImportResult{}, fmt.Errorf("failed to read import: %w", err)
	}
	return res, nil
}

func (u *UserStore) recordImport(ctx context.Context, tx *sqlx.Tx, key string, res model.ImportResult) error {
	query, args, err := u.store.sb.Update("planner_imports").
		Set("clients", res.Clients).
		Set("tasks", res.Tasks).
		Where(squirrel.Eq{"user_id": u.userID, "idempotency_key": key}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}
