package planner

import (
	"context"
	"strings"

	"github.com/existflow/weekplanner/internal/legacy"
	"github.com/existflow/weekplanner/internal/logger"
	"github.com/existflow/weekplanner/internal/model"
)

// Migrate imports the legacy local records into the remote store once.
// It is a no-op when no legacy source is configured, when the records were
// already migrated, or while another migration is running. Unreadable
// legacy data counts as nothing to migrate. The done flag is set only after
// the whole import succeeded. Every attempt sends the same import key, so a
// retry after a lost reply does not write the records twice.
func (s *Store) Migrate(ctx context.Context) (model.ImportResult, error) {
	var result model.ImportResult

	s.mu.Lock()
	if s.legacy == nil || s.migrating {
		s.mu.Unlock()
		return result, nil
	}
	s.migrating = true
	week := s.week
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.migrating = false
		s.mu.Unlock()
	}()

	done, err := s.legacy.Migrated(ctx)
	if err != nil {
		logger.Warn("Cannot read migration flag, skipping migration", logger.F("error", err.Error()))
		return result, nil
	}
	if done {
		return result, nil
	}

	snap, err := s.legacy.Snapshot(ctx)
	if err != nil {
		logger.Warn("Cannot read legacy store, nothing to migrate", logger.F("error", err.Error()))
		return result, nil
	}

	if snap.Combined != nil && len(snap.Combined.Todos) > 0 && week == "" {
		return result, ErrNoWeek
	}

	batch := BuildBatch(snap, week)
	if !batch.Empty() {
		if batch.Key, err = s.legacy.ImportKey(ctx); err != nil {
			s.mu.Lock()
			defer s.mu.Unlock()
			return result, s.fail("migrate", err)
		}
		result, err = s.remote.Import(ctx, batch)
		if err != nil {
			s.mu.Lock()
			defer s.mu.Unlock()
			return model.ImportResult{}, s.fail("migrate", err)
		}
	}

	if err := s.legacy.MarkMigrated(ctx); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return result, s.fail("migrate", err)
	}
	if err := s.legacy.Purge(ctx, snap.Keys); err != nil {
		logger.Warn("Failed to purge migrated legacy records", logger.F("error", err.Error()))
	}

	logger.Info("Legacy records migrated",
		logger.F("clients", result.Clients),
		logger.F("tasks", result.Tasks),
		logger.F("replayed", result.Replayed),
		logger.F("weeks", len(snap.Weeks)))

	if week != "" && !batch.Empty() {
		if err := s.Load(ctx, week); err != nil {
			return result, err
		}
	}
	return result, nil
}

// BuildBatch maps a legacy snapshot onto one import batch. Tasks of the
// combined record carry no week and are stamped with currentWeek. Records
// the server would reject are dropped and logged.
func BuildBatch(snap legacy.Snapshot, currentWeek string) model.ImportBatch {
	var batch model.ImportBatch

	seen := make(map[string]bool)
	addClient := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		batch.Clients = append(batch.Clients, name)
	}
	for _, c := range snap.Clients {
		addClient(c)
	}
	if snap.Combined != nil {
		for _, c := range snap.Combined.Clients {
			addClient(c)
		}
	}

	for _, w := range snap.Weeks {
		batch.Tasks = appendRecord(batch.Tasks, w.Record, w.Start, w.Key)
	}

	if snap.Combined != nil && len(snap.Combined.Todos) > 0 {
		logger.Warn("Combined legacy record has no week, using the viewed week",
			logger.F("week", currentWeek),
			logger.F("tasks", len(snap.Combined.Todos)))
		batch.Tasks = appendRecord(batch.Tasks, snap.Combined.WeekRecord, currentWeek, legacy.KeyCombined)
	}

	return batch
}

func appendRecord(tasks []model.ImportTask, rec legacy.WeekRecord, weekStart, key string) []model.ImportTask {
	for _, todo := range rec.Todos {
		day := todo.Day
		if !day.Valid() {
			logger.Warn("Legacy task has unknown day, moving to inbox",
				logger.F("key", key), logger.F("day", string(day)))
			day = model.DayNone
		}
		priority := todo.Priority.OrDefault()
		if !priority.Valid() {
			priority = model.PriorityMedium
		}

		draft := model.TaskDraft{
			Task:     todo.Task,
			Client:   todo.Client,
			Hours:    float64(todo.Hours),
			Priority: priority,
			Day:      day,
		}.Normalize()
		if err := draft.Validate(); err != nil {
			logger.Warn("Dropping invalid legacy task",
				logger.F("key", key), logger.F("id", string(todo.ID)), logger.F("error", err.Error()))
			continue
		}

		tasks = append(tasks, model.ImportTask{
			TaskDraft: draft,
			Completed: rec.IsCompleted(todo.ID),
			WeekStart: weekStart,
		})
	}
	return tasks
}
