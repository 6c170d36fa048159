// Package legacy reads and writes the key/value records the browser-only
// planner kept in local storage.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/existflow/weekplanner/internal/calendar"
	"github.com/existflow/weekplanner/internal/db"
	"github.com/existflow/weekplanner/internal/logger"
)

// Store is a typed view over the local key/value database
type Store struct {
	db *db.DB
}

// New wraps an open database
func New(database *db.DB) *Store {
	return &Store{db: database}
}

// Migrated reports whether the records were already imported
func (s *Store) Migrated(ctx context.Context) (bool, error) {
	v, err := s.db.GetValue(ctx, KeyMigrated)
	if errors.Is(err, db.ErrNoValue) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// MarkMigrated persists the migration flag
func (s *Store) MarkMigrated(ctx context.Context) error {
	return s.db.SetValue(ctx, KeyMigrated, "true")
}

// ImportKey returns the idempotency key of the pending migration, creating
// and persisting one on first use. Every attempt at the same records sends
// the same key.
func (s *Store) ImportKey(ctx context.Context) (string, error) {
	v, err := s.db.GetValue(ctx, KeyImport)
	if err == nil && v != "" {
		return v, nil
	}
	if err != nil && !errors.Is(err, db.ErrNoValue) {
		return "", err
	}

	key := uuid.NewString()
	if err := s.db.SetValue(ctx, KeyImport, key); err != nil {
		return "", fmt.Errorf("failed to store import key: %w", err)
	}
	return key, nil
}

// Purge removes consumed entries. The migration flag is never removed.
func (s *Store) Purge(ctx context.Context, keys []string) error {
	filtered := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != KeyMigrated {
			filtered = append(filtered, k)
		}
	}
	return s.db.DeleteValues(ctx, filtered...)
}

// Snapshot reads every legacy entry. Entries that cannot be decoded are
// logged and left in place.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	keys, err := s.db.Keys(ctx, KeyPrefix)
	if err != nil {
		return snap, fmt.Errorf("failed to list legacy keys: %w", err)
	}

	for _, key := range keys {
		if key == KeyMigrated {
			continue
		}

		raw, err := s.db.GetValue(ctx, key)
		if err != nil {
			logger.Warn("Skipping unreadable legacy entry", logger.F("key", key), logger.F("error", err.Error()))
			continue
		}

		switch key {
		case KeyClients:
			var clients []string
			if err := json.Unmarshal([]byte(raw), &clients); err != nil {
				logger.Warn("Skipping corrupt client list", logger.F("key", key), logger.F("error", err.Error()))
				continue
			}
			snap.Clients = clients
		case KeyCombined:
			var rec CombinedRecord
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				logger.Warn("Skipping corrupt combined record", logger.F("key", key), logger.F("error", err.Error()))
				continue
			}
			snap.Combined = &rec
		default:
			start, err := WeekStartFromKey(key)
			if err != nil {
				logger.Warn("Skipping unknown legacy key", logger.F("key", key), logger.F("error", err.Error()))
				continue
			}
			var rec WeekRecord
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				logger.Warn("Skipping corrupt week record", logger.F("key", key), logger.F("error", err.Error()))
				continue
			}
			snap.Weeks = append(snap.Weeks, Week{Key: key, Start: start, Record: rec})
		}
		snap.Keys = append(snap.Keys, key)
	}

	return snap, nil
}

// WeekStartFromKey extracts the Monday a weekplanner-<date> key refers to.
// The browser derived the date from a UTC timestamp of local midnight, so
// east of Greenwich the stored date is the preceding Sunday; that is
// shifted forward to the Monday it meant.
func WeekStartFromKey(key string) (string, error) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return "", fmt.Errorf("not a legacy key: %s", key)
	}
	d, err := time.Parse(calendar.DateLayout, strings.TrimPrefix(key, KeyPrefix))
	if err != nil {
		return "", fmt.Errorf("invalid week date: %w", err)
	}

	switch wd := d.Weekday(); wd {
	case time.Sunday:
		d = d.AddDate(0, 0, 1)
	case time.Monday:
	default:
		d = d.AddDate(0, 0, -int(wd-time.Monday))
	}
	return d.Format(calendar.DateLayout), nil
}

// SaveWeek writes a per-week record the way the browser did
func (s *Store) SaveWeek(ctx context.Context, weekStart string, rec WeekRecord) error {
	if _, err := calendar.ParseWeekStart(weekStart, time.UTC); err != nil {
		return err
	}
	return s.putJSON(ctx, KeyPrefix+weekStart, rec)
}

// SaveClients writes the shared client list
func (s *Store) SaveClients(ctx context.Context, clients []string) error {
	return s.putJSON(ctx, KeyClients, clients)
}

// SaveCombined writes the single-key record of the oldest builds
func (s *Store) SaveCombined(ctx context.Context, rec CombinedRecord) error {
	return s.putJSON(ctx, KeyCombined, rec)
}

func (s *Store) putJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.db.SetValue(ctx, key, string(data))
}

// ImportExport loads a local storage dump, a JSON object mapping keys to
// their stringified values, and returns the number of entries written.
// Keys outside the planner namespace are ignored. Importing planner data
// clears the migration flag unless the dump itself carries it.
func (s *Store) ImportExport(ctx context.Context, r io.Reader) (int, error) {
	var dump map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return 0, fmt.Errorf("failed to parse export: %w", err)
	}

	written := 0
	flagged := false
	for key, raw := range dump {
		if !strings.HasPrefix(key, KeyPrefix) {
			continue
		}

		// values are normally strings holding JSON; accept inline JSON too
		value := string(raw)
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			value = str
		}

		if key == KeyMigrated {
			flagged = value != ""
		}
		if err := s.db.SetValue(ctx, key, value); err != nil {
			return written, err
		}
		written++
	}

	if written > 0 && !flagged {
		// new records get a fresh import key
		if err := s.db.DeleteValues(ctx, KeyMigrated, KeyImport); err != nil {
			return written, err
		}
	}

	logger.Info("Imported local storage export", logger.F("entries", written))
	return written, nil
}
