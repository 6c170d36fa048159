package legacy

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/existflow/weekplanner/internal/model"
)

// Keys written by the browser planner
const (
	KeyPrefix   = "weekplanner-"
	KeyClients  = "weekplanner-clients"
	KeyCombined = "weekplanner-data"
	KeyMigrated = "weekplanner-migrated-to-supabase"
)

// KeyImport holds the idempotency key of the pending migration. It sits
// outside KeyPrefix so snapshots and purges never see it.
const KeyImport = "weekplanner.import-key"

// ID is a legacy task id. Old builds wrote numbers, newer ones strings.
type ID string

// UnmarshalJSON accepts both string and numeric ids
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Hours tolerates estimates stored as strings
type Hours float64

// UnmarshalJSON accepts 1.5 as well as "1.5"
func (h *Hours) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*h = Hours(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(s, ",", ".", 1)), 64)
	if err != nil {
		return err
	}
	*h = Hours(f)
	return nil
}

// Todo is one task as the browser planner stored it
type Todo struct {
	ID       ID             `json:"id"`
	Task     string         `json:"task"`
	Client   string         `json:"client"`
	Hours    Hours          `json:"hours"`
	Day      model.Day      `json:"day"`
	Priority model.Priority `json:"priority,omitempty"`
}

// WeekRecord is the value stored under weekplanner-<monday>
type WeekRecord struct {
	Todos        []Todo `json:"todos"`
	CompletedIDs []ID   `json:"completedIds"`
	SavedAt      string `json:"savedAt,omitempty"`
}

// IsCompleted reports whether id is in the completed set
func (r WeekRecord) IsCompleted(id ID) bool {
	for _, c := range r.CompletedIDs {
		if c == id {
			return true
		}
	}
	return false
}

// CombinedRecord is the oldest single-key format, which carried no week
type CombinedRecord struct {
	WeekRecord
	Clients []string `json:"clients,omitempty"`
}

// Week is a per-week record together with the Monday it belongs to
type Week struct {
	Key    string
	Start  string
	Record WeekRecord
}

// Snapshot is everything readable from the legacy store
type Snapshot struct {
	Clients  []string
	Weeks    []Week
	Combined *CombinedRecord

	// Keys lists the entries the snapshot consumed
	Keys []string
}

// Empty reports whether the snapshot holds nothing worth importing
func (s Snapshot) Empty() bool {
	if len(s.Clients) > 0 {
		return false
	}
	if s.Combined != nil && (len(s.Combined.Todos) > 0 || len(s.Combined.Clients) > 0) {
		return false
	}
	for _, w := range s.Weeks {
		if len(w.Record.Todos) > 0 {
			return false
		}
	}
	return true
}

// TaskCount returns the number of todos across all records
func (s Snapshot) TaskCount() int {
	n := 0
	for _, w := range s.Weeks {
		n += len(w.Record.Todos)
	}
	if s.Combined != nil {
		n += len(s.Combined.Todos)
	}
	return n
}
