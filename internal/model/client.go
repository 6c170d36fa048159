package model

import "time"

// Client is a label namespace owned by one user
type Client struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ImportTask is one legacy task bound for the remote store
type ImportTask struct {
	TaskDraft
	Completed bool   `json:"completed"`
	WeekStart string `json:"week_start"`
}

// ImportBatch is everything a migration writes, applied all-or-nothing.
// Key makes the batch idempotent: a store applies a given key once.
type ImportBatch struct {
	Key     string       `json:"key,omitempty"`
	Clients []string     `json:"clients"`
	Tasks   []ImportTask `json:"tasks"`
}

// Empty reports whether there is nothing to import
func (b ImportBatch) Empty() bool {
	return len(b.Clients) == 0 && len(b.Tasks) == 0
}

// ImportResult reports what an import wrote
type ImportResult struct {
	Clients int `json:"clients" db:"clients"`
	Tasks   int `json:"tasks" db:"tasks"`

	// Replayed is set when the key was applied by an earlier call
	Replayed bool `json:"replayed,omitempty" db:"-"`
}
