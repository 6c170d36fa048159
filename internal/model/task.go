package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority is advisory only; it never affects placement
type Priority string

// Priority levels
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the three levels
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// OrDefault returns medium for an empty priority
func (p Priority) OrDefault() Priority {
	if p == "" {
		return PriorityMedium
	}
	return p
}

// Task is a unit of planned work
type Task struct {
	ID        string    `json:"id"`
	Task      string    `json:"task"`
	Client    string    `json:"client"`
	Hours     float64   `json:"hours"`
	Day       Day       `json:"day"`
	Priority  Priority  `json:"priority"`
	Completed bool      `json:"completed"`
	WeekStart string    `json:"week_start"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Placed reports whether the task is assigned to a weekday
func (t *Task) Placed() bool {
	return t.Day.Placed()
}

// TaskDraft is the input for creating a task. New tasks start unplaced
// unless Day is given, and are never completed.
type TaskDraft struct {
	Task     string   `json:"task"`
	Client   string   `json:"client"`
	Hours    float64  `json:"hours"`
	Priority Priority `json:"priority"`
	Day      Day      `json:"day"`
}

// Normalize trims text fields and fills in the default priority
func (d TaskDraft) Normalize() TaskDraft {
	d.Task = strings.TrimSpace(d.Task)
	d.Client = strings.TrimSpace(d.Client)
	d.Priority = d.Priority.OrDefault()
	return d
}

// Validate checks a normalized draft
func (d TaskDraft) Validate() error {
	if d.Task == "" {
		return fmt.Errorf("%w: task text is required", ErrInvalidTask)
	}
	if d.Client == "" {
		return fmt.Errorf("%w: client is required", ErrInvalidTask)
	}
	if err := validHours(d.Hours); err != nil {
		return err
	}
	if !d.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, d.Priority)
	}
	if !d.Day.Valid() {
		return fmt.Errorf("%w: unknown day %q", ErrInvalidTask, d.Day)
	}
	return nil
}

// TaskPatch holds the fields of an update. Nil fields are left untouched;
// a Day pointing at DayNone moves the task back to the inbox.
type TaskPatch struct {
	Task      *string   `json:"task,omitempty"`
	Client    *string   `json:"client,omitempty"`
	Hours     *float64  `json:"hours,omitempty"`
	Day       *Day      `json:"day,omitempty"`
	Priority  *Priority `json:"priority,omitempty"`
	Completed *bool     `json:"completed,omitempty"`
	WeekStart *string   `json:"week_start,omitempty"`
}

// UnmarshalJSON keeps an explicit "day": null instead of dropping it
func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	type plain TaskPatch
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["day"]; ok {
		var d Day
		if err := json.Unmarshal(v, &d); err != nil {
			return err
		}
		out.Day = &d
	}

	*p = TaskPatch(out)
	return nil
}

// Empty reports whether the patch changes nothing
func (p TaskPatch) Empty() bool {
	return p.Task == nil && p.Client == nil && p.Hours == nil && p.Day == nil &&
		p.Priority == nil && p.Completed == nil && p.WeekStart == nil
}

// Validate rejects values a task can never hold
func (p TaskPatch) Validate() error {
	if p.Task != nil && strings.TrimSpace(*p.Task) == "" {
		return fmt.Errorf("%w: task text is required", ErrInvalidTask)
	}
	if p.Client != nil && strings.TrimSpace(*p.Client) == "" {
		return fmt.Errorf("%w: client is required", ErrInvalidTask)
	}
	if p.Hours != nil {
		if err := validHours(*p.Hours); err != nil {
			return err
		}
	}
	if p.Day != nil && !p.Day.Valid() {
		return fmt.Errorf("%w: unknown day %q", ErrInvalidTask, *p.Day)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, *p.Priority)
	}
	return nil
}

// Apply merges the patch into t
func (p TaskPatch) Apply(t *Task) {
	if p.Task != nil {
		t.Task = strings.TrimSpace(*p.Task)
	}
	if p.Client != nil {
		t.Client = strings.TrimSpace(*p.Client)
	}
	if p.Hours != nil {
		t.Hours = *p.Hours
	}
	if p.Day != nil {
		t.Day = *p.Day
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.WeekStart != nil {
		t.WeekStart = *p.WeekStart
	}
}
