package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Day is the weekday slot a task is placed on. DayNone means the task
// sits in the inbox.
type Day string

// Weekday labels (nl-NL). Only Monday through Friday exist.
const (
	DayNone   Day = ""
	Monday    Day = "Maandag"
	Tuesday   Day = "Dinsdag"
	Wednesday Day = "Woensdag"
	Thursday  Day = "Donderdag"
	Friday    Day = "Vrijdag"
)

// Weekdays lists the placeable days in calendar order
var Weekdays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

// Valid reports whether d is DayNone or one of the five weekday labels
func (d Day) Valid() bool {
	return d == DayNone || DayIndex(d) >= 0
}

// Placed reports whether d refers to a weekday rather than the inbox
func (d Day) Placed() bool {
	return d != DayNone
}

// DayIndex returns the 0-based position of d in the week, or -1
func DayIndex(d Day) int {
	for i, w := range Weekdays {
		if w == d {
			return i
		}
	}
	return -1
}

// ParseDay accepts a full label, a case-insensitive prefix of at least two
// letters, a 1-based weekday number or "inbox".
func ParseDay(s string) (Day, error) {
	switch s {
	case "", "inbox", "none", "0":
		return DayNone, nil
	case "1", "2", "3", "4", "5":
		return Weekdays[s[0]-'1'], nil
	}

	lower := strings.ToLower(strings.TrimSpace(s))
	var match Day
	for _, d := range Weekdays {
		label := strings.ToLower(string(d))
		if label == lower {
			return d, nil
		}
		if len(lower) >= 2 && len(lower) <= len(label) && label[:len(lower)] == lower {
			if match != DayNone {
				return DayNone, fmt.Errorf("ambiguous day: %s", s)
			}
			match = d
		}
	}
	if match == DayNone {
		return DayNone, fmt.Errorf("unknown day: %s", s)
	}
	return match, nil
}

// MarshalJSON encodes DayNone as null
func (d Day) MarshalJSON() ([]byte, error) {
	if d == DayNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(d))
}

// UnmarshalJSON decodes null into DayNone
func (d *Day) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = DayNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = Day(s)
	return nil
}
