package planner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/existflow/weekplanner/internal/model"
)

// ParseQuickAdd turns a one-line entry into a draft:
//
//	Offerte schrijven @UAF 1,5 !high #wo
//
// "@name" sets the client, "!level" the priority and "#day" the day. The
// last bare number, optionally suffixed with "u", "h" or "m", sets the
// hours. Everything else is the task text. The draft is not validated.
func ParseQuickAdd(line string) (model.TaskDraft, error) {
	var draft model.TaskDraft
	var words []string
	hoursAt := -1

	for _, tok := range strings.Fields(line) {
		switch {
		case len(tok) > 1 && tok[0] == '@':
			draft.Client = tok[1:]
		case len(tok) > 1 && tok[0] == '!':
			p, err := parsePriority(tok[1:])
			if err != nil {
				return draft, err
			}
			draft.Priority = p
		case len(tok) > 1 && tok[0] == '#':
			d, err := model.ParseDay(tok[1:])
			if err != nil {
				return draft, err
			}
			draft.Day = d
		default:
			if h, ok := parseHours(tok); ok {
				draft.Hours = h
				hoursAt = len(words)
			}
			words = append(words, tok)
		}
	}

	if hoursAt >= 0 {
		words = append(words[:hoursAt], words[hoursAt+1:]...)
	}
	draft.Task = strings.Join(words, " ")
	return draft, nil
}

func parsePriority(s string) (model.Priority, error) {
	switch strings.ToLower(s) {
	case "h", "high", "hoog":
		return model.PriorityHigh, nil
	case "m", "medium", "gemiddeld":
		return model.PriorityMedium, nil
	case "l", "low", "laag":
		return model.PriorityLow, nil
	}
	return "", fmt.Errorf("unknown priority: %s", s)
}

// parseHours reads "1.5", "1,5", "2u", "2h" or "90m"
func parseHours(tok string) (float64, bool) {
	s := strings.ToLower(tok)
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "m"):
		s = strings.TrimSuffix(s, "m")
		scale = 1.0 / 60
	case strings.HasSuffix(s, "u"), strings.HasSuffix(s, "h"):
		s = s[:len(s)-1]
	}
	s = strings.Replace(s, ",", ".", 1)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f * scale, true
}
