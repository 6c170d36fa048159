package tui

import (
	"math"
	"strings"
)

// truncate shortens a string to max runes with an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// meter draws hours against capacity in width cells
func meter(hours, capacity float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if capacity > 0 {
		filled = int(math.Round(hours / capacity * float64(width)))
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
