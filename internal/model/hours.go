package model

import (
	"fmt"
	"math"
)

// Hour estimates are stored with two decimals
const (
	MinHours = 0.01
	MaxHours = 9999.99
)

// validHours checks h fits the stored precision and range
func validHours(h float64) error {
	switch {
	case !(h > 0):
		return fmt.Errorf("%w: hours must be positive", ErrInvalidTask)
	case h < MinHours:
		return fmt.Errorf("%w: hours must be at least %.2f", ErrInvalidTask, MinHours)
	case h > MaxHours:
		return fmt.Errorf("%w: hours must be at most %.2f", ErrInvalidTask, MaxHours)
	}
	return nil
}

// FormatHours renders an hour estimate as "1u15m", "2u" or "30m"
func FormatHours(h float64) string {
	if h == 0 {
		return "0u"
	}
	hours := math.Floor(h)
	mins := int(math.Round((h - hours) * 60))
	if mins == 60 {
		hours++
		mins = 0
	}
	if mins == 0 {
		return fmt.Sprintf("%du", int(hours))
	}
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%du%dm", int(hours), mins)
}
