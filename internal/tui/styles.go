package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/weekplanner/internal/model"
)

// Color palette
var (
	// Priority colors
	PriorityHigh   = lipgloss.Color("#FF6B6B") // Red
	PriorityMedium = lipgloss.Color("#FFE66D") // Yellow
	PriorityLow    = lipgloss.Color("#4ECDC4") // Blue

	// Load colors
	LoadOK   = lipgloss.Color("#95E1A3") // Green
	LoadFull = lipgloss.Color("#FFB347") // Orange
	LoadOver = lipgloss.Color("#FF6B6B") // Red

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Today     = lipgloss.Color("#FFB347")
	ErrorText = lipgloss.Color("#FF6B6B")
)

// ClientColors are assigned to clients by position, wrapping around
var ClientColors = []lipgloss.Color{
	"#EDB90A", "#22C982", "#4D94F7", "#8B5CF6", "#EC4899",
	"#F97316", "#14B8A6", "#E04848", "#6366F1", "#84CC16",
}

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	ColumnStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	ColumnFocusedStyle = ColumnStyle.
				BorderForeground(Primary)

	ColumnTodayStyle = ColumnStyle.
				BorderForeground(Today)

	ColumnTitleStyle = lipgloss.NewStyle().
				Bold(true)

	TaskItemStyle = lipgloss.NewStyle()

	TaskItemSelectedStyle = lipgloss.NewStyle().
				Background(Surface).
				Bold(true)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true)

	TaskMetaStyle = lipgloss.NewStyle().
			Foreground(TextMuted)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorText).
			Bold(true)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// PriorityStyle returns the style for a priority badge
func PriorityStyle(p model.Priority) lipgloss.Style {
	switch p {
	case model.PriorityHigh:
		return lipgloss.NewStyle().Foreground(PriorityHigh).Bold(true)
	case model.PriorityLow:
		return lipgloss.NewStyle().Foreground(PriorityLow)
	default:
		return lipgloss.NewStyle().Foreground(PriorityMedium)
	}
}

// FormatPriority renders a one-character priority badge
func FormatPriority(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return PriorityStyle(p).Render("▲")
	case model.PriorityLow:
		return PriorityStyle(p).Render("▽")
	default:
		return PriorityStyle(p).Render("•")
	}
}

// LoadStyle colors an hours total against the day capacity
func LoadStyle(hours, capacity float64) lipgloss.Style {
	switch {
	case hours > capacity:
		return lipgloss.NewStyle().Foreground(LoadOver).Bold(true)
	case hours == capacity:
		return lipgloss.NewStyle().Foreground(LoadFull)
	default:
		return lipgloss.NewStyle().Foreground(LoadOK)
	}
}

// ClientColor picks the palette entry for name from its position in
// clients. Unknown clients are muted.
func ClientColor(name string, clients []string) lipgloss.Color {
	for i, c := range clients {
		if c == name {
			return ClientColors[i%len(ClientColors)]
		}
	}
	return TextMuted
}
