package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/existflow/weekplanner/internal/calendar"
	"github.com/existflow/weekplanner/internal/logger"
	"github.com/existflow/weekplanner/internal/model"
	"github.com/existflow/weekplanner/internal/planner"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeEditTask
	ModeAddClient
	ModeMove
	ModeConfirmDelete
	ModeHelp
)

// columns: the inbox followed by the five weekdays
const numColumns = 6

// Model is the weekly board
type Model struct {
	store *planner.Store
	cal   *calendar.Resolver

	offset   int
	migrated bool

	// UI state
	width   int
	height  int
	mode    Mode
	column  int
	cursors [numColumns]int

	// Input
	input textinput.Model
	help  help.Model

	// pending is the number of remote calls still running
	pending int
	message string
}

// NewModel creates the board for the week at offset
func NewModel(store *planner.Store, cal *calendar.Resolver, offset int) Model {
	logger.Info("Initializing TUI model", logger.F("offset", offset))

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	m := Model{
		store:   store,
		cal:     cal,
		offset:  offset,
		input:   ti,
		help:    help.New(),
		pending: 1, // the load started by Init
	}
	m.column = m.todayColumn()
	return m
}

// columnDay maps a column index to its day, DayNone for the inbox
func columnDay(col int) model.Day {
	if col <= 0 || col > len(model.Weekdays) {
		return model.DayNone
	}
	return model.Weekdays[col-1]
}

// dayColumn is the inverse of columnDay
func dayColumn(d model.Day) int {
	return model.DayIndex(d) + 1
}

// todayColumn focuses today's column in the current week, else Monday
func (m *Model) todayColumn() int {
	if m.offset == 0 {
		if d, err := model.ParseDay(m.cal.TodayLabel()); err == nil && d != model.DayNone {
			return dayColumn(d)
		}
	}
	return 1
}

func (m *Model) columnTasks(col int) []model.Task {
	return m.store.DayTasks(columnDay(col))
}

func (m *Model) currentTask() *model.Task {
	tasks := m.columnTasks(m.column)
	c := m.cursors[m.column]
	if c >= 0 && c < len(tasks) {
		return &tasks[c]
	}
	return nil
}

// clampCursors keeps every cursor inside its column
func (m *Model) clampCursors() {
	for col := 0; col < numColumns; col++ {
		n := len(m.columnTasks(col))
		if m.cursors[col] >= n {
			m.cursors[col] = n - 1
		}
		if m.cursors[col] < 0 {
			m.cursors[col] = 0
		}
	}
}

// follow puts the focus on the task with id after it moved
func (m *Model) follow(id string, day model.Day) {
	col := dayColumn(day)
	if day == model.DayNone {
		col = 0
	}
	for i, t := range m.columnTasks(col) {
		if t.ID == id {
			m.column = col
			m.cursors[col] = i
			return
		}
	}
}

func (m *Model) week() calendar.Week {
	return m.cal.Week(m.offset)
}
