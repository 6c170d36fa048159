package tui

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/weekplanner/internal/calendar"
	"github.com/existflow/weekplanner/internal/model"
	"github.com/existflow/weekplanner/internal/planner"
)

type fakeRemote struct {
	mu      sync.Mutex
	tasks   []model.Task
	clients []model.Client
	next    int
}

func (f *fakeRemote) PlacedTasks(ctx context.Context, weekStart string) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Task
	for _, t := range f.tasks {
		if t.Placed() && t.WeekStart == weekStart {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRemote) InboxTasks(ctx context.Context) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Task
	for _, t := range f.tasks {
		if !t.Placed() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRemote) Clients(ctx context.Context) ([]model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Client(nil), f.clients...), nil
}

func (f *fakeRemote) CreateTask(ctx context.Context, draft model.TaskDraft, weekStart string) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	t := model.Task{
		ID:        fmt.Sprintf("t%d", f.next),
		Task:      draft.Task,
		Client:    draft.Client,
		Hours:     draft.Hours,
		Day:       draft.Day,
		Priority:  draft.Priority,
		WeekStart: weekStart,
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeRemote) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			patch.Apply(&f.tasks[i])
			return nil
		}
	}
	return model.ErrNotFound
}

func (f *fakeRemote) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRemote) CreateClient(ctx context.Context, name string) (model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := model.Client{ID: name, Name: name}
	f.clients = append(f.clients, c)
	return c, nil
}

func (f *fakeRemote) Import(ctx context.Context, batch model.ImportBatch) (model.ImportResult, error) {
	return model.ImportResult{}, nil
}

// Wednesday 8 January 2025
var testNow = time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) (Model, *fakeRemote) {
	t.Helper()
	remote := &fakeRemote{
		clients: []model.Client{{ID: "c1", Name: "UAF"}},
		tasks: []model.Task{
			{ID: "inbox1", Task: "Offerte", Client: "UAF", Hours: 2, Priority: model.PriorityMedium},
			{ID: "mon1", Task: "Review", Client: "UAF", Hours: 3, Day: model.Monday, Priority: model.PriorityHigh, WeekStart: "2025-01-06"},
		},
	}
	cal := calendar.New(calendar.WithClock(func() time.Time { return testNow }), calendar.WithLocation(time.UTC))
	store := planner.New(remote)

	m := NewModel(store, cal, 0)
	m = drain(t, m, loadCmd(store, m.week().Start))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 150, Height: 40})
	return next.(Model), remote
}

// drain runs cmd and every command that follows from it
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		require.Less(t, i, 10, "command chain does not settle")
		next, c := m.Update(cmd())
		m = next.(Model)
		cmd = c
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, cmd := m.Update(msg)
		m = drain(t, next.(Model), cmd)
	}
	return m
}

func TestNewModelFocusesToday(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, dayColumn(model.Wednesday), m.column)
	assert.Equal(t, 0, m.pending)
	assert.Len(t, m.store.Unplaced(), 1)
	assert.Len(t, m.store.Placed(), 1)
}

func TestMoveInboxTaskToDay(t *testing.T) {
	m, remote := newTestModel(t)

	m = press(t, m, "h", "h", "h")
	require.Equal(t, 0, m.column)
	require.NotNil(t, m.currentTask())

	m = press(t, m, "m", "3")

	wed := m.store.DayTasks(model.Wednesday)
	require.Len(t, wed, 1)
	assert.Equal(t, "inbox1", wed[0].ID)
	assert.Equal(t, "2025-01-06", wed[0].WeekStart)
	assert.Empty(t, m.store.Unplaced())
	assert.Equal(t, 3, m.column, "focus follows the task")

	remote.mu.Lock()
	assert.Equal(t, model.Wednesday, remote.tasks[0].Day)
	remote.mu.Unlock()
}

func TestShiftTaskAcrossColumns(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "h", "h")
	require.Equal(t, 1, m.column)

	m = press(t, m, "L")
	assert.Len(t, m.store.DayTasks(model.Tuesday), 1)
	assert.Equal(t, 2, m.column)

	m = press(t, m, "H", "H")
	assert.Len(t, m.store.Unplaced(), 2)
	assert.Equal(t, 0, m.column)
}

func TestQuickAddUsesFocusedColumn(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "a")
	require.Equal(t, ModeAddTask, m.mode)
	m.input.SetValue("Sprint review @Acme 1,5 !high")
	m = press(t, m, "enter")

	assert.Equal(t, ModeNormal, m.mode)
	wed := m.store.DayTasks(model.Wednesday)
	require.Len(t, wed, 1)
	assert.Equal(t, "Sprint review", wed[0].Task)
	assert.Equal(t, 1.5, wed[0].Hours)
	assert.Equal(t, model.PriorityHigh, wed[0].Priority)
	assert.Contains(t, m.store.Clients(), "Acme")
}

func TestQuickAddRejectsMissingHours(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "a")
	m.input.SetValue("Sprint review @Acme")
	m = press(t, m, "enter")

	assert.Contains(t, m.message, "hours must be positive")
	assert.Empty(t, m.store.DayTasks(model.Wednesday))
}

func TestToggleAndDelete(t *testing.T) {
	m, remote := newTestModel(t)

	m = press(t, m, "h", "h")
	m = press(t, m, "x")
	assert.True(t, m.store.DayTasks(model.Monday)[0].Completed)

	m = press(t, m, "d", "n")
	assert.Len(t, m.store.DayTasks(model.Monday), 1)

	m = press(t, m, "d", "y")
	assert.Empty(t, m.store.DayTasks(model.Monday))

	remote.mu.Lock()
	assert.Len(t, remote.tasks, 1)
	remote.mu.Unlock()
}

func TestWeekNavigation(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "]")
	assert.Equal(t, 1, m.offset)
	assert.Equal(t, "2025-01-13", m.store.Week())
	assert.Empty(t, m.store.Placed())

	m = press(t, m, "t")
	assert.Equal(t, 0, m.offset)
	assert.Equal(t, "2025-01-06", m.store.Week())
	assert.Len(t, m.store.Placed(), 1)
}

func TestViewShowsWeekHeader(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()
	assert.Contains(t, out, "Week 2")
	assert.Contains(t, out, "3u gepland")
	assert.Contains(t, out, "Inbox (1)")
}

func TestClientColorFollowsPosition(t *testing.T) {
	clients := []string{"UAF", "Amref"}
	assert.Equal(t, ClientColors[0], ClientColor("UAF", clients))
	assert.Equal(t, ClientColors[1], ClientColor("Amref", clients))
	assert.Equal(t, TextMuted, ClientColor("Acme", clients))

	many := make([]string, len(ClientColors)+1)
	for i := range many {
		many[i] = fmt.Sprintf("c%d", i)
	}
	assert.Equal(t, ClientColors[0], ClientColor(many[len(ClientColors)], many), "palette wraps")
}

func TestTaskShowsClient(t *testing.T) {
	out := renderTask(model.Task{Task: "Review", Client: "UAF", Hours: 1.5}, []string{"UAF"}, 30, false)
	assert.Contains(t, out, "● UAF")
	assert.Contains(t, out, "1u30m")
}

func TestNextPriority(t *testing.T) {
	assert.Equal(t, model.PriorityHigh, nextPriority(""))
	assert.Equal(t, model.PriorityLow, nextPriority(model.PriorityHigh))
	assert.Equal(t, model.PriorityMedium, nextPriority(model.PriorityLow))
}
