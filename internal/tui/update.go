package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/weekplanner/internal/logger"
	"github.com/existflow/weekplanner/internal/model"
	"github.com/existflow/weekplanner/internal/planner"
)

const requestTimeout = 30 * time.Second

// tickMsg redraws the board so the today marker follows the clock
type tickMsg time.Time

// loadedMsg is sent when a week load finished
type loadedMsg struct {
	week string
	err  error
}

// migratedMsg is sent when the legacy migration finished
type migratedMsg struct {
	result model.ImportResult
	err    error
}

// resultMsg is sent when a mutation finished. The task with id, if any,
// gets the focus.
type resultMsg struct {
	text string
	id   string
	err  error
}

// Init loads the viewed week
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadCmd(m.store, m.week().Start), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Every(30*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadCmd(store *planner.Store, week string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return loadedMsg{week: week, err: store.Load(ctx, week)}
	}
}

func migrateCmd(store *planner.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := store.Migrate(ctx)
		return migratedMsg{result: res, err: err}
	}
}

// run performs a mutation off the UI goroutine
func (m Model) run(text string, fn func(ctx context.Context) (string, error)) (tea.Model, tea.Cmd) {
	m.pending++
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		id, err := fn(ctx)
		return resultMsg{text: text, id: id, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tickCmd()

	case loadedMsg:
		m.pending--
		m.clampCursors()
		if msg.err != nil {
			m.message = fmt.Sprintf("Could not load week: %v", msg.err)
			return m, nil
		}
		if !m.migrated {
			m.migrated = true
			m.pending++
			return m, migrateCmd(m.store)
		}
		return m, nil

	case migratedMsg:
		m.pending--
		m.clampCursors()
		switch {
		case msg.err != nil:
			m.message = fmt.Sprintf("Migration failed: %v", msg.err)
		case msg.result.Tasks > 0 || msg.result.Clients > 0:
			m.message = fmt.Sprintf("Moved %d tasks and %d clients from local storage", msg.result.Tasks, msg.result.Clients)
		}
		return m, nil

	case resultMsg:
		m.pending--
		m.clampCursors()
		if msg.err != nil {
			m.message = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.message = msg.text
		if msg.id != "" {
			if t, err := m.store.Lookup(msg.id); err == nil {
				m.follow(t.ID, t.Day)
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAddTask, ModeEditTask, ModeAddClient:
			return m.updateInput(msg)
		case ModeMove:
			return m.updateMove(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursors[m.column] > 0 {
			m.cursors[m.column]--
		}

	case key.Matches(msg, keys.Down):
		if m.cursors[m.column] < len(m.columnTasks(m.column))-1 {
			m.cursors[m.column]++
		}

	case key.Matches(msg, keys.Left):
		if m.column > 0 {
			m.column--
		}

	case key.Matches(msg, keys.Right):
		if m.column < numColumns-1 {
			m.column++
		}

	case key.Matches(msg, keys.PrevWeek):
		return m.gotoWeek(m.offset - 1)

	case key.Matches(msg, keys.NextWeek):
		return m.gotoWeek(m.offset + 1)

	case key.Matches(msg, keys.ThisWeek):
		return m.gotoWeek(0)

	case key.Matches(msg, keys.Refresh):
		m.pending++
		return m, loadCmd(m.store, m.week().Start)

	case key.Matches(msg, keys.ShiftLeft):
		return m.shiftTask(-1)

	case key.Matches(msg, keys.ShiftRight):
		return m.shiftTask(1)

	case key.Matches(msg, keys.Move):
		if m.currentTask() != nil {
			m.mode = ModeMove
			m.message = "Move to: 0 inbox, 1-5 Maandag-Vrijdag"
		}

	case key.Matches(msg, keys.Done):
		return m.toggleDone()

	case key.Matches(msg, keys.Priority):
		return m.cyclePriority()

	case key.Matches(msg, keys.Delete):
		if t := m.currentTask(); t != nil {
			m.mode = ModeConfirmDelete
			m.message = fmt.Sprintf("Delete \"%s\"? [y/N]", truncate(t.Task, 40))
		}

	case key.Matches(msg, keys.Add):
		return m.startInput(ModeAddTask, "", "Offerte schrijven @UAF 1,5 !high")

	case key.Matches(msg, keys.Edit):
		if t := m.currentTask(); t != nil {
			return m.startInput(ModeEditTask, t.Task, "")
		}

	case key.Matches(msg, keys.Client):
		return m.startInput(ModeAddClient, "", "Client name")

	case key.Matches(msg, keys.Escape):
		m.message = ""
		m.store.ClearError()

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m Model) gotoWeek(offset int) (tea.Model, tea.Cmd) {
	m.offset = offset
	m.cursors = [numColumns]int{}
	if offset == 0 {
		m.column = m.todayColumn()
	}
	m.message = ""
	m.pending++
	logger.Debug("Switching week", logger.F("offset", offset))
	return m, loadCmd(m.store, m.week().Start)
}

func (m Model) startInput(mode Mode, value, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return m, nil
}

func (m Model) moveTo(t model.Task, day model.Day) (tea.Model, tea.Cmd) {
	if t.Day == day {
		return m, nil
	}
	store := m.store
	where := "inbox"
	if day != model.DayNone {
		where = string(day)
	}
	return m.run(fmt.Sprintf("Moved to %s: %s", where, t.Task), func(ctx context.Context) (string, error) {
		return t.ID, store.MoveTask(ctx, t.ID, day)
	})
}

func (m Model) shiftTask(delta int) (tea.Model, tea.Cmd) {
	t := m.currentTask()
	if t == nil {
		return m, nil
	}
	target := m.column + delta
	if target < 0 || target >= numColumns {
		return m, nil
	}
	return m.moveTo(*t, columnDay(target))
}

func (m Model) updateMove(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	m.message = ""
	t := m.currentTask()
	if t == nil {
		return m, nil
	}

	s := msg.String()
	if len(s) != 1 || s[0] < '0' || s[0] > '5' {
		return m, nil
	}
	return m.moveTo(*t, columnDay(int(s[0]-'0')))
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	m.message = ""
	t := m.currentTask()
	if t == nil || (msg.String() != "y" && msg.String() != "Y") {
		return m, nil
	}

	store, id := m.store, t.ID
	return m.run(fmt.Sprintf("Deleted: %s", t.Task), func(ctx context.Context) (string, error) {
		return "", store.RemoveTask(ctx, id)
	})
}

func (m Model) toggleDone() (tea.Model, tea.Cmd) {
	t := m.currentTask()
	if t == nil {
		return m, nil
	}
	text := fmt.Sprintf("Completed: %s", t.Task)
	if t.Completed {
		text = fmt.Sprintf("Reopened: %s", t.Task)
	}
	store, id := m.store, t.ID
	return m.run(text, func(ctx context.Context) (string, error) {
		return id, store.ToggleComplete(ctx, id)
	})
}

func nextPriority(p model.Priority) model.Priority {
	switch p.OrDefault() {
	case model.PriorityMedium:
		return model.PriorityHigh
	case model.PriorityHigh:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

func (m Model) cyclePriority() (tea.Model, tea.Cmd) {
	t := m.currentTask()
	if t == nil {
		return m, nil
	}
	p := nextPriority(t.Priority)
	store, id := m.store, t.ID
	return m.run(fmt.Sprintf("Priority %s: %s", p, t.Task), func(ctx context.Context) (string, error) {
		return id, store.UpdateTask(ctx, id, model.TaskPatch{Priority: &p})
	})
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Enter):
		value := m.input.Value()
		mode := m.mode
		m.mode = ModeNormal
		m.input.Blur()
		if value == "" {
			return m, nil
		}

		switch mode {
		case ModeAddTask:
			return m.submitTask(value)
		case ModeEditTask:
			return m.submitEdit(value)
		case ModeAddClient:
			store := m.store
			return m.run(fmt.Sprintf("Added client: %s", value), func(ctx context.Context) (string, error) {
				return "", store.AddClient(ctx, value)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitTask adds a quick-add line to the focused column unless it names
// a day itself. Unknown clients are created first.
func (m Model) submitTask(line string) (tea.Model, tea.Cmd) {
	draft, err := planner.ParseQuickAdd(line)
	if err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
		return m, nil
	}
	if draft.Day == model.DayNone {
		draft.Day = columnDay(m.column)
	}
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		m.message = fmt.Sprintf("Error: %v (use: text @client hours)", err)
		return m, nil
	}

	store := m.store
	known := false
	for _, c := range store.Clients() {
		if c == draft.Client {
			known = true
			break
		}
	}

	return m.run(fmt.Sprintf("Added: %s", draft.Task), func(ctx context.Context) (string, error) {
		if !known {
			if err := store.AddClient(ctx, draft.Client); err != nil {
				return "", err
			}
		}
		t, err := store.AddTask(ctx, draft)
		return t.ID, err
	})
}

// submitEdit applies an edited line. Markers in the line change their
// fields; the remaining text replaces the task text.
func (m Model) submitEdit(line string) (tea.Model, tea.Cmd) {
	t := m.currentTask()
	if t == nil {
		return m, nil
	}
	draft, err := planner.ParseQuickAdd(line)
	if err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
		return m, nil
	}

	var patch model.TaskPatch
	if draft.Task != "" && draft.Task != t.Task {
		patch.Task = &draft.Task
	}
	if draft.Client != "" && draft.Client != t.Client {
		patch.Client = &draft.Client
	}
	if draft.Hours > 0 && draft.Hours != t.Hours {
		patch.Hours = &draft.Hours
	}
	if draft.Priority != "" && draft.Priority != t.Priority {
		patch.Priority = &draft.Priority
	}
	if draft.Day != model.DayNone && draft.Day != t.Day {
		patch.Day = &draft.Day
	}
	if patch.Empty() {
		return m, nil
	}

	store, id := m.store, t.ID
	return m.run(fmt.Sprintf("Updated: %s", t.Task), func(ctx context.Context) (string, error) {
		return id, store.UpdateTask(ctx, id, patch)
	})
}
