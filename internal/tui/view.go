package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/weekplanner/internal/model"
	"github.com/existflow/weekplanner/internal/planner"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(statusBar)

	var body string
	switch m.mode {
	case ModeAddTask, ModeEditTask, ModeAddClient:
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center,
			m.renderModal(), lipgloss.WithWhitespaceChars(" "))
	case ModeHelp:
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center,
			m.renderHelp())
	default:
		body = m.renderBoard(bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}

func (m Model) renderHeader() string {
	week := m.week()
	sum := m.store.Summary()
	first, last := week.Days[0], week.Days[len(week.Days)-1]

	title := fmt.Sprintf("Weekplanner  Week %d • %s - %s • %s gepland",
		week.Number, first.Display, last.Display, model.FormatHours(sum.Total))

	right := time.Now().In(m.cal.Location()).Format("15:04")
	if m.pending > 0 || m.store.Loading() {
		right = "Laden… " + right
	}

	left := HeaderStyle.Render(title)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + HelpStyle.Render(right)
}

func (m Model) renderBoard(height int) string {
	colWidth := m.width / numColumns
	if colWidth < 16 {
		colWidth = 16
	}

	sum := m.store.Summary()
	loads := make(map[model.Day]planner.DayLoad, len(sum.Days))
	for _, dl := range sum.Days {
		loads[dl.Day] = dl
	}

	cols := make([]string, 0, numColumns)
	for col := 0; col < numColumns; col++ {
		cols = append(cols, m.renderColumn(col, colWidth, height, loads[columnDay(col)], sum.Capacity))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderColumn(col, width, height int, load planner.DayLoad, capacity float64) string {
	// border and padding take two cells on each side
	inner := width - 4
	day := columnDay(col)
	tasks := m.columnTasks(col)
	week := m.week()

	var b strings.Builder
	if day == model.DayNone {
		b.WriteString(ColumnTitleStyle.Render(fmt.Sprintf("Inbox (%d)", len(tasks))) + "\n")
		b.WriteString(HelpStyle.Render("niet ingepland") + "\n")
	} else {
		date := week.Days[col-1].Display
		b.WriteString(ColumnTitleStyle.Render(truncate(fmt.Sprintf("%s %s", day, date), inner)) + "\n")
		total := fmt.Sprintf("%s/%s ", model.FormatHours(load.Hours), model.FormatHours(capacity))
		b.WriteString(LoadStyle(load.Hours, capacity).Render(total))
		b.WriteString(HelpStyle.Render(meter(load.Hours, capacity, inner-lipgloss.Width(total))) + "\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", inner)) + "\n")

	if len(tasks) == 0 {
		b.WriteString(HelpStyle.Render("leeg"))
	}
	clients := m.store.Clients()
	for i, t := range tasks {
		selected := col == m.column && i == m.cursors[col]
		b.WriteString(renderTask(t, clients, inner, selected))
	}

	style := ColumnStyle
	switch {
	case col == m.column:
		style = ColumnFocusedStyle
	case m.offset == 0 && day != model.DayNone && string(day) == m.cal.TodayLabel():
		style = ColumnTodayStyle
	}
	// the border adds two rows
	return style.Width(width - 2).Height(height - 2).Render(b.String())
}

func renderTask(t model.Task, clients []string, width int, selected bool) string {
	style := TaskItemStyle
	if selected {
		style = TaskItemSelectedStyle
	}

	icon := "[ ]"
	if t.Completed {
		icon = "[x]"
		style = style.Inherit(TaskDoneStyle)
	}

	line := style.Render(fmt.Sprintf("%s %s", icon, truncate(t.Task, width-4)))
	client := lipgloss.NewStyle().Foreground(ClientColor(t.Client, clients)).
		Render("● " + truncate(t.Client, width-16))
	meta := TaskMetaStyle.Render(fmt.Sprintf(" · %s ", model.FormatHours(t.Hours)))
	return line + "\n    " + client + meta + FormatPriority(t.Priority) + "\n"
}

func (m Model) renderStatusBar() string {
	var text string
	switch {
	case m.store.LastError() != nil:
		text = ErrorStyle.Render(fmt.Sprintf("⚠ %v (esc to dismiss)", m.store.LastError()))
	case m.message != "":
		text = m.message
	default:
		text = m.help.View(keys)
	}
	return StatusBarStyle.Width(m.width).Render(text)
}

func (m Model) renderModal() string {
	title := "Add Task"
	hint := "text @client hours !priority #day"
	switch m.mode {
	case ModeEditTask:
		title = "Edit Task"
	case ModeAddClient:
		title = "New Client"
		hint = ""
	}
	if m.mode == ModeAddTask {
		where := "Inbox"
		if d := columnDay(m.column); d != model.DayNone {
			where = string(d)
		}
		title = fmt.Sprintf("Add Task to: %s", where)
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	if hint != "" {
		content += HelpStyle.Render(hint) + "\n"
	}
	content += HelpStyle.Render("Enter:save  Esc:cancel")

	return ModalStyle.Render(content)
}

func (m Model) renderHelp() string {
	content := lipgloss.NewStyle().Bold(true).Render("Keyboard Shortcuts") + "\n\n"
	content += m.help.FullHelpView(keys.FullHelp()) + "\n\n"
	content += HelpStyle.Render("Press any key to close")
	return ModalStyle.Render(content)
}
