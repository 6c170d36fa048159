package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	ShiftLeft  key.Binding
	ShiftRight key.Binding
	Move       key.Binding
	PrevWeek   key.Binding
	NextWeek   key.Binding
	ThisWeek   key.Binding
	Add        key.Binding
	Edit       key.Binding
	Client     key.Binding
	Done       key.Binding
	Delete     key.Binding
	Priority   key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Quit       key.Binding
	Enter      key.Binding
	Escape     key.Binding
}

var keys = keyMap{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
	Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
	ShiftLeft:  key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H", "task to prev day")),
	ShiftRight: key.NewBinding(key.WithKeys("L", "shift+right"), key.WithHelp("L", "task to next day")),
	Move:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m 0-5", "move to inbox/day")),
	PrevWeek:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev week")),
	NextWeek:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next week")),
	ThisWeek:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "this week")),
	Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
	Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
	Client:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "new client")),
	Done:       key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x", "toggle done")),
	Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Priority:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "cycle priority")),
	Refresh:    key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "reload")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
	Escape:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

// ShortHelp is shown in the status bar
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Move, k.Done, k.Delete, k.PrevWeek, k.NextWeek, k.Help, k.Quit}
}

// FullHelp is shown on the help screen
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.PrevWeek, k.NextWeek, k.ThisWeek, k.Refresh},
		{k.Add, k.Edit, k.Client, k.Priority},
		{k.Move, k.ShiftLeft, k.ShiftRight, k.Done, k.Delete},
		{k.Help, k.Quit},
	}
}
