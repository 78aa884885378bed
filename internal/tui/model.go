// Package tui is the terminal frontend. It renders the query cache's view
// of the todo list and forwards toggle, delete and create intents to the
// cache controller; it keeps no state of its own beyond cursor position and
// transient form input.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"todoapp/internal/apiclient"
	"todoapp/internal/querycache"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("240"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	priorityStyle = map[string]lipgloss.Style{
		"LOW":    lipgloss.NewStyle().Foreground(lipgloss.Color("36")),
		"MEDIUM": lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		"HIGH":   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

type mode int

const (
	modeList mode = iota
	modeForm
)

type (
	todosLoadedMsg struct{ todos []apiclient.Todo }
	loadFailedMsg  struct{ err error }
	toggleDoneMsg  struct {
		id  uint
		err error
	}
	deleteDoneMsg struct {
		id  uint
		err error
	}
	createDoneMsg struct{ err error }
)

// Model is the root bubbletea model.
type Model struct {
	todos  *querycache.TodoCache
	userID uint

	mode    mode
	form    form
	spinner spinner.Model

	loading bool
	loadErr error
	items   []apiclient.Todo
	cursor  int
	pending map[uint]string
	status  string
}

// New builds the root model for the given cache controller and the
// bootstrapped user.
func New(todos *querycache.TodoCache, userID uint) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = pendingStyle

	return Model{
		todos:   todos,
		userID:  userID,
		spinner: sp,
		loading: true,
		pending: make(map[uint]string),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadTodos())
}

func (m Model) loadTodos() tea.Cmd {
	return func() tea.Msg {
		todos, err := m.todos.List(context.Background())
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return todosLoadedMsg{todos: todos}
	}
}

func (m Model) toggleTodo(id uint, completed bool) tea.Cmd {
	return func() tea.Msg {
		_, err := m.todos.ToggleCompleted(context.Background(), id, completed)
		return toggleDoneMsg{id: id, err: err}
	}
}

func (m Model) deleteTodo(id uint) tea.Cmd {
	return func() tea.Msg {
		err := m.todos.Delete(context.Background(), id)
		return deleteDoneMsg{id: id, err: err}
	}
}

func (m Model) createTodo(params apiclient.CreateTodoParams) tea.Cmd {
	return func() tea.Msg {
		_, err := m.todos.Create(context.Background(), params)
		return createDoneMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case todosLoadedMsg:
		m.loading = false
		m.loadErr = nil
		m.items = msg.todos
		if m.cursor >= len(m.items) && m.cursor > 0 {
			m.cursor = len(m.items) - 1
		}
		return m, nil

	case loadFailedMsg:
		m.loading = false
		m.loadErr = msg.err
		return m, nil

	case toggleDoneMsg:
		delete(m.pending, msg.id)
		if msg.err != nil {
			m.status = fmt.Sprintf("Toggle failed: %v", msg.err)
		} else {
			m.status = ""
		}
		// The settled mutation invalidated the list; refetch for the
		// server-authoritative view (or the rolled-back one on failure).
		return m, m.loadTodos()

	case deleteDoneMsg:
		delete(m.pending, msg.id)
		if msg.err != nil {
			m.status = fmt.Sprintf("Delete failed: %v", msg.err)
		} else {
			m.status = ""
		}
		return m, m.loadTodos()

	case createDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Create failed: %v", msg.err)
			return m, nil
		}
		m.status = ""
		m.mode = modeList
		return m, m.loadTodos()

	case tea.KeyMsg:
		if m.mode == modeForm {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}

	if m.mode == modeForm {
		return m.updateFormMsg(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case "r":
		if m.loadErr != nil {
			m.loading = true
			m.loadErr = nil
			return m, m.loadTodos()
		}

	case " ":
		if m.cursor < len(m.items) {
			todo := m.items[m.cursor]
			if _, busy := m.pending[todo.ID]; busy {
				return m, nil
			}
			completed := !todo.Completed
			// Mirror the optimistic cache write immediately.
			m.items[m.cursor].Completed = completed
			m.pending[todo.ID] = "toggling"
			return m, m.toggleTodo(todo.ID, completed)
		}

	case "d":
		if m.cursor < len(m.items) {
			todo := m.items[m.cursor]
			if _, busy := m.pending[todo.ID]; busy {
				return m, nil
			}
			m.pending[todo.ID] = "deleting"
			return m, m.deleteTodo(todo.ID)
		}

	case "n":
		m.mode = modeForm
		m.form = newForm()
		return m, m.form.focusCmd()
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("My Todo List"))
	b.WriteString("\n")

	if m.mode == modeForm {
		b.WriteString(m.form.view())
		if m.status != "" {
			b.WriteString("\n" + errorStyle.Render(m.status))
		}
		b.WriteString(helpStyle.Render("enter submit · tab next field · esc cancel"))
		return b.String()
	}

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Loading todos...\n")

	case m.loadErr != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error loading todos: %v", m.loadErr)))
		b.WriteString("\n" + helpStyle.Render("r retry · q quit"))
		return b.String()

	case len(m.items) == 0:
		b.WriteString("No todos yet. Add some!\n")

	default:
		for i, todo := range m.items {
			b.WriteString(m.renderItem(i, todo))
			b.WriteString("\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render(m.status))
	}
	b.WriteString(helpStyle.Render("space toggle · d delete · n new · j/k move · q quit"))
	return b.String()
}

func (m Model) renderItem(i int, todo apiclient.Todo) string {
	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}

	check := "[ ]"
	if todo.Completed {
		check = "[x]"
	}

	line := fmt.Sprintf("%s %s", check, todo.Title)
	if todo.Completed {
		line = doneStyle.Render(line)
	}

	if style, ok := priorityStyle[todo.Priority]; ok {
		line += " " + style.Render(todo.Priority)
	}
	if todo.DueDate != nil {
		line += helpStyle.Render(" due " + shortDate(*todo.DueDate))
	}
	if state, busy := m.pending[todo.ID]; busy {
		line += " " + pendingStyle.Render(m.spinner.View()+state)
	}

	return cursor + line
}

func shortDate(iso string) string {
	if len(iso) >= 10 {
		return iso[:10]
	}
	return iso
}
