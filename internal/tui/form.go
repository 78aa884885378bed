package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todoapp/internal/apiclient"
)

// form is the transient state of the new-todo form: three text inputs and
// a cycling priority selector.
type form struct {
	inputs   []textinput.Model
	focus    int
	priority int
}

var priorities = []string{"LOW", "MEDIUM", "HIGH"}

const (
	fieldTitle = iota
	fieldDescription
	fieldDueDate
)

func newForm() form {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 120

	description := textinput.New()
	description.Placeholder = "Description (optional)"
	description.CharLimit = 500

	dueDate := textinput.New()
	dueDate.Placeholder = "Due date YYYY-MM-DD (optional)"
	dueDate.CharLimit = 10

	return form{
		inputs:   []textinput.Model{title, description, dueDate},
		priority: 1, // MEDIUM
	}
}

func (f *form) focusCmd() tea.Cmd {
	return f.inputs[fieldTitle].Focus()
}

func (f *form) nextField() tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + 1) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

func (f *form) view() string {
	var b strings.Builder
	b.WriteString("Add New Todo\n\n")
	for _, input := range f.inputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString("Priority (←/→): ")
	b.WriteString(priorityStyle[priorities[f.priority]].Render(priorities[f.priority]))
	b.WriteString("\n")
	return b.String()
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.status = ""
		return m, nil

	case "tab", "shift+tab":
		return m, m.form.nextField()

	case "left":
		if m.form.priority > 0 {
			m.form.priority--
		}
		return m, nil

	case "right":
		if m.form.priority < len(priorities)-1 {
			m.form.priority++
		}
		return m, nil

	case "enter":
		title := strings.TrimSpace(m.form.inputs[fieldTitle].Value())
		if title == "" {
			m.status = "Title is required"
			return m, nil
		}

		params := apiclient.CreateTodoParams{
			Title:    title,
			UserID:   m.userID,
			Priority: &priorities[m.form.priority],
		}
		if desc := strings.TrimSpace(m.form.inputs[fieldDescription].Value()); desc != "" {
			params.Description = &desc
		}
		if due := strings.TrimSpace(m.form.inputs[fieldDueDate].Value()); due != "" {
			params.DueDate = &due
		}

		m.status = ""
		return m, m.createTodo(params)
	}

	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}

// updateFormMsg forwards non-key messages (cursor blinks) to the focused
// input.
func (m Model) updateFormMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}
