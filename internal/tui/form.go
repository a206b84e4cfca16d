// Package tui provides a full-screen confirmation form for reviewing a
// draft before it becomes a record, built on bubbletea.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/veranek/receiptwise/internal/model"
	"github.com/veranek/receiptwise/internal/service"
)

// Form field order.
const (
	fieldVendor = iota
	fieldTotal
	fieldCategory
	fieldDate
	fieldCount
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C9E5E")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Width(10).
			Foreground(lipgloss.Color("#999999"))

	focusedLabelStyle = labelStyle.
				Foreground(lipgloss.Color("#7C9E5E")).
				Bold(true)

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)
)

// FormModel is the confirmation form. Vendor, total, and date are free
// text inputs; the category cycles through the registered names plus an
// uncategorized slot.
type FormModel struct {
	keymap     KeyMap
	inputs     []textinput.Model
	categories []string
	catIndex   int
	focus      int

	action   service.ReviewAction
	finished bool
}

// NewForm builds a form pre-filled from the draft. The category starts
// on the draft's guess when it matches a registered name, otherwise on
// the uncategorized slot.
func NewForm(draft model.Draft, categories []model.Category) FormModel {
	names := make([]string, 0, len(categories)+1)
	names = append(names, "") // uncategorized
	for _, cat := range categories {
		names = append(names, cat.Name)
	}

	catIndex := 0
	for i, name := range names {
		if name != "" && name == draft.Category {
			catIndex = i
			break
		}
	}

	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		input := textinput.New()
		input.CharLimit = 128
		inputs[i] = input
	}
	inputs[fieldVendor].SetValue(draft.Vendor)
	inputs[fieldVendor].Placeholder = "Vendor"
	inputs[fieldTotal].SetValue(draft.Total)
	inputs[fieldTotal].Placeholder = "0.00"
	inputs[fieldDate].SetValue(draft.Date)
	inputs[fieldDate].Placeholder = "YYYY-MM-DD"
	inputs[fieldVendor].Focus()

	return FormModel{
		keymap:     DefaultKeyMap(),
		inputs:     inputs,
		categories: names,
		catIndex:   catIndex,
	}
}

// Init implements tea.Model.
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateFocusedInput(msg)
	}

	switch {
	case key.Matches(keyMsg, m.keymap.Accept):
		m.action = service.ReviewAccept
		m.finished = true
		return m, tea.Quit

	case key.Matches(keyMsg, m.keymap.Cancel):
		m.action = service.ReviewCancel
		m.finished = true
		return m, tea.Quit

	case key.Matches(keyMsg, m.keymap.NextField):
		return m.moveFocus(1), nil

	case key.Matches(keyMsg, m.keymap.PrevField):
		return m.moveFocus(-1), nil

	case m.focus == fieldCategory && key.Matches(keyMsg, m.keymap.NextValue):
		m.catIndex = (m.catIndex + 1) % len(m.categories)
		return m, nil

	case m.focus == fieldCategory && key.Matches(keyMsg, m.keymap.PrevValue):
		m.catIndex = (m.catIndex - 1 + len(m.categories)) % len(m.categories)
		return m, nil
	}

	return m.updateFocusedInput(msg)
}

// View implements tea.Model.
func (m FormModel) View() string {
	if m.finished {
		return ""
	}

	labels := []string{"Vendor", "Total", "Category", "Date"}
	rows := make([]string, 0, fieldCount)
	for i := 0; i < fieldCount; i++ {
		style := labelStyle
		if i == m.focus {
			style = focusedLabelStyle
		}

		var value string
		if i == fieldCategory {
			value = m.categoryView()
		} else {
			value = m.inputs[i].View()
		}
		rows = append(rows, fmt.Sprintf("%s %s", style.Render(labels[i]+":"), value))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🧾 Confirm Receipt"))
	b.WriteString("\n")
	b.WriteString(strings.Join(rows, "\n"))
	b.WriteString(helpStyle.Render("\nTab: next field • ←/→: category • Enter: accept • Esc: cancel"))
	return boxStyle.Render(b.String())
}

// Draft returns the form's current field values.
func (m FormModel) Draft() model.Draft {
	return model.Draft{
		Vendor:   m.inputs[fieldVendor].Value(),
		Total:    m.inputs[fieldTotal].Value(),
		Category: m.categories[m.catIndex],
		Date:     m.inputs[fieldDate].Value(),
	}
}

// Action returns the outcome once the form has finished.
func (m FormModel) Action() service.ReviewAction {
	return m.action
}

// Finished reports whether the form has been accepted or canceled.
func (m FormModel) Finished() bool {
	return m.finished
}

func (m FormModel) categoryView() string {
	name := m.categories[m.catIndex]
	if name == "" {
		name = "(uncategorized)"
	}
	if m.focus == fieldCategory {
		return categoryStyle.Render("◀ " + name + " ▶")
	}
	return categoryStyle.Render(name)
}

func (m FormModel) moveFocus(delta int) FormModel {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	if m.focus != fieldCategory {
		m.inputs[m.focus].Focus()
	}
	return m
}

func (m FormModel) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus == fieldCategory {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}
