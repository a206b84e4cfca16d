package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranek/receiptwise/internal/model"
	"github.com/veranek/receiptwise/internal/service"
)

func testCategories() []model.Category {
	return []model.Category{
		{ID: "1", Name: "Grocery"},
		{ID: "2", Name: "Dining"},
	}
}

func pressKey(m tea.Model, keyType tea.KeyType) tea.Model {
	updated, _ := m.Update(tea.KeyMsg{Type: keyType})
	return updated
}

func typeText(m tea.Model, text string) tea.Model {
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestNewForm_PrefillsDraft(t *testing.T) {
	draft := model.Draft{Vendor: "Acme", Total: "42.50", Category: "Dining", Date: "2024-03-01"}
	form := NewForm(draft, testCategories())

	assert.Equal(t, draft, form.Draft())
	assert.False(t, form.Finished())
}

func TestNewForm_UnknownCategoryStartsUncategorized(t *testing.T) {
	draft := model.Draft{Vendor: "Acme", Total: "42.50", Category: "Gadgets", Date: "2024-03-01"}
	form := NewForm(draft, testCategories())

	// A guess that matches nothing falls back to the uncategorized slot.
	assert.Equal(t, "", form.Draft().Category)
}

func TestForm_AcceptReturnsEdits(t *testing.T) {
	draft := model.Draft{Vendor: "Acme", Total: "42.50", Category: "Grocery", Date: "2024-03-01"}
	var m tea.Model = NewForm(draft, testCategories())

	m = typeText(m, " Inc")
	m = pressKey(m, tea.KeyEnter)

	form, ok := m.(FormModel)
	require.True(t, ok)
	require.True(t, form.Finished())
	assert.Equal(t, service.ReviewAccept, form.Action())
	assert.Equal(t, "Acme Inc", form.Draft().Vendor)
}

func TestForm_CancelKeepsNothing(t *testing.T) {
	draft := model.Draft{Vendor: "Acme", Total: "42.50", Category: "Grocery", Date: "2024-03-01"}
	var m tea.Model = NewForm(draft, testCategories())

	m = pressKey(m, tea.KeyEsc)

	form, ok := m.(FormModel)
	require.True(t, ok)
	require.True(t, form.Finished())
	assert.Equal(t, service.ReviewCancel, form.Action())
}

func TestForm_CategoryCycling(t *testing.T) {
	draft := model.Draft{Vendor: "Acme", Total: "42.50", Date: "2024-03-01"}
	var m tea.Model = NewForm(draft, testCategories())

	// Move focus to the category field (vendor -> total -> category).
	m = pressKey(m, tea.KeyTab)
	m = pressKey(m, tea.KeyTab)

	m = pressKey(m, tea.KeyRight)
	assert.Equal(t, "Grocery", m.(FormModel).Draft().Category)

	m = pressKey(m, tea.KeyRight)
	assert.Equal(t, "Dining", m.(FormModel).Draft().Category)

	// Cycling wraps back to uncategorized.
	m = pressKey(m, tea.KeyRight)
	assert.Equal(t, "", m.(FormModel).Draft().Category)

	m = pressKey(m, tea.KeyLeft)
	assert.Equal(t, "Dining", m.(FormModel).Draft().Category)
}

func TestForm_FocusWraps(t *testing.T) {
	draft := model.Draft{Vendor: "Acme"}
	var m tea.Model = NewForm(draft, testCategories())

	for i := 0; i < 4; i++ {
		m = pressKey(m, tea.KeyTab)
	}
	// Back on vendor after a full cycle; typing edits it again.
	m = typeText(m, "!")
	assert.Equal(t, "Acme!", m.(FormModel).Draft().Vendor)
}

func TestForm_ViewShowsFields(t *testing.T) {
	draft := model.Draft{Vendor: "Acme", Total: "42.50", Category: "Grocery", Date: "2024-03-01"}
	form := NewForm(draft, testCategories())

	view := form.View()
	assert.Contains(t, view, "Confirm Receipt")
	assert.Contains(t, view, "Vendor")
	assert.Contains(t, view, "Grocery")
}
