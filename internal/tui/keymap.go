package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the confirmation form's keyboard shortcuts.
type KeyMap struct {
	NextField key.Binding
	PrevField key.Binding
	NextValue key.Binding
	PrevValue key.Binding
	Accept    key.Binding
	Cancel    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab/↓", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("Shift+Tab/↑", "previous field"),
		),
		NextValue: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next category"),
		),
		PrevValue: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous category"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "accept"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("Esc", "cancel"),
		),
	}
}

// ShortHelp returns key bindings for the help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.NextValue, k.Accept, k.Cancel}
}

// FullHelp returns all key bindings.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.PrevField},
		{k.NextValue, k.PrevValue},
		{k.Accept, k.Cancel},
	}
}
