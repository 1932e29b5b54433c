package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Focusable is a form element that can gain and lose keyboard focus.
type Focusable interface {
	// Focus is called when the element gains focus. It can return a command.
	Focus() tea.Cmd
	// Blur is called when the element loses focus.
	Blur()
	// Update is called while the element has focus.
	Update(msg tea.Msg) (Focusable, tea.Cmd)
	// View renders the element.
	View() string
}

// FocusManager moves focus between a flat list of form elements.
type FocusManager struct {
	items []Focusable
	focus int
}

// NewFocusManager creates a manager over the given items. Nothing is focused
// until Focus or SetFocus is called.
func NewFocusManager(items ...Focusable) *FocusManager {
	return &FocusManager{items: items}
}

// Focus gives focus to the first item.
func (m *FocusManager) Focus() tea.Cmd {
	if len(m.items) == 0 {
		return nil
	}
	m.focus = 0
	return m.items[0].Focus()
}

// Blur removes focus from the active item.
func (m *FocusManager) Blur() {
	if len(m.items) > 0 {
		m.items[m.focus].Blur()
	}
}

// Update passes the message to the focused item.
func (m *FocusManager) Update(msg tea.Msg) tea.Cmd {
	if len(m.items) == 0 {
		return nil
	}
	newItem, cmd := m.items[m.focus].Update(msg)
	m.items[m.focus] = newItem
	return cmd
}

// Next moves focus to the next item, wrapping around.
func (m *FocusManager) Next() tea.Cmd {
	if len(m.items) == 0 {
		return nil
	}
	m.items[m.focus].Blur()
	m.focus = (m.focus + 1) % len(m.items)
	return m.items[m.focus].Focus()
}

// Prev moves focus to the previous item, wrapping around.
func (m *FocusManager) Prev() tea.Cmd {
	if len(m.items) == 0 {
		return nil
	}
	m.items[m.focus].Blur()
	m.focus = (m.focus - 1 + len(m.items)) % len(m.items)
	return m.items[m.focus].Focus()
}

// Focused returns the item that currently has focus.
func (m *FocusManager) Focused() Focusable {
	if len(m.items) == 0 {
		return nil
	}
	return m.items[m.focus]
}

// SetFocus moves focus directly to the given item, if it is managed here.
func (m *FocusManager) SetFocus(target Focusable) tea.Cmd {
	for i, item := range m.items {
		if item == target {
			m.items[m.focus].Blur()
			m.focus = i
			return m.items[i].Focus()
		}
	}
	return nil
}

// Items returns the managed items in order, for rendering.
func (m *FocusManager) Items() []Focusable {
	return m.items
}
