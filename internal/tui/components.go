package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func focusedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
}

func blurredStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Subtle)
}

// TextInput adapts a bubbles textinput to the Focusable interface, with a
// label and optional focus hooks.
type TextInput struct {
	Model   textinput.Model
	Label   string
	OnFocus func(*textinput.Model) tea.Cmd
	OnBlur  func(*textinput.Model)
}

func (t *TextInput) Focus() tea.Cmd {
	cmd := t.Model.Focus()
	if t.OnFocus != nil {
		return tea.Batch(cmd, t.OnFocus(&t.Model))
	}
	return cmd
}

func (t *TextInput) Blur() {
	t.Model.Blur()
	if t.OnBlur != nil {
		t.OnBlur(&t.Model)
	}
}

func (t *TextInput) Update(msg tea.Msg) (Focusable, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func (t *TextInput) View() string {
	style := blurredStyle()
	if t.Model.Focused() {
		style = focusedStyle()
	}
	return style.Render(t.Label) + " " + t.Model.View()
}

// Checkbox is a labeled on/off toggle.
type Checkbox struct {
	label   string
	checked bool
	focused bool
}

func NewCheckbox(label string, checked bool) *Checkbox {
	return &Checkbox{label: label, checked: checked}
}

func (c *Checkbox) Focus() tea.Cmd {
	c.focused = true
	return nil
}

func (c *Checkbox) Blur() {
	c.focused = false
}

func (c *Checkbox) Update(msg tea.Msg) (Focusable, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter", " ":
			c.checked = !c.checked
		}
	}
	return c, nil
}

func (c *Checkbox) View() string {
	box := "[ ]"
	if c.checked {
		box = "[x]"
	}
	if c.focused {
		return focusedStyle().Render(box + " " + c.label)
	}
	return blurredStyle().Render(box + " " + c.label)
}

func (c *Checkbox) Checked() bool {
	return c.checked
}

// RadioGroup selects one of several labeled options with the arrow keys.
type RadioGroup struct {
	label    string
	options  []string
	selected int
	focused  bool
}

func NewRadioGroup(label string, options []string) *RadioGroup {
	return &RadioGroup{label: label, options: options}
}

func (r *RadioGroup) Focus() tea.Cmd {
	r.focused = true
	return nil
}

func (r *RadioGroup) Blur() {
	r.focused = false
}

func (r *RadioGroup) Update(msg tea.Msg) (Focusable, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "right":
			r.selected = (r.selected + 1) % len(r.options)
		case "left":
			r.selected = (r.selected - 1 + len(r.options)) % len(r.options)
		}
	}
	return r, nil
}

func (r *RadioGroup) View() string {
	var s strings.Builder
	s.WriteString(blurredStyle().Render(r.label))
	s.WriteString(" ")
	for i, option := range r.options {
		style := blurredStyle()
		if r.focused && i == r.selected {
			style = focusedStyle()
		}
		marker := "( )"
		if i == r.selected {
			marker = "(•)"
		}
		s.WriteString(style.Render(marker + " " + option))
		s.WriteString("  ")
	}
	return s.String()
}

func (r *RadioGroup) Selected() int {
	return r.selected
}

// ButtonGroup is a horizontal row of buttons. Enter triggers the action with
// the selected index.
type ButtonGroup struct {
	buttons  []string
	selected int
	focused  bool
	action   func(int) tea.Cmd
}

func NewButtonGroup(buttons []string, action func(int) tea.Cmd) *ButtonGroup {
	return &ButtonGroup{buttons: buttons, action: action}
}

func (b *ButtonGroup) Focus() tea.Cmd {
	b.focused = true
	return nil
}

func (b *ButtonGroup) Blur() {
	b.focused = false
}

func (b *ButtonGroup) Update(msg tea.Msg) (Focusable, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "right":
			b.selected = (b.selected + 1) % len(b.buttons)
		case "left":
			b.selected = (b.selected - 1 + len(b.buttons)) % len(b.buttons)
		case "enter":
			if b.action != nil {
				return b, b.action(b.selected)
			}
		}
	}
	return b, nil
}

func (b *ButtonGroup) View() string {
	var s strings.Builder
	for i, label := range b.buttons {
		style := blurredStyle()
		if b.focused && i == b.selected {
			style = focusedStyle()
		}
		s.WriteString(style.Render("[ " + label + " ]"))
		s.WriteString("  ")
	}
	return s.String()
}
