package tui

import tea "github.com/charmbracelet/bubbletea"

// ComponentStack holds the view stack. The bottom component is permanent;
// Pop never removes it.
type ComponentStack struct {
	components []Component
}

// NewComponentStack creates a stack with the given initial components.
func NewComponentStack(initial ...Component) *ComponentStack {
	return &ComponentStack{components: initial}
}

// Push adds a component to the top of the stack and returns its Init command.
func (s *ComponentStack) Push(c Component) tea.Cmd {
	s.components = append(s.components, c)
	return c.Init()
}

// Pop removes the top component unless it is the last one.
func (s *ComponentStack) Pop() {
	if len(s.components) > 1 {
		s.components = s.components[:len(s.components)-1]
	}
}

// Top returns the top component.
func (s *ComponentStack) Top() Component {
	if len(s.components) == 0 {
		return nil
	}
	return s.components[len(s.components)-1]
}

// Depth returns how many components are on the stack.
func (s *ComponentStack) Depth() int {
	return len(s.components)
}

// IsConsumingInput reports whether the top component owns the keyboard.
func (s *ComponentStack) IsConsumingInput() bool {
	if top := s.Top(); top != nil {
		return top.IsConsumingInput()
	}
	return false
}

// Update delegates a message to the top component. If the component returns
// a different component, it is pushed onto the stack.
func (s *ComponentStack) Update(msg tea.Msg) tea.Cmd {
	top := s.Top()
	if top == nil {
		return nil
	}
	newComp, cmd := top.Update(msg)
	if newComp != top {
		return tea.Batch(cmd, s.Push(newComp))
	}
	return cmd
}

// Broadcast delivers a message to every component on the stack, bottom up.
func (s *ComponentStack) Broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for i, c := range s.components {
		newComp, cmd := c.Update(msg)
		s.components[i] = newComp
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Resize propagates the terminal size to every component.
func (s *ComponentStack) Resize(width, height int) {
	for _, c := range s.components {
		c.Resize(width, height)
	}
}

// View renders the top component.
func (s *ComponentStack) View() string {
	if top := s.Top(); top != nil {
		return top.View()
	}
	return ""
}
