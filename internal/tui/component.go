package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wifictl/wifictl/internal/session"
	"github.com/wifictl/wifictl/wifi"
)

// Component is the interface for a view on the stack.
type Component interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Component, tea.Cmd)
	View() string
	Resize(width, height int)
	// IsConsumingInput reports whether the component currently owns the
	// keyboard, e.g. a focused text input. Global keybindings are
	// suppressed while it does.
	IsConsumingInput() bool
}

// Bubbletea messages used to communicate between views and the root model.
type (
	// popViewMsg pops the current view from the stack.
	popViewMsg struct{}
	// statusMsg replaces the status line at the bottom of the screen.
	statusMsg struct{ text string }

	// completionMsg carries one finished session operation into Update.
	completionMsg session.Completion
	// entriesMsg pushes a fresh reconciled view into the list.
	entriesMsg []session.Entry

	// User intents, emitted by views and translated into controller
	// calls by the root model.
	scanRequestMsg       struct{}
	connectMsg           struct{ ssid string }
	connectWithSecretMsg struct {
		ssid       string
		passphrase *string
	}
	addManualMsg struct {
		ssid       string
		passphrase *string
		security   wifi.SecurityType
		hidden     bool
	}
	// joinFailedMsg sends a rejected join back to the credential form.
	joinFailedMsg struct{ err error }

	disconnectMsg        struct{}
	forgetMsg            struct{ ssid string }
	toggleAutoConnectMsg struct{ ssid string }
)

// waitForCompletion re-arms on the controller's completion channel. The
// returned message is applied inside Update, so all model mutation stays on
// the bubbletea goroutine.
func waitForCompletion(c *session.Controller) tea.Cmd {
	return func() tea.Msg {
		comp, ok := <-c.Events()
		if !ok {
			return nil
		}
		return completionMsg(comp)
	}
}

// waitForExternal drains the side channel fed by the log handler.
func waitForExternal(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
