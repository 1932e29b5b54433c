package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	wifilog "github.com/wifictl/wifictl/internal/log"
	"github.com/wifictl/wifictl/internal/session"
	"github.com/wifictl/wifictl/wifi"
)

// Model is the root bubbletea model. It owns the view stack and is the only
// place that talks to the session controller, so every mutation happens on
// the bubbletea goroutine.
type Model struct {
	stack      *ComponentStack
	controller *session.Controller
	scanner    *ScanSchedule
	spinner    spinner.Model

	logCh chan tea.Msg

	statusMessage string
	statusIsError bool
	width, height int
}

// NewModel creates the starting state of the application.
func NewModel(controller *session.Controller) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(CurrentTheme.Primary)

	scanner := NewScanSchedule(func() tea.Msg { return scanRequestMsg{} })
	listModel := NewListModel(scanner)

	m := &Model{
		stack:         NewComponentStack(listModel),
		controller:    controller,
		scanner:       scanner,
		spinner:       s,
		logCh:         make(chan tea.Msg, 16),
		statusMessage: "Scanning for networks...",
	}
	wifilog.SetOutput(m.logCh)
	return m
}

// Close detaches the log handler from the program. Call after the program
// exits.
func (m *Model) Close() {
	wifilog.SetOutput(nil)
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.stack.Top().Init(),
		waitForCompletion(m.controller),
		waitForExternal(m.logCh),
		func() tea.Msg { return scanRequestMsg{} },
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.stack.Resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case popViewMsg:
		m.stack.Pop()
		return m, nil

	case statusMsg:
		m.statusMessage = msg.text
		m.statusIsError = false
		return m, nil

	case wifilog.LogMsg:
		// Forward to the stack so the log view refreshes, then re-arm
		cmds = append(cmds, m.stack.Broadcast(msg), waitForExternal(m.logCh))
		return m, tea.Batch(cmds...)

	case completionMsg:
		return m, tea.Batch(m.applyCompletion(session.Completion(msg)), waitForCompletion(m.controller))

	case scanRequestMsg:
		if err := m.controller.Refresh(); err != nil {
			m.setError(err)
		} else {
			m.statusMessage = "Scanning for networks..."
			m.statusIsError = false
		}
		return m, nil

	case connectMsg:
		return m, m.connect(msg.ssid, nil, false)

	case connectWithSecretMsg:
		return m, m.connect(msg.ssid, msg.passphrase, true)

	case addManualMsg:
		if err := m.controller.AddManual(msg.ssid, msg.passphrase, msg.security, msg.hidden); err != nil {
			return m, deliverJoinError(err)
		}
		m.stack.Pop()
		m.status(fmt.Sprintf("Joining '%s'...", msg.ssid))
		return m, m.refreshEntries()

	case disconnectMsg:
		if err := m.controller.Disconnect(); err != nil {
			if errors.Is(err, wifi.ErrNotFound) {
				m.status("Not connected")
			} else {
				m.setError(err)
			}
			return m, nil
		}
		m.status("Disconnecting...")
		return m, m.refreshEntries()

	case forgetMsg:
		if err := m.controller.Forget(msg.ssid); err != nil {
			m.setError(err)
			return m, nil
		}
		m.status(fmt.Sprintf("Forgetting '%s'...", msg.ssid))
		return m, m.refreshEntries()

	case toggleAutoConnectMsg:
		if err := m.controller.ToggleAutoConnect(msg.ssid); err != nil {
			m.setError(err)
			return m, nil
		}
		return m, m.refreshEntries()
	}

	cmds = append(cmds, m.stack.Update(msg))

	var spinnerCmd tea.Cmd
	m.spinner, spinnerCmd = m.spinner.Update(msg)
	cmds = append(cmds, spinnerCmd)

	return m, tea.Batch(cmds...)
}

// connect submits a connect intent. When the controller asks for a
// credential, the answer depends on where the intent came from: the list
// pushes a credential form, the form itself shows the error inline.
func (m *Model) connect(ssid string, passphrase *string, fromForm bool) tea.Cmd {
	err := m.controller.Connect(ssid, passphrase)
	if err == nil {
		if fromForm {
			m.stack.Pop()
		}
		m.status(fmt.Sprintf("Connecting to '%s'...", ssid))
		return m.refreshEntries()
	}

	if fromForm {
		return deliverJoinError(err)
	}
	if errors.Is(err, session.ErrNeedsCredential) {
		if e, ok := m.controller.Entry(ssid); ok {
			return m.stack.Push(NewCredentialModel(&e))
		}
	}
	m.setError(err)
	return nil
}

// applyCompletion folds one finished operation into the reconciler and
// refreshes the list.
func (m *Model) applyCompletion(comp session.Completion) tea.Cmd {
	m.controller.Apply(comp)

	switch {
	case m.controller.Banner() != nil:
		m.setError(m.controller.Banner())
	case comp.Err != nil:
		if comp.SSID != "" {
			m.setError(fmt.Errorf("%s '%s': %w", comp.Kind, comp.SSID, comp.Err))
		} else {
			m.setError(fmt.Errorf("%s: %w", comp.Kind, comp.Err))
		}
	default:
		m.statusMessage = ""
		m.statusIsError = false
	}

	return m.refreshEntries()
}

// refreshEntries pushes the current reconciled view into the list.
func (m *Model) refreshEntries() tea.Cmd {
	return m.stack.Broadcast(entriesMsg(m.controller.View()))
}

func (m *Model) status(text string) {
	m.statusMessage = text
	m.statusIsError = false
}

func (m *Model) setError(err error) {
	m.statusMessage = err.Error()
	m.statusIsError = true
}

// deliverJoinError routes a rejected join back into the credential form.
func deliverJoinError(err error) tea.Cmd {
	return func() tea.Msg { return joinFailedMsg{err: err} }
}

// busy reports whether anything is in flight, for the spinner.
func (m *Model) busy() bool {
	if m.controller.Scanning() {
		return true
	}
	for _, e := range m.controller.View() {
		if e.Busy() {
			return true
		}
	}
	return false
}

func (m *Model) View() string {
	var s strings.Builder

	if banner := m.controller.Banner(); banner != nil {
		style := lipgloss.NewStyle().
			Foreground(CurrentTheme.Error).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(CurrentTheme.Error)
		s.WriteString(style.Render(fmt.Sprintf(" adapter unavailable: %s ", banner)))
		s.WriteString("\n")
	}

	s.WriteString(m.stack.View())

	if m.statusMessage != "" {
		style := lipgloss.NewStyle().Foreground(CurrentTheme.Primary)
		if m.statusIsError {
			style = lipgloss.NewStyle().Foreground(CurrentTheme.Error)
		}
		if m.busy() {
			s.WriteString(fmt.Sprintf("\n%s %s", m.spinner.View(), style.Render(m.statusMessage)))
		} else {
			s.WriteString(fmt.Sprintf("\n%s", style.Render(m.statusMessage)))
		}
	} else if m.busy() {
		s.WriteString(fmt.Sprintf("\n%s", m.spinner.View()))
	}

	return s.String()
}
