package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wifictl/wifictl/internal/session"
	"github.com/wifictl/wifictl/qrwifi"
	"github.com/wifictl/wifictl/wifi"
)

// securityChoices are the options offered when adding a network by hand.
var securityChoices = []struct {
	label string
	value wifi.SecurityType
}{
	{"Open", wifi.SecurityOpen},
	{"WPA/WPA2", wifi.SecurityWPA2Personal},
	{"WPA3", wifi.SecurityWPA3Personal},
	{"WEP", wifi.SecurityWEP},
}

// CredentialModel collects what is needed to join a network: a passphrase
// for a secured network picked from the list, or the full SSID, security
// and hidden settings for a manual add.
type CredentialModel struct {
	focusManager    *FocusManager
	ssidInput       *TextInput
	passphraseInput *TextInput
	securityGroup   *RadioGroup
	hiddenCheckbox  *Checkbox
	buttonGroup     *ButtonGroup

	entry              *session.Entry
	passphraseRevealed bool
	errText            string
}

// NewCredentialModel builds the join form. A nil entry means a manual add
// for a network that was not (or cannot be) scanned.
func NewCredentialModel(entry *session.Entry) *CredentialModel {
	m := &CredentialModel{entry: entry}
	manual := entry == nil

	var items []Focusable

	if manual {
		ssid := textinput.New()
		ssid.CharLimit = 32
		ssid.Width = 30
		m.ssidInput = &TextInput{Model: ssid, Label: "SSID:"}
		items = append(items, m.ssidInput)

		m.securityGroup = NewRadioGroup("Security:", securityLabels())
		m.hiddenCheckbox = NewCheckbox("Hidden network", true)
	}

	pass := textinput.New()
	pass.CharLimit = 64
	pass.Width = 45
	pass.EchoMode = textinput.EchoPassword
	m.passphraseInput = &TextInput{
		Model: pass,
		Label: "Passphrase:",
		OnFocus: func(ti *textinput.Model) tea.Cmd {
			ti.EchoMode = textinput.EchoNormal
			m.passphraseRevealed = true
			return nil
		},
		OnBlur: func(ti *textinput.Model) {
			ti.EchoMode = textinput.EchoPassword
			m.passphraseRevealed = false
		},
	}
	items = append(items, m.passphraseInput)

	if manual {
		items = append(items, m.securityGroup, m.hiddenCheckbox)
	}

	m.buttonGroup = NewButtonGroup([]string{"Join", "Cancel"}, func(index int) tea.Cmd {
		switch index {
		case 0:
			return m.join()
		case 1:
			return func() tea.Msg { return popViewMsg{} }
		}
		return nil
	})
	items = append(items, m.buttonGroup)

	m.focusManager = NewFocusManager(items...)
	m.focusManager.Focus()
	return m
}

func securityLabels() []string {
	labels := make([]string, len(securityChoices))
	for i, c := range securityChoices {
		labels[i] = c.label
	}
	return labels
}

func (m *CredentialModel) security() wifi.SecurityType {
	if m.entry != nil {
		return m.entry.Security
	}
	return securityChoices[m.securityGroup.Selected()].value
}

// join validates the form and emits the matching intent.
func (m *CredentialModel) join() tea.Cmd {
	secret := m.passphraseInput.Model.Value()
	var passphrase *string
	if secret != "" {
		passphrase = &secret
	}

	if m.entry != nil {
		ssid := m.entry.SSID
		return func() tea.Msg {
			return connectWithSecretMsg{ssid: ssid, passphrase: passphrase}
		}
	}

	ssid := strings.TrimSpace(m.ssidInput.Model.Value())
	if ssid == "" {
		m.errText = "SSID is required"
		return nil
	}
	security := m.security()
	hidden := m.hiddenCheckbox.Checked()
	return func() tea.Msg {
		return addManualMsg{ssid: ssid, passphrase: passphrase, security: security, hidden: hidden}
	}
}

func (m *CredentialModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *CredentialModel) Resize(width, height int) {
	w := int(float64(width) * 0.8)
	if w > 80 {
		w = 80
	}
	if m.ssidInput != nil {
		m.ssidInput.Model.Width = w
	}
	m.passphraseInput.Model.Width = w
}

func (m *CredentialModel) IsConsumingInput() bool {
	if m.ssidInput != nil && m.ssidInput.Model.Focused() {
		return true
	}
	return m.passphraseInput.Model.Focused()
}

func (m *CredentialModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case joinFailedMsg:
		// A rejected join lands back here so the user can retry. The typed
		// passphrase is discarded, never kept around after a failure.
		m.errText = msg.err.Error()
		m.passphraseInput.Model.Reset()
		return m, m.focusManager.SetFocus(m.passphraseInput)
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			return m, m.focusManager.Next()
		case "shift+tab", "up":
			return m, m.focusManager.Prev()
		case "esc":
			return m, func() tea.Msg { return popViewMsg{} }
		case "enter":
			if _, ok := m.focusManager.Focused().(*TextInput); ok {
				return m, m.focusManager.Next()
			}
		}
	}

	return m, m.focusManager.Update(msg)
}

func (m *CredentialModel) View() string {
	var s strings.Builder
	s.WriteString("\n  ")
	title := "Join Network"
	if m.entry != nil {
		title = fmt.Sprintf("Join %q", m.entry.SSID)
	}
	s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true).Render(CurrentTheme.TitleIcon + title))
	s.WriteString("\n\n")

	if m.entry != nil {
		label := lipgloss.NewStyle().Foreground(CurrentTheme.Subtle)
		var details strings.Builder
		details.WriteString(label.Render("Security: "))
		details.WriteString(m.entry.Security.String())
		if m.entry.InRange {
			details.WriteString("\n")
			details.WriteString(label.Render("Signal:   "))
			details.WriteString(CurrentTheme.FormatSignalStrength(m.entry.Signal))
			if m.entry.Channel > 0 {
				details.WriteString(fmt.Sprintf("  ch %d", m.entry.Channel))
			}
		}
		s.WriteString(lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(CurrentTheme.Border).
			Padding(0, 2).
			Render(details.String()))
		s.WriteString("\n\n")
	}

	for _, item := range m.focusManager.Items() {
		s.WriteString(item.View())
		s.WriteString("\n\n")
	}

	if m.errText != "" {
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(m.errText))
		s.WriteString("\n\n")
	}

	s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).
		Render("(tab to switch fields, enter to select, esc to cancel)"))

	// Share the join as a QR code while the passphrase is visible
	if m.passphraseRevealed {
		if secret := m.passphraseInput.Model.Value(); secret != "" {
			ssid := ""
			hidden := false
			if m.entry != nil {
				ssid = m.entry.SSID
				hidden = m.entry.Hidden
			} else {
				ssid = strings.TrimSpace(m.ssidInput.Model.Value())
				hidden = m.hiddenCheckbox.Checked()
			}
			if ssid != "" {
				if qr, err := qrwifi.Render(ssid, secret, m.security(), hidden); err == nil {
					s.WriteString("\n\n")
					s.WriteString(qr)
				}
			}
		}
	}

	return lipgloss.NewStyle().Margin(1, 2).Render(s.String())
}
