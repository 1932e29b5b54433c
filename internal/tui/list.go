package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wifictl/wifictl/internal/session"
	"github.com/wifictl/wifictl/wifi"
)

// entryItem adapts a reconciled entry to the bubbles list.
type entryItem struct {
	session.Entry
}

func (i entryItem) Title() string       { return i.SSID }
func (i entryItem) FilterValue() string { return i.SSID }

func (i entryItem) Description() string {
	switch i.State {
	case session.StateConnectRequested, session.StateConnecting:
		return "connecting..."
	case session.StateDisconnectRequested, session.StateDisconnecting:
		return "disconnecting..."
	case session.StateForgetting:
		return "forgetting..."
	case session.StateFailed:
		return i.Reason.String()
	}
	if !i.InRange {
		return "out of range"
	}
	return fmt.Sprintf("%d%%", i.Signal)
}

// itemDelegate renders one entry per line with a state-colored title and a
// gradient-colored signal column.
type itemDelegate struct {
	list.DefaultDelegate
	listModel *ListModel
}

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(entryItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, listItem)
		return
	}

	title := i.Title()

	var icon string
	if i.InRange {
		switch i.Security {
		case wifi.SecurityOpen:
			icon = CurrentTheme.NetworkOpenIcon
		case wifi.SecurityUnknown:
			icon = CurrentTheme.NetworkUnknownIcon
		default:
			icon = CurrentTheme.NetworkSecureIcon
		}
	}
	if i.IsSaved {
		icon = CurrentTheme.NetworkSavedIcon
	}
	title = icon + title

	ssidColumnWidth := 30
	titleLen := len([]rune(title))
	if titleLen > ssidColumnWidth {
		title = string([]rune(title)[:ssidColumnWidth-1]) + "…"
		titleLen = ssidColumnWidth
	}
	padding := strings.Repeat(" ", ssidColumnWidth-titleLen)

	var titleStyle lipgloss.Style
	switch {
	case !i.InRange:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Disabled)
	case i.State == session.StateConnected:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Success)
	case i.State == session.StateFailed:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Error)
	case i.IsSaved:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Saved)
	default:
		titleStyle = lipgloss.NewStyle().Foreground(CurrentTheme.Normal)
	}
	title = titleStyle.Render(title)

	var desc string
	switch {
	case i.State == session.StateFailed:
		desc = lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(i.Description())
	case i.State == session.StateConnected:
		desc = CurrentTheme.FormatSignalStrength(i.Signal) +
			lipgloss.NewStyle().Foreground(CurrentTheme.Success).Render(" (connected)")
	case i.Busy():
		desc = lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Render(i.Description())
	case !i.InRange:
		desc = lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).Render(i.Description())
	default:
		desc = CurrentTheme.FormatSignalStrength(i.Signal)
		if i.Stale() {
			desc += lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).Render(" (stale)")
		}
	}

	var line string
	if index == m.Index() {
		if d.listModel.isForgetting {
			desc = lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render("Forget? (y/n)")
		}
		line = lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Render("▶ ") + title + padding + " " + desc
	} else {
		line = "  " + title + padding + " " + desc
	}
	fmt.Fprint(w, line)
}

// ListModel is the main network list view.
type ListModel struct {
	list         list.Model
	isForgetting bool
	scanner      *ScanSchedule
}

func NewListModel(scanner *ScanSchedule) *ListModel {
	m := &ListModel{scanner: scanner}
	delegate := itemDelegate{listModel: m}
	delegate.SetHeight(1)
	delegate.SetSpacing(0)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = fmt.Sprintf("%-27s %s", CurrentTheme.TitleIcon+"WiFi Network", "Signal")
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{
			key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scan")),
			key.NewBinding(key.WithKeys("c", "enter"), key.WithHelp("c", "connect")),
			key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disconnect")),
			key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "forget")),
		}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return append([]key.Binding{
			key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new network")),
			key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "autoconnect")),
			key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "auto-rescan")),
			key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logs")),
		}, l.AdditionalShortHelpKeys()...)
	}
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
	l.Styles.FilterPrompt = lipgloss.NewStyle().Foreground(CurrentTheme.Normal)
	l.Styles.FilterCursor = lipgloss.NewStyle().Foreground(CurrentTheme.Primary)
	m.list = l
	return m
}

func (m *ListModel) Init() tea.Cmd {
	return nil
}

// IsConsumingInput reports whether the fuzzy filter is active.
func (m *ListModel) IsConsumingInput() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *ListModel) Resize(width, height int) {
	h, v := lipgloss.NewStyle().Margin(1, 2).GetFrameSize()
	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true)
	bh, bv := border.GetFrameSize()
	extraVerticalSpace := 4
	m.list.SetSize(width-h-bh, height-v-bv-extraVerticalSpace)
}

// SetEntries replaces the list contents, keeping the selection on the same
// SSID when it survives the update.
func (m *ListModel) SetEntries(entries []session.Entry) {
	selectedSSID := ""
	if sel, ok := m.list.SelectedItem().(entryItem); ok {
		selectedSSID = sel.SSID
	}

	items := make([]list.Item, len(entries))
	newIndex := -1
	for i, e := range entries {
		items[i] = entryItem{Entry: e}
		if e.SSID == selectedSSID {
			newIndex = i
		}
	}
	m.list.SetItems(items)
	if newIndex >= 0 {
		m.list.Select(newIndex)
	}
}

// Selected returns the entry under the cursor.
func (m *ListModel) Selected() (session.Entry, bool) {
	sel, ok := m.list.SelectedItem().(entryItem)
	if !ok {
		return session.Entry{}, false
	}
	return sel.Entry, true
}

func (m *ListModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	var cmds []tea.Cmd

	oldIndex := m.list.Index()

	if m.isForgetting {
		selected, ok := m.list.SelectedItem().(entryItem)
		if !ok {
			m.isForgetting = false
		} else {
			finished, cmd := forgetHandler(msg, selected.SSID)
			if finished {
				m.isForgetting = false
				return m, cmd
			}
		}
		// Swallow everything else while the confirmation is up
		return m, nil
	}

	switch msg := msg.(type) {
	case entriesMsg:
		m.SetEntries(msg)
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "n":
			return NewCredentialModel(nil), m.scanner.SetSchedule(ScanOff)
		case "s":
			return m, func() tea.Msg { return scanRequestMsg{} }
		case "r":
			label, cmd := m.scanner.Cycle()
			return m, tea.Batch(cmd, func() tea.Msg { return statusMsg{text: label} })
		case "L":
			return NewLogModel(), nil
		case "d":
			return m, func() tea.Msg { return disconnectMsg{} }
		case "a":
			if selected, ok := m.list.SelectedItem().(entryItem); ok {
				ssid := selected.SSID
				return m, func() tea.Msg { return toggleAutoConnectMsg{ssid: ssid} }
			}
		case "f":
			if selected, ok := m.list.SelectedItem().(entryItem); ok && selected.IsSaved {
				m.isForgetting = true
				return m, nil
			}
		case "c", "enter":
			selected, ok := m.list.SelectedItem().(entryItem)
			if !ok {
				break
			}
			if selected.IsSaved || !selected.Security.RequiresPassphrase() {
				ssid := selected.SSID
				return m, func() tea.Msg { return connectMsg{ssid: ssid} }
			}
			// Secured and unsaved: ask for the passphrase first
			e := selected.Entry
			return NewCredentialModel(&e), m.scanner.SetSchedule(ScanOff)
		}
	}

	cmds = append(cmds, m.scanner.Update(msg))

	newList, cmd := m.list.Update(msg)
	m.list = newList
	cmds = append(cmds, cmd)

	if m.isForgetting && m.list.Index() != oldIndex {
		m.isForgetting = false
	}

	return m, tea.Batch(cmds...)
}

func (m *ListModel) View() string {
	var b strings.Builder
	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(CurrentTheme.Border)
	help := fmt.Sprintf("\n\n %s ", m.list.Help.View(m))
	b.WriteString(border.Render(m.list.View() + help))

	statusText := ""
	if len(m.list.Items()) > 0 {
		statusText = fmt.Sprintf("%d/%d", m.list.Index()+1, len(m.list.Items()))
	}
	if m.scanner.Interval() != ScanOff {
		statusText += fmt.Sprintf("  rescan %s", m.scanner)
	}
	b.WriteString("\n")
	b.WriteString(statusText)
	return lipgloss.NewStyle().Margin(1, 2).Render(b.String())
}

func (m *ListModel) FullHelp() [][]key.Binding {
	return m.list.FullHelp()
}

func (m *ListModel) ShortHelp() []key.Binding {
	h := m.list.ShortHelp()
	// Drop up/down, they are obvious
	if len(h) > 2 {
		return h[2:]
	}
	return h
}

// forgetHandler handles the keys for the inline forget confirmation. It
// returns whether the flow is finished, and a command to execute.
func forgetHandler(msg tea.Msg, ssid string) (finished bool, cmd tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "y", "enter":
			return true, func() tea.Msg { return forgetMsg{ssid: ssid} }
		case "n", "esc":
			return true, nil
		}
	}
	return false, nil
}
