package tui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	wifilog "github.com/wifictl/wifictl/internal/log"
)

// LogModel shows the recent log records retained by the slog handler.
type LogModel struct{}

func NewLogModel() *LogModel {
	return &LogModel{}
}

func (m *LogModel) Init() tea.Cmd {
	return nil
}

func (m *LogModel) Resize(width, height int) {}

func (m *LogModel) IsConsumingInput() bool {
	return false
}

func (m *LogModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case wifilog.LogMsg:
		// New record arrived; the view re-reads the ring on render.
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "L":
			return m, func() tea.Msg { return popViewMsg{} }
		}
	}
	return m, nil
}

func (m *LogModel) View() string {
	var s strings.Builder
	s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true).Render("Recent logs"))
	s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Subtle).Render("  (press q to return)"))
	s.WriteString("\n\n")

	for _, rec := range wifilog.Records() {
		var style lipgloss.Style
		switch {
		case rec.Level >= slog.LevelError:
			style = lipgloss.NewStyle().Foreground(CurrentTheme.Error)
		case rec.Level >= slog.LevelWarn:
			style = lipgloss.NewStyle().Foreground(CurrentTheme.Primary)
		default:
			style = lipgloss.NewStyle().Foreground(CurrentTheme.Normal)
		}
		s.WriteString(style.Render(fmt.Sprintf("[%s] %s", rec.Level, rec.Message)))
		rec.Attrs(func(a slog.Attr) bool {
			s.WriteString(style.Render(fmt.Sprintf(" %s=%v", a.Key, a.Value.Any())))
			return true
		})
		s.WriteString("\n")
	}

	return lipgloss.NewStyle().Margin(1, 2).Render(s.String())
}
