package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	ScanOff  = 0
	ScanFast = 8 * time.Second
	ScanSlow = 30 * time.Second
)

// tickMsg triggers the next scheduled rescan.
type tickMsg struct{}

// ScanSchedule requests a rescan at a regular interval. It starts off.
type ScanSchedule struct {
	callback func() tea.Msg
	interval time.Duration
}

// NewScanSchedule creates a schedule that emits via callback on each tick.
func NewScanSchedule(callback func() tea.Msg) *ScanSchedule {
	return &ScanSchedule{callback: callback}
}

// Interval returns the current rescan interval, ScanOff when disabled.
func (s *ScanSchedule) Interval() time.Duration {
	return s.interval
}

// Cycle advances off -> 8s -> 30s -> off and returns a human label for the
// new setting.
func (s *ScanSchedule) Cycle() (string, tea.Cmd) {
	switch s.interval {
	case ScanOff:
		return "auto-rescan: 8s", s.SetSchedule(ScanFast)
	case ScanFast:
		return "auto-rescan: 30s", s.SetSchedule(ScanSlow)
	default:
		return "auto-rescan: off", s.SetSchedule(ScanOff)
	}
}

// SetSchedule sets the rescan interval. Turning the schedule on fires an
// immediate scan and starts the tick loop.
func (s *ScanSchedule) SetSchedule(interval time.Duration) tea.Cmd {
	isStarting := s.interval == ScanOff && interval != ScanOff
	s.interval = interval

	if isStarting {
		return tea.Batch(s.callback, s.tick())
	}
	return nil
}

// Update reacts to tick messages while the schedule is on.
func (s *ScanSchedule) Update(msg tea.Msg) tea.Cmd {
	if s.interval == ScanOff {
		return nil
	}
	if _, ok := msg.(tickMsg); ok {
		return tea.Batch(s.callback, s.tick())
	}
	return nil
}

func (s *ScanSchedule) tick() tea.Cmd {
	if s.interval == ScanOff {
		return nil
	}
	return tea.Tick(s.interval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// String describes the schedule for the status line.
func (s *ScanSchedule) String() string {
	if s.interval == ScanOff {
		return "off"
	}
	return s.interval.String()
}
