package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestScanSchedule_Cycle(t *testing.T) {
	s := NewScanSchedule(func() tea.Msg { return scanRequestMsg{} })

	if s.Interval() != ScanOff {
		t.Fatalf("schedule should start off, got %v", s.Interval())
	}

	label, cmd := s.Cycle()
	if s.Interval() != ScanFast {
		t.Errorf("expected %v after first cycle, got %v", ScanFast, s.Interval())
	}
	if label != "auto-rescan: 8s" {
		t.Errorf("unexpected label %q", label)
	}
	if cmd == nil {
		t.Error("turning the schedule on should return a command")
	}

	_, _ = s.Cycle()
	if s.Interval() != ScanSlow {
		t.Errorf("expected %v after second cycle, got %v", ScanSlow, s.Interval())
	}

	_, _ = s.Cycle()
	if s.Interval() != ScanOff {
		t.Errorf("expected off after third cycle, got %v", s.Interval())
	}
}

func TestScanSchedule_TickWhileOff(t *testing.T) {
	s := NewScanSchedule(func() tea.Msg { return scanRequestMsg{} })
	if cmd := s.Update(tickMsg{}); cmd != nil {
		t.Error("a disarmed schedule should ignore ticks")
	}
}

func TestScanSchedule_TickWhileOn(t *testing.T) {
	s := NewScanSchedule(func() tea.Msg { return scanRequestMsg{} })
	s.SetSchedule(ScanFast)
	if cmd := s.Update(tickMsg{}); cmd == nil {
		t.Error("an armed schedule should act on ticks")
	}
}
