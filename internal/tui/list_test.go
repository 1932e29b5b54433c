package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wifictl/wifictl/internal/session"
	"github.com/wifictl/wifictl/wifi"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestList() *ListModel {
	scanner := NewScanSchedule(func() tea.Msg { return scanRequestMsg{} })
	return NewListModel(scanner)
}

func TestListModel_NewKeyOpensForm(t *testing.T) {
	m := newTestList()
	comp, _ := m.Update(keyMsg("n"))
	if _, ok := comp.(*CredentialModel); !ok {
		t.Errorf("expected a *CredentialModel, got %T", comp)
	}
}

func TestListModel_ScanKey(t *testing.T) {
	m := newTestList()
	_, cmd := m.Update(keyMsg("s"))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(scanRequestMsg); !ok {
		t.Error("expected a scanRequestMsg")
	}
}

func TestListModel_ForgetFlow(t *testing.T) {
	m := newTestList()
	m.SetEntries([]session.Entry{
		{SSID: "HomeBase", IsSaved: true, InRange: true},
		{SSID: "NextDoor", IsSaved: true, InRange: true},
	})

	// 'f' arms the inline confirmation
	comp, _ := m.Update(keyMsg("f"))
	m = comp.(*ListModel)
	if !m.isForgetting {
		t.Fatal("isForgetting was not set")
	}

	// 'n' cancels
	comp, _ = m.Update(keyMsg("n"))
	m = comp.(*ListModel)
	if m.isForgetting {
		t.Fatal("isForgetting was not cleared after 'n'")
	}

	// Re-arm and confirm with 'y'
	comp, _ = m.Update(keyMsg("f"))
	m = comp.(*ListModel)
	comp, cmd := m.Update(keyMsg("y"))
	m = comp.(*ListModel)
	if m.isForgetting {
		t.Fatal("isForgetting was not cleared after 'y'")
	}

	msg := cmd()
	fm, ok := msg.(forgetMsg)
	if !ok {
		t.Fatalf("expected a forgetMsg, got %T", msg)
	}
	if fm.ssid != "HomeBase" {
		t.Errorf("expected forgetMsg for HomeBase, got %q", fm.ssid)
	}
}

func TestListModel_ForgetNeedsSavedEntry(t *testing.T) {
	m := newTestList()
	m.SetEntries([]session.Entry{{SSID: "Stranger", InRange: true}})

	comp, _ := m.Update(keyMsg("f"))
	m = comp.(*ListModel)
	if m.isForgetting {
		t.Error("forget should not arm for an unsaved entry")
	}
}

func TestListModel_ConnectSecuredOpensForm(t *testing.T) {
	m := newTestList()
	m.SetEntries([]session.Entry{
		{SSID: "Fortress", InRange: true, Security: wifi.SecurityWPA2Personal},
	})

	comp, _ := m.Update(keyMsg("c"))
	form, ok := comp.(*CredentialModel)
	if !ok {
		t.Fatalf("expected a *CredentialModel, got %T", comp)
	}
	if form.entry == nil || form.entry.SSID != "Fortress" {
		t.Error("credential form should carry the selected entry")
	}
}

func TestListModel_ConnectOpenGoesDirect(t *testing.T) {
	m := newTestList()
	m.SetEntries([]session.Entry{
		{SSID: "CafeNet", InRange: true, Security: wifi.SecurityOpen},
	})

	_, cmd := m.Update(keyMsg("c"))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	cm, ok := msg.(connectMsg)
	if !ok {
		t.Fatalf("expected a connectMsg, got %T", msg)
	}
	if cm.ssid != "CafeNet" {
		t.Errorf("expected connectMsg for CafeNet, got %q", cm.ssid)
	}
}

func TestListModel_SetEntriesKeepsSelection(t *testing.T) {
	m := newTestList()
	m.SetEntries([]session.Entry{
		{SSID: "Alpha", InRange: true},
		{SSID: "Beta", InRange: true},
		{SSID: "Gamma", InRange: true},
	})

	m.list.Select(1)

	// Beta moves to the top on the next update; selection should follow it
	m.SetEntries([]session.Entry{
		{SSID: "Beta", InRange: true},
		{SSID: "Alpha", InRange: true},
		{SSID: "Gamma", InRange: true},
	})

	selected, ok := m.Selected()
	if !ok {
		t.Fatal("nothing selected")
	}
	if selected.SSID != "Beta" {
		t.Errorf("expected selection to follow Beta, got %q", selected.SSID)
	}
}
