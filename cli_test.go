package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/wifictl/wifictl/internal/session"
	"github.com/wifictl/wifictl/wifi/mock"
)

func newTestController(t *testing.T) *session.Controller {
	t.Helper()
	adapter, err := mock.New()
	if err != nil {
		t.Fatalf("mock.New: %v", err)
	}
	adapter.ActionSleep = 0
	adapter.Wiggle = false
	return session.New(adapter, session.DefaultConfig())
}

func TestRunList(t *testing.T) {
	controller := newTestController(t)
	var buf bytes.Buffer

	if err := runList(&buf, false, "", controller); err != nil {
		t.Fatalf("runList() failed: %v", err)
	}

	lines := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		ssid, desc, ok := strings.Cut(line, "\t")
		if !ok {
			t.Fatalf("malformed line %q", line)
		}
		lines[ssid] = desc
	}

	for ssid, want := range map[string]string{
		"Unencrypted_Honeypot": "61%",
		"TacoBoutAGoodSignal":  "99%, secure",
		"Password is password": "87%, secure, saved",
		"GET off my LAN":       "out of range, saved",
	} {
		got, ok := lines[ssid]
		if !ok {
			t.Errorf("runList() output missing %q", ssid)
			continue
		}
		if got != want {
			t.Errorf("runList() %s: got %q, want %q", ssid, got, want)
		}
	}
}

func TestRunListFiltered(t *testing.T) {
	controller := newTestController(t)
	var buf bytes.Buffer

	if err := runList(&buf, false, "lan", controller); err != nil {
		t.Fatalf("runList() failed: %v", err)
	}

	// "lan" matches "GET off my LAN", "Dunder MiffLAN" and the "lan" inside
	// "Police Surveillance 2".
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 matches for 'lan', got %d:\n%s", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(strings.ToLower(line), "lan") {
			t.Errorf("filter leaked %q", line)
		}
	}

	// The filter is a projection; a later unfiltered list sees everything.
	buf.Reset()
	if err := runList(&buf, false, "", controller); err != nil {
		t.Fatalf("second runList() failed: %v", err)
	}
	if n := len(strings.Split(strings.TrimSpace(buf.String()), "\n")); n <= 2 {
		t.Errorf("unfiltered list should show all networks, got %d lines", n)
	}
}

func TestRunListJSON(t *testing.T) {
	controller := newTestController(t)
	var buf bytes.Buffer

	if err := runList(&buf, true, "", controller); err != nil {
		t.Fatalf("runList() failed: %v", err)
	}

	var entries []session.Entry
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatalf("runList() produced invalid JSON: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("runList() produced no entries")
	}
}

func TestRunShow(t *testing.T) {
	controller := newTestController(t)
	var buf bytes.Buffer

	if err := runShow(&buf, false, "TacoBoutAGoodSignal", controller, nil); err != nil {
		t.Fatalf("runShow() with found network failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"SSID: TacoBoutAGoodSignal",
		"Security: WPA3-Personal",
		"Saved: false",
		"Signal: 99%",
		"Channel: 48",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("runShow() output missing %q. got=%q", want, output)
		}
	}

	// Not found
	buf.Reset()
	err := runShow(&buf, false, "NotFound", controller, nil)
	if err == nil {
		t.Fatal("runShow() with unknown network should have failed")
	}
	if !strings.Contains(err.Error(), "network not found: NotFound") {
		t.Errorf("runShow() gave wrong error: %q", err)
	}
}

func TestRunConnectOpenNetwork(t *testing.T) {
	controller := newTestController(t)
	var buf bytes.Buffer

	if err := runConnect(&buf, "Unencrypted_Honeypot", "", "wpa2", false, controller); err != nil {
		t.Fatalf("runConnect() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Connected to Unencrypted_Honeypot") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	e, ok := controller.Entry("Unencrypted_Honeypot")
	if !ok || e.State != session.StateConnected {
		t.Errorf("expected a connected entry, got %+v", e)
	}
}

func TestRunConnectNeedsPassphrase(t *testing.T) {
	controller := newTestController(t)
	var buf bytes.Buffer

	err := runConnect(&buf, "TacoBoutAGoodSignal", "", "wpa3", false, controller)
	if err == nil {
		t.Fatal("runConnect() on a secured network without a passphrase should fail")
	}
	if !strings.Contains(err.Error(), "needs a passphrase") {
		t.Errorf("unexpected error: %q", err)
	}
}

func TestRunConnectBadPassphrase(t *testing.T) {
	controller := newTestController(t)
	var buf bytes.Buffer

	err := runConnect(&buf, "Password is password", "letmein", "wpa2", false, controller)
	if err == nil {
		t.Fatal("runConnect() with a wrong passphrase should fail")
	}
}

func TestRunForget(t *testing.T) {
	controller := newTestController(t)
	var buf bytes.Buffer

	if err := runForget(&buf, "Password is password", controller); err != nil {
		t.Fatalf("runForget() failed: %v", err)
	}

	e, ok := controller.Entry("Password is password")
	if !ok {
		t.Fatal("in-range entry should survive a forget")
	}
	if e.IsSaved {
		t.Error("entry is still saved after runForget()")
	}

	// Forgetting an unsaved network is an error
	if err := runForget(&buf, "Unencrypted_Honeypot", controller); err == nil {
		t.Fatal("runForget() on an unsaved network should fail")
	}
}
