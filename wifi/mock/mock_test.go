package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/wifictl/wifictl/wifi"
)

func init() {
	DefaultActionSleep = 0
}

func newQuiet(t *testing.T) *Adapter {
	t.Helper()
	a, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	a.Wiggle = false
	return a
}

func findProfile(profiles []wifi.Profile, ssid string) *wifi.Profile {
	for i := range profiles {
		if profiles[i].SSID == ssid {
			return &profiles[i]
		}
	}
	return nil
}

func TestScan(t *testing.T) {
	a := newQuiet(t)
	ctx := context.Background()

	networks, err := a.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	if len(networks) == 0 {
		t.Fatal("Scan() returned no networks")
	}

	// Duplicate SSIDs must survive as distinct BSSIDs.
	count := 0
	for _, n := range networks {
		if n.SSID == "Multi-AP Network" {
			count++
		}
	}
	if count != 3 {
		t.Errorf("expected 3 access points for Multi-AP Network, got %d", count)
	}
}

func TestConnectSaved(t *testing.T) {
	a := newQuiet(t)
	ctx := context.Background()

	err := a.Connect(ctx, wifi.ConnectRequest{SSID: "HideYoKidsHideYoWiFi"})
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	status, err := a.CurrentStatus(ctx)
	if err != nil {
		t.Fatalf("CurrentStatus() failed: %v", err)
	}
	if status == nil || status.SSID != "HideYoKidsHideYoWiFi" {
		t.Errorf("expected active connection to HideYoKidsHideYoWiFi, got %+v", status)
	}
}

func TestConnectNewNetwork(t *testing.T) {
	a := newQuiet(t)
	ctx := context.Background()

	// Wrong passphrase for a network with a scripted secret.
	bad := "wrong"
	err := a.Connect(ctx, wifi.ConnectRequest{SSID: "Password is password", Passphrase: &bad})
	if !errors.Is(err, wifi.ErrAuthFailure) {
		t.Fatalf("expected ErrAuthFailure, got %v", err)
	}

	// Missing passphrase for a secured network.
	err = a.Connect(ctx, wifi.ConnectRequest{SSID: "Dunder MiffLAN"})
	if !errors.Is(err, wifi.ErrAuthFailure) {
		t.Fatalf("expected ErrAuthFailure for missing passphrase, got %v", err)
	}

	// Correct join creates a profile.
	pass := "scranton"
	err = a.Connect(ctx, wifi.ConnectRequest{SSID: "Dunder MiffLAN", Passphrase: &pass})
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	profiles, _ := a.SavedProfiles(ctx)
	p := findProfile(profiles, "Dunder MiffLAN")
	if p == nil {
		t.Fatal("join did not create a profile")
	}
	if !p.AutoConnect {
		t.Error("new profile should default to auto-connect")
	}
}

func TestConnectOutOfRange(t *testing.T) {
	a := newQuiet(t)
	err := a.Connect(context.Background(), wifi.ConnectRequest{SSID: "no-such-network"})
	if !errors.Is(err, wifi.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Hidden joins bypass the visibility check.
	pass := "sneaky"
	err = a.Connect(context.Background(), wifi.ConnectRequest{
		SSID: "no-such-network", Passphrase: &pass,
		Security: wifi.SecurityWPA2Personal, Hidden: true,
	})
	if err != nil {
		t.Fatalf("hidden Connect() failed: %v", err)
	}
}

func TestForget(t *testing.T) {
	a := newQuiet(t)
	ctx := context.Background()

	if err := a.Connect(ctx, wifi.ConnectRequest{SSID: "HideYoKidsHideYoWiFi"}); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if err := a.Forget(ctx, "HideYoKidsHideYoWiFi"); err != nil {
		t.Fatalf("Forget() failed: %v", err)
	}

	profiles, _ := a.SavedProfiles(ctx)
	if findProfile(profiles, "HideYoKidsHideYoWiFi") != nil {
		t.Error("profile survived Forget()")
	}
	status, _ := a.CurrentStatus(ctx)
	if status != nil {
		t.Errorf("forgetting the active network should disconnect, still on %+v", status)
	}

	err := a.Forget(ctx, "HideYoKidsHideYoWiFi")
	if !errors.Is(err, wifi.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double forget, got %v", err)
	}
}

func TestSetAutoConnect(t *testing.T) {
	a := newQuiet(t)
	ctx := context.Background()

	if err := a.SetAutoConnect(ctx, "Password is password", false); err != nil {
		t.Fatalf("SetAutoConnect() failed: %v", err)
	}
	profiles, _ := a.SavedProfiles(ctx)
	p := findProfile(profiles, "Password is password")
	if p == nil || p.AutoConnect {
		t.Errorf("expected auto-connect off, got %+v", p)
	}

	err := a.SetAutoConnect(ctx, "not-saved", true)
	if !errors.Is(err, wifi.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestErrorInjection(t *testing.T) {
	a := newQuiet(t)
	a.ScanError = wifi.ErrAdapterUnavailable

	_, err := a.Scan(context.Background())
	if !errors.Is(err, wifi.ErrAdapterUnavailable) {
		t.Fatalf("expected injected error, got %v", err)
	}
}
