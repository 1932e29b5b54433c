package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wifictl/wifictl/internal/journal"
	"github.com/wifictl/wifictl/internal/session"
	"github.com/wifictl/wifictl/internal/tui"
	"github.com/wifictl/wifictl/wifi"
)

// cliSettleTimeout bounds how long a one-shot command waits for the session
// to finish its work.
const cliSettleTimeout = 30 * time.Second

func runTUI(controller *session.Controller) error {
	m := tui.NewModel(controller)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// settle performs one full refresh cycle: submit a scan and apply its
// completion. One-shot commands use this to get a populated view.
func settle(controller *session.Controller) error {
	if err := controller.Refresh(); err != nil {
		return err
	}
	_, err := applyNext(controller, session.KindScan)
	return err
}

// applyNext applies completions until one of the wanted kind arrives, then
// returns it.
func applyNext(controller *session.Controller, kind session.Kind) (session.Completion, error) {
	deadline := time.After(cliSettleTimeout)
	for {
		select {
		case comp := <-controller.Events():
			controller.Apply(comp)
			if comp.Kind == kind {
				return comp, nil
			}
		case <-deadline:
			return session.Completion{}, fmt.Errorf("timed out waiting for %s to finish", kind)
		}
	}
}

func formatEntry(e session.Entry) string {
	var parts []string
	if e.InRange {
		parts = append(parts, fmt.Sprintf("%d%%", e.Signal))
	} else {
		parts = append(parts, "out of range")
	}
	if e.Security != wifi.SecurityUnknown && e.Security.RequiresPassphrase() {
		parts = append(parts, "secure")
	}
	if e.IsSaved {
		parts = append(parts, "saved")
	}
	if e.State == session.StateConnected {
		parts = append(parts, "connected")
	}
	return strings.Join(parts, ", ")
}

func runList(w io.Writer, asJSON bool, pattern string, controller *session.Controller) error {
	if err := settle(controller); err != nil {
		return fmt.Errorf("failed to scan: %w", err)
	}

	if pattern != "" {
		controller.Search(pattern)
		defer controller.ClearSearch()
	}
	entries := controller.View()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.SSID, formatEntry(e))
	}
	return nil
}

func runShow(w io.Writer, asJSON bool, ssid string, controller *session.Controller, j *journal.Journal) error {
	if err := settle(controller); err != nil {
		return fmt.Errorf("failed to scan: %w", err)
	}

	e, ok := controller.Entry(ssid)
	if !ok {
		return fmt.Errorf("network not found: %s", ssid)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(e)
	}

	fmt.Fprintf(w, "SSID: %s\n", e.SSID)
	fmt.Fprintf(w, "Security: %s\n", e.Security)
	fmt.Fprintf(w, "Saved: %t\n", e.IsSaved)
	if e.IsSaved {
		fmt.Fprintf(w, "AutoConnect: %t\n", e.AutoConnect)
	}
	fmt.Fprintf(w, "Connected: %t\n", e.State == session.StateConnected)
	fmt.Fprintf(w, "In range: %t\n", e.InRange)
	if e.InRange {
		fmt.Fprintf(w, "Signal: %d%%\n", e.Signal)
		if e.BSSID != "" {
			fmt.Fprintf(w, "BSSID: %s\n", e.BSSID)
		}
		if e.Channel > 0 {
			fmt.Fprintf(w, "Channel: %d\n", e.Channel)
		}
	}

	if j != nil {
		sightings, err := j.History(ssid)
		if err != nil {
			return fmt.Errorf("failed to read journal: %w", err)
		}
		for _, s := range sightings {
			fmt.Fprintf(w, "Seen: %s\t%s\tsignal %d%%\tlast %s\n",
				s.BSSID, s.Security, s.Signal, formatDuration(s.LastSeen))
		}
	}
	return nil
}

func runConnect(w io.Writer, ssid, passphrase, securityName string, hidden bool, controller *session.Controller) error {
	if err := settle(controller); err != nil {
		return fmt.Errorf("failed to scan: %w", err)
	}

	var secret *string
	if passphrase != "" {
		secret = &passphrase
	}

	var err error
	kind := session.KindConnect
	if _, ok := controller.Entry(ssid); ok {
		err = controller.Connect(ssid, secret)
	} else {
		security := wifi.ParseSecurity(securityName)
		if security == wifi.SecurityUnknown {
			return fmt.Errorf("invalid security type: %s", securityName)
		}
		kind = session.KindAddManual
		err = controller.AddManual(ssid, secret, security, hidden)
	}
	if err != nil {
		if errors.Is(err, session.ErrNeedsCredential) {
			return fmt.Errorf("network %q needs a passphrase", ssid)
		}
		return err
	}

	comp, err := applyNext(controller, kind)
	if err != nil {
		return err
	}
	if comp.Err != nil {
		return fmt.Errorf("failed to connect to %q: %w", ssid, comp.Err)
	}
	fmt.Fprintf(w, "Connected to %s\n", ssid)
	return nil
}

func runForget(w io.Writer, ssid string, controller *session.Controller) error {
	if err := settle(controller); err != nil {
		return fmt.Errorf("failed to scan: %w", err)
	}

	if err := controller.Forget(ssid); err != nil {
		return err
	}
	comp, err := applyNext(controller, session.KindForget)
	if err != nil {
		return err
	}
	if comp.Err != nil {
		return fmt.Errorf("failed to forget %q: %w", ssid, comp.Err)
	}
	fmt.Fprintf(w, "Forgot %s\n", ssid)
	return nil
}
