package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLoadTheme(t *testing.T) {
	tomlData := `
		Primary = "#FF0000"
		Subtle = ["#00FF00", "#00EE00"]
		SignalHigh = "#008000"
	`

	theme, err := LoadTheme(strings.NewReader(tomlData))
	if err != nil {
		t.Fatalf("LoadTheme failed: %v", err)
	}

	if theme.Primary != (Color{lipgloss.Color("#FF0000")}) {
		t.Errorf("expected Primary #FF0000, got %v", theme.Primary)
	}

	adaptive, ok := theme.Subtle.TerminalColor.(lipgloss.AdaptiveColor)
	if !ok {
		t.Fatalf("expected Subtle to be adaptive, got %T", theme.Subtle.TerminalColor)
	}
	if adaptive.Light != "#00FF00" || adaptive.Dark != "#00EE00" {
		t.Errorf("unexpected adaptive Subtle: %v", adaptive)
	}

	// Unspecified values keep the default
	if theme.Error != NewDefaultTheme().Error {
		t.Errorf("expected default Error to survive, got %v", theme.Error)
	}
}

func TestLoadTheme_NilReader(t *testing.T) {
	if _, err := LoadTheme(nil); err == nil {
		t.Fatal("LoadTheme(nil) should have returned an error")
	}
}

func TestLoadTheme_InvalidToml(t *testing.T) {
	if _, err := LoadTheme(strings.NewReader(`Primary = `)); err == nil {
		t.Fatal("LoadTheme should have failed for invalid TOML")
	}
}

func TestLoadTheme_BadAdaptivePair(t *testing.T) {
	if _, err := LoadTheme(strings.NewReader(`Primary = ["#FF0000"]`)); err == nil {
		t.Fatal("LoadTheme should reject a one-element adaptive pair")
	}
}

func TestLoadThemeFile_EmptyPath(t *testing.T) {
	before := CurrentTheme
	if err := LoadThemeFile(""); err != nil {
		t.Fatalf("LoadThemeFile(\"\") failed: %v", err)
	}
	if CurrentTheme != before {
		t.Error("empty path should not change the current theme")
	}
}
