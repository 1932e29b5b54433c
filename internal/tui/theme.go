package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Color wraps a lipgloss color so theme files can specify either a single
// hex value or a [light, dark] adaptive pair.
type Color struct {
	lipgloss.TerminalColor
}

// UnmarshalTOML accepts "#RRGGBB" or ["#light", "#dark"].
func (c *Color) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		c.TerminalColor = lipgloss.Color(val)
		return nil
	case []any:
		if len(val) != 2 {
			return fmt.Errorf("adaptive color needs [light, dark], got %d values", len(val))
		}
		light, okL := val[0].(string)
		dark, okD := val[1].(string)
		if !okL || !okD {
			return fmt.Errorf("adaptive color values must be strings")
		}
		c.TerminalColor = lipgloss.AdaptiveColor{Light: light, Dark: dark}
		return nil
	}
	return fmt.Errorf("unsupported color value %v", v)
}

// resolve picks the concrete hex string for the current terminal background.
func (c Color) resolve() string {
	switch tc := c.TerminalColor.(type) {
	case lipgloss.Color:
		return string(tc)
	case lipgloss.AdaptiveColor:
		if lipgloss.HasDarkBackground() {
			return tc.Dark
		}
		return tc.Light
	}
	return ""
}

// Theme contains the colors and icons for the application.
type Theme struct {
	Primary  Color
	Subtle   Color
	Success  Color
	Saved    Color
	Error    Color
	Normal   Color
	Disabled Color
	Border   Color

	SignalHigh Color
	SignalLow  Color

	TitleIcon          string
	NetworkOpenIcon    string
	NetworkSecureIcon  string
	NetworkSavedIcon   string
	NetworkUnknownIcon string
}

// CurrentTheme is the active theme for the application.
var CurrentTheme = NewDefaultTheme()

// NewDefaultTheme creates a new default theme.
func NewDefaultTheme() Theme {
	return Theme{
		Primary:  adaptive("#5A56E0", "#D359E3"), // Purple/Pink
		Subtle:   adaptive("#BDBDBD", "#616161"), // Gray
		Success:  adaptive("#388E3C", "#81C784"), // Green
		Saved:    adaptive("#1976D2", "#64B5F6"), // Blue
		Error:    adaptive("#D32F2F", "#E57373"), // Red
		Normal:   adaptive("#212121", "#FFFFFF"), // Black/White
		Disabled: adaptive("#9E9E9E", "#424242"), // Lighter/Darker Gray
		Border:   adaptive("#BDBDBD", "#616161"), // Gray

		SignalHigh: adaptive("#00B300", "#00FF00"),
		SignalLow:  adaptive("#D05F00", "#BC3C00"),

		TitleIcon:          "⚡ ",
		NetworkOpenIcon:    "🔓 ",
		NetworkSecureIcon:  "🔒 ",
		NetworkSavedIcon:   "★ ",
		NetworkUnknownIcon: "? ",
	}
}

func adaptive(light, dark string) Color {
	return Color{lipgloss.AdaptiveColor{Light: light, Dark: dark}}
}

// SignalColor blends between SignalLow and SignalHigh for a 0-100 strength.
func (t Theme) SignalColor(strength uint8) lipgloss.Color {
	low, _ := colorful.Hex(t.SignalLow.resolve())
	high, _ := colorful.Hex(t.SignalHigh.resolve())
	p := float64(strength) / 100.0
	if p > 1 {
		p = 1
	}
	return lipgloss.Color(low.BlendRgb(high, p).Hex())
}

// FormatSignalStrength renders "NN%" colored along the signal gradient.
func (t Theme) FormatSignalStrength(strength uint8) string {
	s := fmt.Sprintf("%d%%", strength)
	return lipgloss.NewStyle().Foreground(t.SignalColor(strength)).Render(s)
}
