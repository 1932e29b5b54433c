package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// themeFile mirrors Theme with pointers so we can tell a missing value apart
// from an empty one. Users override only the colors they want.
type themeFile struct {
	Primary  *Color `toml:"Primary,omitempty"`
	Subtle   *Color `toml:"Subtle,omitempty"`
	Success  *Color `toml:"Success,omitempty"`
	Saved    *Color `toml:"Saved,omitempty"`
	Error    *Color `toml:"Error,omitempty"`
	Normal   *Color `toml:"Normal,omitempty"`
	Disabled *Color `toml:"Disabled,omitempty"`
	Border   *Color `toml:"Border,omitempty"`

	SignalHigh *Color `toml:"SignalHigh,omitempty"`
	SignalLow  *Color `toml:"SignalLow,omitempty"`
}

// LoadTheme reads a TOML theme and returns the default theme with the given
// values overridden.
func LoadTheme(r io.Reader) (Theme, error) {
	if r == nil {
		return Theme{}, fmt.Errorf("no theme input")
	}

	var tf themeFile
	if _, err := toml.NewDecoder(r).Decode(&tf); err != nil {
		return Theme{}, err
	}

	theme := NewDefaultTheme()
	for dst, src := range map[*Color]*Color{
		&theme.Primary:    tf.Primary,
		&theme.Subtle:     tf.Subtle,
		&theme.Success:    tf.Success,
		&theme.Saved:      tf.Saved,
		&theme.Error:      tf.Error,
		&theme.Normal:     tf.Normal,
		&theme.Disabled:   tf.Disabled,
		&theme.Border:     tf.Border,
		&theme.SignalHigh: tf.SignalHigh,
		&theme.SignalLow:  tf.SignalLow,
	} {
		if src != nil {
			*dst = *src
		}
	}
	return theme, nil
}

// LoadThemeFile loads a theme from the given path and makes it the current
// theme. An empty path keeps the default.
func LoadThemeFile(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	theme, err := LoadTheme(f)
	if err != nil {
		return fmt.Errorf("loading theme %s: %w", path, err)
	}
	CurrentTheme = theme
	return nil
}
