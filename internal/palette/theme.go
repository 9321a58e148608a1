// Package palette resolves the display colors of the board: the active
// theme and the category to color registry.
package palette

import (
	"embed"
	"fmt"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed themes/*.toml
var embeddedThemes embed.FS

// DefaultTheme is loaded when no theme is configured.
const DefaultTheme = "mocha"

// Theme holds the colors of a board theme.
type Theme struct {
	Name        string   `toml:"name"`
	Bg          string   `toml:"bg"`
	BgHighlight string   `toml:"bg_highlight"` // day tracks
	BgSelection string   `toml:"bg_selection"` // cursor
	Fg          string   `toml:"fg"`
	FgMuted     string   `toml:"fg_muted"`
	Accent      string   `toml:"accent"`   // title, borders
	Ghost       string   `toml:"ghost"`    // drag preview outline
	Conflict    string   `toml:"conflict"` // rejected drops
	Overflow    string   `toml:"overflow"` // hidden interval badge
	Swatches    []string `toml:"swatches"` // category colors
}

// Load reads an embedded theme by name. Unknown names fall back to the
// default theme.
func Load(name string) (*Theme, error) {
	if name == "" {
		name = DefaultTheme
	}
	name = strings.ToLower(name)

	data, err := embeddedThemes.ReadFile("themes/" + name + ".toml")
	if err != nil {
		if name != DefaultTheme {
			return Load(DefaultTheme)
		}
		return nil, fmt.Errorf("loading theme %q: %w", name, err)
	}

	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", name, err)
	}
	t.applyDefaults()
	return &t, nil
}

func (t *Theme) applyDefaults() {
	t.Ghost = coalesce(t.Ghost, t.Fg)
	t.Conflict = coalesce(t.Conflict, t.Accent)
	t.Overflow = coalesce(t.Overflow, t.Accent)
	if len(t.Swatches) == 0 {
		t.Swatches = []string{t.Accent}
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available returns the embedded theme names.
func Available() []string {
	entries, err := embeddedThemes.ReadDir("themes")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".toml"))
	}
	slices.Sort(names)
	return names
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	return slices.Contains(Available(), strings.ToLower(name))
}
