// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/javiermolinar/rocinante/internal/coord"
	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/layout"
	"github.com/javiermolinar/rocinante/internal/palette"
	"github.com/javiermolinar/rocinante/internal/slotgrid"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ROCINANTE_"

// Config holds the application configuration.
type Config struct {
	Planner   PlannerConfig       `toml:"planner"`
	Grid      GridConfig          `toml:"grid"`
	Storage   StorageConfig       `toml:"storage"`
	Autosave  AutosaveConfig      `toml:"autosave"`
	UI        UIConfig            `toml:"ui"`
	Log       LogConfig           `toml:"log"`
	Colors    map[string]string   `toml:"colors,omitempty"` // category -> #rrggbb
	Templates []interval.Template `toml:"templates"`
}

// PlannerConfig holds the continuous planner settings.
type PlannerConfig struct {
	WindowStart        int     `toml:"window_start"` // hour, e.g. 6
	WindowEnd          int     `toml:"window_end"`   // hour, e.g. 20
	SnapMinutes        int     `toml:"snap_minutes"`
	ActivationDistance float64 `toml:"activation_distance"` // cells before a press becomes a drag
	MaxColumns         int     `toml:"max_columns"`         // 0 = no cap
}

// GridConfig holds the slot grid settings.
type GridConfig struct {
	SlotMinutes int    `toml:"slot_minutes"`
	DayStart    string `toml:"day_start"` // "HH:MM"
	SlotsPerDay int    `toml:"slots_per_day"`
	MaxColumns  int    `toml:"max_columns"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// AutosaveConfig holds the background save settings.
type AutosaveConfig struct {
	Debounce   string `toml:"debounce"`    // Go duration, e.g. "1500ms"
	RetryEvery string `toml:"retry_every"` // cron spec, e.g. "@every 30s"
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // see palette.Available
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	Path  string `toml:"path"` // empty disables file logging
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Planner: PlannerConfig{
			WindowStart:        6,
			WindowEnd:          22,
			SnapMinutes:        15,
			ActivationDistance: 2,
			MaxColumns:         3,
		},
		Grid: GridConfig{
			SlotMinutes: 30,
			DayStart:    "08:00",
			SlotsPerDay: 24,
			MaxColumns:  4,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Autosave: AutosaveConfig{
			Debounce:   "1500ms",
			RetryEvery: "@every 30s",
		},
		UI: UIConfig{
			Theme: palette.DefaultTheme,
		},
		Log: LogConfig{
			Level: "info",
		},
		Templates: []interval.Template{
			{Category: "focus", Label: "Focus", DefaultDuration: 90},
			{Category: "meeting", Label: "Meeting", DefaultDuration: 30},
			{Category: "break", Label: "Break", DefaultDuration: 15},
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rocinante.db"
	}
	return filepath.Join(home, ".local", "share", "rocinante", "rocinante.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "rocinante", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Log.Path = expandPath(cfg.Log.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	// a file that lists templates replaces the defaults instead of appending
	cfg.Templates = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"WINDOW_START", &cfg.Planner.WindowStart},
		{"WINDOW_END", &cfg.Planner.WindowEnd},
		{"SNAP_MINUTES", &cfg.Planner.SnapMinutes},
		{"MAX_COLUMNS", &cfg.Planner.MaxColumns},
		{"GRID_MAX_COLUMNS", &cfg.Grid.MaxColumns},
	}
	for _, e := range ints {
		v := os.Getenv(EnvPrefix + e.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, e.name, err)
		}
		*e.dst = n
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"DB_PATH", &cfg.Storage.DBPath},
		{"UI_THEME", &cfg.UI.Theme},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_PATH", &cfg.Log.Path},
		{"AUTOSAVE_DEBOUNCE", &cfg.Autosave.Debounce},
		{"AUTOSAVE_RETRY", &cfg.Autosave.RetryEvery},
	}
	for _, e := range strs {
		if v := os.Getenv(EnvPrefix + e.name); v != "" {
			*e.dst = v
		}
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.MapperConfig(0); err != nil {
		return err
	}
	if c.Planner.ActivationDistance < 0 {
		return errors.New("activation_distance cannot be negative")
	}
	if c.Planner.MaxColumns < 0 {
		return errors.New("max_columns cannot be negative")
	}

	if err := validateTime(c.Grid.DayStart, "grid.day_start"); err != nil {
		return err
	}
	if err := c.SlotGridConfig().Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}

	if _, err := c.DebounceInterval(); err != nil {
		return err
	}
	if _, err := c.RetrySchedule(); err != nil {
		return err
	}

	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.UI.Theme != "" && !palette.IsAvailable(c.UI.Theme) {
		return fmt.Errorf("unknown theme %q (available: %s)", c.UI.Theme, strings.Join(palette.Available(), ", "))
	}
	for category, color := range c.Colors {
		if !palette.ValidHex(color) {
			return fmt.Errorf("colors.%s: %w", category, palette.ErrInvalidColor)
		}
	}
	for i, t := range c.Templates {
		if t.Name() == "" {
			return fmt.Errorf("templates[%d]: category or label required", i)
		}
		if t.DefaultDuration < 0 {
			return fmt.Errorf("templates[%d]: duration cannot be negative", i)
		}
	}
	return nil
}

// validateTime checks if a time string is in HH:MM format.
func validateTime(t, field string) error {
	if _, err := time.Parse("15:04", t); err != nil || len(t) != 5 {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	return nil
}

// MapperConfig returns the coordinate mapper settings for a track height.
func (c *Config) MapperConfig(height float64) (coord.Config, error) {
	mc := coord.Config{
		WindowStart: c.Planner.WindowStart,
		WindowEnd:   c.Planner.WindowEnd,
		Height:      height,
		SnapMinutes: c.Planner.SnapMinutes,
	}
	if err := mc.Validate(); err != nil {
		return mc, fmt.Errorf("planner: %w", err)
	}
	return mc, nil
}

// LayoutOptions returns the overlap layout settings.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{MaxColumns: c.Planner.MaxColumns}
}

// SlotGridConfig returns the slot grid geometry.
func (c *Config) SlotGridConfig() slotgrid.Config {
	return slotgrid.Config{
		SlotMinutes: c.Grid.SlotMinutes,
		DayStart:    interval.TimeToMinutes(c.Grid.DayStart),
		SlotsPerDay: c.Grid.SlotsPerDay,
		MaxColumns:  c.Grid.MaxColumns,
	}
}

// DebounceInterval parses the autosave debounce.
func (c *Config) DebounceInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Autosave.Debounce)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("autosave.debounce must be a positive duration, got %q", c.Autosave.Debounce)
	}
	return d, nil
}

// RetrySchedule parses the autosave retry cron spec.
func (c *Config) RetrySchedule() (cron.Schedule, error) {
	s, err := cron.ParseStandard(c.Autosave.RetryEvery)
	if err != nil {
		return nil, fmt.Errorf("autosave.retry_every: %w", err)
	}
	return s, nil
}

// TemplateSource returns the configured templates.
func (c *Config) TemplateSource() interval.Templates {
	return interval.Templates(c.Templates)
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
