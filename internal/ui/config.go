package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rocinante/internal/config"
	"github.com/javiermolinar/rocinante/internal/palette"
)

func (a *App) configCmd() *cobra.Command {
	var edit bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Configuration management.

If no config file exists, creates one with default values.
Otherwise, displays the current config. With --edit, prompts for
each value and saves the result.`,
		Example: `  rocinante config
  rocinante config --edit`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runConfig(edit)
		},
	}

	cmd.Flags().BoolVarP(&edit, "edit", "e", false, "Edit the configuration interactively")
	return cmd
}

func (a *App) runConfig(edit bool) error {
	fmt.Fprintf(a.out, "Config file: %s\n\n", a.configPath)

	cfg, err := config.LoadFrom(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, statErr := os.Stat(a.configPath); os.IsNotExist(statErr) {
		fmt.Fprintln(a.out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(a.configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(a.out, "Created %s\n\n", a.configPath)
	}

	printConfig(a.out, cfg)
	if !edit {
		return nil
	}

	reader := bufio.NewReader(a.in)
	p := prompter{r: reader, w: a.out}
	fmt.Fprintln(a.out)

	cfg.Planner.WindowStart = p.number("Window start hour", cfg.Planner.WindowStart)
	cfg.Planner.WindowEnd = p.number("Window end hour", cfg.Planner.WindowEnd)
	cfg.Planner.SnapMinutes = p.number("Snap minutes", cfg.Planner.SnapMinutes)
	cfg.Planner.MaxColumns = p.number("Max columns per day (0 = no cap)", cfg.Planner.MaxColumns)
	cfg.Grid.SlotMinutes = p.number("Grid slot minutes", cfg.Grid.SlotMinutes)
	cfg.Grid.DayStart = p.value("Grid day start", cfg.Grid.DayStart)
	cfg.Grid.SlotsPerDay = p.number("Grid slots per day", cfg.Grid.SlotsPerDay)
	cfg.Grid.MaxColumns = p.number("Grid max columns", cfg.Grid.MaxColumns)
	cfg.Autosave.Debounce = p.value("Autosave debounce", cfg.Autosave.Debounce)
	cfg.Autosave.RetryEvery = p.value("Autosave retry schedule", cfg.Autosave.RetryEvery)
	cfg.Storage.DBPath = p.value("Database path", cfg.Storage.DBPath)
	cfg.UI.Theme = p.theme(cfg.UI.Theme)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(a.configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(a.out, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[planner]")
	fmt.Fprintf(w, "  window_start        = %d\n", cfg.Planner.WindowStart)
	fmt.Fprintf(w, "  window_end          = %d\n", cfg.Planner.WindowEnd)
	fmt.Fprintf(w, "  snap_minutes        = %d\n", cfg.Planner.SnapMinutes)
	fmt.Fprintf(w, "  activation_distance = %g\n", cfg.Planner.ActivationDistance)
	fmt.Fprintf(w, "  max_columns         = %d\n", cfg.Planner.MaxColumns)
	fmt.Fprintln(w, "\n[grid]")
	fmt.Fprintf(w, "  slot_minutes        = %d\n", cfg.Grid.SlotMinutes)
	fmt.Fprintf(w, "  day_start           = %s\n", cfg.Grid.DayStart)
	fmt.Fprintf(w, "  slots_per_day       = %d\n", cfg.Grid.SlotsPerDay)
	fmt.Fprintf(w, "  max_columns         = %d\n", cfg.Grid.MaxColumns)
	fmt.Fprintln(w, "\n[autosave]")
	fmt.Fprintf(w, "  debounce            = %s\n", cfg.Autosave.Debounce)
	fmt.Fprintf(w, "  retry_every         = %s\n", cfg.Autosave.RetryEvery)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path             = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme               = %s\n", cfg.UI.Theme)

	if len(cfg.Templates) > 0 {
		fmt.Fprintln(w, "\n[templates]")
		for i, t := range cfg.Templates {
			fmt.Fprintf(w, "  %d. %-12s %3dm", i+1, t.Name(), t.DefaultDuration)
			if t.Color != "" {
				fmt.Fprintf(w, "  %s", t.Color)
			}
			fmt.Fprintln(w)
		}
	}

	if len(cfg.Colors) > 0 {
		fmt.Fprintln(w, "\n[colors]")
		categories := make([]string, 0, len(cfg.Colors))
		for c := range cfg.Colors {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			fmt.Fprintf(w, "  %-19s = %s\n", c, cfg.Colors[c])
		}
	}
}

type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func (p prompter) value(label, current string) string {
	if current == "" {
		fmt.Fprintf(p.w, "  %s: ", label)
	} else {
		fmt.Fprintf(p.w, "  %s [%s]: ", label, current)
	}
	input, _ := p.r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func (p prompter) number(label string, current int) int {
	for {
		value := p.value(label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		fmt.Fprintf(p.w, "  Invalid number %q\n", value)
	}
}

func (p prompter) theme(current string) string {
	options := strings.Join(palette.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(p.value(label, current))
		if palette.IsAvailable(value) {
			return value
		}
		fmt.Fprintf(p.w, "  Invalid theme %q. Available: %s\n", value, options)
	}
}
