package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/rocinante/internal/autosave"
	"github.com/javiermolinar/rocinante/internal/config"
	"github.com/javiermolinar/rocinante/internal/conflict"
	"github.com/javiermolinar/rocinante/internal/drag"
	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/logging"
	"github.com/javiermolinar/rocinante/internal/palette"
	"github.com/javiermolinar/rocinante/internal/slotgrid"
	"github.com/javiermolinar/rocinante/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// Store is everything the CLI persists: intervals, rules and the slot grid.
type Store interface {
	interval.Repository
	conflict.RuleStore
	slotgrid.Store
	Get(ctx context.Context, id int64) (*interval.Interval, error)
}

// App holds the CLI application state.
type App struct {
	store  Store
	config *config.Config
	root   *cobra.Command
	in     io.Reader
	out    io.Writer
	log    *zap.Logger
	now    func() time.Time

	configPath string

	debug   bool // Enable debug logging
	noColor bool
}

// NewApp creates a new CLI application with the given store and config.
func NewApp(store Store, cfg *config.Config) *App {
	a := &App{
		store:      store,
		config:     cfg,
		in:         os.Stdin,
		out:        os.Stdout,
		log:        zap.NewNop(),
		now:        time.Now,
		configPath: config.DefaultConfigPath(),
	}

	a.root = &cobra.Command{
		Use:   "rocinante",
		Short: "A weekly time-block planner",
		Long: `Rocinante is a terminal planner for time blocks.

Drag blocks and templates on a week board with the mouse or the keyboard.
Restriction rules keep incompatible blocks from overlapping.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.noColor {
				DisableColor()
			}
			return a.setupLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBoard(cmd.Context())
		},
	}

	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to "+logging.DefaultDebugPath+")")
	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable color output")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.listCmd())
	a.root.AddCommand(a.showCmd())
	a.root.AddCommand(a.ruleCmd())
	a.root.AddCommand(a.tokenCmd())

	return a
}

// SetOutput redirects command output, for tests.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
	a.root.SetOut(w)
	a.root.SetErr(w)
}

// SetInput replaces stdin for interactive prompts, for tests.
func (a *App) SetInput(r io.Reader) {
	a.in = r
	a.root.SetIn(r)
}

// SetConfigPath overrides where the config command reads and writes.
func (a *App) SetConfigPath(path string) {
	a.configPath = path
}

// SetNow fixes the clock used for "today", for tests.
func (a *App) SetNow(now func() time.Time) {
	a.now = now
}

// SetArgs overrides the command line arguments, for tests.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "rocinante %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI application with ctx.
func (a *App) ExecuteContext(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

func (a *App) setupLogging(cmd *cobra.Command) error {
	cfg := logging.Config{Level: a.config.Log.Level, Path: a.config.Log.Path}
	if a.debug {
		cfg.Level = "debug"
		if cfg.Path == "" {
			cfg.Path = logging.DefaultDebugPath
		}
	}
	// one-shot commands log warnings to stderr; the board owns the terminal
	if cmd != a.root && cfg.Path == "" {
		cfg.Console = true
		if !a.debug {
			cfg.Level = "warn"
		}
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}
	a.log = logger
	return nil
}

// engine builds a conflict engine from the stored rules.
func (a *App) engine(ctx context.Context) (*conflict.Engine, error) {
	rules, err := a.store.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	return conflict.NewEngine(rules...)
}

func (a *App) palette() (*palette.Service, error) {
	theme, err := palette.Load(a.config.UI.Theme)
	if err != nil {
		return nil, err
	}
	p, err := palette.New(theme)
	if err != nil {
		return nil, err
	}
	for category, color := range a.config.Colors {
		if err := p.Register(category, color); err != nil {
			return nil, fmt.Errorf("color for %q: %w", category, err)
		}
	}
	return p, nil
}

// runBoard starts the interactive week board.
func (a *App) runBoard(ctx context.Context) error {
	defer func() { _ = a.log.Sync() }()

	engine, err := a.engine(ctx)
	if err != nil {
		return err
	}
	pal, err := a.palette()
	if err != nil {
		return err
	}
	debounce, err := a.config.DebounceInterval()
	if err != nil {
		return err
	}
	retry, err := a.config.RetrySchedule()
	if err != nil {
		return err
	}

	board := interval.NewBoard()
	ctrl := drag.NewController(board, engine, drag.View{}, drag.Options{
		ActivationDistance: a.config.Planner.ActivationDistance,
		Colors:             pal,
		Logger:             a.log,
	})
	saver := autosave.New(board, a.store, autosave.Options{
		Debounce: debounce,
		Retry:    retry,
		Busy:     ctrl.BusyScopes,
		Logger:   a.log,
	})

	a.log.Info("starting board", zap.String("db", a.config.Storage.DBPath), zap.Int("rules", len(engine.Rules())))
	return tui.Run(ctx, tui.Deps{
		Board:      board,
		Repo:       a.store,
		Engine:     engine,
		Controller: ctrl,
		Saver:      saver,
		Palette:    pal,
		Config:     a.config,
		Logger:     a.log,
	})
}
