// Package tui provides the terminal week board for rocinante.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/rocinante/internal/autosave"
	"github.com/javiermolinar/rocinante/internal/config"
	"github.com/javiermolinar/rocinante/internal/conflict"
	"github.com/javiermolinar/rocinante/internal/drag"
	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/palette"
	"github.com/javiermolinar/rocinante/internal/tui/commands"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal   Mode = iota
	ModeKeyboard      // keyboard gesture: hjkl nudge the ghost
	ModePointer       // mouse button held on a block or template
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeKeyboard:
		return "keyboard"
	case ModePointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// mousePointer is the pointer identity of the terminal mouse.
const mousePointer = "mouse"

// Position is the keyboard cursor: a day of the visible week and a minute.
type Position struct {
	Day    int // 0=Monday, 6=Sunday
	Minute int // minutes since midnight, on the snap grid
}

// Deps are the collaborators of the board. Board and Config are required.
type Deps struct {
	Board      *interval.Board
	Repo       interval.Repository
	Engine     *conflict.Engine
	Controller *drag.Controller
	Saver      *autosave.Saver
	Palette    *palette.Service
	Config     *config.Config
	Logger     *zap.Logger
}

// Model is the main TUI model.
type Model struct {
	// Dependencies
	board  *interval.Board
	repo   interval.Repository
	engine *conflict.Engine
	ctrl   *drag.Controller
	saver  *autosave.Saver
	config *config.Config
	log    *zap.Logger

	// Theme and styles
	palette *palette.Service
	styles  *Styles

	// State
	weekStart time.Time
	cursor    Position
	mode      Mode
	loading   bool
	now       func() time.Time

	// Components
	keys    keyMap
	help    help.Model
	summary overlay

	// Terminal dimensions and derived geometry
	width  int
	height int
	geom   geometry

	// Messages
	statusMsg  string
	statusErr  bool
	statusTime time.Time
}

// New creates a new TUI model.
func New(deps Deps) Model {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	engine := deps.Engine
	if engine == nil {
		engine, _ = conflict.NewEngine()
	}
	pal := deps.Palette
	if pal == nil {
		pal, _ = palette.New(nil)
	}
	ctrl := deps.Controller
	if ctrl == nil {
		ctrl = drag.NewController(deps.Board, engine, drag.View{}, drag.Options{
			ActivationDistance: deps.Config.Planner.ActivationDistance,
			Colors:             pal,
			Logger:             log,
		})
	}

	now := time.Now
	m := Model{
		board:     deps.Board,
		repo:      deps.Repo,
		engine:    engine,
		ctrl:      ctrl,
		saver:     deps.Saver,
		config:    deps.Config,
		log:       log.Named("tui"),
		palette:   pal,
		styles:    NewStyles(pal),
		weekStart: interval.StartOfWeek(now()),
		mode:      ModeNormal,
		now:       now,
		keys:      newKeyMap(),
		help:      help.New(),
	}
	m.cursor = Position{
		Day:    interval.WeekdayIndex(now()),
		Minute: m.config.Planner.WindowStart * 60,
	}
	m.help.Styles = m.styles.Help
	m.summary = newOverlay(m.styles)
	return m
}

// Init starts the first week load and listens for autosave notices.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{commands.LoadWeek(m.repo, m.weekStart)}
	if m.saver != nil {
		cmds = append(cmds, commands.WaitForNotice(m.saver.Notices()))
	}
	return tea.Batch(cmds...)
}

// Run starts the TUI and blocks until it exits. The saver, when present,
// is started for the lifetime of the program and flushed on exit.
func Run(ctx context.Context, deps Deps) error {
	if deps.Saver != nil {
		deps.Saver.Start(ctx)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := deps.Saver.Stop(stopCtx); err != nil && deps.Logger != nil {
				deps.Logger.Error("final save failed", zap.Error(err))
			}
		}()
	}

	p := tea.NewProgram(New(deps),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

// weekDates returns the dates of the visible week.
func (m Model) weekDates() []time.Time {
	dates := make([]time.Time, interval.DaysPerWeek)
	for i := range dates {
		dates[i] = m.weekStart.AddDate(0, 0, i)
	}
	return dates
}

// cursorDate returns the date under the cursor.
func (m Model) cursorDate() time.Time {
	return m.weekStart.AddDate(0, 0, m.cursor.Day)
}

// syncView pushes the visible week and geometry to the drag controller.
func (m *Model) syncView() {
	m.ctrl.SetView(drag.View{
		Dates:   m.weekDates(),
		Mapper:  m.geom.Mapper,
		Columns: m.geom.Columns,
	})
}

func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusMsg = msg
	m.statusErr = isErr
	d := 3 * time.Second
	if isErr {
		d = 5 * time.Second
	}
	m.statusTime = m.now().Add(d)
	return commands.ClearStatusAfter(d)
}
