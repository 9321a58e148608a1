package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/rocinante/internal/drag"
	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/layout"
	"github.com/javiermolinar/rocinante/internal/tui/commands"
)

// keyMap holds the key bindings of the board.
type keyMap struct {
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	PrevWeek key.Binding
	NextWeek key.Binding
	Today    key.Binding
	Move     key.Binding
	Resize   key.Binding
	Template key.Binding
	Delete   key.Binding
	Undo     key.Binding
	Copy     key.Binding
	Summary  key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Left:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "day")),
		Right:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "day")),
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "earlier")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "later")),
		PrevWeek: key.NewBinding(key.WithKeys("H", "["), key.WithHelp("H/[", "prev week")),
		NextWeek: key.NewBinding(key.WithKeys("L", "]"), key.WithHelp("L/]", "next week")),
		Today:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		Move:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		Resize:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resize")),
		Template: key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "add template")),
		Delete:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		Undo:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy day")),
		Summary:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "week summary")),
		Confirm:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Move, k.Resize, k.Template, k.Delete, k.Undo, k.Copy, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.PrevWeek, k.NextWeek, k.Today},
		{k.Move, k.Resize, k.Template, k.Confirm, k.Cancel},
		{k.Delete, k.Undo, k.Copy, k.Summary, k.Help, k.Quit},
	}
}

func (k keyMap) fullHelpHeight() int {
	n := 0
	for _, col := range k.FullHelp() {
		n = max(n, len(col))
	}
	return n
}

// gestureKeys is the help shown while a keyboard gesture is active.
func (k keyMap) gestureKeys() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Up, k.Down, k.Confirm, k.Cancel}
}

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.log.Debug("key", zap.String("key", msg.String()), zap.Stringer("mode", m.mode))

	// Global keys (work in all modes)
	if msg.String() == "ctrl+c" {
		m.ctrl.Abandon()
		return m, tea.Quit
	}

	if m.summary.active {
		if key.Matches(msg, m.keys.Summary) || key.Matches(msg, m.keys.Cancel) || key.Matches(msg, m.keys.Quit) {
			m.summary.toggle()
		}
		return m, nil
	}

	switch m.mode {
	case ModeKeyboard:
		return m.handleGestureKeys(msg)
	case ModePointer:
		// esc drops a mouse gesture; everything else waits for release
		if key.Matches(msg, m.keys.Cancel) {
			_ = m.ctrl.Cancel(mousePointer)
			m.mode = ModeNormal
			return m, m.setStatus("Cancelled", false)
		}
		return m, nil
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := m.geom.step()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	// Navigation
	case key.Matches(msg, m.keys.Left):
		if m.cursor.Day > 0 {
			m.cursor.Day--
			return m, nil
		}
		m.cursor.Day = interval.DaysPerWeek - 1
		return m.shiftWeek(-1)
	case key.Matches(msg, m.keys.Right):
		if m.cursor.Day < interval.DaysPerWeek-1 {
			m.cursor.Day++
			return m, nil
		}
		m.cursor.Day = 0
		return m.shiftWeek(1)
	case key.Matches(msg, m.keys.Up):
		m.cursor.Minute = m.clampCursor(m.cursor.Minute - step)
	case key.Matches(msg, m.keys.Down):
		m.cursor.Minute = m.clampCursor(m.cursor.Minute + step)
	case key.Matches(msg, m.keys.PrevWeek):
		return m.shiftWeek(-1)
	case key.Matches(msg, m.keys.NextWeek):
		return m.shiftWeek(1)
	case key.Matches(msg, m.keys.Today):
		now := m.now()
		m.cursor.Day = interval.WeekdayIndex(now)
		m.cursor.Minute = m.clampCursor(now.Hour()*60 + now.Minute())
		if start := interval.StartOfWeek(now); !start.Equal(m.weekStart) {
			m.weekStart = start
			m.syncView()
			m.loading = true
			return m, commands.LoadWeek(m.repo, m.weekStart)
		}

	// Gestures
	case key.Matches(msg, m.keys.Move):
		return m.startKeyboardGesture(drag.GrabBody)
	case key.Matches(msg, m.keys.Resize):
		return m.startKeyboardGesture(drag.GrabEnd)
	case key.Matches(msg, m.keys.Template):
		idx, _ := strconv.Atoi(msg.String())
		return m.startTemplateGesture(idx - 1)

	// Actions
	case key.Matches(msg, m.keys.Delete):
		iv := m.intervalAtCursor()
		if iv == nil {
			return m, m.setStatus("No block under cursor", true)
		}
		if _, err := m.board.Remove(iv.ID); err != nil {
			return m, m.setStatus(fmt.Sprintf("Error: %v", err), true)
		}
		return m, m.setStatus("Deleted "+iv.Label+" (u to undo)", false)
	case key.Matches(msg, m.keys.Undo):
		desc, err := m.board.Undo()
		if errors.Is(err, interval.ErrNothingToUndo) {
			return m, m.setStatus("Nothing to undo", false)
		}
		if err != nil {
			return m, m.setStatus(fmt.Sprintf("Error: %v", err), true)
		}
		return m, m.setStatus("Undone: "+desc, false)
	case key.Matches(msg, m.keys.Copy):
		day := m.board.Day(m.cursorDate())
		res := layout.Compute(day.Intervals(), m.config.LayoutOptions())
		return m, commands.CopyToClipboard(day.Date.Format("Mon Jan 2"), layout.DayText(day, res))
	case key.Matches(msg, m.keys.Summary):
		m.summary.toggle()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.geom = m.buildGeometry(m.width, m.height)
		m.syncView()
	}

	return m, nil
}

// handleGestureKeys drives an active keyboard gesture.
func (m Model) handleGestureKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var days, steps int

	switch {
	case key.Matches(msg, m.keys.Confirm):
		out, err := m.ctrl.Confirm()
		m.mode = ModeNormal
		return m.handleOutcome(out, err)
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
		_ = m.ctrl.Cancel(drag.KeyboardPointer)
		m.mode = ModeNormal
		return m, m.setStatus("Cancelled", false)
	case key.Matches(msg, m.keys.Left):
		days = -1
	case key.Matches(msg, m.keys.Right):
		days = 1
	case key.Matches(msg, m.keys.Up):
		steps = -1
	case key.Matches(msg, m.keys.Down):
		steps = 1
	default:
		return m, nil
	}

	g, err := m.ctrl.Nudge(days, steps)
	if err != nil {
		m.mode = ModeNormal
		return m, m.setStatus(fmt.Sprintf("Error: %v", err), true)
	}
	m.followGhost(g)
	return m, nil
}

func (m Model) startKeyboardGesture(grab drag.Grab) (tea.Model, tea.Cmd) {
	iv := m.intervalAtCursor()
	if iv == nil {
		return m, m.setStatus("No block under cursor", true)
	}
	g, err := m.ctrl.Activate(drag.Target{IntervalID: iv.ID, Grab: grab}, m.cursor.Day, iv.Start)
	if err != nil {
		return m, m.setStatus(fmt.Sprintf("Error: %v", err), true)
	}
	m.mode = ModeKeyboard
	m.followGhost(g)
	verb := "Moving"
	if grab == drag.GrabEnd {
		verb = "Resizing"
	}
	return m, m.setStatus(verb+" "+iv.Label+": hjkl to adjust, enter to drop, esc to cancel", false)
}

func (m Model) startTemplateGesture(idx int) (tea.Model, tea.Cmd) {
	templates := m.config.Templates
	if idx < 0 || idx >= len(templates) {
		return m, m.setStatus(fmt.Sprintf("No template %d", idx+1), true)
	}
	tmpl := templates[idx]
	g, err := m.ctrl.Activate(drag.Target{Template: &tmpl}, m.cursor.Day, m.cursor.Minute)
	if err != nil {
		return m, m.setStatus(fmt.Sprintf("Error: %v", err), true)
	}
	m.mode = ModeKeyboard
	m.followGhost(g)
	return m, m.setStatus("Placing "+tmpl.Name()+": hjkl to adjust, enter to drop, esc to cancel", false)
}

// followGhost keeps the cursor on the preview.
func (m *Model) followGhost(g *drag.Ghost) {
	if g == nil {
		return
	}
	m.cursor.Day = g.DayIndex
	m.cursor.Minute = g.Start
}

// handleOutcome reports how a gesture ended.
func (m Model) handleOutcome(out drag.Outcome, err error) (tea.Model, tea.Cmd) {
	switch {
	case drag.IsConflict(err):
		return m, m.setStatus("Blocked: "+err.Error(), true)
	case err != nil:
		return m, m.setStatus(fmt.Sprintf("Error: %v", err), true)
	case out.State == drag.Cancelled:
		return m, m.setStatus("Cancelled", false)
	case out.Unchanged:
		return m, m.setStatus("No change", false)
	case out.Committed != nil:
		c := out.Committed
		m.cursor.Day = interval.WeekdayIndex(c.Date)
		m.cursor.Minute = c.Start
		return m, m.setStatus(fmt.Sprintf("%s %s-%s %s",
			c.Label, c.StartTime(), c.EndTime(), c.Date.Format("Mon Jan 2")), false)
	}
	return m, nil
}

// shiftWeek moves the visible week by n weeks and loads it.
func (m Model) shiftWeek(n int) (tea.Model, tea.Cmd) {
	m.weekStart = m.weekStart.AddDate(0, 0, 7*n)
	m.syncView()
	m.loading = true
	return m, commands.LoadWeek(m.repo, m.weekStart)
}

// intervalAtCursor returns the topmost visible interval under the cursor.
func (m Model) intervalAtCursor() *interval.Interval {
	ivs := m.board.Intervals(m.cursorDate())
	res := layout.Compute(ivs, m.config.LayoutOptions())
	for _, iv := range ivs {
		if _, visible := res.Slot(iv.ID); !visible {
			continue
		}
		if iv.Start <= m.cursor.Minute && m.cursor.Minute < iv.End {
			return iv
		}
	}
	return nil
}

func (m Model) clampCursor(minute int) int {
	if m.geom.Mapper == nil {
		return minute
	}
	mp := m.geom.Mapper
	return min(max(mp.SnapMinutes(minute), mp.WindowStart()), mp.WindowEnd()-mp.Resolution())
}

func (g geometry) step() int {
	if g.Mapper == nil {
		return 15
	}
	return g.Mapper.Resolution()
}
