package tui

import (
	"errors"
	"math"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/rocinante/internal/drag"
	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/layout"
)

// chip is the clickable span of one template in the template bar.
type chip struct {
	Index int
	X0    int // first cell
	X1    int // one past the last cell
	Text  string
}

// templateChips lays out the template bar starting after the gutter.
func (m Model) templateChips() []chip {
	var chips []chip
	x := gutterWidth
	for i, t := range m.config.Templates {
		if i >= 9 {
			break
		}
		text := " " + string(rune('1'+i)) + " " + t.Name() + " "
		w := len([]rune(text))
		if x+w > m.width {
			break
		}
		chips = append(chips, chip{Index: i, X0: x, X1: x + w, Text: text})
		x += w + 1
	}
	return chips
}

// hit is what lies under a mouse cell.
type hit struct {
	Record layout.RenderRecord
	Grab   drag.Grab
}

// weekRecords returns the render records of every visible interval.
func (m Model) weekRecords() [][]layout.RenderRecord {
	days := make([][]layout.RenderRecord, interval.DaysPerWeek)
	if !m.geom.ok() {
		return days
	}
	opts := m.config.LayoutOptions()
	for i, date := range m.weekDates() {
		ivs := m.board.Intervals(date)
		res := layout.Compute(ivs, opts)
		days[i] = layout.Render(ivs, res, m.geom.Mapper, m.geom.Columns, i)
	}
	return days
}

// hitTest finds the block under track coordinates (x, row). The bottom row
// of a block taller than one row is its resize handle.
func (m Model) hitTest(x, row int) (hit, bool) {
	day := m.geom.Columns.DayAt(float64(x))
	fx, fy := float64(x)+0.5, float64(row)+0.5
	for _, r := range m.weekRecords()[day] {
		if fx < r.Left || fx >= r.Left+r.Width || fy < r.Top || fy >= r.Bottom() {
			continue
		}
		h := hit{Record: r, Grab: drag.GrabBody}
		top, bottom := cellSpan(r.Top, r.Bottom())
		if bottom-top >= 2 && row == bottom-1 {
			h.Grab = drag.GrabEnd
		}
		return h, true
	}
	return hit{}, false
}

// cellSpan converts a float span to whole cells [a, b), never empty.
func cellSpan(from, to float64) (int, int) {
	a := int(math.Round(from))
	b := int(math.Round(to))
	return a, max(b, a+1)
}

// handleMouseMsg routes terminal mouse events to the drag controller.
func (m Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.geom.ok() || m.mode == ModeKeyboard {
		return m, nil
	}
	x, row := float64(msg.X), float64(msg.Y-m.geom.GridTop)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		return m.mousePress(msg)

	case tea.MouseActionMotion:
		if m.mode != ModePointer {
			return m, nil
		}
		res, err := m.ctrl.Handle(drag.Event{Kind: drag.EventMove, Pointer: mousePointer, X: x, Y: row})
		if err != nil {
			m.mode = ModeNormal
			return m, nil
		}
		m.followGhost(res.Ghost)
		return m, nil

	case tea.MouseActionRelease:
		if m.mode != ModePointer {
			return m, nil
		}
		m.mode = ModeNormal
		res, err := m.ctrl.Handle(drag.Event{
			Kind:    drag.EventEnd,
			Pointer: mousePointer,
			X:       x,
			Y:       row,
			Over:    m.geom.inGrid(msg.X, msg.Y),
		})
		if res.Outcome == nil {
			return m, nil
		}
		if res.Outcome.Click {
			m.moveCursorTo(msg.X, msg.Y)
			return m, nil
		}
		return m.handleOutcome(*res.Outcome, err)
	}
	return m, nil
}

func (m Model) mousePress(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	var target drag.Target
	x, row := msg.X, msg.Y-m.geom.GridTop

	switch {
	case msg.Y == templateRow:
		c, ok := m.chipAt(msg.X)
		if !ok {
			return m, nil
		}
		tmpl := m.config.Templates[c.Index]
		target = drag.Target{Template: &tmpl}
		// the ghost starts at the top of the window and follows the pointer
		// from there
		x, row = max(x, gutterWidth), 0
	case m.geom.inGrid(msg.X, msg.Y):
		h, ok := m.hitTest(msg.X, row)
		if !ok {
			m.moveCursorTo(msg.X, msg.Y)
			return m, nil
		}
		target = drag.Target{IntervalID: h.Record.ID, Grab: h.Grab}
	default:
		return m, nil
	}

	_, err := m.ctrl.Handle(drag.Event{
		Kind:    drag.EventStart,
		Pointer: mousePointer,
		X:       float64(x),
		Y:       float64(row),
		Target:  target,
	})
	if errors.Is(err, drag.ErrGestureInProgress) {
		return m, nil
	}
	if err != nil {
		m.log.Debug("press rejected", zap.Error(err))
		return m, m.setStatus(err.Error(), true)
	}
	m.mode = ModePointer
	return m, nil
}

func (m Model) chipAt(x int) (chip, bool) {
	for _, c := range m.templateChips() {
		if x >= c.X0 && x < c.X1 {
			return c, true
		}
	}
	return chip{}, false
}

// moveCursorTo puts the keyboard cursor on a grid cell.
func (m *Model) moveCursorTo(x, y int) {
	if !m.geom.inGrid(x, y) {
		return
	}
	mp := m.geom.Mapper
	m.cursor.Day = m.geom.Columns.DayAt(float64(x))
	m.cursor.Minute = m.clampCursor(mp.PixelToTime(float64(y - m.geom.GridTop)))
}
