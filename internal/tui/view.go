package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/rocinante/internal/drag"
	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/layout"
)

// View renders the model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if !m.geom.ok() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.styles.StatusErrorStyle.Render("Terminal too small"))
	}
	board := m.draw().String()
	if !m.summary.active {
		return board
	}
	return m.summary.render(board, m.width, m.height, m.weekSummary())
}

// draw paints the whole board onto a canvas.
func (m Model) draw() *canvas {
	c := newCanvas(m.width, m.height, m.styles.BaseStyle)
	m.drawHeader(c)
	m.drawGrid(c)
	m.drawBlocks(c)
	m.drawGhost(c)
	m.drawCursor(c)
	m.drawFooter(c)
	return c
}

func (m Model) drawHeader(c *canvas) {
	title := c.intern(m.styles.TitleStyle)
	week := c.intern(m.styles.WeekStyle)

	c.text(0, titleRow, m.width, "rocinante", title)
	label := "Week of " + m.weekStart.Format("Jan 2, 2006")
	if m.loading {
		label += "  loading..."
	}
	if m.saver != nil {
		if n := len(m.saver.Pending()); n > 0 {
			label += fmt.Sprintf("  %d unsaved", n)
		}
	}
	c.text(11, titleRow, m.width-11, label, week)

	for _, ch := range m.templateChips() {
		tmpl := m.config.Templates[ch.Index]
		color := tmpl.Color
		if color == "" {
			color = m.palette.ColorFor(tmpl.Category)
		}
		c.text(ch.X0, templateRow, ch.X1-ch.X0, ch.Text, c.intern(m.palette.Block(color, false)))
	}

	head := c.intern(m.styles.DayHeaderStyle)
	today := c.intern(m.styles.DayHeaderTodayStyle)
	overflow := c.intern(m.styles.OverflowStyle)
	cols := m.geom.Columns
	opts := m.config.LayoutOptions()
	for i, date := range m.weekDates() {
		x0, x1 := cellSpan(cols.LeftOf(i), cols.LeftOf(i+1))
		w := x1 - x0
		name := fmt.Sprintf("%s %d", interval.WeekdayShortName(i), date.Day())
		style := head
		if interval.SameDate(date, m.now()) {
			style = today
		}

		res := layout.Compute(m.board.Intervals(date), opts)
		badge := ""
		if res.Overflow > 0 {
			badge = fmt.Sprintf("+%d", res.Overflow)
		}
		c.text(x0+1, dayHeaderRow, w-len(badge)-2, name, style)
		if badge != "" {
			c.text(x1-len(badge)-1, dayHeaderRow, len(badge), badge, overflow)
		}
	}
}

func (m Model) drawGrid(c *canvas) {
	mp := m.geom.Mapper
	cols := m.geom.Columns
	track := c.intern(m.styles.TrackStyle)
	alt := c.intern(m.styles.TrackAltStyle)
	hourLine := c.intern(m.styles.HourLineStyle)
	timeCol := c.intern(m.styles.TimeColumnStyle)

	for i := range interval.DaysPerWeek {
		x0, x1 := cellSpan(cols.LeftOf(i), cols.LeftOf(i+1))
		style := track
		if i%2 == 1 {
			style = alt
		}
		c.fill(x0, m.geom.GridTop, x1, m.geom.GridTop+m.geom.GridH, ' ', style)
	}

	for h := mp.WindowStart() / 60; h*60 < mp.WindowEnd(); h++ {
		row := int(math.Round(mp.TimeToPixel(h * 60)))
		if row < 0 || row >= m.geom.GridH {
			continue
		}
		y := m.geom.GridTop + row
		c.text(0, y, gutterWidth-1, interval.FormatMinutes(h*60), timeCol)
		for x := gutterWidth; x < m.width; x++ {
			if c.cells[y][x] == ' ' {
				c.cells[y][x] = '·'
			}
		}
		c.restyle(gutterWidth, m.width, y, hourLine)
	}
}

func (m Model) drawBlocks(c *canvas) {
	var moving int64
	if t, ok := m.ctrl.Target(); ok && t.Template == nil && m.ctrl.Ghost() != nil {
		moving = t.IntervalID
	}

	opts := m.config.LayoutOptions()
	for i, date := range m.weekDates() {
		ivs := m.board.Intervals(date)
		res := layout.Compute(ivs, opts)
		byID := make(map[int64]*interval.Interval, len(ivs))
		for _, iv := range ivs {
			byID[iv.ID] = iv
		}
		for _, r := range layout.Render(ivs, res, m.geom.Mapper, m.geom.Columns, i) {
			iv := byID[r.ID]
			color := iv.Color
			if color == "" {
				color = m.palette.ColorFor(iv.Category)
			}
			style := c.intern(m.palette.Block(color, r.ID == moving))
			m.drawBlock(c, r, iv.Label, interval.FormatMinutes(iv.Start)+"-"+interval.FormatMinutes(iv.End), style)
		}
	}
}

// drawBlock paints one record: the label on the first row and the time
// span on the second when there is room.
func (m Model) drawBlock(c *canvas, r layout.RenderRecord, label, span string, style int) {
	top := m.geom.GridTop
	x0, x1 := cellSpan(r.Left, r.Left+r.Width)
	y0, y1 := cellSpan(r.Top, r.Bottom())
	if x1-x0 >= 3 {
		x1-- // gap between neighbours
	}
	y0, y1 = y0+top, min(y1+top, top+m.geom.GridH)
	c.fill(x0, y0, x1, y1, ' ', style)
	c.text(x0+1, y0, x1-x0-1, label, style)
	if y1-y0 >= 2 {
		c.text(x0+1, y0+1, x1-x0-1, span, style)
	}
}

func (m Model) drawGhost(c *canvas) {
	g := m.ctrl.Ghost()
	if g == nil {
		return
	}
	style := m.palette.GhostStyle()
	if m.ghostConflicts(g) {
		style = m.styles.ConflictStyle
	}
	m.drawBlock(c, g.Record, g.Label, interval.FormatMinutes(g.Start)+"-"+interval.FormatMinutes(g.End), c.intern(style))
}

// ghostConflicts reports whether dropping the ghost now would be rejected.
func (m Model) ghostConflicts(g *drag.Ghost) bool {
	var cand *interval.Interval
	if g.IntervalID != 0 {
		iv, ok := m.board.Get(g.IntervalID)
		if !ok {
			return false
		}
		cand = iv
	} else {
		t, ok := m.ctrl.Target()
		if !ok || t.Template == nil {
			return false
		}
		cand = t.Template.Instantiate(g.Date, g.Start)
	}
	cand.Date, cand.Start, cand.End = g.Date, g.Start, g.End
	return m.engine.EvaluatePlacement(cand, m.board.Intervals(g.Date)) != nil
}

func (m Model) drawCursor(c *canvas) {
	if m.mode != ModeNormal {
		return
	}
	mp := m.geom.Mapper
	row := min(int(math.Round(mp.TimeToPixel(m.cursor.Minute))), m.geom.GridH-1)
	if row < 0 {
		return
	}
	y := m.geom.GridTop + row
	cursor := c.intern(m.styles.CursorStyle)
	c.text(0, y, gutterWidth-1, interval.FormatMinutes(m.cursor.Minute), cursor)
	x0, _ := cellSpan(m.geom.Columns.LeftOf(m.cursor.Day), 0)
	c.set(x0, y, '▸', cursor)
}

func (m Model) drawFooter(c *canvas) {
	y := m.height - m.geom.FooterH

	status := c.intern(m.styles.StatusStyle)
	msg := m.statusMsg
	if m.statusErr {
		status = c.intern(m.styles.StatusErrorStyle)
	}
	if msg == "" {
		msg = fmt.Sprintf("%s %s", m.cursorDate().Format("Mon Jan 2"), interval.FormatMinutes(m.cursor.Minute))
	}
	c.text(0, y, m.width, msg, status)

	var helpView string
	if m.mode == ModeKeyboard {
		helpView = m.help.ShortHelpView(m.keys.gestureKeys())
	} else {
		helpView = m.help.View(m.keys)
	}
	// help output is already styled, so it goes in as whole rows
	for i, line := range strings.Split(helpView, "\n") {
		c.raw(y+1+i, line)
	}
}
