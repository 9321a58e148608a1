package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// canvas is a fixed grid of styled cells. Styles are interned so a row can
// be rendered as runs of equal style.
type canvas struct {
	w, h   int
	cells  [][]rune
	style  [][]int
	styles []lipgloss.Style
	rawRow map[int]string // pre-rendered rows
}

func newCanvas(w, h int, bg lipgloss.Style) *canvas {
	c := &canvas{w: w, h: h, styles: []lipgloss.Style{bg}, rawRow: make(map[int]string)}
	c.cells = make([][]rune, h)
	c.style = make([][]int, h)
	for y := range h {
		c.cells[y] = make([]rune, w)
		c.style[y] = make([]int, w)
		for x := range w {
			c.cells[y][x] = ' '
		}
	}
	return c
}

// intern registers a style and returns its index.
func (c *canvas) intern(s lipgloss.Style) int {
	c.styles = append(c.styles, s)
	return len(c.styles) - 1
}

func (c *canvas) set(x, y int, r rune, style int) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y][x] = r
	c.style[y][x] = style
}

// fill paints the rectangle [x0, x1) x [y0, y1).
func (c *canvas) fill(x0, y0, x1, y1 int, r rune, style int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c.set(x, y, r, style)
		}
	}
}

// text writes s at (x, y), truncated to width cells.
func (c *canvas) text(x, y, width int, s string, style int) {
	if width <= 0 {
		return
	}
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "…")
	}
	for _, r := range s {
		if width <= 0 {
			return
		}
		c.set(x, y, r, style)
		x++
		width--
	}
}

// restyle changes the style of a span without touching its runes.
func (c *canvas) restyle(x0, x1, y, style int) {
	if y < 0 || y >= c.h {
		return
	}
	for x := max(x0, 0); x < min(x1, c.w); x++ {
		c.style[y][x] = style
	}
}

// raw replaces row y with an already styled line.
func (c *canvas) raw(y int, line string) {
	if y < 0 || y >= c.h {
		return
	}
	c.rawRow[y] = ansi.Truncate(line, c.w, "")
}

// String renders the canvas row by row.
func (c *canvas) String() string {
	var b strings.Builder
	var run strings.Builder
	for y := range c.h {
		if y > 0 {
			b.WriteByte('\n')
		}
		if line, ok := c.rawRow[y]; ok {
			b.WriteString(line)
			continue
		}
		cur := -1
		for x := range c.w {
			if s := c.style[y][x]; s != cur {
				if cur >= 0 {
					b.WriteString(c.styles[cur].Render(run.String()))
				}
				run.Reset()
				cur = s
			}
			run.WriteRune(c.cells[y][x])
		}
		if cur >= 0 {
			b.WriteString(c.styles[cur].Render(run.String()))
		}
		run.Reset()
	}
	return b.String()
}

// plain returns the canvas text without styles.
func (c *canvas) plain() string {
	rows := make([]string, c.h)
	for y := range c.h {
		if line, ok := c.rawRow[y]; ok {
			rows[y] = ansi.Strip(line)
			continue
		}
		rows[y] = string(c.cells[y])
	}
	return strings.Join(rows, "\n")
}
