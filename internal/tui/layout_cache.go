package tui

import (
	"github.com/javiermolinar/rocinante/internal/coord"
	"github.com/javiermolinar/rocinante/internal/interval"
)

// Screen rows above and below the grid.
const (
	titleRow      = 0
	templateRow   = 1
	dayHeaderRow  = 2
	headerLines   = 3
	footerCompact = 2 // status + short help
	gutterWidth   = 6 // "09:00 "
	minGridLines  = 4
)

// geometry stores layout dimensions derived from the window size.
// The mapper measures the grid in terminal rows and the columns in cells,
// so mouse coordinates feed the drag controller directly.
type geometry struct {
	Width   int
	Height  int
	GridTop int
	GridH   int
	FooterH int

	Mapper  *coord.Mapper
	Columns coord.Columns
}

// ok reports whether the terminal is large enough to draw the grid.
func (g geometry) ok() bool {
	return g.Mapper != nil && g.GridH >= minGridLines && g.Columns.TrackWidth() >= 3
}

// inGrid reports whether a screen cell lies on a day track.
func (g geometry) inGrid(x, y int) bool {
	return y >= g.GridTop && y < g.GridTop+g.GridH && g.Columns.Contains(float64(x))
}

func (m Model) buildGeometry(width, height int) geometry {
	footerH := footerCompact
	if m.help.ShowAll {
		footerH = 1 + m.keys.fullHelpHeight()
	}

	g := geometry{
		Width:   width,
		Height:  height,
		GridTop: headerLines,
		GridH:   max(height-headerLines-footerH, 0),
		FooterH: footerH,
		Columns: coord.Columns{
			Count: interval.DaysPerWeek,
			Width: float64(max(width-gutterWidth, 0)),
			Left:  gutterWidth,
		},
	}

	mc, err := m.config.MapperConfig(float64(g.GridH))
	if err != nil {
		m.log.Sugar().Errorw("invalid planner window", "error", err)
		return g
	}
	mapper, err := coord.New(mc)
	if err != nil {
		return g
	}
	g.Mapper = mapper
	return g
}
