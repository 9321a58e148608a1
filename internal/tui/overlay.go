package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// overlay draws a bordered box centered on top of base content.
type overlay struct {
	active bool
	style  lipgloss.Style
}

func newOverlay(s *Styles) overlay {
	return overlay{
		style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(s.colorAccent).
			BorderBackground(s.colorBg).
			Background(s.colorBg).
			Foreground(s.colorFg).
			Padding(0, 1),
	}
}

func (o *overlay) toggle() { o.active = !o.active }

// render splices the box into base. Rows of base outside the box are kept.
func (o overlay) render(base string, width, height int, content string) string {
	if !o.active || width <= 0 || height <= 0 {
		return base
	}
	rendered := o.style.Render(content)
	box := strings.Split(rendered, "\n")
	boxW := min(lipgloss.Width(rendered), width)
	boxH := min(len(box), height)

	top := max((height-boxH)/2, 0)
	left := max((width-boxW)/2, 0)

	lines := strings.Split(base, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i := range boxH {
		row := top + i
		line := lines[row]
		lines[row] = ansi.Cut(line, 0, left) + ansi.Truncate(box[i], boxW, "") + ansi.Cut(line, left+boxW, width)
	}
	return strings.Join(lines[:height], "\n")
}
