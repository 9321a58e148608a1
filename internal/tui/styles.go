package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/rocinante/internal/palette"
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	// Theme colors as lipgloss colors
	colorBg          lipgloss.Color
	colorBgHighlight lipgloss.Color
	colorBgSelection lipgloss.Color
	colorFg          lipgloss.Color
	colorFgMuted     lipgloss.Color
	colorAccent      lipgloss.Color
	colorConflict    lipgloss.Color
	colorOverflow    lipgloss.Color

	// Title and headers
	TitleStyle          lipgloss.Style
	WeekStyle           lipgloss.Style
	DayHeaderStyle      lipgloss.Style
	DayHeaderTodayStyle lipgloss.Style

	// Grid
	BaseStyle       lipgloss.Style
	TrackStyle      lipgloss.Style
	TrackAltStyle   lipgloss.Style
	HourLineStyle   lipgloss.Style
	TimeColumnStyle lipgloss.Style
	CursorStyle     lipgloss.Style
	OverflowStyle   lipgloss.Style
	ConflictStyle   lipgloss.Style

	// Footer
	StatusStyle      lipgloss.Style
	StatusErrorStyle lipgloss.Style
	Help             help.Styles
}

// NewStyles creates styles from the palette's theme.
func NewStyles(p *palette.Service) *Styles {
	t := p.Theme()
	s := &Styles{
		colorBg:          lipgloss.Color(t.Bg),
		colorBgHighlight: lipgloss.Color(t.BgHighlight),
		colorBgSelection: lipgloss.Color(t.BgSelection),
		colorFg:          lipgloss.Color(t.Fg),
		colorFgMuted:     lipgloss.Color(t.FgMuted),
		colorAccent:      lipgloss.Color(t.Accent),
		colorConflict:    lipgloss.Color(t.Conflict),
		colorOverflow:    lipgloss.Color(t.Overflow),
	}

	base := lipgloss.NewStyle().Background(s.colorBg).Foreground(s.colorFg)

	s.BaseStyle = base
	s.TitleStyle = base.Foreground(s.colorAccent).Bold(true)
	s.WeekStyle = base.Foreground(s.colorFgMuted)
	s.DayHeaderStyle = base.Foreground(s.colorFgMuted).Bold(true)
	s.DayHeaderTodayStyle = base.Foreground(s.colorAccent).Bold(true).Underline(true)

	s.TrackStyle = base.Foreground(s.colorFgMuted)
	s.TrackAltStyle = lipgloss.NewStyle().Background(s.colorBgHighlight).Foreground(s.colorFgMuted)
	s.HourLineStyle = base.Foreground(s.colorBgSelection)
	s.TimeColumnStyle = base.Foreground(s.colorFgMuted)
	s.CursorStyle = lipgloss.NewStyle().Background(s.colorBgSelection).Foreground(s.colorAccent).Bold(true)
	s.OverflowStyle = lipgloss.NewStyle().Background(s.colorOverflow).Foreground(lipgloss.Color(p.TextFor(t.Overflow))).Bold(true)
	s.ConflictStyle = lipgloss.NewStyle().Background(s.colorConflict).Foreground(lipgloss.Color(p.TextFor(t.Conflict))).Bold(true)

	s.StatusStyle = base.Foreground(s.colorFgMuted)
	s.StatusErrorStyle = base.Foreground(s.colorConflict).Bold(true)

	s.Help = help.Styles{
		ShortKey:       base.Foreground(s.colorAccent),
		ShortDesc:      base.Foreground(s.colorFgMuted),
		ShortSeparator: base.Foreground(s.colorBgSelection),
		Ellipsis:       base.Foreground(s.colorFgMuted),
		FullKey:        base.Foreground(s.colorAccent),
		FullDesc:       base.Foreground(s.colorFgMuted),
		FullSeparator:  base.Foreground(s.colorBgSelection),
	}
	return s
}
