package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/layout"
)

// weekSummary renders the per-day totals of the visible week.
func (m Model) weekSummary() string {
	var b strings.Builder
	b.WriteString(m.styles.TitleStyle.Render("Week of " + m.weekStart.Format("Jan 2")))
	b.WriteString("\n\n")

	opts := m.config.LayoutOptions()
	totals := make(map[string]int)
	var blocks, busy, hidden int
	for i, date := range m.weekDates() {
		day := m.board.Day(date)
		stats := day.Stats()
		res := layout.Compute(day.Intervals(), opts)
		blocks += stats.Blocks
		busy += stats.BusyMinutes
		hidden += res.Overflow
		for k, v := range stats.CategoryMinutes {
			totals[k] += v
		}

		line := fmt.Sprintf("%s %2d  %2d blocks  %s", interval.WeekdayShortName(i), date.Day(), stats.Blocks, hoursMinutes(stats.BusyMinutes))
		if res.Overflow > 0 {
			line += fmt.Sprintf("  +%d", res.Overflow)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(fmt.Sprintf("\n%d blocks, %s busy", blocks, hoursMinutes(busy)))
	if hidden > 0 {
		b.WriteString(fmt.Sprintf(", %d hidden", hidden))
	}

	if len(totals) > 0 {
		b.WriteString("\n")
		names := make([]string, 0, len(totals))
		for k := range totals {
			names = append(names, k)
		}
		sort.Slice(names, func(i, j int) bool {
			if totals[names[i]] != totals[names[j]] {
				return totals[names[i]] > totals[names[j]]
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			b.WriteString(fmt.Sprintf("\n%-12s %s", name, hoursMinutes(totals[name])))
		}
	}
	return b.String()
}

func hoursMinutes(minutes int) string {
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
