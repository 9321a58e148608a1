package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/layout"
)

// PrintOpts configures interval printing.
type PrintOpts struct {
	Verbose       bool // Show participants and notes
	MaxLabelWidth int  // Maximum label width (0 = auto)
}

// CalcMaxLabelWidth returns the label width that fits the terminal.
func (o PrintOpts) CalcMaxLabelWidth(fallback int) int {
	if o.MaxLabelWidth > 0 {
		return o.MaxLabelWidth
	}
	// "  #123  09:00-10:00  1/3  " plus the category suffix
	w := termWidth() - 40
	if w < 10 {
		return fallback
	}
	return w
}

// PrintDay writes one day: a header, one row per interval and a summary.
func PrintDay(w io.Writer, day *interval.Day, res layout.Result, opts PrintOpts) {
	fmt.Fprintf(w, "=== %s ===\n", formatHeader(day.Date.Format("Monday, January 2, 2006")))

	ivs := day.Intervals()
	if len(ivs) == 0 {
		fmt.Fprintln(w, formatMuted("  (no blocks)"))
		return
	}

	maxLabel := opts.CalcMaxLabelWidth(30)
	for _, iv := range ivs {
		PrintIntervalRow(w, iv, res, maxLabel, opts.Verbose)
	}

	stats := day.Stats()
	summary := fmt.Sprintf("  %d blocks, %s busy", stats.Blocks, hoursMinutes(stats.BusyMinutes))
	fmt.Fprint(w, formatStats(summary))
	if res.Overflow > 0 {
		fmt.Fprint(w, formatOverflow(fmt.Sprintf(", %d hidden on the board", res.Overflow)))
	}
	fmt.Fprintln(w)
}

// PrintIntervalRow writes a single interval with its layout column.
func PrintIntervalRow(w io.Writer, iv *interval.Interval, res layout.Result, maxLabel int, verbose bool) {
	column := "+"
	if slot, ok := res.Slot(iv.ID); ok {
		column = fmt.Sprintf("%d/%d", slot.ColumnIndex+1, slot.ColumnCount)
	}

	label := iv.Label
	if !verbose && ansi.StringWidth(label) > maxLabel {
		label = ansi.Truncate(label, maxLabel, "…")
	}
	if iv.Category != "" && !strings.EqualFold(iv.Category, iv.Label) {
		label += formatMuted(" [" + iv.Category + "]")
	}

	fmt.Fprintf(w, "  %s  %s  %-4s %s\n",
		formatMuted(fmt.Sprintf("#%-4d", iv.ID)),
		formatTime(iv.StartTime()+"-"+iv.EndTime()),
		column,
		formatLabel(label),
	)

	if verbose {
		if len(iv.Participants) > 0 {
			fmt.Fprintf(w, "        %s %s\n", formatMuted("with"), strings.Join(iv.Participants, ", "))
		}
		if iv.Notes != "" {
			fmt.Fprintf(w, "        %s\n", formatMuted(iv.Notes))
		}
	}
}

func hoursMinutes(minutes int) string {
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
