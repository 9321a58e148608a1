package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Color definitions for consistent styling across the UI.
var (
	// Labels: bold cyan
	colorLabel = color.New(color.FgCyan, color.Bold)

	// Times: plain white
	colorTime = color.New(color.FgWhite)

	// Conflicts and rejected drops: red
	colorConflict = color.New(color.FgRed, color.Bold)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Stats: green for totals
	colorStats = color.New(color.FgGreen)

	// Overflow: yellow so hidden blocks are noticed
	colorOverflow = color.New(color.FgYellow)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

func formatLabel(s string) string    { return colorLabel.Sprint(s) }
func formatTime(s string) string     { return colorTime.Sprint(s) }
func formatConflict(s string) string { return colorConflict.Sprint(s) }
func formatHeader(s string) string   { return colorHeader.Sprint(s) }
func formatStats(s string) string    { return colorStats.Sprint(s) }
func formatOverflow(s string) string { return colorOverflow.Sprint(s) }
func formatMuted(s string) string    { return colorMuted.Sprint(s) }
