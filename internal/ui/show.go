package ui

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/rocinante/internal/dateutil"
	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/layout"
)

func (a *App) showCmd() *cobra.Command {
	var (
		verbose bool
		copyOut bool
	)

	cmd := &cobra.Command{
		Use:   "show [day]",
		Short: "Show one day's time blocks",
		Long: `Display one day's blocks with their board columns and totals.

The day defaults to today. With --copy, a plain-text version of the day
is also placed on the clipboard.`,
		Example: `  rocinante show
  rocinante show tomorrow --copy`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			date, err := dateutil.ParseDay(input, a.now())
			if err != nil {
				return err
			}

			ivs, err := a.store.List(cmd.Context(), date)
			if err != nil {
				return fmt.Errorf("fetching blocks: %w", err)
			}

			day := interval.NewDayWithIntervals(date, ivs)
			res := layout.Compute(ivs, a.config.LayoutOptions())
			PrintDay(a.out, day, res, PrintOpts{Verbose: verbose})

			if copyOut {
				if err := clipboard.WriteAll(layout.DayText(day, res)); err != nil {
					return fmt.Errorf("copying to clipboard: %w", err)
				}
				fmt.Fprintln(a.out, formatMuted("Copied to clipboard"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show participants and notes")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "Copy the day to the clipboard")
	return cmd
}
