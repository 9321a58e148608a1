package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rocinante/internal/dateutil"
	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/layout"
)

func (a *App) listCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
		week      bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List time blocks in a date range",
		Long: `List all time blocks within a date range, with their board column.

If no dates are specified, lists today's blocks.
If only --start is specified, lists blocks for that single day.
With --week, lists the whole week containing --start.
A "+" column marks blocks hidden on the board by the column cap.`,
		Example: `  rocinante list
  rocinante list --start=2025-01-15
  rocinante list --start=mon --end=fri
  rocinante list --week`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dateRange, err := dateutil.NewDateRange(startDate, endDate, a.now())
			if err != nil {
				return err
			}
			if week {
				dateRange.Start, dateRange.End = dateutil.WeekRange(dateRange.Start)
			}

			ivs, err := a.store.ListRange(cmd.Context(), dateRange.Start, dateRange.End)
			if err != nil {
				return fmt.Errorf("listing blocks: %w", err)
			}

			if len(ivs) == 0 {
				fmt.Fprintln(a.out, "No blocks found in the specified date range.")
				return nil
			}

			byDay := make(map[string][]*interval.Interval)
			for _, iv := range ivs {
				key := interval.ScopeKey(iv.Date)
				byDay[key] = append(byDay[key], iv)
			}

			opts := PrintOpts{Verbose: verbose}
			first := true
			for _, d := range dateRange.Days() {
				dayIvs := byDay[interval.ScopeKey(d)]
				if len(dayIvs) == 0 {
					continue
				}
				if !first {
					fmt.Fprintln(a.out)
				}
				first = false
				day := interval.NewDayWithIntervals(d, dayIvs)
				PrintDay(a.out, day, layout.Compute(dayIvs, a.config.LayoutOptions()), opts)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD, weekday, +N; default: today)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (default: start)")
	cmd.Flags().BoolVarP(&week, "week", "w", false, "List the whole week")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show participants and notes")
	return cmd
}
