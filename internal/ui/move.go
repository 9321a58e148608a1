package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rocinante/internal/dateutil"
	"github.com/javiermolinar/rocinante/internal/drag"
	"github.com/javiermolinar/rocinante/internal/interval"
)

func (a *App) moveCmd() *cobra.Command {
	var (
		date  string
		start string
		end   string
	)

	cmd := &cobra.Command{
		Use:   "move [id]",
		Short: "Move or resize a time block",
		Long: `Move a block to another day or time, or change its end.

Without --end the block keeps its duration. The move is checked against
the restriction rules like a drag on the board.`,
		Example: `  rocinante move 12 --start=10:30
  rocinante move 12 --date=fri
  rocinante move 12 --end=11:45`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid block ID: %w", err)
			}
			ctx := cmd.Context()

			iv, err := a.store.Get(ctx, id)
			if err != nil {
				return err
			}

			target := iv.Date
			if date != "" {
				if target, err = dateutil.ParseDay(date, a.now()); err != nil {
					return err
				}
			}
			newStart, newEnd := iv.Start, iv.End
			if start != "" {
				if newStart, err = interval.ParseTime(start); err != nil {
					return fmt.Errorf("start time: %w", err)
				}
				newEnd = newStart + iv.Duration()
			}
			if end != "" {
				if newEnd, err = interval.ParseTime(end); err != nil {
					return fmt.Errorf("end time: %w", err)
				}
			}

			engine, err := a.engine(ctx)
			if err != nil {
				return err
			}
			dates := []time.Time{iv.Date}
			if !interval.SameDate(iv.Date, target) {
				dates = append(dates, target)
			}
			board, err := a.loadBoard(ctx, dates...)
			if err != nil {
				return err
			}

			moved, err := drag.Edit(board, engine, id, target, newStart, newEnd)
			if drag.IsConflict(err) {
				return fmt.Errorf("%s: %w", formatConflict("blocked"), err)
			}
			if err != nil {
				return err
			}

			// the source day is written first so the block leaves it before
			// it is stored on the target day
			canonical, err := a.saveDays(ctx, board, dates...)
			if err != nil {
				return err
			}
			saved := findSaved(canonical, moved)

			fmt.Fprintf(a.out, "Moved block #%d: %s %s %s-%s\n",
				saved.ID,
				formatLabel(saved.Label),
				saved.Date.Format("Mon 2006-01-02"),
				saved.StartTime(),
				saved.EndTime(),
			)
			if saved.ID != id {
				fmt.Fprintln(a.out, formatMuted(fmt.Sprintf("  (was #%d)", id)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "New day (YYYY-MM-DD, weekday, +N)")
	cmd.Flags().StringVar(&start, "start", "", "New start time (HH:MM)")
	cmd.Flags().StringVar(&end, "end", "", "New end time (HH:MM)")

	return cmd
}
