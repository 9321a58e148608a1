package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rocinante/internal/conflict"
	"github.com/javiermolinar/rocinante/internal/dateutil"
	"github.com/javiermolinar/rocinante/internal/drag"
	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/scheduler"
)

func (a *App) addCmd() *cobra.Command {
	var (
		date         string
		start        string
		end          string
		template     string
		category     string
		color        string
		notes        string
		participants []string
		duration     int
	)

	cmd := &cobra.Command{
		Use:   "add [label]",
		Short: "Add a time block",
		Long: `Add a time block to a day. The block is checked against the
restriction rules exactly like a drop on the board.

Either give --end or --duration, or a --template whose default duration
is used. Without --start the block goes to the first free slot of the day
that breaks no rule, never earlier than now when the day is today.`,
		Example: `  rocinante add "Math 1" --date=2025-01-15 --start=09:00 --end=10:00
  rocinante add --template=focus --date=tomorrow --start=14:00
  rocinante add "Piano" --duration=45
  rocinante add "Soccer" --date=sat --start=10:00 --end=11:30 --with=ana --with=leo`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := dateutil.ParseDay(date, a.now())
			if err != nil {
				return err
			}

			var label string
			if len(args) == 1 {
				label = args[0]
			}

			auto := start == ""
			if auto {
				if end != "" {
					return fmt.Errorf("--end needs --start; use --duration to pick the first free slot")
				}
				start = interval.FormatMinutes(a.config.Planner.WindowStart * 60)
			}
			if duration > 0 {
				if end != "" {
					return fmt.Errorf("--end and --duration are mutually exclusive")
				}
				startMin, err := interval.ParseTime(start)
				if err != nil {
					return fmt.Errorf("start time: %w", err)
				}
				end = interval.FormatMinutes(startMin + duration)
			}

			iv, err := a.buildInterval(day, label, start, end, template, category)
			if err != nil {
				return err
			}
			if color != "" {
				iv.Color = color
			}
			iv.Notes = notes
			iv.Participants = participants

			saved, err := a.addInterval(cmd.Context(), iv, auto)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Created block #%d: %s %s %s-%s\n",
				saved.ID,
				formatLabel(saved.Label),
				saved.Date.Format("Mon 2006-01-02"),
				saved.StartTime(),
				saved.EndTime(),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day (YYYY-MM-DD, weekday, +N; default: today)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM; default: first free slot)")
	cmd.Flags().StringVar(&end, "end", "", "End time (HH:MM)")
	cmd.Flags().IntVar(&duration, "duration", 0, "Length in minutes, instead of --end")
	cmd.Flags().StringVarP(&template, "template", "t", "", "Template to instantiate (category or label)")
	cmd.Flags().StringVar(&category, "category", "", "Category used for the block color")
	cmd.Flags().StringVar(&color, "color", "", "Block color (#rrggbb)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().StringArrayVar(&participants, "with", nil, "Participant (repeatable)")

	return cmd
}

// buildInterval creates the candidate from either a template or explicit
// label and end time.
func (a *App) buildInterval(day time.Time, label, start, end, template, category string) (*interval.Interval, error) {
	if template == "" {
		if end == "" {
			return nil, fmt.Errorf("either --end, --duration or --template is required")
		}
		return interval.New(label, category, dateutil.Format(day), start, end)
	}

	tmpl, err := a.config.TemplateSource().Find(template)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, template)
	}
	startMin, err := interval.ParseTime(start)
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	iv := tmpl.Instantiate(day, startMin)
	if strings.TrimSpace(label) != "" {
		iv.Label = label
	}
	if category != "" {
		iv.Category = category
	}
	if end != "" {
		if iv.End, err = interval.ParseTime(end); err != nil {
			return nil, fmt.Errorf("end time: %w", err)
		}
	}
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	return iv, nil
}

// addInterval commits iv through the conflict check and stores its day.
// With auto the start is moved to the first free slot.
func (a *App) addInterval(ctx context.Context, iv *interval.Interval, auto bool) (*interval.Interval, error) {
	engine, err := a.engine(ctx)
	if err != nil {
		return nil, err
	}
	board, err := a.loadBoard(ctx, iv.Date)
	if err != nil {
		return nil, err
	}

	if auto {
		if err := a.firstFree(board, engine, iv); err != nil {
			return nil, err
		}
	}

	placed, err := drag.Place(board, engine, iv)
	if drag.IsConflict(err) {
		return nil, fmt.Errorf("%s: %w", formatConflict("blocked"), err)
	}
	if err != nil {
		return nil, err
	}

	canonical, err := a.saveDays(ctx, board, iv.Date)
	if err != nil {
		return nil, err
	}
	return findSaved(canonical, placed), nil
}

// firstFree moves iv to the earliest start of its day where it overlaps
// nothing and breaks no rule.
func (a *App) firstFree(board *interval.Board, engine *conflict.Engine, iv *interval.Interval) error {
	p := a.config.Planner
	sched := scheduler.New(p.WindowStart*60, p.WindowEnd*60, p.SnapMinutes, engine)

	from := p.WindowStart * 60
	if interval.SameDate(iv.Date, a.now()) {
		next := sched.NextAvailableStart(a.now())
		if !interval.SameDate(next.Date, iv.Date) {
			return fmt.Errorf("%s: %w", dateutil.Format(iv.Date), scheduler.ErrNoFreeSlot)
		}
		from = next.Start
	}

	start, err := sched.FirstFit(board.Day(iv.Date), iv, from, false)
	if err != nil {
		return fmt.Errorf("%s: %w", dateutil.Format(iv.Date), err)
	}
	iv.Start, iv.End = start, start+iv.Duration()
	return nil
}

// loadBoard reads the given days from the store into a fresh board.
func (a *App) loadBoard(ctx context.Context, dates ...time.Time) (*interval.Board, error) {
	board := interval.NewBoard()
	for _, d := range dates {
		ivs, err := a.store.List(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", dateutil.Format(d), err)
		}
		board.Load(d, ivs)
	}
	return board, nil
}

// saveDays writes the given days back and returns the canonical intervals
// of the last one.
func (a *App) saveDays(ctx context.Context, board *interval.Board, dates ...time.Time) ([]*interval.Interval, error) {
	var canonical []*interval.Interval
	for _, d := range dates {
		saved, err := a.store.Save(ctx, d, board.Intervals(d))
		if err != nil {
			return nil, fmt.Errorf("saving %s: %w", dateutil.Format(d), err)
		}
		canonical = saved
	}
	return canonical, nil
}

// findSaved returns the stored copy of iv; its id may have been reassigned.
func findSaved(canonical []*interval.Interval, iv *interval.Interval) *interval.Interval {
	for _, c := range canonical {
		if c.Label == iv.Label && c.Start == iv.Start && c.End == iv.End && c.Category == iv.Category {
			return c
		}
	}
	return iv
}
