package integration

import (
	"context"
	"testing"
	"time"

	"github.com/javiermolinar/rocinante/internal/dateutil"
	"github.com/javiermolinar/rocinante/internal/interval"
)

// Dates are stored as calendar days. A block saved for a local date must
// come back on the same calendar day whatever zone the query uses.
func TestWeekRangeKeepsCalendarDays(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	zones := []*time.Location{time.Local, time.UTC, time.FixedZone("UTC+13", 13*3600), time.FixedZone("UTC-11", -11*3600)}

	for _, loc := range zones {
		t.Run(loc.String(), func(t *testing.T) {
			now := time.Date(2025, 3, 30, 23, 30, 0, 0, loc) // a Sunday, late evening
			mon, sun := dateutil.WeekRange(now)
			if mon.Weekday() != time.Monday || sun.Weekday() != time.Sunday {
				t.Fatalf("WeekRange() = %v..%v", mon, sun)
			}

			today := dateutil.TruncateToDay(now)
			iv := &interval.Interval{Date: today, Label: "Late " + loc.String(), Start: 1380, End: 1440}
			if _, err := repo.Save(ctx, today, []*interval.Interval{iv}); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			got, err := repo.ListRange(ctx, mon, sun)
			if err != nil {
				t.Fatalf("ListRange failed: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("ListRange() returned %d blocks, want 1", len(got))
			}
			if interval.ScopeKey(got[0].Date) != "2025-03-30" {
				t.Errorf("stored date = %s, want 2025-03-30", interval.ScopeKey(got[0].Date))
			}
			if got[0].EndTime() != "24:00" {
				t.Errorf("EndTime() = %q, want 24:00", got[0].EndTime())
			}

			// clear the day for the next zone
			if _, err := repo.Save(ctx, today, nil); err != nil {
				t.Fatal(err)
			}
		})
	}
}
