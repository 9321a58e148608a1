package interval

import (
	"slices"
	"time"
)

// Day holds all intervals for a single day in canonical order.
// Unlike a timesheet, intervals on a Day may overlap; the layout decides
// how overlapping intervals share the day column.
type Day struct {
	Date      time.Time
	intervals []*Interval
}

// NewDay creates a Day for the given date.
func NewDay(date time.Time) *Day {
	return &Day{
		Date:      truncateToDay(date),
		intervals: make([]*Interval, 0),
	}
}

// NewDayWithIntervals creates a Day from a slice of intervals.
// Intervals on other dates are ignored.
func NewDayWithIntervals(date time.Time, ivs []*Interval) *Day {
	d := NewDay(date)
	for _, iv := range ivs {
		d.Add(iv)
	}
	return d
}

// Intervals returns a copy of the interval slice.
func (d *Day) Intervals() []*Interval {
	result := make([]*Interval, len(d.intervals))
	copy(result, d.intervals)
	return result
}

// Add adds an interval to the day, keeping canonical order.
// Returns false if the interval belongs to another date.
func (d *Day) Add(iv *Interval) bool {
	if iv == nil || !SameDate(iv.Date, d.Date) {
		return false
	}
	d.intervals = append(d.intervals, iv)
	SortCanonical(d.intervals)
	return true
}

// Overlapping returns intervals whose ranges intersect [start, end).
func (d *Day) Overlapping(start, end int) []*Interval {
	var result []*Interval
	for _, iv := range d.intervals {
		if RangesOverlap(start, end, iv.Start, iv.End) {
			result = append(result, iv)
		}
	}
	return result
}

// Remove removes an interval from the day by ID.
// Returns the removed interval, or nil if not found.
func (d *Day) Remove(id int64) *Interval {
	for i, iv := range d.intervals {
		if iv.ID == id {
			d.intervals = slices.Delete(d.intervals, i, i+1)
			return iv
		}
	}
	return nil
}

// Len returns the number of intervals in the day.
func (d *Day) Len() int {
	return len(d.intervals)
}

// DayStats holds statistics for a single day.
type DayStats struct {
	TotalMinutes    int
	BusyMinutes     int // union of all intervals, overlaps counted once
	Blocks          int
	CategoryMinutes map[string]int
}

// Stats calculates statistics for the day.
func (d *Day) Stats() DayStats {
	stats := DayStats{CategoryMinutes: make(map[string]int)}
	busyEnd := -1
	for _, iv := range d.intervals {
		stats.Blocks++
		stats.TotalMinutes += iv.Duration()
		stats.CategoryMinutes[categoryKey(iv)] += iv.Duration()

		// intervals are sorted by start, so a sweep gives the union
		switch {
		case iv.Start >= busyEnd:
			stats.BusyMinutes += iv.Duration()
			busyEnd = iv.End
		case iv.End > busyEnd:
			stats.BusyMinutes += iv.End - busyEnd
			busyEnd = iv.End
		}
	}
	return stats
}

func categoryKey(iv *Interval) string {
	if iv.Category != "" {
		return iv.Category
	}
	return iv.Label
}

// truncateToDay removes the time component from a time.Time.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
