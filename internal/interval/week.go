package interval

import (
	"time"
)

// DaysPerWeek is the number of days in a planner week.
const DaysPerWeek = 7

// Week holds 7 days starting from Monday.
type Week struct {
	StartDate time.Time         // Monday of the week
	Days      [DaysPerWeek]*Day // Monday (0) through Sunday (6)
}

// NewWeek creates a Week starting from the Monday of the given date.
func NewWeek(date time.Time) *Week {
	monday := StartOfWeek(date)
	w := &Week{StartDate: monday}

	for i := 0; i < DaysPerWeek; i++ {
		w.Days[i] = NewDay(monday.AddDate(0, 0, i))
	}

	return w
}

// NewWeekFromIntervals creates a Week and distributes intervals to their days.
// Intervals outside the week's date range are ignored.
func NewWeekFromIntervals(date time.Time, ivs []*Interval) *Week {
	w := NewWeek(date)

	for _, iv := range ivs {
		if day := w.DayByDate(iv.Date); day != nil {
			day.Add(iv)
		}
	}

	return w
}

// Day returns the Day for the given weekday (0=Monday, 6=Sunday).
// Returns nil if weekday is out of range.
func (w *Week) Day(weekday int) *Day {
	if weekday < 0 || weekday >= DaysPerWeek {
		return nil
	}
	return w.Days[weekday]
}

// DayByDate returns the Day for the given date, nil if not in this week.
func (w *Week) DayByDate(date time.Time) *Day {
	for _, day := range w.Days {
		if SameDate(day.Date, date) {
			return day
		}
	}
	return nil
}

// Dates returns the seven dates of the week.
func (w *Week) Dates() []time.Time {
	dates := make([]time.Time, DaysPerWeek)
	for i, d := range w.Days {
		dates[i] = d.Date
	}
	return dates
}

// EndDate returns the Sunday of the week.
func (w *Week) EndDate() time.Time {
	return w.StartDate.AddDate(0, 0, DaysPerWeek-1)
}

// WeekdayShortName returns the short name of the weekday (0=Monday).
func WeekdayShortName(weekday int) string {
	names := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	if weekday < 0 || weekday >= DaysPerWeek {
		return ""
	}
	return names[weekday]
}

// WeekdayIndex returns 0 for Monday through 6 for Sunday.
func WeekdayIndex(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 6
	}
	return wd - 1
}

// StartOfWeek returns the Monday of the week containing the given date.
func StartOfWeek(t time.Time) time.Time {
	t = truncateToDay(t)
	return t.AddDate(0, 0, -WeekdayIndex(t))
}
