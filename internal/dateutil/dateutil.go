// Package dateutil parses the date arguments accepted by the CLI and the
// board navigation keys.
package dateutil

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Parse errors.
var (
	ErrInvalidDateFormat  = errors.New("date must be YYYY-MM-DD, a weekday, or a day offset like +2")
	ErrEndDateBeforeStart = errors.New("end date must be on or after start date")
)

const layout = "2006-01-02"

var weekdays = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange parses both ends with ParseDay relative to now.
// An empty end defaults to start.
func NewDateRange(start, end string, now time.Time) (DateRange, error) {
	s, err := ParseDay(start, now)
	if err != nil {
		return DateRange{}, err
	}
	e := s
	if end != "" {
		if e, err = ParseDay(end, now); err != nil {
			return DateRange{}, err
		}
	}
	if e.Before(s) {
		return DateRange{}, ErrEndDateBeforeStart
	}
	return DateRange{Start: s, End: e}, nil
}

// Days returns every date in the range.
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// ParseDate parses a YYYY-MM-DD date. An empty string means today.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return TruncateToDay(time.Now()), nil
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// ParseDay accepts the forms users type on the command line:
//
//	""/"today", "tomorrow", "yesterday"
//	"+N" / "-N"            day offsets from today
//	"mon" .. "sun"          that weekday within the current ISO week
//	"monday" .. "sunday"    same, full names
//	"YYYY-MM-DD"
//
// Past dates are allowed.
func ParseDay(s string, now time.Time) (time.Time, error) {
	today := TruncateToDay(now)
	input := strings.ToLower(strings.TrimSpace(s))

	switch input {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	if input[0] == '+' || input[0] == '-' {
		n, err := strconv.Atoi(input)
		if err != nil {
			return time.Time{}, ErrInvalidDateFormat
		}
		return today.AddDate(0, 0, n), nil
	}

	if len(input) >= 3 {
		if wd, ok := weekdays[input[:3]]; ok && strings.HasPrefix(wd.String(), capitalize(input)) {
			monday, _ := WeekRange(today)
			return monday.AddDate(0, 0, isoIndex(wd)), nil
		}
	}

	t, err := time.ParseInLocation(layout, input, now.Location())
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (monday, sunday time.Time) {
	t = TruncateToDay(t)
	monday = t.AddDate(0, 0, -isoIndex(t.Weekday()))
	return monday, monday.AddDate(0, 0, 6)
}

// TruncateToDay returns t with time set to midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Format renders a date the way ParseDate reads it.
func Format(t time.Time) string {
	return t.Format(layout)
}

// isoIndex maps Monday..Sunday to 0..6.
func isoIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
