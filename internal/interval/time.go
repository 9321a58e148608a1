package interval

import (
	"fmt"
	"time"
)

// MinutesPerDay is 24 hours * 60 minutes.
const MinutesPerDay = 24 * 60

// TimeToMinutes converts "HH:MM" to minutes since midnight.
// Returns 0 for invalid input.
func TimeToMinutes(t string) int {
	if len(t) < 5 {
		return 0
	}
	hours := int(t[0]-'0')*10 + int(t[1]-'0')
	mins := int(t[3]-'0')*10 + int(t[4]-'0')
	return hours*60 + mins
}

// ParseTime converts a validated "HH:MM" (or "24:00") to minutes.
func ParseTime(s string) (int, error) {
	if err := validateTimeFormat(s); err != nil {
		return 0, err
	}
	if s == "24:00" {
		return MinutesPerDay, nil
	}
	return TimeToMinutes(s), nil
}

// MinutesToTime converts minutes since midnight to "HH:MM" format,
// clamped to a valid time of day.
func MinutesToTime(m int) string {
	if m < 0 {
		m = 0
	}
	if m >= MinutesPerDay {
		m = MinutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// FormatMinutes is like MinutesToTime but renders the end of day as "24:00".
func FormatMinutes(m int) string {
	if m >= MinutesPerDay {
		return "24:00"
	}
	return MinutesToTime(m)
}

// OverlapMinutes calculates the overlapping minutes between two ranges.
// Returns 0 if there is no overlap.
func OverlapMinutes(start1, end1, start2, end2 int) int {
	overlapStart := max(start1, start2)
	overlapEnd := min(end1, end2)

	if overlapEnd <= overlapStart {
		return 0
	}
	return overlapEnd - overlapStart
}

// RangesOverlap returns true if two half-open ranges intersect.
// Two ranges overlap if: start1 < end2 AND start2 < end1
func RangesOverlap(start1, end1, start2, end2 int) bool {
	return start1 < end2 && start2 < end1
}

// SameDate reports whether a and b are the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ScopeKey returns the persistence scope for a date ("YYYY-MM-DD").
func ScopeKey(date time.Time) string {
	return date.Format("2006-01-02")
}
