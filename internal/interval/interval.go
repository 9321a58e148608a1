// Package interval defines the core domain types for rocinante.
package interval

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/javiermolinar/rocinante/internal/dateutil"
)

// Validation errors.
var (
	ErrEmptyLabel        = errors.New("label cannot be empty")
	ErrInvalidTimeFormat = errors.New("time must be in HH:MM format")
	ErrEndBeforeStart    = errors.New("end time must be after start time")
	ErrOutOfDay          = errors.New("time must fall within 00:00-24:00")
)

// Domain errors.
var (
	ErrIntervalNotFound = errors.New("interval not found")
	ErrNothingToUndo    = errors.New("nothing to undo")
)

// Interval is a timed activity on one day.
// Start and End are minutes since midnight; End is exclusive.
type Interval struct {
	ID           int64
	Date         time.Time
	Label        string // matched by restriction rules
	Category     string // palette/template category
	Start        int
	End          int
	Color        string
	Participants []string
	Notes        string
	CreatedAt    time.Time
}

// New creates a validated Interval.
// date can be empty (defaults to today) or in YYYY-MM-DD format.
// start and end must be in HH:MM format, with end after start.
func New(label, category, date, start, end string) (*Interval, error) {
	day, err := dateutil.ParseDate(date)
	if err != nil {
		return nil, err
	}

	if err := validateTimeFormat(start); err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	if err := validateTimeFormat(end); err != nil {
		return nil, fmt.Errorf("end time: %w", err)
	}

	iv := &Interval{
		Date:      day,
		Label:     strings.TrimSpace(label),
		Category:  category,
		Start:     TimeToMinutes(start),
		End:       TimeToMinutes(end),
		CreatedAt: time.Now(),
	}
	if end == "24:00" {
		iv.End = MinutesPerDay
	}
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	return iv, nil
}

func validateTimeFormat(s string) error {
	if s == "24:00" {
		return nil
	}
	if len(s) != 5 {
		return ErrInvalidTimeFormat
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidTimeFormat
	}
	return nil
}

// Validate checks the interval invariants.
func (iv *Interval) Validate() error {
	if strings.TrimSpace(iv.Label) == "" {
		return ErrEmptyLabel
	}
	if iv.Start < 0 || iv.End > MinutesPerDay {
		return ErrOutOfDay
	}
	if iv.End <= iv.Start {
		return ErrEndBeforeStart
	}
	return nil
}

// Duration returns the interval duration in minutes.
func (iv *Interval) Duration() int {
	return iv.End - iv.Start
}

// StartTime returns the start as "HH:MM".
func (iv *Interval) StartTime() string {
	return FormatMinutes(iv.Start)
}

// EndTime returns the end as "HH:MM".
func (iv *Interval) EndTime() string {
	return FormatMinutes(iv.End)
}

// SameDay reports whether both intervals fall on the same calendar day.
func (iv *Interval) SameDay(other *Interval) bool {
	return SameDate(iv.Date, other.Date)
}

// OverlapsWith returns true if both intervals are on the same day
// and their half-open ranges intersect.
func (iv *Interval) OverlapsWith(other *Interval) bool {
	if other == nil {
		return false
	}
	if !iv.SameDay(other) {
		return false
	}
	return RangesOverlap(iv.Start, iv.End, other.Start, other.End)
}

// Clone returns a deep copy.
func (iv *Interval) Clone() *Interval {
	if iv == nil {
		return nil
	}
	c := *iv
	c.Participants = slices.Clone(iv.Participants)
	return &c
}

// Equal reports whether two intervals match field by field.
// CreatedAt is ignored since stores may round it.
func (iv *Interval) Equal(other *Interval) bool {
	if iv == nil || other == nil {
		return iv == other
	}
	return iv.ID == other.ID &&
		SameDate(iv.Date, other.Date) &&
		iv.Label == other.Label &&
		iv.Category == other.Category &&
		iv.Start == other.Start &&
		iv.End == other.End &&
		iv.Color == other.Color &&
		iv.Notes == other.Notes &&
		slices.Equal(iv.Participants, other.Participants)
}

func (iv *Interval) String() string {
	return fmt.Sprintf("%q %s %s-%s", iv.Label, iv.Date.Format("2006-01-02"), iv.StartTime(), iv.EndTime())
}

// Compare orders intervals canonically: start time, then id.
func Compare(a, b *Interval) int {
	if a.Start != b.Start {
		return a.Start - b.Start
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// SortCanonical sorts intervals in place by start time, then id.
func SortCanonical(ivs []*Interval) {
	slices.SortStableFunc(ivs, Compare)
}
