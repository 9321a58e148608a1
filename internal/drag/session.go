// Package drag tracks a single placement, move or resize gesture from press
// to commit or cancel.
//
// Pointer and keyboard input drive the same Controller. Nothing is written
// to the board until a drop passes the conflict check.
package drag

import (
	"errors"
	"time"

	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/layout"
)

// Gesture errors.
var (
	ErrGestureInProgress = errors.New("another gesture is in progress")
	ErrNotDragging       = errors.New("no active gesture")
	ErrUnknownTarget     = errors.New("drag target not found")
	ErrOutsideView       = errors.New("interval is not in the visible days")
)

// State is the gesture state.
type State int

const (
	// Idle means no gesture is active.
	Idle State = iota
	// Pressed is a press that has not moved past the activation distance.
	// Releasing here is a click.
	Pressed
	// Dragging publishes a ghost on every update.
	Dragging
	// Committing is the conflict check and board write after a drop.
	Committing
	// Cancelled is the terminal state of an aborted gesture.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Grab selects what part of an interval the gesture holds.
type Grab int

const (
	// GrabBody moves the interval, keeping its duration.
	GrabBody Grab = iota
	// GrabEnd resizes the interval by moving its end.
	GrabEnd
)

// Target identifies the dragged item: an existing interval or a template.
type Target struct {
	IntervalID int64
	Template   *interval.Template
	Grab       Grab
}

func (t Target) isTemplate() bool { return t.Template != nil }

// Ghost is the preview of a not yet committed placement.
type Ghost struct {
	IntervalID int64 // zero for a template drop
	Date       time.Time
	DayIndex   int
	Start      int
	End        int
	Label      string
	Color      string
	Record     layout.RenderRecord
}

// Outcome reports how a finished gesture ended.
type Outcome struct {
	State     State // state the gesture finished in
	Click     bool  // released before activation
	Committed *interval.Interval
	Unchanged bool // dropped at its original position
	Conflict  error
}

// session is the transient state of one gesture.
type session struct {
	pointer string
	target  Target
	state   State

	origin   *interval.Interval // position before the gesture
	originDx int                // day index of origin
	pressX   float64
	pressY   float64

	ghost *Ghost
}

// candidate returns the interval the session would commit.
func (s *session) candidate() *interval.Interval {
	c := s.origin.Clone()
	if s.ghost != nil {
		c.Date = s.ghost.Date
		c.Start = s.ghost.Start
		c.End = s.ghost.End
	}
	return c
}

// moved reports whether the ghost differs from the origin.
func (s *session) moved() bool {
	if s.ghost == nil {
		return false
	}
	return !interval.SameDate(s.ghost.Date, s.origin.Date) ||
		s.ghost.Start != s.origin.Start ||
		s.ghost.End != s.origin.End
}
