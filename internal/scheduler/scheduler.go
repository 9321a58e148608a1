// Package scheduler finds start times for new blocks inside the planner
// window.
package scheduler

import (
	"errors"
	"time"

	"github.com/javiermolinar/rocinante/internal/conflict"
	"github.com/javiermolinar/rocinante/internal/interval"
)

// ErrNoFreeSlot is returned when a block fits nowhere on a day.
var ErrNoFreeSlot = errors.New("no free slot")

// Scheduler places blocks on a snap grid between a day start and end.
type Scheduler struct {
	dayStart int // minutes
	dayEnd   int // minutes
	snap     int
	engine   *conflict.Engine
}

// New creates a Scheduler for the window [dayStart, dayEnd) in minutes.
// A nil engine checks no restriction rules.
func New(dayStart, dayEnd, snap int, engine *conflict.Engine) *Scheduler {
	if snap <= 0 {
		snap = 1
	}
	return &Scheduler{dayStart: dayStart, dayEnd: dayEnd, snap: snap, engine: engine}
}

// AvailableSlot is the part of a day still open for scheduling.
type AvailableSlot struct {
	Date  time.Time
	Start int // minutes
	End   int
}

// Minutes returns the length of the slot.
func (a AvailableSlot) Minutes() int {
	return max(a.End-a.Start, 0)
}

// NextAvailableStart returns where scheduling can begin at now.
// Before the window it is the window start of today, inside it is now
// rounded up to the snap step, and after it the window start of tomorrow.
func (s *Scheduler) NextAvailableStart(now time.Time) AvailableSlot {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	minute := now.Hour()*60 + now.Minute()
	if now.Second() > 0 || now.Nanosecond() > 0 {
		minute++
	}

	if minute <= s.dayStart {
		return AvailableSlot{Date: today, Start: s.dayStart, End: s.dayEnd}
	}
	if start := s.roundUp(minute); start < s.dayEnd {
		return AvailableSlot{Date: today, Start: start, End: s.dayEnd}
	}
	return AvailableSlot{Date: today.AddDate(0, 0, 1), Start: s.dayStart, End: s.dayEnd}
}

// CanFit reports whether duration minutes starting at start stay inside
// the window.
func (s *Scheduler) CanFit(start, duration int) bool {
	return start >= s.dayStart && duration > 0 && start+duration <= s.dayEnd
}

// FirstFit returns the earliest snapped start at or after from where
// candidate fits on day. The block must stay inside the window, must not
// break a restriction rule and, unless allowOverlap is set, must not
// overlap any block. candidate keeps its duration; it is not modified.
func (s *Scheduler) FirstFit(day *interval.Day, candidate *interval.Interval, from int, allowOverlap bool) (int, error) {
	duration := candidate.Duration()
	existing := day.Intervals()

	probe := candidate.Clone()
	probe.Date = day.Date
	for start := s.roundUp(max(from, s.dayStart)); s.CanFit(start, duration); start += s.snap {
		probe.Start, probe.End = start, start+duration

		if !allowOverlap && len(day.Overlapping(probe.Start, probe.End)) > 0 {
			continue
		}
		if s.engine != nil && s.engine.EvaluatePlacement(probe, existing) != nil {
			continue
		}
		return start, nil
	}
	return 0, ErrNoFreeSlot
}

// roundUp moves minute, at or after the window start, up to the next snap
// boundary of the window.
func (s *Scheduler) roundUp(minute int) int {
	off := minute - s.dayStart
	if r := off % s.snap; r != 0 {
		off += s.snap - r
	}
	return s.dayStart + off
}
