package drag

import (
	"fmt"
	"time"

	"github.com/javiermolinar/rocinante/internal/conflict"
	"github.com/javiermolinar/rocinante/internal/interval"
)

// Place commits a new interval without a gesture. It runs the same
// conflict check as a drop.
func Place(board *interval.Board, engine *conflict.Engine, candidate *interval.Interval) (*interval.Interval, error) {
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	c := candidate.Clone()
	c.ID = 0
	if cf := engine.EvaluatePlacement(c, board.Intervals(c.Date)); cf != nil {
		return nil, cf
	}
	return board.Insert(c)
}

// Edit moves an existing interval to date and [start, end) without a
// gesture.
func Edit(board *interval.Board, engine *conflict.Engine, id int64, date time.Time, start, end int) (*interval.Interval, error) {
	iv, ok := board.Get(id)
	if !ok {
		return nil, fmt.Errorf("interval %d: %w", id, interval.ErrIntervalNotFound)
	}
	iv.Date = date
	iv.Start, iv.End = start, end
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	if cf := engine.EvaluatePlacement(iv, board.Intervals(date)); cf != nil {
		return nil, cf
	}
	if err := board.Update(iv); err != nil {
		return nil, err
	}
	return iv, nil
}
