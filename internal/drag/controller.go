package drag

import (
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/javiermolinar/rocinante/internal/conflict"
	"github.com/javiermolinar/rocinante/internal/coord"
	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/layout"
)

// KeyboardPointer is the pointer identity used by keyboard gestures.
const KeyboardPointer = "keyboard"

// DefaultActivationDistance is the press travel that starts a drag.
const DefaultActivationDistance = 4

// Colorer resolves the display color of a category.
type Colorer interface {
	ColorFor(category string) string
}

// View is the visible part of the board: one track per date.
type View struct {
	Dates   []time.Time
	Mapper  *coord.Mapper
	Columns coord.Columns
}

func (v View) dayIndex(date time.Time) int {
	for i, d := range v.Dates {
		if interval.SameDate(d, date) {
			return i
		}
	}
	return -1
}

// Options configures a Controller.
type Options struct {
	ActivationDistance float64
	Colors             Colorer
	Logger             *zap.Logger
	// OnGhost receives every preview update and nil when the preview is
	// discarded. It runs under the controller lock and must not call back.
	OnGhost func(*Ghost)
}

// Controller owns at most one gesture at a time.
type Controller struct {
	mu     sync.Mutex
	board  *interval.Board
	engine *conflict.Engine
	view   View
	opts   Options
	log    *zap.Logger

	active *session
}

// NewController creates a controller for the board.
func NewController(board *interval.Board, engine *conflict.Engine, view View, opts Options) *Controller {
	if opts.ActivationDistance <= 0 {
		opts.ActivationDistance = DefaultActivationDistance
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		board:  board,
		engine: engine,
		view:   view,
		opts:   opts,
		log:    log.Named("drag"),
	}
}

// SetView replaces the visible days or track geometry.
// An active gesture is abandoned.
func (c *Controller) SetView(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.log.Debug("view changed, abandoning gesture", zap.String("pointer", c.active.pointer))
		c.finishLocked(Cancelled)
	}
	c.view = v
}

// View returns the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// State returns the state of the active gesture, or Idle.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Idle
	}
	return c.active.state
}

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool {
	return c.State() != Idle
}

// Ghost returns a copy of the current preview, or nil.
func (c *Controller) Ghost() *Ghost {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.ghost == nil {
		return nil
	}
	g := *c.active.ghost
	return &g
}

// Target returns the target of the active gesture.
func (c *Controller) Target() (Target, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Target{}, false
	}
	return c.active.target, true
}

// BusyScopes returns the scopes an active gesture reads from or may write to.
func (c *Controller) BusyScopes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	scopes := []string{interval.ScopeKey(c.active.origin.Date)}
	if g := c.active.ghost; g != nil && !interval.SameDate(g.Date, c.active.origin.Date) {
		scopes = append(scopes, interval.ScopeKey(g.Date))
	}
	return scopes
}

// Press starts a pointer gesture on target at (x, y).
func (c *Controller) Press(pointer string, x, y float64, target Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return ErrGestureInProgress
	}

	dayIdx := c.view.Columns.DayAt(x)
	s, err := c.newSessionLocked(pointer, target, dayIdx, c.view.Mapper.PixelToTime(c.view.Mapper.Snap(y)))
	if err != nil {
		return err
	}
	s.pressX, s.pressY = x, y
	s.state = Pressed
	c.active = s
	c.log.Debug("press", zap.String("pointer", pointer), zap.Int64("interval", target.IntervalID), zap.Int("day", dayIdx))
	return nil
}

// Move updates the pointer position. It returns the new ghost once the
// gesture has passed the activation distance, nil before that.
func (c *Controller) Move(pointer string, x, y float64) (*Ghost, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.ownedLocked(pointer)
	if err != nil {
		return nil, err
	}

	dx, dy := x-s.pressX, y-s.pressY
	if s.state == Pressed {
		if math.Hypot(dx, dy) < c.opts.ActivationDistance {
			return nil, nil
		}
		s.state = Dragging
		c.log.Debug("drag activated", zap.String("pointer", pointer))
	}

	v := c.view
	m := v.Mapper
	dayIdx := v.Columns.DayAt(x)
	if s.target.Grab == GrabEnd {
		dayIdx = s.originDx
	}

	var start, end int
	switch s.target.Grab {
	case GrabEnd:
		bottom := m.Snap(m.TimeToPixel(s.origin.End) + dy)
		start = c.clampStart(s.origin.Start)
		end = c.clampEnd(start, m.PixelToTime(bottom))
	default:
		top := m.Snap(m.TimeToPixel(s.origin.Start) + dy)
		start, end = m.ClampSpan(m.PixelToTime(top), s.origin.Duration())
	}
	return c.publishLocked(s, dayIdx, start, end), nil
}

// Release ends a pointer gesture. over reports whether the pointer is over
// a valid drop target.
func (c *Controller) Release(pointer string, over bool) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.ownedLocked(pointer)
	if err != nil {
		return Outcome{}, err
	}

	switch {
	case s.state == Pressed:
		c.finishLocked(Idle)
		return Outcome{State: Idle, Click: true}, nil
	case !over:
		c.log.Debug("released outside target", zap.String("pointer", pointer))
		c.finishLocked(Cancelled)
		return Outcome{State: Cancelled}, nil
	}
	return c.commitLocked(s)
}

// Cancel aborts the gesture owned by pointer.
func (c *Controller) Cancel(pointer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.ownedLocked(pointer); err != nil {
		return err
	}
	c.finishLocked(Cancelled)
	return nil
}

// Abandon aborts whatever gesture is active, for example when the window
// loses focus. It is a no-op when idle.
func (c *Controller) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.finishLocked(Cancelled)
	}
}

// Activate starts a keyboard gesture. It enters Dragging immediately with
// the ghost at the target's current position. For a template, the ghost is
// placed on day dayIdx at minute start.
func (c *Controller) Activate(target Target, dayIdx, start int) (*Ghost, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return nil, ErrGestureInProgress
	}
	s, err := c.newSessionLocked(KeyboardPointer, target, dayIdx, start)
	if err != nil {
		return nil, err
	}
	s.state = Dragging
	c.active = s
	c.log.Debug("keyboard activate", zap.Int64("interval", target.IntervalID))

	o := s.origin
	var oStart, oEnd int
	switch s.target.Grab {
	case GrabEnd:
		oStart = c.clampStart(o.Start)
		oEnd = c.clampEnd(oStart, o.End)
	default:
		oStart, oEnd = c.view.Mapper.ClampSpan(o.Start, o.Duration())
	}
	return c.publishLocked(s, s.originDx, oStart, oEnd), nil
}

// Nudge moves the keyboard ghost by whole days and snap steps.
// Resizing ignores days.
func (c *Controller) Nudge(days, steps int) (*Ghost, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.ownedLocked(KeyboardPointer)
	if err != nil {
		return nil, err
	}

	m := c.view.Mapper
	g := s.ghost
	delta := steps * m.Resolution()

	var dayIdx, start, end int
	switch s.target.Grab {
	case GrabEnd:
		dayIdx = g.DayIndex
		start, end = g.Start, c.clampEnd(g.Start, m.SnapMinutes(g.End+delta))
	default:
		dayIdx = min(max(g.DayIndex+days, 0), len(c.view.Dates)-1)
		start, end = m.ClampSpan(m.SnapMinutes(g.Start+delta), g.End-g.Start)
	}
	return c.publishLocked(s, dayIdx, start, end), nil
}

// Confirm drops the keyboard ghost.
func (c *Controller) Confirm() (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.ownedLocked(KeyboardPointer)
	if err != nil {
		return Outcome{}, err
	}
	return c.commitLocked(s)
}

func (c *Controller) newSessionLocked(pointer string, target Target, dayIdx, start int) (*session, error) {
	if len(c.view.Dates) == 0 || c.view.Mapper == nil {
		return nil, ErrOutsideView
	}

	s := &session{pointer: pointer, target: target}
	if target.isTemplate() {
		dayIdx = min(max(dayIdx, 0), len(c.view.Dates)-1)
		iv := target.Template.Instantiate(c.view.Dates[dayIdx], c.view.Mapper.SnapMinutes(start))
		if iv.Color == "" && c.opts.Colors != nil {
			iv.Color = c.opts.Colors.ColorFor(iv.Category)
		}
		iv.Start, iv.End = c.view.Mapper.ClampSpan(iv.Start, iv.Duration())
		s.origin = iv
		s.originDx = dayIdx
		s.target.Grab = GrabBody
		return s, nil
	}

	iv, ok := c.board.Get(target.IntervalID)
	if !ok {
		return nil, ErrUnknownTarget
	}
	idx := c.view.dayIndex(iv.Date)
	if idx < 0 {
		return nil, ErrOutsideView
	}
	s.origin = iv
	s.originDx = idx
	return s, nil
}

func (c *Controller) ownedLocked(pointer string) (*session, error) {
	if c.active == nil {
		return nil, ErrNotDragging
	}
	if c.active.pointer != pointer {
		return nil, ErrGestureInProgress
	}
	return c.active, nil
}

// clampStart keeps the fixed start of a resize inside the window, one snap
// step before its end.
func (c *Controller) clampStart(start int) int {
	m := c.view.Mapper
	return min(max(start, m.WindowStart()), m.WindowEnd()-m.Resolution())
}

// clampEnd keeps a resized end at least one snap step after start and
// inside the window.
func (c *Controller) clampEnd(start, end int) int {
	m := c.view.Mapper
	end = max(end, start+m.Resolution())
	return min(end, m.WindowEnd())
}

func (c *Controller) publishLocked(s *session, dayIdx, start, end int) *Ghost {
	v := c.view
	iv := s.origin
	color := iv.Color
	if color == "" && c.opts.Colors != nil {
		color = c.opts.Colors.ColorFor(iv.Category)
	}

	g := &Ghost{
		IntervalID: iv.ID,
		Date:       v.Dates[dayIdx],
		DayIndex:   dayIdx,
		Start:      start,
		End:        end,
		Label:      iv.Label,
		Color:      color,
	}
	g.Record = layout.Position(iv.ID, dayIdx, start, end, layout.Slot{ColumnCount: 1}, v.Mapper, v.Columns)
	s.ghost = g

	if c.opts.OnGhost != nil {
		cp := *g
		c.opts.OnGhost(&cp)
	}
	out := *g
	return &out
}

func (c *Controller) commitLocked(s *session) (Outcome, error) {
	s.state = Committing
	cand := s.candidate()

	if !s.target.isTemplate() && !s.moved() {
		c.finishLocked(Idle)
		return Outcome{State: Idle, Committed: cand, Unchanged: true}, nil
	}

	if cf := c.engine.EvaluatePlacement(cand, c.board.Intervals(cand.Date)); cf != nil {
		c.log.Info("drop rejected", zap.String("reason", cf.Error()))
		c.finishLocked(Idle)
		return Outcome{State: Idle, Conflict: cf}, cf
	}

	var committed *interval.Interval
	var err error
	if s.target.isTemplate() {
		committed, err = c.board.Insert(cand)
	} else {
		err = c.board.Update(cand)
		committed = cand
	}
	c.finishLocked(Idle)
	if err != nil {
		c.log.Warn("commit failed", zap.Error(err))
		return Outcome{State: Idle}, err
	}

	c.log.Debug("committed",
		zap.Int64("interval", committed.ID),
		zap.String("date", interval.ScopeKey(committed.Date)),
		zap.String("start", committed.StartTime()),
		zap.String("end", committed.EndTime()))
	return Outcome{State: Idle, Committed: committed}, nil
}

// finishLocked discards every piece of transient state.
func (c *Controller) finishLocked(final State) {
	had := c.active != nil && c.active.ghost != nil
	if c.active != nil {
		c.active.state = final
		c.active.ghost = nil
	}
	c.active = nil
	if had && c.opts.OnGhost != nil {
		c.opts.OnGhost(nil)
	}
}

// IsConflict reports whether err is a rejected drop.
func IsConflict(err error) bool {
	return errors.Is(err, conflict.ErrRestrictionConflict)
}
