package drag

import (
	"errors"
	"testing"
	"time"

	"github.com/javiermolinar/rocinante/internal/conflict"
	"github.com/javiermolinar/rocinante/internal/coord"
	"github.com/javiermolinar/rocinante/internal/interval"
)

// Monday of the test week; Wednesday is day index 2.
var monday = time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)

var wednesday = monday.AddDate(0, 0, 2)

type fixture struct {
	board  *interval.Board
	engine *conflict.Engine
	ctrl   *Controller
	mapper *coord.Mapper
	math   *interval.Interval
	ghosts []*Ghost
}

func newFixture(t *testing.T, rules ...conflict.Rule) *fixture {
	t.Helper()

	m, err := coord.New(coord.Config{WindowStart: 6, WindowEnd: 20, Height: 840, SnapMinutes: 15})
	if err != nil {
		t.Fatal(err)
	}
	engine, err := conflict.NewEngine(rules...)
	if err != nil {
		t.Fatal(err)
	}

	board := interval.NewBoard()
	math, err := board.Insert(&interval.Interval{Date: wednesday, Label: "Math 1", Start: 540, End: 600})
	if err != nil {
		t.Fatal(err)
	}

	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = monday.AddDate(0, 0, i)
	}

	f := &fixture{board: board, engine: engine, mapper: m, math: math}
	f.ctrl = NewController(board, engine, View{
		Dates:   dates,
		Mapper:  m,
		Columns: coord.Columns{Count: 7, Width: 700},
	}, Options{
		ActivationDistance: 4,
		OnGhost:            func(g *Ghost) { f.ghosts = append(f.ghosts, g) },
	})
	return f
}

func rule(t *testing.T, a, b string) conflict.Rule {
	t.Helper()
	r, err := conflict.NewRule(a, b)
	if err != nil {
		t.Fatal(err)
	}
	return *r
}

func TestController_MoveByFortySevenMinutes(t *testing.T) {
	f := newFixture(t)
	y := f.mapper.TimeToPixel(540) + 10

	if err := f.ctrl.Press("mouse", 250, y, Target{IntervalID: f.math.ID}); err != nil {
		t.Fatalf("Press failed: %v", err)
	}
	g, err := f.ctrl.Move("mouse", 250, y+47)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if g == nil || g.Start != 585 || g.End != 645 {
		t.Fatalf("ghost = %+v, want 09:45-10:45", g)
	}
	if f.ctrl.State() != Dragging {
		t.Errorf("State() = %v, want dragging", f.ctrl.State())
	}

	// no mutation while dragging
	if got, _ := f.board.Get(f.math.ID); got.Start != 540 {
		t.Errorf("board changed during drag: start = %d", got.Start)
	}

	out, err := f.ctrl.Release("mouse", true)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if out.Committed == nil || out.Committed.Start != 585 {
		t.Fatalf("Release() = %+v", out)
	}
	got, _ := f.board.Get(f.math.ID)
	if got.StartTime() != "09:45" || got.Duration() != 60 {
		t.Errorf("committed = %s, want 09:45 with 60 minutes", got)
	}
	if f.ctrl.State() != Idle || f.ctrl.Ghost() != nil {
		t.Error("controller should be idle without a ghost after commit")
	}
	if last := f.ghosts[len(f.ghosts)-1]; last != nil {
		t.Error("OnGhost should receive nil when the preview is discarded")
	}
}

func TestController_MoveAcrossDays(t *testing.T) {
	f := newFixture(t)
	y := f.mapper.TimeToPixel(540)

	_ = f.ctrl.Press("mouse", 250, y, Target{IntervalID: f.math.ID})
	g, _ := f.ctrl.Move("mouse", 450, y)
	if g.DayIndex != 4 || !g.Date.Equal(monday.AddDate(0, 0, 4)) {
		t.Fatalf("ghost day = %d %v, want Friday", g.DayIndex, g.Date)
	}
	if scopes := f.ctrl.BusyScopes(); len(scopes) != 2 {
		t.Errorf("BusyScopes() = %v, want origin and target day", scopes)
	}

	if _, err := f.ctrl.Release("mouse", true); err != nil {
		t.Fatal(err)
	}
	if got := len(f.board.Intervals(wednesday)); got != 0 {
		t.Errorf("Wednesday still has %d intervals", got)
	}
	if got := len(f.board.Intervals(monday.AddDate(0, 0, 4))); got != 1 {
		t.Errorf("Friday has %d intervals, want 1", got)
	}
}

func TestController_ClickDoesNotActivate(t *testing.T) {
	f := newFixture(t)
	y := f.mapper.TimeToPixel(540)

	_ = f.ctrl.Press("mouse", 250, y, Target{IntervalID: f.math.ID})
	g, err := f.ctrl.Move("mouse", 251, y+2)
	if err != nil || g != nil {
		t.Fatalf("Move below activation = %v, %v; want nil ghost", g, err)
	}
	if f.ctrl.State() != Pressed {
		t.Errorf("State() = %v, want pressed", f.ctrl.State())
	}

	out, err := f.ctrl.Release("mouse", true)
	if err != nil || !out.Click {
		t.Fatalf("Release() = %+v, %v; want click", out, err)
	}
	if f.board.Version(interval.ScopeKey(wednesday)) != 1 {
		t.Error("a click must not mutate the board")
	}
}

func TestController_TemplateDropRejectedByRule(t *testing.T) {
	f := newFixture(t, rule(t, "Math*", "Art*"))
	tmpl := &interval.Template{Category: "art", Label: "Art 2", DefaultDuration: 60}
	y := f.mapper.TimeToPixel(570)

	if err := f.ctrl.Press("mouse", 250, y, Target{Template: tmpl}); err != nil {
		t.Fatal(err)
	}
	g, _ := f.ctrl.Move("mouse", 256, y)
	if g == nil || g.Start != 570 || g.End != 630 {
		t.Fatalf("ghost = %+v, want 09:30-10:30", g)
	}

	out, err := f.ctrl.Release("mouse", true)
	if !errors.Is(err, conflict.ErrRestrictionConflict) || !IsConflict(err) {
		t.Fatalf("Release error = %v, want restriction conflict", err)
	}
	var cf *conflict.Conflict
	if !errors.As(out.Conflict, &cf) || cf.Start != 570 || cf.End != 600 {
		t.Errorf("conflict = %v, want overlap 09:30-10:00", out.Conflict)
	}
	if got := len(f.board.Intervals(wednesday)); got != 1 {
		t.Errorf("board has %d intervals after rejection, want 1", got)
	}
	if f.ctrl.State() != Idle {
		t.Errorf("State() = %v, want idle", f.ctrl.State())
	}
}

func TestController_TemplateDropInserts(t *testing.T) {
	f := newFixture(t, rule(t, "Math*", "Art*"))
	tmpl := &interval.Template{Category: "art", Label: "Art 2", DefaultDuration: 45, Color: "#aa00aa"}
	y := f.mapper.TimeToPixel(660)

	_ = f.ctrl.Press("mouse", 250, y, Target{Template: tmpl})
	_, _ = f.ctrl.Move("mouse", 250, y+30)
	out, err := f.ctrl.Release("mouse", true)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if out.Committed.ID == 0 || out.Committed.StartTime() != "11:30" || out.Committed.EndTime() != "12:15" {
		t.Errorf("committed = %s (id %d)", out.Committed, out.Committed.ID)
	}
	if out.Committed.Color != "#aa00aa" {
		t.Errorf("color = %q", out.Committed.Color)
	}
}

func TestController_ReleaseOutsideCancels(t *testing.T) {
	f := newFixture(t)
	y := f.mapper.TimeToPixel(540)

	_ = f.ctrl.Press("mouse", 250, y, Target{IntervalID: f.math.ID})
	_, _ = f.ctrl.Move("mouse", 250, y+120)
	out, err := f.ctrl.Release("mouse", false)
	if err != nil || out.State != Cancelled {
		t.Fatalf("Release outside = %+v, %v; want cancelled", out, err)
	}
	if got, _ := f.board.Get(f.math.ID); got.Start != 540 {
		t.Error("cancel must not mutate the board")
	}
}

func TestController_ExclusiveOwnership(t *testing.T) {
	f := newFixture(t)
	y := f.mapper.TimeToPixel(540)

	if err := f.ctrl.Press("p1", 250, y, Target{IntervalID: f.math.ID}); err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.Press("p2", 250, y, Target{IntervalID: f.math.ID}); !errors.Is(err, ErrGestureInProgress) {
		t.Errorf("second Press error = %v, want ErrGestureInProgress", err)
	}
	if _, err := f.ctrl.Move("p2", 250, y+50); !errors.Is(err, ErrGestureInProgress) {
		t.Errorf("foreign Move error = %v, want ErrGestureInProgress", err)
	}
	if _, err := f.ctrl.Activate(Target{IntervalID: f.math.ID}, 0, 0); !errors.Is(err, ErrGestureInProgress) {
		t.Errorf("Activate during pointer drag error = %v", err)
	}

	f.ctrl.Abandon()
	if err := f.ctrl.Press("p2", 250, y, Target{IntervalID: f.math.ID}); err != nil {
		t.Errorf("Press after abandon failed: %v", err)
	}
}

func TestController_NoActiveGesture(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ctrl.Move("mouse", 0, 0); !errors.Is(err, ErrNotDragging) {
		t.Errorf("Move error = %v, want ErrNotDragging", err)
	}
	if _, err := f.ctrl.Confirm(); !errors.Is(err, ErrNotDragging) {
		t.Errorf("Confirm error = %v, want ErrNotDragging", err)
	}
	if err := f.ctrl.Press("mouse", 0, 0, Target{IntervalID: 999}); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("Press unknown error = %v, want ErrUnknownTarget", err)
	}
}

func TestController_KeyboardMove(t *testing.T) {
	f := newFixture(t)

	g, err := f.ctrl.Activate(Target{IntervalID: f.math.ID}, 0, 0)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if g.Start != 540 || g.DayIndex != 2 || f.ctrl.State() != Dragging {
		t.Fatalf("Activate ghost = %+v", g)
	}

	g, _ = f.ctrl.Nudge(1, 2)
	if g.DayIndex != 3 || g.Start != 570 || g.End != 630 {
		t.Fatalf("Nudge ghost = %+v, want Thursday 09:30-10:30", g)
	}
	g, _ = f.ctrl.Nudge(10, -1000)
	if g.DayIndex != 6 || g.Start != 360 {
		t.Fatalf("Nudge past edges = %+v, want Sunday 06:00", g)
	}

	out, err := f.ctrl.Confirm()
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if !interval.SameDate(out.Committed.Date, monday.AddDate(0, 0, 6)) || out.Committed.Start != 360 {
		t.Errorf("committed = %s", out.Committed)
	}
}

func TestController_KeyboardResize(t *testing.T) {
	f := newFixture(t)

	if _, err := f.ctrl.Activate(Target{IntervalID: f.math.ID, Grab: GrabEnd}, 0, 0); err != nil {
		t.Fatal(err)
	}
	g, _ := f.ctrl.Nudge(3, -10)
	if g.DayIndex != 2 || g.Start != 540 || g.End != 555 {
		t.Fatalf("shrunk ghost = %+v, want Wednesday 09:00-09:15", g)
	}
	g, _ = f.ctrl.Nudge(0, 3)
	if g.End != 600 {
		t.Fatalf("grown ghost end = %d, want 600", g.End)
	}
	if err := f.ctrl.Cancel(KeyboardPointer); err != nil {
		t.Fatal(err)
	}
	if got, _ := f.board.Get(f.math.ID); got.End != 600 {
		t.Error("cancelled resize must not mutate the board")
	}
}

func TestController_PointerResizeKeepsStart(t *testing.T) {
	f := newFixture(t)
	y := f.mapper.TimeToPixel(600)

	_ = f.ctrl.Press("mouse", 250, y, Target{IntervalID: f.math.ID, Grab: GrabEnd})
	g, _ := f.ctrl.Move("mouse", 550, y+5000)
	if g.DayIndex != 2 || g.Start != 540 || g.End != 1200 {
		t.Fatalf("resize ghost = %+v, want Wednesday 09:00-20:00", g)
	}
}

func TestController_ResizeClampsStartToWindow(t *testing.T) {
	f := newFixture(t)
	early, err := f.board.Insert(&interval.Interval{Date: wednesday, Label: "Early", Start: 300, End: 420})
	if err != nil {
		t.Fatal(err)
	}
	target := Target{IntervalID: early.ID, Grab: GrabEnd}

	y := f.mapper.TimeToPixel(420)
	if err := f.ctrl.Press("mouse", 250, y, target); err != nil {
		t.Fatal(err)
	}
	g, _ := f.ctrl.Move("mouse", 250, y+30)
	if g.Start != 360 || g.End != 450 {
		t.Errorf("pointer resize ghost = %d-%d, want 360-450", g.Start, g.End)
	}
	if err := f.ctrl.Cancel("mouse"); err != nil {
		t.Fatal(err)
	}

	g, err = f.ctrl.Activate(target, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if g.Start != 360 || g.End != 420 {
		t.Errorf("keyboard resize ghost = %d-%d, want 360-420", g.Start, g.End)
	}
	g, _ = f.ctrl.Nudge(0, -10)
	if g.Start != 360 || g.End != 375 {
		t.Errorf("shrunk ghost = %d-%d, want 360-375", g.Start, g.End)
	}
}

func TestController_MoveOverOwnPriorInstance(t *testing.T) {
	f := newFixture(t, rule(t, "Math*", "Math*"))

	_, _ = f.ctrl.Activate(Target{IntervalID: f.math.ID}, 0, 0)
	_, _ = f.ctrl.Nudge(0, 1)
	out, err := f.ctrl.Confirm()
	if err != nil {
		t.Fatalf("moving over own slot reported %v", err)
	}
	if out.Committed.Start != 555 {
		t.Errorf("start = %d, want 555", out.Committed.Start)
	}
}

func TestController_DropInPlaceIsUnchanged(t *testing.T) {
	f := newFixture(t)
	before := f.board.Version(interval.ScopeKey(wednesday))

	_, _ = f.ctrl.Activate(Target{IntervalID: f.math.ID}, 0, 0)
	out, err := f.ctrl.Confirm()
	if err != nil || !out.Unchanged {
		t.Fatalf("Confirm() = %+v, %v; want unchanged", out, err)
	}
	if f.board.Version(interval.ScopeKey(wednesday)) != before {
		t.Error("dropping in place must not bump the scope version")
	}
}

func TestController_HandleEvents(t *testing.T) {
	f := newFixture(t)
	y := f.mapper.TimeToPixel(540)

	events := []Event{
		{Kind: EventStart, Pointer: "touch-1", X: 250, Y: y, Target: Target{IntervalID: f.math.ID}},
		{Kind: EventMove, Pointer: "touch-1", X: 250, Y: y + 60, DY: 60},
		{Kind: EventEnd, Pointer: "touch-1", Over: true},
	}
	var last Result
	for _, ev := range events {
		res, err := f.ctrl.Handle(ev)
		if err != nil {
			t.Fatalf("Handle(%v) failed: %v", ev.Kind, err)
		}
		last = res
	}
	if last.Outcome == nil || last.Outcome.Committed.Start != 600 {
		t.Fatalf("final result = %+v", last)
	}
}

func TestPlaceAndEdit(t *testing.T) {
	f := newFixture(t, rule(t, "Math*", "Art*"))

	_, err := Place(f.board, f.engine, &interval.Interval{Date: wednesday, Label: "Art 2", Start: 570, End: 630})
	if !errors.Is(err, conflict.ErrRestrictionConflict) {
		t.Fatalf("Place error = %v, want conflict", err)
	}

	art, err := Place(f.board, f.engine, &interval.Interval{Date: wednesday, Label: "Art 2", Start: 600, End: 660})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	if _, err := Edit(f.board, f.engine, art.ID, wednesday, 580, 640); !errors.Is(err, conflict.ErrRestrictionConflict) {
		t.Errorf("Edit into Math error = %v, want conflict", err)
	}
	moved, err := Edit(f.board, f.engine, art.ID, wednesday.AddDate(0, 0, 1), 580, 640)
	if err != nil {
		t.Fatalf("Edit to Thursday failed: %v", err)
	}
	if moved.Start != 580 {
		t.Errorf("moved start = %d", moved.Start)
	}
	if _, err := Edit(f.board, f.engine, 999, wednesday, 0, 10); !errors.Is(err, interval.ErrIntervalNotFound) {
		t.Errorf("Edit unknown error = %v", err)
	}
}
