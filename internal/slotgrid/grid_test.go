package slotgrid

import (
	"errors"
	"testing"
	"time"

	"github.com/javiermolinar/rocinante/internal/conflict"
)

var day = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

func newTestGrid(t *testing.T, maxColumns int, rules ...conflict.Rule) *Grid {
	t.Helper()
	engine, err := conflict.NewEngine(rules...)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.MaxColumns = maxColumns
	g, err := New(cfg, engine, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return g
}

func addToken(t *testing.T, g *Grid, label string, qty int) *Token {
	t.Helper()
	tok, err := g.AddToken(label, qty, 30)
	if err != nil {
		t.Fatalf("AddToken(%q) failed: %v", label, err)
	}
	return tok
}

func TestPlaceToken_QuantityExhausted(t *testing.T) {
	g := newTestGrid(t, 4)
	tok := addToken(t, g, "Lego", 2)

	for i := range 2 {
		if _, err := g.PlaceToken(tok.ID, day, i, PlaceOptions{}); err != nil {
			t.Fatalf("placement %d failed: %v", i+1, err)
		}
	}

	_, err := g.PlaceToken(tok.ID, day, 5, PlaceOptions{})
	if !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("third placement error = %v, want ErrNoCapacity", err)
	}
	if errors.Is(err, conflict.ErrRestrictionConflict) {
		t.Error("no capacity must not be reported as a restriction conflict")
	}

	got, _ := g.Token(tok.ID)
	if got.Remaining != 0 || got.Usage != 2 {
		t.Errorf("token = remaining %d usage %d, want 0 and 2", got.Remaining, got.Usage)
	}
}

func TestPlaceToken_FullCell(t *testing.T) {
	g := newTestGrid(t, 2)
	tok := addToken(t, g, "Blocks", 10)

	for range 2 {
		if _, err := g.PlaceToken(tok.ID, day, 3, PlaceOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	_, err := g.PlaceToken(tok.ID, day, 3, PlaceOptions{Force: true})
	if !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("full cell error = %v, want ErrNoCapacity", err)
	}
	got, _ := g.Token(tok.ID)
	if got.Remaining != 8 {
		t.Errorf("Remaining = %d, want 8", got.Remaining)
	}
}

func TestPlaceToken_LowestFreeColumn(t *testing.T) {
	g := newTestGrid(t, 4)
	tok := addToken(t, g, "Puzzle", 10)

	var ids []string
	for range 3 {
		res, err := g.PlaceToken(tok.ID, day, 0, PlaceOptions{})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, res.Placement.ID)
	}
	if _, err := g.RemovePlacement(ids[1]); err != nil {
		t.Fatal(err)
	}

	// the third placement shifted down into the freed column
	for i, p := range g.Placements(day) {
		if p.Column != i {
			t.Errorf("placement %d in column %d after removal", i, p.Column)
		}
	}

	res, err := g.PlaceToken(tok.ID, day, 0, PlaceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Placement.Column != 2 {
		t.Errorf("Column = %d, want the lowest free column 2", res.Placement.Column)
	}
}

func TestPlaceToken_Conflict(t *testing.T) {
	r, _ := conflict.NewRule("Paint*", "Clay*")
	g := newTestGrid(t, 4, *r)
	paint := addToken(t, g, "Paint box", 3)
	clay := addToken(t, g, "Clay", 3)

	if _, err := g.PlaceToken(paint.ID, day, 2, PlaceOptions{}); err != nil {
		t.Fatal(err)
	}

	res, err := g.PlaceToken(clay.ID, day, 2, PlaceOptions{})
	if !errors.Is(err, conflict.ErrRestrictionConflict) {
		t.Fatalf("error = %v, want restriction conflict", err)
	}
	if res.Conflict == nil || res.Placement != nil {
		t.Fatalf("result = %+v, want conflict without placement", res)
	}
	if got, _ := g.Token(clay.ID); got.Remaining != 3 || got.Usage != 0 {
		t.Errorf("rejected placement changed the token: %+v", got)
	}

	// a different slot does not conflict
	if _, err := g.PlaceToken(clay.ID, day, 3, PlaceOptions{}); err != nil {
		t.Errorf("placement in another slot failed: %v", err)
	}

	forced, err := g.PlaceToken(clay.ID, day, 2, PlaceOptions{Force: true})
	if err != nil {
		t.Fatalf("forced placement failed: %v", err)
	}
	if forced.Placement == nil || forced.Conflict == nil {
		t.Errorf("forced result = %+v, want placement and conflict", forced)
	}
}

func TestRemovePlacement_UsageMonotonic(t *testing.T) {
	g := newTestGrid(t, 4)
	tok := addToken(t, g, "Dough", 1)

	res, _ := g.PlaceToken(tok.ID, day, 0, PlaceOptions{})
	if _, err := g.RemovePlacement(res.Placement.ID); err != nil {
		t.Fatal(err)
	}

	got, _ := g.Token(tok.ID)
	if got.Remaining != 1 || got.Usage != 1 {
		t.Errorf("after remove = remaining %d usage %d, want 1 and 1", got.Remaining, got.Usage)
	}
	if _, err := g.RemovePlacement(res.Placement.ID); !errors.Is(err, ErrPlacementNotFound) {
		t.Errorf("second remove error = %v", err)
	}
}

func TestVisibleSlots(t *testing.T) {
	g := newTestGrid(t, 3)
	tok := addToken(t, g, "Cars", 10)

	tests := []struct {
		name      string
		placed    int
		wantCols  int
		wantEmpty bool
	}{
		{name: "empty cell", placed: 0, wantCols: 1, wantEmpty: true},
		{name: "one placed", placed: 1, wantCols: 2, wantEmpty: true},
		{name: "two placed", placed: 2, wantCols: 3, wantEmpty: true},
		{name: "at cap", placed: 3, wantCols: 3, wantEmpty: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for len(g.Placements(day)) < tt.placed {
				if _, err := g.PlaceToken(tok.ID, day, 4, PlaceOptions{}); err != nil {
					t.Fatal(err)
				}
			}
			cols := g.VisibleSlots(day, 4)
			if len(cols) != tt.wantCols {
				t.Fatalf("VisibleSlots() len = %d, want %d", len(cols), tt.wantCols)
			}
			for i, c := range cols {
				if c.Index != i {
					t.Errorf("column %d has index %d", i, c.Index)
				}
			}
			last := cols[len(cols)-1]
			if (last.Placement == nil) != tt.wantEmpty {
				t.Errorf("trailing empty column = %v, want %v", last.Placement == nil, tt.wantEmpty)
			}
		})
	}
}

func TestVisibleSlots_AfterRemoval(t *testing.T) {
	g := newTestGrid(t, 4)
	tok := addToken(t, g, "Cars", 10)

	var ids []string
	for range 3 {
		res, err := g.PlaceToken(tok.ID, day, 2, PlaceOptions{})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, res.Placement.ID)
	}
	if _, err := g.RemovePlacement(ids[1]); err != nil {
		t.Fatal(err)
	}

	cols := g.VisibleSlots(day, 2)
	if len(cols) != 3 {
		t.Fatalf("VisibleSlots() len = %d, want 3", len(cols))
	}
	for i, c := range cols {
		wantOccupied := i < 2
		if c.Index != i || (c.Placement != nil) != wantOccupied {
			t.Errorf("column %d = index %d occupied %v, want index %d occupied %v",
				i, c.Index, c.Placement != nil, i, wantOccupied)
		}
	}
	if cols[1].Placement.ID != ids[2] {
		t.Errorf("column 1 holds %s, want the shifted placement %s", cols[1].Placement.ID, ids[2])
	}
}

func TestVisibleSlots_GapHeldBySpan(t *testing.T) {
	g := newTestGrid(t, 3)
	short := addToken(t, g, "Cars", 10)
	long, _ := g.AddToken("Movie", 1, 60)

	place := func(tokenID string, slot int) string {
		t.Helper()
		res, err := g.PlaceToken(tokenID, day, slot, PlaceOptions{})
		if err != nil {
			t.Fatal(err)
		}
		return res.Placement.ID
	}
	place(short.ID, 0)            // column 0
	removed := place(short.ID, 0) // column 1
	movie := place(long.ID, 0)    // column 2, slots 0-1
	place(short.ID, 1)            // column 0
	place(short.ID, 1)            // column 1

	if _, err := g.RemovePlacement(removed); err != nil {
		t.Fatal(err)
	}

	// column 1 stays busy in slot 1, so the movie cannot shift down
	cols := g.VisibleSlots(day, 0)
	if len(cols) != 3 {
		t.Fatalf("VisibleSlots() len = %d, want 3", len(cols))
	}
	if cols[0].Index != 0 || cols[1].Index != 2 || cols[1].Placement == nil || cols[1].Placement.ID != movie {
		t.Errorf("occupied columns = %+v", cols[:2])
	}
	if last := cols[2]; last.Placement != nil || last.Index != 1 {
		t.Errorf("trailing column = %+v, want empty column 1", last)
	}

	res, err := g.PlaceToken(short.ID, day, 0, PlaceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Placement.Column != 1 {
		t.Errorf("Column = %d, want the offered column 1", res.Placement.Column)
	}
}

func TestPlaceToken_SpanBlocksColumn(t *testing.T) {
	g := newTestGrid(t, 1)
	long, _ := g.AddToken("Movie", 2, 90)

	res, err := g.PlaceToken(long.ID, day, 0, PlaceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Placement.Span != 3 {
		t.Errorf("Span = %d, want 3", res.Placement.Span)
	}
	if _, err := g.PlaceToken(long.ID, day, 2, PlaceOptions{}); !errors.Is(err, ErrNoCapacity) {
		t.Errorf("overlapping span error = %v, want ErrNoCapacity", err)
	}
	if _, err := g.PlaceToken(long.ID, day, 3, PlaceOptions{}); err != nil {
		t.Errorf("adjacent span failed: %v", err)
	}
	if _, err := g.PlaceToken(long.ID, day, 23, PlaceOptions{}); !errors.Is(err, ErrInvalidSlotPosition) {
		t.Errorf("span past the day error = %v", err)
	}
}

func TestIntervals(t *testing.T) {
	g := newTestGrid(t, 4)
	tok := addToken(t, g, "Reading", 5)
	_, _ = g.PlaceToken(tok.ID, day, 2, PlaceOptions{})
	_, _ = g.PlaceToken(tok.ID, day, 2, PlaceOptions{})

	ivs, refs := g.Intervals(day)
	if len(ivs) != 2 || len(refs) != 2 {
		t.Fatalf("Intervals() = %d intervals, %d refs", len(ivs), len(refs))
	}
	if ivs[0].StartTime() != "09:00" || ivs[0].EndTime() != "09:30" || ivs[0].Label != "Reading" {
		t.Errorf("projection = %s", ivs[0])
	}
}

func TestSnapshotRestore(t *testing.T) {
	g := newTestGrid(t, 4)
	tok := addToken(t, g, "Sand", 3)
	_, _ = g.PlaceToken(tok.ID, day, 1, PlaceOptions{})

	snap := g.Snapshot()
	snap.Placements = append(snap.Placements, Placement{ID: "orphan", TokenID: "missing", Date: day, Span: 1})

	r, err := Restore(g.Config(), nil, snap, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Placements(day)) != 1 {
		t.Errorf("restored placements = %d, want 1", len(r.Placements(day)))
	}
	got, _ := r.Token(tok.ID)
	if got.Remaining != 2 || got.Usage != 1 {
		t.Errorf("restored token = %+v", got)
	}
}

func TestRestockAndColor(t *testing.T) {
	g := newTestGrid(t, 4)
	tok := addToken(t, g, "Clay", 1)

	got, err := g.Restock(tok.ID, 2)
	if err != nil {
		t.Fatalf("Restock failed: %v", err)
	}
	if got.Remaining != 3 {
		t.Errorf("Remaining = %d, want 3", got.Remaining)
	}
	if _, err := g.Restock(tok.ID, -4); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("Restock(-4) error = %v, want ErrInvalidQuantity", err)
	}

	if _, err := g.SetColor(tok.ID, "#aa5500"); err != nil {
		t.Fatalf("SetColor failed: %v", err)
	}
	ivs, _ := g.Intervals(day)
	if len(ivs) != 0 {
		t.Fatalf("no placements yet, got %d intervals", len(ivs))
	}
	if _, err := g.PlaceToken(tok.ID, day, 0, PlaceOptions{}); err != nil {
		t.Fatal(err)
	}
	ivs, _ = g.Intervals(day)
	if len(ivs) != 1 || ivs[0].Color != "#aa5500" {
		t.Errorf("projected intervals = %v, want one colored #aa5500", ivs)
	}

	if _, err := g.SetColor("missing", "#000000"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("SetColor(missing) error = %v, want ErrTokenNotFound", err)
	}
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		in   string
		want int
	}{
		{in: "08:00", want: 0},
		{in: "08:29", want: 0},
		{in: "09:15", want: 2},
		{in: "07:59", want: -1},
	}
	for _, tt := range tests {
		if got := cfg.TimeToSlot(tt.in); got != tt.want {
			t.Errorf("TimeToSlot(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	bad := cfg
	bad.SlotsPerDay = 100
	if !errors.Is(bad.Validate(), ErrInvalidConfig) {
		t.Error("grid past midnight should be invalid")
	}
}
