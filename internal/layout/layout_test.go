package layout

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/rocinante/internal/coord"
	"github.com/javiermolinar/rocinante/internal/interval"
)

var day = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

func iv(id int64, label string, start, end int) *interval.Interval {
	return &interval.Interval{ID: id, Date: day, Label: label, Start: start, End: end}
}

func TestCompute_MathArtScenario(t *testing.T) {
	a := iv(1, "Math", 540, 600)
	b := iv(2, "Art", 570, 630)

	res := Compute([]*interval.Interval{b, a}, Options{})

	if got := res.Slots[1]; got != (Slot{ColumnIndex: 0, ColumnCount: 2}) {
		t.Errorf("Math slot = %+v, want {0 2}", got)
	}
	if got := res.Slots[2]; got != (Slot{ColumnIndex: 1, ColumnCount: 2}) {
		t.Errorf("Art slot = %+v, want {1 2}", got)
	}
	if groups := Groups([]*interval.Interval{a, b}); len(groups) != 1 || len(groups[0]) != 2 {
		t.Errorf("Groups() = %v, want one group of 2", groups)
	}
}

func TestCompute_Isolated(t *testing.T) {
	tests := []struct {
		name string
		ivs  []*interval.Interval
	}{
		{name: "single", ivs: []*interval.Interval{iv(1, "a", 540, 600)}},
		{name: "touching", ivs: []*interval.Interval{iv(1, "a", 540, 600), iv(2, "b", 600, 660)}},
		{name: "apart", ivs: []*interval.Interval{iv(1, "a", 540, 600), iv(2, "b", 700, 760), iv(3, "c", 800, 900)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compute(tt.ivs, Options{})
			for _, x := range tt.ivs {
				if got := res.Slots[x.ID]; got != (Slot{0, 1}) {
					t.Errorf("interval %d slot = %+v, want {0 1}", x.ID, got)
				}
			}
		})
	}
}

func TestCompute_Chain(t *testing.T) {
	// 1 overlaps 2, 2 overlaps 3, 1 and 3 are apart: column 0 is reused.
	ivs := []*interval.Interval{
		iv(1, "a", 540, 600),
		iv(2, "b", 570, 660),
		iv(3, "c", 620, 700),
	}
	res := Compute(ivs, Options{})

	want := map[int64]Slot{1: {0, 2}, 2: {1, 2}, 3: {0, 2}}
	for id, w := range want {
		if got := res.Slots[id]; got != w {
			t.Errorf("slot %d = %+v, want %+v", id, got, w)
		}
	}
}

func TestCompute_OrderIndependent(t *testing.T) {
	ivs := []*interval.Interval{
		iv(5, "a", 540, 600),
		iv(2, "b", 540, 600),
		iv(9, "c", 560, 700),
		iv(1, "d", 650, 720),
		iv(7, "e", 800, 830),
	}
	want := Compute(ivs, Options{})

	rng := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		shuffled := append([]*interval.Interval(nil), ivs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := Compute(shuffled, Options{})
		for id, slot := range want.Slots {
			if got.Slots[id] != slot {
				t.Fatalf("slot %d = %+v after shuffle, want %+v", id, got.Slots[id], slot)
			}
		}
	}
}

func TestCompute_OverlapProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := range 200 {
		var ivs []*interval.Interval
		for i := range 12 {
			start := rng.IntN(600) + 360
			ivs = append(ivs, iv(int64(i+1), "x", start, start+15+rng.IntN(120)))
		}
		res := Compute(ivs, Options{})

		for _, a := range ivs {
			sa := res.Slots[a.ID]
			if sa.ColumnIndex >= sa.ColumnCount {
				t.Fatalf("round %d: interval %d index %d >= count %d", round, a.ID, sa.ColumnIndex, sa.ColumnCount)
			}
			for _, b := range ivs {
				if a.ID == b.ID || !a.OverlapsWith(b) {
					continue
				}
				sb := res.Slots[b.ID]
				if sa.ColumnIndex == sb.ColumnIndex {
					t.Fatalf("round %d: overlapping %d and %d share column %d", round, a.ID, b.ID, sa.ColumnIndex)
				}
				if sa.ColumnCount != sb.ColumnCount {
					t.Fatalf("round %d: overlapping %d and %d have counts %d and %d", round, a.ID, b.ID, sa.ColumnCount, sb.ColumnCount)
				}
			}
		}
	}
}

func TestCompute_MaxColumns(t *testing.T) {
	ivs := []*interval.Interval{
		iv(1, "a", 540, 600),
		iv(2, "b", 540, 600),
		iv(3, "c", 540, 600),
		iv(4, "d", 540, 600),
		iv(5, "e", 700, 760),
	}

	res := Compute(ivs, Options{MaxColumns: 2})

	if res.Overflow != 2 {
		t.Errorf("Overflow = %d, want 2", res.Overflow)
	}
	for _, id := range []int64{3, 4} {
		if _, ok := res.Slot(id); ok {
			t.Errorf("interval %d should be hidden", id)
		}
	}
	if got := res.Slots[1]; got != (Slot{0, 2}) {
		t.Errorf("slot 1 = %+v, want {0 2}", got)
	}
	if got := res.Slots[5]; got != (Slot{0, 1}) {
		t.Errorf("slot 5 = %+v, want {0 1}", got)
	}
}

func TestCompute_DoesNotReorderInput(t *testing.T) {
	ivs := []*interval.Interval{iv(2, "b", 600, 660), iv(1, "a", 540, 600)}
	Compute(ivs, Options{})
	if ivs[0].ID != 2 {
		t.Error("Compute must not sort the caller's slice")
	}
}

func TestRender(t *testing.T) {
	m, err := coord.New(coord.Config{WindowStart: 6, WindowEnd: 20, Height: 840, SnapMinutes: 15})
	if err != nil {
		t.Fatal(err)
	}
	cols := coord.Columns{Count: 7, Width: 700}

	ivs := []*interval.Interval{iv(1, "Math", 540, 600), iv(2, "Art", 570, 630)}
	res := Compute(ivs, Options{})
	records := Render(ivs, res, m, cols, 2)

	if len(records) != 2 {
		t.Fatalf("Render() len = %d, want 2", len(records))
	}
	art := records[1]
	if art.ID != 2 || art.Top != 210 || art.Height != 60 {
		t.Errorf("Art record = %+v", art)
	}
	if art.Left != 250 || art.Width != 50 {
		t.Errorf("Art left/width = %v/%v, want 250/50", art.Left, art.Width)
	}
}

func TestComputeWeek(t *testing.T) {
	ivs := []*interval.Interval{
		iv(1, "a", 540, 600),
		iv(2, "b", 540, 600),
		{ID: 3, Date: day.AddDate(0, 0, 1), Label: "c", Start: 540, End: 600},
	}
	w := interval.NewWeekFromIntervals(day, ivs)

	days := ComputeWeek(w, Options{MaxColumns: 1})
	if len(days) != interval.DaysPerWeek {
		t.Fatalf("ComputeWeek() len = %d", len(days))
	}
	if TotalOverflow(days) != 1 {
		t.Errorf("TotalOverflow() = %d, want 1", TotalOverflow(days))
	}
}

func TestComputeBoard(t *testing.T) {
	b := interval.NewBoard()
	next := day.AddDate(0, 0, 2)
	for _, in := range []*interval.Interval{
		{Date: next, Label: "Piano", Start: 900, End: 960},
		{Date: day, Label: "Math 1", Start: 540, End: 600},
		{Date: day, Label: "Art 2", Start: 570, End: 630},
		{Date: day, Label: "Soccer", Start: 580, End: 620},
	} {
		if _, err := b.Insert(in); err != nil {
			t.Fatalf("Insert(%q) failed: %v", in.Label, err)
		}
	}

	days := ComputeBoard(b, Options{MaxColumns: 2})
	if len(days) != 2 {
		t.Fatalf("ComputeBoard() len = %d, want 2", len(days))
	}
	if !interval.SameDate(days[0].Date, day) || !interval.SameDate(days[1].Date, next) {
		t.Errorf("ComputeBoard() dates = %v, %v", days[0].Date, days[1].Date)
	}

	overflow := OverflowByDay(days)
	if overflow[interval.ScopeKey(day)] != 1 {
		t.Errorf("overflow on %s = %d, want 1", interval.ScopeKey(day), overflow[interval.ScopeKey(day)])
	}
	if _, ok := overflow[interval.ScopeKey(next)]; ok {
		t.Error("a day with nothing hidden should not be listed")
	}
}

func TestDayText(t *testing.T) {
	ivs := []*interval.Interval{
		iv(1, "Math 1", 540, 600),
		iv(2, "Art 2", 570, 630),
		iv(3, "Piano", 575, 590),
	}
	d := interval.NewDayWithIntervals(day, ivs)
	res := Compute(ivs, Options{MaxColumns: 2})

	got := DayText(d, res)

	wants := []string{
		"Wed 2025-01-15",
		"09:00-10:00  1/2  Math 1",
		"09:30-10:30  2/2  Art 2",
		"09:35-09:50  +    Piano",
		"1 hidden",
	}
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("DayText() missing %q in:\n%s", want, got)
		}
	}
}
