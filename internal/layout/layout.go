// Package layout assigns side-by-side columns to overlapping intervals of a
// single day.
//
// The result depends only on the set of intervals, never on their input
// order: intervals are sorted by (start, id) before grouping.
package layout

import (
	"slices"
	"time"

	"github.com/javiermolinar/rocinante/internal/interval"
)

// Options controls the layout.
type Options struct {
	// MaxColumns caps the rendered columns per day. Zero means no cap.
	MaxColumns int
}

// Slot is the column position of one interval.
type Slot struct {
	ColumnIndex int
	ColumnCount int
}

// Result is the layout of one day.
type Result struct {
	Slots    map[int64]Slot
	Visible  []int64 // ids with a slot, canonical order
	Hidden   []int64 // ids beyond the column cap, canonical order
	Overflow int     // len(Hidden)
}

// Slot returns the slot of an interval and whether it is visible.
func (r Result) Slot(id int64) (Slot, bool) {
	s, ok := r.Slots[id]
	return s, ok
}

// MaxColumnCount returns the widest column count in the day.
func (r Result) MaxColumnCount() int {
	n := 0
	for _, s := range r.Slots {
		n = max(n, s.ColumnCount)
	}
	return n
}

// Compute lays out the intervals of one day.
func Compute(ivs []*interval.Interval, opts Options) Result {
	sorted := canonical(ivs)
	res := Result{Slots: make(map[int64]Slot, len(sorted))}
	if len(sorted) == 0 {
		return res
	}

	columns := assignColumns(sorted)

	for _, group := range groupIndexes(sorted) {
		count := maxConcurrent(sorted, group)
		if opts.MaxColumns > 0 {
			count = min(count, opts.MaxColumns)
		}
		for _, i := range group {
			id := sorted[i].ID
			if opts.MaxColumns > 0 && columns[i] >= opts.MaxColumns {
				res.Hidden = append(res.Hidden, id)
				continue
			}
			res.Slots[id] = Slot{ColumnIndex: columns[i], ColumnCount: count}
			res.Visible = append(res.Visible, id)
		}
	}
	res.Overflow = len(res.Hidden)
	return res
}

// Groups returns the overlap groups of a day in canonical order.
// A group is a maximal run of intervals chained together by overlaps;
// an interval that overlaps nothing forms a group of its own.
func Groups(ivs []*interval.Interval) [][]*interval.Interval {
	sorted := canonical(ivs)
	var groups [][]*interval.Interval
	for _, idx := range groupIndexes(sorted) {
		g := make([]*interval.Interval, len(idx))
		for k, i := range idx {
			g[k] = sorted[i]
		}
		groups = append(groups, g)
	}
	return groups
}

// canonical returns a sorted copy; the input slice is left untouched.
func canonical(ivs []*interval.Interval) []*interval.Interval {
	sorted := make([]*interval.Interval, 0, len(ivs))
	for _, iv := range ivs {
		if iv != nil {
			sorted = append(sorted, iv)
		}
	}
	interval.SortCanonical(sorted)
	return sorted
}

// assignColumns gives each interval the lowest column not taken by an
// already placed interval it overlaps.
func assignColumns(sorted []*interval.Interval) []int {
	columns := make([]int, len(sorted))
	for i, iv := range sorted {
		var used []int
		for j := 0; j < i; j++ {
			if interval.RangesOverlap(iv.Start, iv.End, sorted[j].Start, sorted[j].End) {
				used = append(used, columns[j])
			}
		}
		col := 0
		for slices.Contains(used, col) {
			col++
		}
		columns[i] = col
	}
	return columns
}

// groupIndexes splits sorted intervals into connected overlap groups.
func groupIndexes(sorted []*interval.Interval) [][]int {
	var groups [][]int
	var current []int
	groupEnd := -1
	for i, iv := range sorted {
		if len(current) > 0 && iv.Start >= groupEnd {
			groups = append(groups, current)
			current = nil
		}
		if len(current) == 0 {
			groupEnd = iv.End
		}
		current = append(current, i)
		groupEnd = max(groupEnd, iv.End)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// maxConcurrent returns the largest number of intervals in the group that
// are active at the same minute. For intervals this equals the largest set
// of mutually overlapping ones.
func maxConcurrent(sorted []*interval.Interval, group []int) int {
	type edge struct {
		at    int
		delta int
	}
	edges := make([]edge, 0, 2*len(group))
	for _, i := range group {
		edges = append(edges, edge{sorted[i].Start, 1}, edge{sorted[i].End, -1})
	}
	// ends sort before starts at the same minute: [a, b) and [b, c) do not overlap
	slices.SortFunc(edges, func(a, b edge) int {
		if a.at != b.at {
			return a.at - b.at
		}
		return a.delta - b.delta
	})

	active, peak := 0, 0
	for _, e := range edges {
		active += e.delta
		peak = max(peak, active)
	}
	return peak
}

// DayLayout is the layout of one date of a board.
type DayLayout struct {
	Date time.Time
	Result
}

// ComputeDays lays out each day independently.
func ComputeDays(days []*interval.Day, opts Options) []DayLayout {
	out := make([]DayLayout, len(days))
	for i, d := range days {
		out[i] = DayLayout{Date: d.Date, Result: Compute(d.Intervals(), opts)}
	}
	return out
}

// ComputeWeek lays out the seven days of a week.
func ComputeWeek(w *interval.Week, opts Options) []DayLayout {
	return ComputeDays(w.Days[:], opts)
}

// ComputeBoard lays out every date that has intervals on the board, in
// date order.
func ComputeBoard(b *interval.Board, opts Options) []DayLayout {
	var days []*interval.Day
	for _, iv := range b.All() {
		if n := len(days); n > 0 && interval.SameDate(days[n-1].Date, iv.Date) {
			days[n-1].Add(iv)
			continue
		}
		days = append(days, interval.NewDayWithIntervals(iv.Date, []*interval.Interval{iv}))
	}
	return ComputeDays(days, opts)
}

// OverflowByDay maps each scope key to its hidden interval count, leaving
// out days with nothing hidden.
func OverflowByDay(days []DayLayout) map[string]int {
	out := make(map[string]int)
	for _, d := range days {
		if d.Overflow > 0 {
			out[interval.ScopeKey(d.Date)] = d.Overflow
		}
	}
	return out
}

// TotalOverflow sums the hidden intervals over several days.
func TotalOverflow(days []DayLayout) int {
	total := 0
	for _, d := range days {
		total += d.Overflow
	}
	return total
}
