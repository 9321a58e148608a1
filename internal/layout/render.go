package layout

import (
	"github.com/javiermolinar/rocinante/internal/coord"
	"github.com/javiermolinar/rocinante/internal/interval"
)

// RenderRecord positions one interval on screen.
type RenderRecord struct {
	ID          int64
	Day         int
	Top         float64
	Height      float64
	Left        float64
	Width       float64
	ColumnIndex int
	ColumnCount int
}

// Bottom returns Top + Height.
func (r RenderRecord) Bottom() float64 { return r.Top + r.Height }

// Position builds the record for a span in a given column of a day track.
func Position(id int64, day, start, end int, slot Slot, m *coord.Mapper, cols coord.Columns) RenderRecord {
	count := max(slot.ColumnCount, 1)
	colW := cols.TrackWidth() / float64(count)
	top := m.TimeToPixel(start)
	return RenderRecord{
		ID:          id,
		Day:         day,
		Top:         top,
		Height:      m.TimeToPixel(end) - top,
		Left:        cols.LeftOf(day) + float64(slot.ColumnIndex)*colW,
		Width:       colW,
		ColumnIndex: slot.ColumnIndex,
		ColumnCount: count,
	}
}

// Render produces records for the visible intervals of one day, in
// canonical order. Hidden intervals get no record.
func Render(ivs []*interval.Interval, res Result, m *coord.Mapper, cols coord.Columns, day int) []RenderRecord {
	byID := make(map[int64]*interval.Interval, len(ivs))
	for _, iv := range ivs {
		if iv != nil {
			byID[iv.ID] = iv
		}
	}

	records := make([]RenderRecord, 0, len(res.Visible))
	for _, id := range res.Visible {
		iv, ok := byID[id]
		if !ok {
			continue
		}
		records = append(records, Position(id, day, iv.Start, iv.End, res.Slots[id], m, cols))
	}
	return records
}
