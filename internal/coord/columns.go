package coord

import "math"

// Columns maps a horizontal offset to a day track.
type Columns struct {
	Count int     // number of day tracks
	Width float64 // total width of all tracks
	Left  float64 // offset of the first track
}

// TrackWidth returns the width of a single day track.
func (c Columns) TrackWidth() float64 {
	if c.Count <= 0 {
		return 0
	}
	return c.Width / float64(c.Count)
}

// DayAt returns the day index under x, clamped to [0, Count-1].
func (c Columns) DayAt(x float64) int {
	w := c.TrackWidth()
	if w == 0 {
		return 0
	}
	idx := int(math.Floor((x - c.Left) / w))
	return min(max(idx, 0), c.Count-1)
}

// LeftOf returns the left edge of a day track.
func (c Columns) LeftOf(day int) float64 {
	return c.Left + float64(day)*c.TrackWidth()
}

// Contains reports whether x falls on one of the tracks.
func (c Columns) Contains(x float64) bool {
	return x >= c.Left && x < c.Left+c.Width
}
