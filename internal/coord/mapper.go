// Package coord converts between track positions and time of day.
//
// A track is the vertical strip that shows one day. Positions are measured
// from the top of the track; times are minutes since midnight.
package coord

import (
	"errors"
	"math"
)

// Config errors.
var (
	ErrInvalidWindow = errors.New("window end hour must be after window start hour")
	ErrInvalidSnap   = errors.New("snap minutes must be positive and divide the window")
)

// DefaultSnapMinutes is used when Config.SnapMinutes is zero.
const DefaultSnapMinutes = 15

// Config describes the visible window of a track.
type Config struct {
	WindowStart int     // first visible hour, 0-23
	WindowEnd   int     // last visible hour, 1-24
	Height      float64 // track height in pixels (or rows)
	SnapMinutes int
}

// Validate checks the window and snap resolution.
func (c Config) Validate() error {
	if c.WindowStart < 0 || c.WindowEnd > 24 || c.WindowEnd <= c.WindowStart {
		return ErrInvalidWindow
	}
	if c.SnapMinutes < 0 || (c.SnapMinutes > 0 && (c.WindowEnd-c.WindowStart)*60%c.SnapMinutes != 0) {
		return ErrInvalidSnap
	}
	return nil
}

// Mapper maps track offsets to minutes and back.
// It never fails on coordinates: out-of-range input is clamped.
type Mapper struct {
	start  int // window start, minutes
	end    int // window end, minutes
	height float64
	snap   int
}

// New creates a Mapper from a validated config.
func New(cfg Config) (*Mapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	snap := cfg.SnapMinutes
	if snap == 0 {
		snap = DefaultSnapMinutes
	}
	return &Mapper{
		start:  cfg.WindowStart * 60,
		end:    cfg.WindowEnd * 60,
		height: math.Max(0, cfg.Height),
		snap:   snap,
	}, nil
}

// WithHeight returns a copy of the mapper for a resized track.
func (m *Mapper) WithHeight(height float64) *Mapper {
	c := *m
	c.height = math.Max(0, height)
	return &c
}

// WindowStart returns the first visible minute.
func (m *Mapper) WindowStart() int { return m.start }

// WindowEnd returns the end of the visible window in minutes.
func (m *Mapper) WindowEnd() int { return m.end }

// WindowMinutes returns the window length.
func (m *Mapper) WindowMinutes() int { return m.end - m.start }

// Height returns the track height.
func (m *Mapper) Height() float64 { return m.height }

// Resolution returns the snap resolution in minutes.
func (m *Mapper) Resolution() int { return m.snap }

// PixelsPerMinute returns the vertical scale.
func (m *Mapper) PixelsPerMinute() float64 {
	return m.height / float64(m.WindowMinutes())
}

// PixelToTime clamps y to the track and maps it to a minute of the day.
// A zero-height track always maps to the window start.
func (m *Mapper) PixelToTime(y float64) int {
	if m.height == 0 || math.IsNaN(y) {
		return m.start
	}
	y = clamp(y, 0, m.height)
	return m.start + int(math.Round(y/m.PixelsPerMinute()))
}

// TimeToPixel maps a minute of the day to a track offset.
// Minutes outside the window are clamped to its edges.
func (m *Mapper) TimeToPixel(minutes int) float64 {
	minutes = min(max(minutes, m.start), m.end)
	return float64(minutes-m.start) * m.PixelsPerMinute()
}

// DurationToPixels returns the height of a span of minutes.
func (m *Mapper) DurationToPixels(minutes int) float64 {
	return float64(minutes) * m.PixelsPerMinute()
}

// SnapUnit is the pixel equivalent of the snap resolution.
func (m *Mapper) SnapUnit() float64 {
	return float64(m.snap) * m.PixelsPerMinute()
}

// Snap rounds an offset to the nearest multiple of SnapUnit.
// Snap(Snap(y)) == Snap(y).
func (m *Mapper) Snap(y float64) float64 {
	unit := m.SnapUnit()
	if unit == 0 || math.IsNaN(y) {
		return 0
	}
	return math.Round(y/unit) * unit
}

// SnapMinutes rounds a minute value to the nearest snap boundary.
func (m *Mapper) SnapMinutes(minutes int) int {
	return int(math.Round(float64(minutes)/float64(m.snap))) * m.snap
}

// ClampSpan shifts a span so it lies fully inside the window, keeping its
// duration. Spans longer than the window are cut to the window.
func (m *Mapper) ClampSpan(start, duration int) (int, int) {
	if duration > m.WindowMinutes() {
		duration = m.WindowMinutes()
	}
	start = min(max(start, m.start), m.end-duration)
	return start, start + duration
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
