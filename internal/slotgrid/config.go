// Package slotgrid implements the discrete planner: fixed time slots per
// day, each with a bounded number of parallel columns, filled by placing
// finite-quantity tokens.
package slotgrid

import (
	"errors"

	"github.com/javiermolinar/rocinante/internal/interval"
)

// Config errors.
var ErrInvalidConfig = errors.New("invalid slot grid configuration")

const (
	// DefaultSlotMinutes is the slot length used when none is configured.
	DefaultSlotMinutes = 30
	// DefaultMaxColumns is the parallel column cap used when none is configured.
	DefaultMaxColumns = 4
)

// Config holds the grid geometry.
type Config struct {
	SlotMinutes int // length of one slot
	DayStart    int // minute of the day where slot 0 begins
	SlotsPerDay int
	MaxColumns  int // parallel columns per cell
}

// DefaultConfig returns a 08:00-20:00 grid of half-hour slots.
func DefaultConfig() Config {
	return Config{
		SlotMinutes: DefaultSlotMinutes,
		DayStart:    8 * 60,
		SlotsPerDay: 24,
		MaxColumns:  DefaultMaxColumns,
	}
}

// Validate checks that the grid fits in one day.
func (c Config) Validate() error {
	if c.SlotMinutes <= 0 || c.SlotsPerDay <= 0 || c.MaxColumns <= 0 || c.DayStart < 0 {
		return ErrInvalidConfig
	}
	if c.DayStart+c.SlotMinutes*c.SlotsPerDay > interval.MinutesPerDay {
		return ErrInvalidConfig
	}
	return nil
}

// SlotToMinutes converts a slot index to minutes from midnight.
func (c Config) SlotToMinutes(slot int) int {
	return c.DayStart + slot*c.SlotMinutes
}

// MinutesToSlot converts minutes from midnight to the slot containing it.
// The result may fall outside [0, SlotsPerDay).
func (c Config) MinutesToSlot(mins int) int {
	off := mins - c.DayStart
	if off < 0 {
		return (off - c.SlotMinutes + 1) / c.SlotMinutes
	}
	return off / c.SlotMinutes
}

// SlotToTime formats the start of a slot as "HH:MM".
func (c Config) SlotToTime(slot int) string {
	return interval.FormatMinutes(c.SlotToMinutes(slot))
}

// TimeToSlot parses "HH:MM" and returns its slot.
func (c Config) TimeToSlot(hhmm string) int {
	return c.MinutesToSlot(interval.TimeToMinutes(hhmm))
}

// SpanSlots returns how many slots a duration covers, at least one.
func (c Config) SpanSlots(minutes int) int {
	if minutes <= c.SlotMinutes {
		return 1
	}
	return (minutes + c.SlotMinutes - 1) / c.SlotMinutes
}
