package slotgrid

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Token is a placeable resource with a finite quantity.
// Remaining goes down on placement and back up on removal; Usage only
// ever goes up.
type Token struct {
	ID              string
	Label           string
	Remaining       int
	Usage           int
	DefaultDuration int // minutes
	Color           string
	CreatedAt       time.Time
}

// NewToken creates a token with a fresh id.
func NewToken(label string, quantity, duration int) (*Token, error) {
	t := &Token{
		ID:              uuid.NewString(),
		Label:           strings.TrimSpace(label),
		Remaining:       quantity,
		DefaultDuration: duration,
		CreatedAt:       time.Now(),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the token fields.
func (t *Token) Validate() error {
	if t.Label == "" {
		return ErrEmptyLabel
	}
	if t.Remaining < 0 || t.Usage < 0 || t.DefaultDuration < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Placement is one token occupying a column of consecutive slots on a day.
type Placement struct {
	ID        string
	TokenID   string
	Date      time.Time
	Slot      int // first slot
	Span      int // number of slots
	Column    int
	CreatedAt time.Time
}

// Covers reports whether the placement occupies slot on its date.
func (p *Placement) Covers(slot int) bool {
	return slot >= p.Slot && slot < p.Slot+p.Span
}

// overlapsSlots reports whether the placement shares a slot with
// [slot, slot+span).
func (p *Placement) overlapsSlots(slot, span int) bool {
	return p.Slot < slot+span && slot < p.Slot+p.Span
}
