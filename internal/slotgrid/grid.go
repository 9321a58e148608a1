package slotgrid

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javiermolinar/rocinante/internal/conflict"
	"github.com/javiermolinar/rocinante/internal/interval"
)

// Grid errors.
var (
	ErrNoCapacity          = errors.New("no capacity")
	ErrTokenNotFound       = errors.New("token not found")
	ErrPlacementNotFound   = errors.New("placement not found")
	ErrInvalidSlotPosition = errors.New("invalid slot position")
	ErrEmptyLabel          = errors.New("token label cannot be empty")
	ErrInvalidQuantity     = errors.New("token quantity cannot be negative")
)

// Store persists the grid state.
type Store interface {
	SaveGrid(ctx context.Context, snap Snapshot) error
	LoadGrid(ctx context.Context) (Snapshot, error)
}

// Snapshot is the persistent state of a grid.
type Snapshot struct {
	Tokens     []Token
	Placements []Placement
}

// PlaceOptions modifies PlaceToken.
type PlaceOptions struct {
	// Force places the token even when a restriction rule is violated.
	Force bool
}

// PlaceResult is the outcome of PlaceToken.
type PlaceResult struct {
	Placement *Placement
	// Conflict is set when a rule was violated. With Force the token was
	// still placed and Conflict is the reason to show for confirmation.
	Conflict *conflict.Conflict
}

// Column is one visible column of a cell.
type Column struct {
	Index     int
	Placement *Placement // nil for the trailing empty column
}

// Grid holds tokens and their placements. It is not safe for concurrent use.
type Grid struct {
	cfg        Config
	engine     *conflict.Engine
	tokens     map[string]*Token
	placements map[string]*Placement
	log        *zap.Logger
}

// New creates an empty grid.
func New(cfg Config, engine *conflict.Engine, logger *zap.Logger) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Grid{
		cfg:        cfg,
		engine:     engine,
		tokens:     make(map[string]*Token),
		placements: make(map[string]*Placement),
		log:        logger.Named("slotgrid"),
	}, nil
}

// Restore creates a grid from a snapshot.
func Restore(cfg Config, engine *conflict.Engine, snap Snapshot, logger *zap.Logger) (*Grid, error) {
	g, err := New(cfg, engine, logger)
	if err != nil {
		return nil, err
	}
	for _, t := range snap.Tokens {
		tok := t
		g.tokens[tok.ID] = &tok
	}
	for _, p := range snap.Placements {
		pl := p
		if _, ok := g.tokens[pl.TokenID]; !ok {
			g.log.Warn("dropping placement of unknown token", zap.String("placement", pl.ID), zap.String("token", pl.TokenID))
			continue
		}
		g.placements[pl.ID] = &pl
	}
	return g, nil
}

// Snapshot returns a copy of the grid state in a stable order.
func (g *Grid) Snapshot() Snapshot {
	var snap Snapshot
	for _, t := range g.Tokens() {
		snap.Tokens = append(snap.Tokens, *t)
	}
	for _, p := range g.sortedPlacements(nil) {
		snap.Placements = append(snap.Placements, *p)
	}
	return snap
}

// Config returns the grid geometry.
func (g *Grid) Config() Config { return g.cfg }

// AddToken registers a new token.
func (g *Grid) AddToken(label string, quantity, duration int) (*Token, error) {
	t, err := NewToken(label, quantity, duration)
	if err != nil {
		return nil, err
	}
	g.tokens[t.ID] = t
	c := *t
	return &c, nil
}

// Restock adds quantity to a token.
func (g *Grid) Restock(id string, quantity int) (*Token, error) {
	t, ok := g.tokens[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	if t.Remaining+quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	t.Remaining += quantity
	c := *t
	return &c, nil
}

// SetColor changes the display color of a token.
func (g *Grid) SetColor(id, color string) (*Token, error) {
	t, ok := g.tokens[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	t.Color = color
	c := *t
	return &c, nil
}

// Token returns a copy of a token.
func (g *Grid) Token(id string) (*Token, bool) {
	t, ok := g.tokens[id]
	if !ok {
		return nil, false
	}
	c := *t
	return &c, true
}

// Tokens returns copies of all tokens ordered by label, then id.
func (g *Grid) Tokens() []*Token {
	out := make([]*Token, 0, len(g.tokens))
	for _, t := range g.tokens {
		c := *t
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *Token) int {
		return cmp.Or(cmp.Compare(a.Label, b.Label), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Placements returns copies of the placements on a date, ordered by slot
// then column.
func (g *Grid) Placements(date time.Time) []*Placement {
	return g.sortedPlacements(&date)
}

func (g *Grid) sortedPlacements(date *time.Time) []*Placement {
	var out []*Placement
	for _, p := range g.placements {
		if date != nil && !interval.SameDate(p.Date, *date) {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *Placement) int {
		return cmp.Or(
			a.Date.Compare(b.Date),
			cmp.Compare(a.Slot, b.Slot),
			cmp.Compare(a.Column, b.Column),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out
}

// PlaceToken puts one unit of a token at (date, slot) in the lowest column
// that is free over the token's whole span.
//
// An exhausted token or a full cell fails with ErrNoCapacity. A rule
// violation fails with the *conflict.Conflict unless opts.Force is set, in
// which case the token is placed and the conflict is returned in the
// result. Nothing changes on failure.
func (g *Grid) PlaceToken(tokenID string, date time.Time, slot int, opts PlaceOptions) (PlaceResult, error) {
	tok, ok := g.tokens[tokenID]
	if !ok {
		return PlaceResult{}, ErrTokenNotFound
	}
	span := g.cfg.SpanSlots(tok.DefaultDuration)
	if slot < 0 || slot+span > g.cfg.SlotsPerDay {
		return PlaceResult{}, ErrInvalidSlotPosition
	}
	if tok.Remaining <= 0 {
		return PlaceResult{}, fmt.Errorf("%w: %q has no units left", ErrNoCapacity, tok.Label)
	}

	neighbours := g.overlapping(date, slot, span)
	column, ok := g.lowestFreeColumn(neighbours)
	if !ok {
		return PlaceResult{}, fmt.Errorf("%w: %s %s is full (%d columns)",
			ErrNoCapacity, interval.ScopeKey(date), g.cfg.SlotToTime(slot), g.cfg.MaxColumns)
	}

	p := &Placement{
		ID:        uuid.NewString(),
		TokenID:   tok.ID,
		Date:      truncateToDay(date),
		Slot:      slot,
		Span:      span,
		Column:    column,
		CreatedAt: time.Now(),
	}

	var res PlaceResult
	if g.engine != nil {
		candidate := g.project(p, tok, 0)
		existing := make([]*interval.Interval, 0, len(neighbours))
		for i, n := range neighbours {
			existing = append(existing, g.project(n, g.tokens[n.TokenID], int64(i+1)))
		}
		if cf := g.engine.EvaluatePlacement(candidate, existing); cf != nil {
			res.Conflict = cf
			if !opts.Force {
				return res, cf
			}
			g.log.Info("forced placement over rule", zap.String("reason", cf.Error()))
		}
	}

	tok.Remaining--
	tok.Usage++
	g.placements[p.ID] = p
	c := *p
	res.Placement = &c
	g.log.Debug("placed token",
		zap.String("token", tok.Label),
		zap.String("date", interval.ScopeKey(date)),
		zap.Int("slot", slot),
		zap.Int("column", column))
	return res, nil
}

// RemovePlacement deletes a placement and gives its unit back to the
// token. Usage is not decremented. The remaining placements of that day
// shift down into the freed column where their span allows it.
func (g *Grid) RemovePlacement(id string) (*Placement, error) {
	p, ok := g.placements[id]
	if !ok {
		return nil, ErrPlacementNotFound
	}
	delete(g.placements, id)
	if tok, ok := g.tokens[p.TokenID]; ok {
		tok.Remaining++
	}
	g.compact(p.Date)
	return p, nil
}

// compact moves every placement on date to the lowest column free over its
// whole span until nothing moves. Columns only decrease, so it terminates.
func (g *Grid) compact(date time.Time) {
	for moved := true; moved; {
		moved = false
		for _, p := range g.sortedPlacements(&date) {
			stored := g.placements[p.ID]
			others := slices.DeleteFunc(g.overlapping(date, stored.Slot, stored.Span),
				func(o *Placement) bool { return o.ID == stored.ID })
			col, ok := g.lowestFreeColumn(others)
			if ok && col < stored.Column {
				g.log.Debug("compacted placement",
					zap.String("placement", stored.ID),
					zap.Int("from", stored.Column),
					zap.Int("to", col))
				stored.Column = col
				moved = true
			}
		}
	}
}

// VisibleSlots returns the columns to draw for a cell: every occupied
// column in increasing order, then one trailing empty column while the cell
// is below MaxColumns.
//
// The trailing column sits right after the highest occupied one. When a
// longer placement keeps a lower column busy in a neighbouring slot and
// nothing is free above it, the trailing column is the free gap instead,
// still listed last.
func (g *Grid) VisibleSlots(date time.Time, slot int) []Column {
	occupied := g.overlapping(date, slot, 1)
	cols := make([]Column, 0, len(occupied)+1)
	next := 0
	for _, p := range occupied {
		c := *p
		cols = append(cols, Column{Index: p.Column, Placement: &c})
		next = p.Column + 1
	}
	if len(occupied) >= g.cfg.MaxColumns {
		return cols
	}

	if next < g.cfg.MaxColumns {
		cols = append(cols, Column{Index: next})
	} else if free, ok := g.lowestFreeColumn(occupied); ok {
		cols = append(cols, Column{Index: free})
	}
	return cols
}

// Intervals projects the placements of a date into intervals so the
// continuous layout and the interval store can use them. The returned map
// links each interval id to its placement id.
func (g *Grid) Intervals(date time.Time) ([]*interval.Interval, map[int64]string) {
	placements := g.Placements(date)
	ivs := make([]*interval.Interval, 0, len(placements))
	refs := make(map[int64]string, len(placements))
	for i, p := range placements {
		id := int64(i + 1)
		ivs = append(ivs, g.project(p, g.tokens[p.TokenID], id))
		refs[id] = p.ID
	}
	return ivs, refs
}

// overlapping returns the placements sharing a slot with [slot, slot+span)
// on date, ordered by column.
func (g *Grid) overlapping(date time.Time, slot, span int) []*Placement {
	var out []*Placement
	for _, p := range g.placements {
		if interval.SameDate(p.Date, date) && p.overlapsSlots(slot, span) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *Placement) int {
		return cmp.Or(cmp.Compare(a.Column, b.Column), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (g *Grid) lowestFreeColumn(occupied []*Placement) (int, bool) {
	for col := 0; col < g.cfg.MaxColumns; col++ {
		if !slices.ContainsFunc(occupied, func(p *Placement) bool { return p.Column == col }) {
			return col, true
		}
	}
	return 0, false
}

func (g *Grid) project(p *Placement, tok *Token, id int64) *interval.Interval {
	iv := &interval.Interval{
		ID:    id,
		Date:  p.Date,
		Start: g.cfg.SlotToMinutes(p.Slot),
		End:   g.cfg.SlotToMinutes(p.Slot + p.Span),
	}
	if tok != nil {
		iv.Label = tok.Label
		iv.Category = tok.Label
		iv.Color = tok.Color
	}
	return iv
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
