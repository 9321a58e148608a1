package db

import (
	"context"
	"fmt"

	"github.com/javiermolinar/rocinante/internal/slotgrid"
)

var _ slotgrid.Store = (*SQLite)(nil)

// SaveGrid replaces every stored token and placement with snap.
func (s *SQLite) SaveGrid(ctx context.Context, snap slotgrid.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM placements`); err != nil {
		return fmt.Errorf("clearing placements: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tokens`); err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}

	tokenStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tokens (id, label, remaining, usage, duration, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = tokenStmt.Close() }()

	for _, t := range snap.Tokens {
		_, err := tokenStmt.ExecContext(ctx,
			t.ID, t.Label, t.Remaining, t.Usage, t.DefaultDuration, t.Color, formatTimestamp(t.CreatedAt))
		if err != nil {
			return fmt.Errorf("inserting token %q: %w", t.Label, err)
		}
	}

	placementStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO placements (id, token_id, date, slot, span, col, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = placementStmt.Close() }()

	for _, p := range snap.Placements {
		_, err := placementStmt.ExecContext(ctx,
			p.ID, p.TokenID, formatDate(p.Date), p.Slot, p.Span, p.Column, formatTimestamp(p.CreatedAt))
		if err != nil {
			return fmt.Errorf("inserting placement %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// LoadGrid reads every token and placement.
func (s *SQLite) LoadGrid(ctx context.Context) (slotgrid.Snapshot, error) {
	var snap slotgrid.Snapshot

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, remaining, usage, duration, color, created_at
		FROM tokens
		ORDER BY label, id
	`)
	if err != nil {
		return snap, fmt.Errorf("querying tokens: %w", err)
	}
	for rows.Next() {
		var (
			t         slotgrid.Token
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.Label, &t.Remaining, &t.Usage, &t.DefaultDuration, &t.Color, &createdAt); err != nil {
			_ = rows.Close()
			return snap, fmt.Errorf("scanning token: %w", err)
		}
		if t.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			_ = rows.Close()
			return snap, fmt.Errorf("parsing created at: %w", err)
		}
		snap.Tokens = append(snap.Tokens, t)
	}
	if err := rows.Close(); err != nil {
		return snap, fmt.Errorf("closing rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterating tokens: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, token_id, date, slot, span, col, created_at
		FROM placements
		ORDER BY date, slot, col
	`)
	if err != nil {
		return snap, fmt.Errorf("querying placements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			p         slotgrid.Placement
			date      string
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.TokenID, &date, &p.Slot, &p.Span, &p.Column, &createdAt); err != nil {
			return snap, fmt.Errorf("scanning placement: %w", err)
		}
		if p.Date, err = parseDate(date); err != nil {
			return snap, fmt.Errorf("parsing date: %w", err)
		}
		if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return snap, fmt.Errorf("parsing created at: %w", err)
		}
		snap.Placements = append(snap.Placements, p)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterating placements: %w", err)
	}

	return snap, nil
}
