package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/javiermolinar/rocinante/internal/interval"
)

var _ interval.Repository = (*SQLite)(nil)

const intervalColumns = `id, date, label, category, start_min, end_min, color, participants, notes, created_at`

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// List returns the intervals stored for a date, in canonical order.
func (s *SQLite) List(ctx context.Context, date time.Time) ([]*interval.Interval, error) {
	return listIntervals(ctx, s.db, `
		SELECT `+intervalColumns+`
		FROM intervals
		WHERE date = ?
		ORDER BY start_min, id
	`, formatDate(date))
}

// ListRange returns all intervals within the date range (inclusive).
func (s *SQLite) ListRange(ctx context.Context, start, end time.Time) ([]*interval.Interval, error) {
	return listIntervals(ctx, s.db, `
		SELECT `+intervalColumns+`
		FROM intervals
		WHERE date >= ? AND date <= ?
		ORDER BY date, start_min, id
	`, formatDate(start), formatDate(end))
}

// Save replaces the stored intervals of a date with ivs in one transaction.
//
// Intervals whose id is already stored on that date keep it; every other
// interval is inserted under a fresh id. The canonical list is returned so
// the caller can adopt the reassigned ids.
func (s *SQLite) Save(ctx context.Context, date time.Time, ivs []*interval.Interval) ([]*interval.Interval, error) {
	for _, iv := range ivs {
		if err := iv.Validate(); err != nil {
			return nil, fmt.Errorf("interval %q: %w", iv.Label, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	day := formatDate(date)
	stored, err := storedIDs(ctx, tx, day)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM intervals WHERE date = ?`, day); err != nil {
		return nil, fmt.Errorf("clearing %s: %w", day, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO intervals (`+intervalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, iv := range ivs {
		participants, err := json.Marshal(nonNil(iv.Participants))
		if err != nil {
			return nil, fmt.Errorf("encoding participants: %w", err)
		}

		// NULL lets AUTOINCREMENT pick a fresh id
		var id any
		if stored[iv.ID] {
			id = iv.ID
		}

		_, err = stmt.ExecContext(ctx,
			id,
			day,
			iv.Label,
			iv.Category,
			iv.Start,
			iv.End,
			iv.Color,
			string(participants),
			iv.Notes,
			formatTimestamp(iv.CreatedAt),
		)
		if err != nil {
			return nil, fmt.Errorf("inserting interval %q: %w", iv.Label, err)
		}
	}

	canonical, err := listIntervals(ctx, tx, `
		SELECT `+intervalColumns+`
		FROM intervals
		WHERE date = ?
		ORDER BY start_min, id
	`, day)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return canonical, nil
}

// Get returns one interval by id.
func (s *SQLite) Get(ctx context.Context, id int64) (*interval.Interval, error) {
	ivs, err := listIntervals(ctx, s.db, `
		SELECT `+intervalColumns+`
		FROM intervals
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(ivs) == 0 {
		return nil, fmt.Errorf("interval %d: %w", id, interval.ErrIntervalNotFound)
	}
	return ivs[0], nil
}

// Delete removes one interval by id.
func (s *SQLite) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM intervals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting interval: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("interval %d: %w", id, interval.ErrIntervalNotFound)
	}

	return nil
}

func storedIDs(ctx context.Context, tx *sql.Tx, day string) (map[int64]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM intervals WHERE date = ?`, day)
	if err != nil {
		return nil, fmt.Errorf("querying stored ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return ids, nil
}

func listIntervals(ctx context.Context, q queryer, query string, args ...any) ([]*interval.Interval, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying intervals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ivs []*interval.Interval
	for rows.Next() {
		var (
			iv           interval.Interval
			date         string
			participants string
			createdAt    string
		)

		err := rows.Scan(
			&iv.ID,
			&date,
			&iv.Label,
			&iv.Category,
			&iv.Start,
			&iv.End,
			&iv.Color,
			&participants,
			&iv.Notes,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning interval: %w", err)
		}

		iv.Date, err = parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}

		iv.CreatedAt, err = parseTimestamp(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created at: %w", err)
		}

		if err := json.Unmarshal([]byte(participants), &iv.Participants); err != nil {
			return nil, fmt.Errorf("decoding participants of %d: %w", iv.ID, err)
		}
		if len(iv.Participants) == 0 {
			iv.Participants = nil
		}

		ivs = append(ivs, &iv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating intervals: %w", err)
	}

	return ivs, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
