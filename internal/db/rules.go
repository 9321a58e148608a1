package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/javiermolinar/rocinante/internal/conflict"
)

var _ conflict.RuleStore = (*SQLite)(nil)

// CreateRule stores a new restriction rule.
// Returns conflict.ErrDuplicateRule if a rule already forbids the same pair.
func (s *SQLite) CreateRule(ctx context.Context, r *conflict.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := checkDuplicateRule(ctx, tx, r); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rules (id, subject_a, subject_b, created_at)
		VALUES (?, ?, ?, ?)
	`, r.ID, r.SubjectA, r.SubjectB, formatTimestamp(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListRules returns every rule, oldest first.
func (s *SQLite) ListRules(ctx context.Context) ([]conflict.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_a, subject_b, created_at
		FROM rules
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []conflict.Rule
	for rows.Next() {
		var (
			r         conflict.Rule
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.SubjectA, &r.SubjectB, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		r.CreatedAt, err = parseTimestamp(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created at: %w", err)
		}
		rules = append(rules, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}
	return rules, nil
}

// UpdateRule changes the patterns of an existing rule.
func (s *SQLite) UpdateRule(ctx context.Context, r *conflict.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := checkDuplicateRule(ctx, tx, r); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `UPDATE rules SET subject_a = ?, subject_b = ? WHERE id = ?`,
		r.SubjectA, r.SubjectB, r.ID)
	if err != nil {
		return fmt.Errorf("updating rule: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("rule %s: %w", r.ID, conflict.ErrRuleNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteRule removes a rule by id.
func (s *SQLite) DeleteRule(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("rule %s: %w", id, conflict.ErrRuleNotFound)
	}
	return nil
}

// checkDuplicateRule looks for another rule with the same pair, in either order.
func checkDuplicateRule(ctx context.Context, tx *sql.Tx, r *conflict.Rule) error {
	query := `
		SELECT id, subject_a, subject_b
		FROM rules
		WHERE id != ?
		  AND ((lower(subject_a) = lower(?) AND lower(subject_b) = lower(?))
		    OR (lower(subject_a) = lower(?) AND lower(subject_b) = lower(?)))
		LIMIT 1
	`

	var existing conflict.Rule
	err := tx.QueryRowContext(ctx, query, r.ID, r.SubjectA, r.SubjectB, r.SubjectB, r.SubjectA).
		Scan(&existing.ID, &existing.SubjectA, &existing.SubjectB)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking duplicate rule: %w", err)
	}

	return fmt.Errorf("%w: %s (%s)", conflict.ErrDuplicateRule, existing.String(), existing.ID)
}
