package interval

import (
	"context"
	"time"
)

// Repository defines the persistence collaborator for intervals.
// A scope is one calendar day, keyed by ScopeKey.
type Repository interface {
	// List returns the intervals stored for the scope's date.
	List(ctx context.Context, date time.Time) ([]*Interval, error)

	// ListRange returns all intervals within the date range (inclusive).
	ListRange(ctx context.Context, start, end time.Time) ([]*Interval, error)

	// Save replaces the stored intervals for the date with the given list.
	// It returns the canonical list, which may carry reassigned ids.
	Save(ctx context.Context, date time.Time, ivs []*Interval) ([]*Interval, error)

	// Delete removes one interval by id.
	Delete(ctx context.Context, id int64) error

	// Close releases any resources held by the repository.
	Close() error
}
