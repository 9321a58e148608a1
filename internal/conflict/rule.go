// Package conflict evaluates restriction rules between overlapping intervals.
//
// A rule names two wildcard patterns. Two intervals conflict when they
// overlap in time on the same day and one label matches each pattern.
package conflict

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Rule errors.
var (
	ErrEmptyPattern  = errors.New("rule pattern cannot be empty")
	ErrRuleNotFound  = errors.New("rule not found")
	ErrDuplicateRule = errors.New("rule already exists")
)

// Rule forbids intervals matching SubjectA from overlapping intervals
// matching SubjectB. Rules are symmetric.
type Rule struct {
	ID        string
	SubjectA  string
	SubjectB  string
	CreatedAt time.Time
}

// NewRule creates a validated rule with a fresh id.
func NewRule(subjectA, subjectB string) (*Rule, error) {
	r := &Rule{
		ID:        uuid.NewString(),
		SubjectA:  strings.TrimSpace(subjectA),
		SubjectB:  strings.TrimSpace(subjectB),
		CreatedAt: time.Now(),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate rejects blank patterns.
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.SubjectA) == "" {
		return fmt.Errorf("subject A: %w", ErrEmptyPattern)
	}
	if strings.TrimSpace(r.SubjectB) == "" {
		return fmt.Errorf("subject B: %w", ErrEmptyPattern)
	}
	return nil
}

// SameSubjects reports whether two rules forbid the same pair, in either order.
func (r *Rule) SameSubjects(other *Rule) bool {
	a, b := strings.ToLower(r.SubjectA), strings.ToLower(r.SubjectB)
	oa, ob := strings.ToLower(other.SubjectA), strings.ToLower(other.SubjectB)
	return (a == oa && b == ob) || (a == ob && b == oa)
}

func (r *Rule) String() string {
	return r.SubjectA + " / " + r.SubjectB
}

// RuleStore is the persistence collaborator for rules.
type RuleStore interface {
	CreateRule(ctx context.Context, r *Rule) error
	ListRules(ctx context.Context) ([]Rule, error)
	UpdateRule(ctx context.Context, r *Rule) error
	DeleteRule(ctx context.Context, id string) error
}
