package conflict

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/javiermolinar/rocinante/internal/interval"
)

// ErrRestrictionConflict is wrapped by every *Conflict.
var ErrRestrictionConflict = errors.New("restriction conflict")

// Conflict describes a rule violation between two overlapping intervals.
type Conflict struct {
	Candidate *interval.Interval
	Existing  *interval.Interval
	Rule      Rule
	Start     int // overlap window, minutes
	End       int
}

func (c *Conflict) Error() string {
	return fmt.Sprintf("%q cannot overlap %q (%s-%s, rule %s)",
		c.Candidate.Label, c.Existing.Label,
		interval.FormatMinutes(c.Start), interval.FormatMinutes(c.End),
		c.Rule.String())
}

// Unwrap lets callers test with errors.Is(err, ErrRestrictionConflict).
func (c *Conflict) Unwrap() error {
	return ErrRestrictionConflict
}

type compiledRule struct {
	rule Rule
	a, b *Matcher
}

// matches reports whether the pair of labels matches the rule in either order.
func (c compiledRule) matches(x, y string) bool {
	return (c.a.Match(x) && c.b.Match(y)) || (c.a.Match(y) && c.b.Match(x))
}

// Engine evaluates a rule set. Each pattern is compiled once and reused
// across SetRules calls. Evaluation never mutates its inputs.
type Engine struct {
	mu       sync.RWMutex
	rules    []compiledRule
	matchers map[string]*Matcher
}

// NewEngine creates an engine for the given rules.
func NewEngine(rules ...Rule) (*Engine, error) {
	e := &Engine{matchers: make(map[string]*Matcher)}
	if err := e.SetRules(rules); err != nil {
		return nil, err
	}
	return e, nil
}

// SetRules replaces the rule set. On error the previous set is kept.
func (e *Engine) SetRules(rules []Rule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %s: %w", r.ID, err)
		}
		a, err := e.matcherLocked(r.SubjectA)
		if err != nil {
			return err
		}
		b, err := e.matcherLocked(r.SubjectB)
		if err != nil {
			return err
		}
		compiled = append(compiled, compiledRule{rule: r, a: a, b: b})
	}
	e.rules = compiled
	return nil
}

func (e *Engine) matcherLocked(pattern string) (*Matcher, error) {
	if m, ok := e.matchers[pattern]; ok {
		return m, nil
	}
	m, err := Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", pattern, err)
	}
	e.matchers[pattern] = m
	return m, nil
}

// Rules returns the current rules.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, len(e.rules))
	for i, c := range e.rules {
		out[i] = c.rule
	}
	return out
}

// MatchLabels returns the first rule forbidding the two labels from
// overlapping, ignoring time.
func (e *Engine) MatchLabels(x, y string) (Rule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, c := range e.rules {
		if c.matches(x, y) {
			return c.rule, true
		}
	}
	return Rule{}, false
}

// ConflictsWith reports whether candidate and existing share a day,
// overlap in time, and are forbidden by some rule. It is symmetric.
func (e *Engine) ConflictsWith(candidate, existing *interval.Interval) bool {
	_, ok := e.check(candidate, existing)
	return ok
}

func (e *Engine) check(candidate, existing *interval.Interval) (Rule, bool) {
	if candidate == nil || existing == nil || !candidate.OverlapsWith(existing) {
		return Rule{}, false
	}
	return e.MatchLabels(candidate.Label, existing.Label)
}

// EvaluatePlacement checks candidate against every interval in all and
// returns the first conflict in (start, id) order, or nil.
// An interval with the candidate's id is its prior instance and is skipped,
// so moving an interval over its old position never conflicts.
func (e *Engine) EvaluatePlacement(candidate *interval.Interval, all []*interval.Interval) *Conflict {
	ordered := slices.DeleteFunc(slices.Clone(all), func(iv *interval.Interval) bool {
		return iv == nil || (candidate.ID != 0 && iv.ID == candidate.ID)
	})
	interval.SortCanonical(ordered)

	for _, existing := range ordered {
		rule, ok := e.check(candidate, existing)
		if !ok {
			continue
		}
		return &Conflict{
			Candidate: candidate.Clone(),
			Existing:  existing.Clone(),
			Rule:      rule,
			Start:     max(candidate.Start, existing.Start),
			End:       min(candidate.End, existing.End),
		}
	}
	return nil
}

// ConflictsWith checks one pair against rules without keeping an engine.
func ConflictsWith(candidate, existing *interval.Interval, rules []Rule) bool {
	e, err := NewEngine(rules...)
	if err != nil {
		return false
	}
	return e.ConflictsWith(candidate, existing)
}
