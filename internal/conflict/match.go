package conflict

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single match; patterns with many wildcards can
// backtrack on long labels.
const matchTimeout = 50 * time.Millisecond

// Matcher is a compiled wildcard pattern.
type Matcher struct {
	pattern string
	re      *regexp2.Regexp
}

// Compile turns a wildcard pattern into a matcher. Every character except
// '*' is literal; '*' matches any sequence. Matching is anchored to the
// whole text and case-insensitive.
func Compile(pattern string) (*Matcher, error) {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp2.Escape(p)
	}
	expr := "^(?:" + strings.Join(parts, ".*") + ")$"

	re, err := regexp2.Compile(expr, regexp2.IgnoreCase|regexp2.Singleline)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout
	return &Matcher{pattern: pattern, re: re}, nil
}

// Pattern returns the source pattern.
func (m *Matcher) Pattern() string { return m.pattern }

// Match reports whether text matches the pattern. A match that times out
// counts as no match.
func (m *Matcher) Match(text string) bool {
	ok, err := m.re.MatchString(text)
	return err == nil && ok
}

// MatchPattern compiles pattern and matches it against text.
// Use an Engine when the same pattern is checked repeatedly.
func MatchPattern(pattern, text string) bool {
	m, err := Compile(pattern)
	if err != nil {
		return false
	}
	return m.Match(text)
}
