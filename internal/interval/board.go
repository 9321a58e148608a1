package interval

import (
	"slices"
	"sort"
	"sync"
	"time"
)

const boardDefaultMaxHistory = 50

// boardHistoryEntry stores the scopes touched by one mutation, as they were
// before it.
type boardHistoryEntry struct {
	description string
	scopes      map[string][]*Interval
}

// Board is the committed interval collection.
//
// Every mutation is applied under one lock, so readers (the renderer, the
// autosave goroutine) see either the old or the new state, never a partial
// one. Callers get clones; the stored intervals are never shared.
type Board struct {
	mu       sync.RWMutex
	scopes   map[string][]*Interval
	dates    map[string]time.Time
	versions map[string]uint64
	localID  int64

	history    []boardHistoryEntry
	maxHistory int

	onChange func(scope string)
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		scopes:     make(map[string][]*Interval),
		dates:      make(map[string]time.Time),
		versions:   make(map[string]uint64),
		maxHistory: boardDefaultMaxHistory,
	}
}

// OnChange registers a hook called after every committed mutation,
// once per touched scope. The hook runs outside the board lock.
func (b *Board) OnChange(fn func(scope string)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Load replaces a scope with intervals read from storage.
// It does not record history and does not fire the change hook.
func (b *Board) Load(date time.Time, ivs []*Interval) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replaceLocked(date, ivs)
}

// LoadRange loads intervals spread over several dates, one scope per date.
// Every date in [start, end] is reset, including dates without intervals.
func (b *Board) LoadRange(start, end time.Time, ivs []*Interval) {
	byScope := make(map[string][]*Interval)
	for _, iv := range ivs {
		key := ScopeKey(iv.Date)
		byScope[key] = append(byScope[key], iv)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for d := truncateToDay(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		b.replaceLocked(d, byScope[ScopeKey(d)])
	}
}

func (b *Board) replaceLocked(date time.Time, ivs []*Interval) {
	key := ScopeKey(date)
	list := make([]*Interval, 0, len(ivs))
	for _, iv := range ivs {
		c := iv.Clone()
		c.Date = truncateToDay(date)
		list = append(list, c)
	}
	SortCanonical(list)
	b.scopes[key] = list
	b.dates[key] = truncateToDay(date)
	b.versions[key]++
}

// Intervals returns clones of the intervals on a date in canonical order.
func (b *Board) Intervals(date time.Time) []*Interval {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneAll(b.scopes[ScopeKey(date)])
}

// All returns clones of every interval on the board, ordered by date then
// canonical order.
func (b *Board) All() []*Interval {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.scopes))
	for k := range b.scopes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var result []*Interval
	for _, k := range keys {
		result = append(result, cloneAll(b.scopes[k])...)
	}
	return result
}

// Day returns a Day view of the given date.
func (b *Board) Day(date time.Time) *Day {
	return NewDayWithIntervals(date, b.Intervals(date))
}

// Week returns a Week view containing the given date.
func (b *Board) Week(date time.Time) *Week {
	w := NewWeek(date)
	for _, d := range w.Days {
		for _, iv := range b.Intervals(d.Date) {
			d.Add(iv)
		}
	}
	return w
}

// Get returns a clone of the interval with the given id.
func (b *Board) Get(id int64) (*Interval, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, _, iv := b.findLocked(id)
	if iv == nil {
		return nil, false
	}
	return iv.Clone(), true
}

// Version returns the mutation counter of a scope.
func (b *Board) Version(scope string) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.versions[scope]
}

// ScopeDate returns the date a scope key stands for.
func (b *Board) ScopeDate(scope string) (time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	d, ok := b.dates[scope]
	return d, ok
}

// Insert validates and commits a new interval, assigning it a local id.
// Local ids are negative so they never collide with ids handed out by
// storage, which are positive. The stored copy is returned.
func (b *Board) Insert(iv *Interval) (*Interval, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	c := iv.Clone()
	c.Date = truncateToDay(c.Date)
	b.localID--
	c.ID = b.localID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	key := ScopeKey(c.Date)
	b.pushHistoryLocked("Add: "+c.Label, key)
	b.dates[key] = c.Date
	list := append(slices.Clone(b.scopes[key]), c)
	SortCanonical(list)
	b.scopes[key] = list
	b.versions[key]++
	hook := b.onChange
	b.mu.Unlock()

	notify(hook, key)
	return c.Clone(), nil
}

// Update replaces the stored interval with the same id. The interval may
// move to another date; both scopes change in the same step.
func (b *Board) Update(iv *Interval) error {
	if err := iv.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	oldKey, idx, old := b.findLocked(iv.ID)
	if old == nil {
		b.mu.Unlock()
		return ErrIntervalNotFound
	}

	c := iv.Clone()
	c.Date = truncateToDay(c.Date)
	c.CreatedAt = old.CreatedAt
	newKey := ScopeKey(c.Date)

	b.pushHistoryLocked("Move: "+c.Label, oldKey, newKey)
	b.scopes[oldKey] = slices.Delete(slices.Clone(b.scopes[oldKey]), idx, idx+1)
	b.dates[newKey] = c.Date
	list := append(slices.Clone(b.scopes[newKey]), c)
	SortCanonical(list)
	b.scopes[newKey] = list
	b.versions[oldKey]++
	if newKey != oldKey {
		b.versions[newKey]++
	}
	hook := b.onChange
	b.mu.Unlock()

	notify(hook, oldKey)
	if newKey != oldKey {
		notify(hook, newKey)
	}
	return nil
}

// Remove deletes an interval by id and returns the removed copy.
func (b *Board) Remove(id int64) (*Interval, error) {
	b.mu.Lock()
	key, idx, old := b.findLocked(id)
	if old == nil {
		b.mu.Unlock()
		return nil, ErrIntervalNotFound
	}
	b.pushHistoryLocked("Delete: "+old.Label, key)
	b.scopes[key] = slices.Delete(slices.Clone(b.scopes[key]), idx, idx+1)
	b.versions[key]++
	hook := b.onChange
	b.mu.Unlock()

	notify(hook, key)
	return old.Clone(), nil
}

// CanUndo returns true if there is a mutation to undo.
func (b *Board) CanUndo() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.history) > 0
}

// Undo reverts the last committed mutation and returns its description.
func (b *Board) Undo() (string, error) {
	b.mu.Lock()
	if len(b.history) == 0 {
		b.mu.Unlock()
		return "", ErrNothingToUndo
	}

	entry := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]

	keys := make([]string, 0, len(entry.scopes))
	for key, ivs := range entry.scopes {
		b.scopes[key] = ivs
		b.versions[key]++
		keys = append(keys, key)
	}
	sort.Strings(keys)
	hook := b.onChange
	b.mu.Unlock()

	for _, key := range keys {
		notify(hook, key)
	}
	return entry.description, nil
}

// Reconcile replaces a scope with the canonical list returned by storage,
// but only when the two differ field by field. It reports whether the board
// changed. Reconciling never records history or fires the change hook.
func (b *Board) Reconcile(date time.Time, canonical []*Interval) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := ScopeKey(date)
	current := b.scopes[key]
	if sameIntervals(current, canonical) {
		return false
	}

	b.replaceLocked(date, canonical)

	// history snapshots still reference the pre-save ids; drop them for
	// this scope so an undo cannot resurrect stale rows
	b.dropHistoryLocked(key)
	return true
}

func (b *Board) pushHistoryLocked(description string, keys ...string) {
	if len(b.history) >= b.maxHistory {
		b.history = b.history[1:]
	}
	entry := boardHistoryEntry{description: description, scopes: make(map[string][]*Interval)}
	for _, k := range keys {
		if _, seen := entry.scopes[k]; seen {
			continue
		}
		// stored slices are replaced, never mutated in place, so the
		// current slice is a valid snapshot
		entry.scopes[k] = b.scopes[k]
	}
	b.history = append(b.history, entry)
}

func (b *Board) dropHistoryLocked(key string) {
	kept := b.history[:0]
	for _, e := range b.history {
		if _, ok := e.scopes[key]; !ok {
			kept = append(kept, e)
		}
	}
	b.history = kept
}

func (b *Board) findLocked(id int64) (scope string, idx int, iv *Interval) {
	for key, list := range b.scopes {
		for i, candidate := range list {
			if candidate.ID == id {
				return key, i, candidate
			}
		}
	}
	return "", -1, nil
}

func sameIntervals(a, b []*Interval) bool {
	if len(a) != len(b) {
		return false
	}
	sa := cloneAll(a)
	sb := cloneAll(b)
	SortCanonical(sa)
	SortCanonical(sb)
	for i := range sa {
		if !sa[i].Equal(sb[i]) {
			return false
		}
	}
	return true
}

func cloneAll(ivs []*Interval) []*Interval {
	result := make([]*Interval, len(ivs))
	for i, iv := range ivs {
		result[i] = iv.Clone()
	}
	return result
}

func notify(hook func(string), scope string) {
	if hook != nil {
		hook(scope)
	}
}
