// Package autosave persists board changes in the background.
//
// Every committed mutation marks its scope dirty and restarts a debounce
// timer. When the timer fires, dirty scopes are saved and the board is
// reconciled with the canonical list the repository returns. Failed scopes
// stay dirty and are retried on a cron schedule. Saving never takes the
// board lock for longer than a snapshot, so it never blocks a gesture.
package autosave

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/javiermolinar/rocinante/internal/interval"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 1500 * time.Millisecond

// DefaultRetry is used when Options.Retry is nil.
const DefaultRetry = "@every 30s"

// Notice reports the outcome of one scope save.
type Notice struct {
	Scope   string
	Err     error // nil on success
	Attempt int   // 1 for the first try
	Saved   int   // intervals in the canonical list
}

// Options configures a Saver.
type Options struct {
	Debounce time.Duration
	Retry    cron.Schedule

	// Busy reports scopes an interactive gesture is using. They are neither
	// saved nor reconciled until the gesture ends.
	Busy func() []string

	Logger *zap.Logger
}

// Saver persists dirty board scopes through a repository.
type Saver struct {
	board *interval.Board
	repo  interval.Repository
	opts  Options
	log   *zap.Logger

	mu       sync.Mutex
	dirty    map[string]int // scope -> failed attempts
	timer    *time.Timer
	ctx      context.Context
	cancel   context.CancelFunc
	cron     *cron.Cron
	notices  chan Notice
	started  bool
	flushing sync.Mutex
}

// New creates a Saver. It does nothing until Start.
func New(board *interval.Board, repo interval.Repository, opts Options) *Saver {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Retry == nil {
		opts.Retry, _ = cron.ParseStandard(DefaultRetry)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saver{
		board:   board,
		repo:    repo,
		opts:    opts,
		log:     logger.Named("autosave"),
		dirty:   make(map[string]int),
		notices: make(chan Notice, 16),
	}
}

// Notices delivers save outcomes. Notices are dropped when nobody reads.
func (s *Saver) Notices() <-chan Notice {
	return s.notices
}

// Start hooks the board and starts the retry schedule.
func (s *Saver) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = cron.New(cron.WithLogger(cronLogger{s.log.Sugar()}))
	s.cron.Schedule(s.opts.Retry, cron.FuncJob(s.retry))
	s.cron.Start()
	s.mu.Unlock()

	s.board.OnChange(s.MarkDirty)
}

// Stop unhooks the board, stops the schedule and saves what is still dirty.
func (s *Saver) Stop(ctx context.Context) error {
	s.board.OnChange(nil)

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	c := s.cron
	s.mu.Unlock()

	<-c.Stop().Done()
	err := s.Flush(ctx)
	s.cancel()
	return err
}

// MarkDirty queues a scope and restarts the debounce timer.
func (s *Saver) MarkDirty(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dirty[scope]; !ok {
		s.dirty[scope] = 0
	}
	if !s.started {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Debounce, func() {
		_ = s.Flush(s.ctx)
	})
}

// Pending returns the dirty scopes in order.
func (s *Saver) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	scopes := make([]string, 0, len(s.dirty))
	for scope := range s.dirty {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

func (s *Saver) retry() {
	if len(s.Pending()) == 0 {
		return
	}
	s.log.Debug("retrying dirty scopes")
	_ = s.Flush(s.ctx)
}

// Flush saves every dirty scope that no gesture is using. It returns the
// last save error; failed scopes stay dirty.
func (s *Saver) Flush(ctx context.Context) error {
	s.flushing.Lock()
	defer s.flushing.Unlock()

	var busy []string
	if s.opts.Busy != nil {
		busy = s.opts.Busy()
	}

	var lastErr error
	for _, scope := range s.Pending() {
		if slices.Contains(busy, scope) {
			s.log.Debug("deferring busy scope", zap.String("scope", scope))
			continue
		}
		if err := s.saveScope(ctx, scope); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (s *Saver) saveScope(ctx context.Context, scope string) error {
	date, ok := s.board.ScopeDate(scope)
	if !ok {
		s.clear(scope)
		return nil
	}

	version := s.board.Version(scope)
	ivs := s.board.Intervals(date)

	canonical, err := s.repo.Save(ctx, date, ivs)
	if err != nil {
		attempt := s.fail(scope)
		s.log.Warn("save failed",
			zap.String("scope", scope),
			zap.Int("attempt", attempt),
			zap.Error(err))
		s.notify(Notice{Scope: scope, Err: err, Attempt: attempt})
		return err
	}

	attempt := s.attempts(scope) + 1

	// a newer edit landed while saving; it is already dirty again and the
	// next save reconciles it
	if s.board.Version(scope) != version {
		s.log.Debug("scope changed during save", zap.String("scope", scope))
		return nil
	}
	if s.opts.Busy != nil && slices.Contains(s.opts.Busy(), scope) {
		return nil
	}

	if s.board.Reconcile(date, canonical) {
		s.log.Debug("reconciled scope", zap.String("scope", scope), zap.Int("intervals", len(canonical)))
	}
	s.clear(scope)
	s.notify(Notice{Scope: scope, Attempt: attempt, Saved: len(canonical)})
	return nil
}

func (s *Saver) fail(scope string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[scope]++
	return s.dirty[scope]
}

func (s *Saver) attempts(scope string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty[scope]
}

func (s *Saver) clear(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dirty, scope)
}

func (s *Saver) notify(n Notice) {
	select {
	case s.notices <- n:
	default:
		s.log.Debug("notice dropped", zap.String("scope", n.Scope))
	}
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
