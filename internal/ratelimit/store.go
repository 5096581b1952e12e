// Package ratelimit keeps per provider/model request and token budgets and
// suspends callers until a budget allows another request.
//
// A Store is meant to be created once per process and shared by every run
// that talks to the same providers.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Window is the accounting period for request and token counts.
const Window = time.Minute

// minSleep bounds the wait between two budget checks.
const minSleep = 10 * time.Millisecond

// Key identifies one budget.
type Key struct {
	Provider string
	Model    string
}

func (k Key) String() string {
	return k.Provider + "/" + k.Model
}

// Limits are the per-minute quotas of a model. Zero disables a dimension.
type Limits struct {
	RequestsPerMinute int
	TokensPerMinute   int
}

// Budget is the usage recorded for one Key.
type Budget struct {
	Requests      int
	Tokens        int
	LastRequest   time.Time
	NextAvailable time.Time
}

// Sleeper suspends the caller for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source. Tests use it with a fake clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSleeper replaces the timer-based sleep used by Wait.
func WithSleeper(sleep Sleeper) Option {
	return func(s *Store) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// WithLogger sets the logger used for wait diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store holds the budgets of every Key seen so far.
// Keys are independent: each has its own lock.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry

	now    func() time.Time
	sleep  Sleeper
	logger *slog.Logger
}

type entry struct {
	mu     sync.Mutex
	budget Budget
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[Key]*entry),
		now:     time.Now,
		sleep:   sleepCtx,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) get(key Key) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	return e
}

// CanMakeRequest reports whether a request estimated at estimatedTokens fits
// the budget of key right now.
func (s *Store) CanMakeRequest(key Key, limits Limits, estimatedTokens int) bool {
	e := s.get(key)
	now := s.now()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset(now)
	return e.allowed(limits, estimatedTokens, now)
}

// RecordRequest accounts for a completed request that used tokens.
// NextAvailable only moves forward.
func (s *Store) RecordRequest(key Key, limits Limits, tokens int) {
	e := s.get(key)
	now := s.now()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset(now)

	b := &e.budget
	b.Requests++
	b.Tokens += max(tokens, 0)
	b.LastRequest = now
	if limits.RequestsPerMinute > 0 {
		next := now.Add(Window / time.Duration(limits.RequestsPerMinute))
		if next.After(b.NextAvailable) {
			b.NextAvailable = next
		}
	}
}

// WaitTime returns how long until key accepts its next request, ignoring
// per-window quotas.
func (s *Store) WaitTime(key Key) time.Duration {
	e := s.get(key)
	now := s.now()

	e.mu.Lock()
	defer e.mu.Unlock()
	return max(e.budget.NextAvailable.Sub(now), 0)
}

// Wait blocks until CanMakeRequest would hold for key, or ctx is done.
// It returns ctx.Err() on cancellation and nil otherwise.
// Wait does not reserve the budget: call RecordRequest once the request completes.
func (s *Store) Wait(ctx context.Context, key Key, limits Limits, estimatedTokens int) error {
	e := s.get(key)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := s.now()
		e.mu.Lock()
		e.reset(now)
		if e.allowed(limits, estimatedTokens, now) {
			e.mu.Unlock()
			return nil
		}
		d := e.budget.NextAvailable.Sub(now)
		if e.exhausted(limits, estimatedTokens) {
			d = max(d, e.budget.LastRequest.Add(Window).Sub(now))
		}
		e.mu.Unlock()

		d = max(d, minSleep)
		s.logger.Debug("rate limit wait", "key", key.String(), "wait", d)
		if err := s.sleep(ctx, d); err != nil {
			return err
		}
	}
}

// Snapshot returns a copy of the budget of key, if any.
func (s *Store) Snapshot(key Key) (Budget, bool) {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return Budget{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.budget, true
}

// reset clears the counts once a full window has passed since the last request.
// Callers hold e.mu.
func (e *entry) reset(now time.Time) {
	b := &e.budget
	if b.LastRequest.IsZero() || now.Sub(b.LastRequest) < Window {
		return
	}
	b.Requests = 0
	b.Tokens = 0
}

// exhausted reports whether the window quota rejects the request.
// An estimate larger than the whole token quota is let through on an empty window.
func (e *entry) exhausted(limits Limits, estimatedTokens int) bool {
	b := e.budget
	if limits.RequestsPerMinute > 0 && b.Requests >= limits.RequestsPerMinute {
		return true
	}
	if limits.TokensPerMinute > 0 && b.Tokens > 0 && b.Tokens+estimatedTokens > limits.TokensPerMinute {
		return true
	}
	return false
}

func (e *entry) allowed(limits Limits, estimatedTokens int, now time.Time) bool {
	if e.exhausted(limits, estimatedTokens) {
		return false
	}
	return !now.Before(e.budget.NextAvailable)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
