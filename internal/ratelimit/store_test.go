package ratelimit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-enhance/internal/ratelimit"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fakeClock is a manually advanced clock. Its sleeper advances time instead
// of blocking and records every requested duration.
type fakeClock struct {
	mu    sync.Mutex
	t     time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
	return nil
}

func (c *fakeClock) TotalSlept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total time.Duration
	for _, d := range c.slept {
		total += d
	}
	return total
}

func newStore(c *fakeClock) *ratelimit.Store {
	return ratelimit.New(ratelimit.WithClock(c.Now), ratelimit.WithSleeper(c.Sleep))
}

var testKey = ratelimit.Key{Provider: "openai", Model: "gpt-4o-mini"}

// ---------------------------------------------------------------------------
// TestCanMakeRequest
// ---------------------------------------------------------------------------

func TestCanMakeRequest(t *testing.T) {
	t.Parallel()

	t.Run("unlimited key always allows", func(t *testing.T) {
		t.Parallel()

		c := newFakeClock()
		s := newStore(c)
		for range 100 {
			if !s.CanMakeRequest(testKey, ratelimit.Limits{}, 10_000) {
				t.Fatal("unlimited key refused a request")
			}
			s.RecordRequest(testKey, ratelimit.Limits{}, 10_000)
		}
	})

	t.Run("spacing from requests per minute", func(t *testing.T) {
		t.Parallel()

		c := newFakeClock()
		s := newStore(c)
		limits := ratelimit.Limits{RequestsPerMinute: 60}

		s.RecordRequest(testKey, limits, 0)
		if s.CanMakeRequest(testKey, limits, 0) {
			t.Error("request allowed before spacing elapsed")
		}
		if got := s.WaitTime(testKey); got != time.Second {
			t.Errorf("WaitTime() = %v, want 1s", got)
		}
		c.Advance(time.Second)
		if !s.CanMakeRequest(testKey, limits, 0) {
			t.Error("request refused after spacing elapsed")
		}
		if got := s.WaitTime(testKey); got != 0 {
			t.Errorf("WaitTime() = %v, want 0", got)
		}
	})

	t.Run("token quota resets after a window", func(t *testing.T) {
		t.Parallel()

		c := newFakeClock()
		s := newStore(c)
		limits := ratelimit.Limits{TokensPerMinute: 100}

		s.RecordRequest(testKey, limits, 80)
		if s.CanMakeRequest(testKey, limits, 30) {
			t.Error("request over token quota allowed")
		}
		if !s.CanMakeRequest(testKey, limits, 20) {
			t.Error("request within token quota refused")
		}
		c.Advance(ratelimit.Window - time.Millisecond)
		if s.CanMakeRequest(testKey, limits, 30) {
			t.Error("quota reset before a full window")
		}
		c.Advance(time.Millisecond)
		if !s.CanMakeRequest(testKey, limits, 30) {
			t.Error("quota not reset after a full window")
		}
		b, ok := s.Snapshot(testKey)
		if !ok || b.Requests != 0 || b.Tokens != 0 {
			t.Errorf("Snapshot() = %+v, %v; want reset counts", b, ok)
		}
	})

	t.Run("request count quota", func(t *testing.T) {
		t.Parallel()

		c := newFakeClock()
		s := newStore(c)
		limits := ratelimit.Limits{RequestsPerMinute: 2}

		s.RecordRequest(testKey, limits, 0)
		c.Advance(30 * time.Second)
		s.RecordRequest(testKey, limits, 0)
		c.Advance(30 * time.Second)
		if s.CanMakeRequest(testKey, limits, 0) {
			t.Error("third request in window allowed")
		}
		c.Advance(30 * time.Second)
		if !s.CanMakeRequest(testKey, limits, 0) {
			t.Error("request refused after window reset")
		}
	})

	t.Run("oversized estimate passes on an empty window", func(t *testing.T) {
		t.Parallel()

		s := newStore(newFakeClock())
		if !s.CanMakeRequest(testKey, ratelimit.Limits{TokensPerMinute: 100}, 500) {
			t.Error("oversized estimate refused on empty window")
		}
	})
}

// ---------------------------------------------------------------------------
// TestRecordRequest
// ---------------------------------------------------------------------------

func TestRecordRequest_NextAvailableNeverDecreases(t *testing.T) {
	t.Parallel()

	c := newFakeClock()
	s := newStore(c)
	start := c.Now()

	s.RecordRequest(testKey, ratelimit.Limits{RequestsPerMinute: 10}, 5)
	b, _ := s.Snapshot(testKey)
	if want := start.Add(6 * time.Second); !b.NextAvailable.Equal(want) {
		t.Fatalf("NextAvailable = %v, want %v", b.NextAvailable, want)
	}

	// A looser limit recorded later must not pull NextAvailable back.
	c.Advance(time.Second)
	s.RecordRequest(testKey, ratelimit.Limits{RequestsPerMinute: 60}, 5)
	b, _ = s.Snapshot(testKey)
	if want := start.Add(6 * time.Second); !b.NextAvailable.Equal(want) {
		t.Errorf("NextAvailable = %v, want unchanged %v", b.NextAvailable, want)
	}
	if b.Requests != 2 || b.Tokens != 10 {
		t.Errorf("counts = %d requests / %d tokens, want 2 / 10", b.Requests, b.Tokens)
	}
	if !b.LastRequest.Equal(start.Add(time.Second)) {
		t.Errorf("LastRequest = %v, want %v", b.LastRequest, start.Add(time.Second))
	}

	prev := b.NextAvailable
	for i := range 20 {
		c.Advance(time.Duration(i) * 700 * time.Millisecond)
		s.RecordRequest(testKey, ratelimit.Limits{RequestsPerMinute: 1 + i%7}, 1)
		b, _ = s.Snapshot(testKey)
		if b.NextAvailable.Before(prev) {
			t.Fatalf("record %d: NextAvailable went from %v to %v", i, prev, b.NextAvailable)
		}
		prev = b.NextAvailable
	}
}

func TestStore_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	c := newFakeClock()
	s := newStore(c)
	other := ratelimit.Key{Provider: "deepseek", Model: "deepseek-chat"}
	limits := ratelimit.Limits{RequestsPerMinute: 1}

	s.RecordRequest(testKey, limits, 0)
	if !s.CanMakeRequest(other, limits, 0) {
		t.Error("unrelated key throttled")
	}
	if _, ok := s.Snapshot(ratelimit.Key{Provider: "gemini", Model: "x"}); ok {
		t.Error("Snapshot reported a budget for an unseen key")
	}
}

func TestStore_ConcurrentRecords(t *testing.T) {
	t.Parallel()

	s := newStore(newFakeClock())
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			s.RecordRequest(testKey, ratelimit.Limits{}, 2)
		})
	}
	wg.Wait()

	b, _ := s.Snapshot(testKey)
	if b.Requests != 50 || b.Tokens != 100 {
		t.Errorf("counts = %d / %d, want 50 / 100", b.Requests, b.Tokens)
	}
}

// ---------------------------------------------------------------------------
// TestWait
// ---------------------------------------------------------------------------

func TestWait(t *testing.T) {
	t.Parallel()

	t.Run("returns immediately when allowed", func(t *testing.T) {
		t.Parallel()

		c := newFakeClock()
		s := newStore(c)
		if err := s.Wait(context.Background(), testKey, ratelimit.Limits{RequestsPerMinute: 1}, 0); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if c.TotalSlept() != 0 {
			t.Errorf("slept %v, want 0", c.TotalSlept())
		}
	})

	t.Run("sleeps until next available", func(t *testing.T) {
		t.Parallel()

		c := newFakeClock()
		s := newStore(c)
		limits := ratelimit.Limits{RequestsPerMinute: 30}
		s.RecordRequest(testKey, limits, 0)

		if err := s.Wait(context.Background(), testKey, limits, 0); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if got := c.TotalSlept(); got != 2*time.Second {
			t.Errorf("slept %v, want 2s", got)
		}
	})

	t.Run("sleeps until window reset when quota exhausted", func(t *testing.T) {
		t.Parallel()

		c := newFakeClock()
		s := newStore(c)
		limits := ratelimit.Limits{TokensPerMinute: 1000}
		s.RecordRequest(testKey, limits, 900)
		c.Advance(10 * time.Second)

		if err := s.Wait(context.Background(), testKey, limits, 500); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if got := c.TotalSlept(); got != 50*time.Second {
			t.Errorf("slept %v, want 50s", got)
		}
		if !s.CanMakeRequest(testKey, limits, 500) {
			t.Error("request still refused after Wait returned")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		c := newFakeClock()
		s := newStore(c)
		limits := ratelimit.Limits{RequestsPerMinute: 1}
		s.RecordRequest(testKey, limits, 0)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := s.Wait(ctx, testKey, limits, 0)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Wait() error = %v, want context.Canceled", err)
		}
	})

	t.Run("real sleeper honours cancellation", func(t *testing.T) {
		t.Parallel()

		s := ratelimit.New()
		limits := ratelimit.Limits{RequestsPerMinute: 1}
		s.RecordRequest(testKey, limits, 0)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := s.Wait(ctx, testKey, limits, 0)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
		}
	})
}
