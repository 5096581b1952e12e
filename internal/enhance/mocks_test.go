package enhance_test

import (
	"context"
	"sync"
	"time"

	"github.com/alnah/go-enhance/internal/capability"
)

// mockCapability records calls and answers through a handler.
// The default handler echoes the input text.
type mockCapability struct {
	mu      sync.Mutex
	calls   []capability.Call
	handler func(call capability.Call, n int) (capability.Response, error)
}

func (m *mockCapability) Enhance(_ context.Context, call capability.Call) (capability.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	n := len(m.calls)
	h := m.handler
	m.mu.Unlock()

	if h == nil {
		return capability.Response{Text: call.Text, Usage: capability.Usage{PromptTokens: 10, CompletionTokens: 5}}, nil
	}
	return h(call, n)
}

func (m *mockCapability) Calls() []capability.Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]capability.Call(nil), m.calls...)
}

// fakeClock is shared by the Enhancer and the rate-limit store.
type fakeClock struct {
	mu    sync.Mutex
	t     time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
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
	c.t = c.t.Add(d)
	c.slept += d
	return nil
}

func (c *fakeClock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept
}
