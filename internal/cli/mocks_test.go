package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-enhance/internal/capability"
	"github.com/alnah/go-enhance/internal/config"
	"github.com/alnah/go-enhance/internal/model"
	"github.com/alnah/go-enhance/internal/ratelimit"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	cfg config.Config
	err error
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	return m.cfg, m.err
}

// ---------------------------------------------------------------------------
// Mock CapabilityFactory + Capability
// ---------------------------------------------------------------------------

type mockCapability struct {
	// EnhanceFunc overrides the default behavior, which upper-cases the text.
	EnhanceFunc func(ctx context.Context, c capability.Call) (capability.Response, error)

	mu    sync.Mutex
	calls []capability.Call
}

func (m *mockCapability) Enhance(ctx context.Context, c capability.Call) (capability.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()

	if m.EnhanceFunc != nil {
		return m.EnhanceFunc(ctx, c)
	}
	return capability.Response{
		Text:  strings.ToUpper(c.Text),
		Usage: capability.Usage{PromptTokens: 20, CompletionTokens: 10},
	}, nil
}

func (m *mockCapability) Calls() []capability.Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]capability.Call(nil), m.calls...)
}

type mockCapabilityFactory struct {
	capability *mockCapability
	err        error

	mu       sync.Mutex
	provider model.Provider
	apiKey   string
	created  int
}

func (f *mockCapabilityFactory) New(_ context.Context, p model.Provider, apiKey string, _ *slog.Logger) (capability.Capability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provider, f.apiKey = p, apiKey
	f.created++
	if f.err != nil {
		return nil, f.err
	}
	return f.capability, nil
}

// Compile-time interface verification.
var (
	_ ConfigLoader          = (*mockConfigLoader)(nil)
	_ CapabilityFactory     = (*mockCapabilityFactory)(nil)
	_ capability.Capability = (*mockCapability)(nil)
)

// ---------------------------------------------------------------------------
// fakeClock - drives both the rate limiter and elapsed-time measurement
// ---------------------------------------------------------------------------

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

// ---------------------------------------------------------------------------
// testEnv - an Env wired with mocks
// ---------------------------------------------------------------------------

type testEnv struct {
	env        *Env
	stdout     *syncBuffer
	stderr     *syncBuffer
	loader     *mockConfigLoader
	factory    *mockCapabilityFactory
	capability *mockCapability
	vars       map[string]string
}

func newTestEnv() *testEnv {
	clock := newFakeClock()
	te := &testEnv{
		stdout:     &syncBuffer{},
		stderr:     &syncBuffer{},
		loader:     &mockConfigLoader{},
		capability: &mockCapability{},
		vars: map[string]string{
			"OPENAI_API_KEY":   "sk-openai",
			"DEEPSEEK_API_KEY": "sk-deepseek",
			"GEMINI_API_KEY":   "gm-key",
		},
	}
	te.factory = &mockCapabilityFactory{capability: te.capability}
	te.env = NewEnv(
		WithStdout(te.stdout),
		WithStderr(te.stderr),
		WithGetenv(func(k string) string { return te.vars[k] }),
		WithNow(clock.Now),
		WithConfigLoader(te.loader),
		WithCapabilityFactory(te.factory),
		WithLimiter(ratelimit.New(ratelimit.WithClock(clock.Now), ratelimit.WithSleeper(clock.Sleep))),
	)
	return te
}
