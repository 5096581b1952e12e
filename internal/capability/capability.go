// Package capability wraps generative-text providers behind one interface.
//
// Adapters classify provider failures into the apierr sentinels and retry
// transport-level failures (timeouts, 5xx). Provider throttling (429) is
// returned as apierr.ErrRateLimit without retry.
package capability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alnah/go-enhance/internal/model"
)

// Capability turns text plus instructions into enhanced text.
type Capability interface {
	Enhance(ctx context.Context, call Call) (Response, error)
}

// Call is one request to a provider.
type Call struct {
	Text         string
	Instructions string
	Model        string
	// MaxTokens caps the completion length. Zero leaves the provider default.
	MaxTokens   int
	Temperature float32
}

// Usage reports the tokens a call consumed.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Total returns prompt plus completion tokens.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
	}
}

// Response is a provider answer.
type Response struct {
	Text  string
	Usage Usage
}

// Defaults shared by the adapters.
const (
	defaultMaxRetries  = 2
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 10 * time.Second
	defaultHTTPTimeout = 5 * time.Minute
)

// settings collects adapter options.
type settings struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return s
}

// Option configures an adapter.
type Option func(*settings)

// WithBaseURL sets a custom API endpoint (proxies, tests).
func WithBaseURL(url string) Option {
	return func(s *settings) {
		s.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(s *settings) {
		if base > 0 {
			s.baseDelay = base
		}
		if max > 0 {
			s.maxDelay = max
		}
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns the adapter for provider p.
func New(ctx context.Context, p model.Provider, apiKey string, opts ...Option) (Capability, error) {
	switch p {
	case model.OpenAI:
		c, err := NewOpenAI(apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case model.DeepSeek:
		c, err := NewDeepSeek(apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case model.Gemini:
		c, err := NewGemini(ctx, apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("no capability for provider %q: %w", p, model.ErrInvalidProvider)
	}
}
