// Package model describes the generative models go-enhance can call and the
// limits that size segments and pace requests.
package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alnah/go-enhance/internal/ratelimit"
)

// Model describes one generative model.
type Model struct {
	ID       string
	Provider Provider
	// MaxTokens is the model's input budget in tokens.
	MaxTokens int
	// MaxOutputTokens caps the completion length requested from the provider.
	MaxOutputTokens   int
	RequestsPerMinute int
	TokensPerMinute   int
}

// IsZero reports whether m is unset.
func (m Model) IsZero() bool {
	return m.ID == "" || m.Provider.IsZero() || m.MaxTokens <= 0
}

// Limits returns the rate limits of m.
func (m Model) Limits() ratelimit.Limits {
	return ratelimit.Limits{
		RequestsPerMinute: m.RequestsPerMinute,
		TokensPerMinute:   m.TokensPerMinute,
	}
}

// Key returns the rate-limit key of m.
func (m Model) Key() ratelimit.Key {
	return ratelimit.Key{Provider: m.Provider.String(), Model: m.ID}
}

// catalog lists the known models. Limits follow the providers' entry tiers.
var catalog = []Model{
	{ID: "gpt-4o-mini", Provider: OpenAI, MaxTokens: 128_000, MaxOutputTokens: 16_384, RequestsPerMinute: 500, TokensPerMinute: 200_000},
	{ID: "gpt-4o", Provider: OpenAI, MaxTokens: 128_000, MaxOutputTokens: 16_384, RequestsPerMinute: 500, TokensPerMinute: 30_000},
	{ID: "deepseek-chat", Provider: DeepSeek, MaxTokens: 64_000, MaxOutputTokens: 8_192, RequestsPerMinute: 60},
	{ID: "deepseek-reasoner", Provider: DeepSeek, MaxTokens: 64_000, MaxOutputTokens: 32_768, RequestsPerMinute: 60},
	{ID: "gemini-2.5-flash", Provider: Gemini, MaxTokens: 1_048_576, MaxOutputTokens: 65_536, RequestsPerMinute: 10, TokensPerMinute: 250_000},
	{ID: "gemini-2.5-pro", Provider: Gemini, MaxTokens: 1_048_576, MaxOutputTokens: 65_536, RequestsPerMinute: 5, TokensPerMinute: 250_000},
}

// Lookup returns the catalog entry for id. Matching is case-insensitive.
func Lookup(id string) (Model, error) {
	want := strings.ToLower(strings.TrimSpace(id))
	for _, m := range catalog {
		if m.ID == want {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("model %q: %w", id, ErrUnknownModel)
}

// Resolve picks a model from a provider and model ID, either of which may be
// empty. An empty ID selects the provider's default model; an empty provider
// is inferred from the model. A model that belongs to another provider is an
// error.
func Resolve(provider, id string) (Model, error) {
	if id == "" {
		p := OpenAI
		if provider != "" {
			var err error
			if p, err = ParseProvider(provider); err != nil {
				return Model{}, err
			}
		}
		return Lookup(p.DefaultModel())
	}

	m, err := Lookup(id)
	if err != nil {
		return Model{}, err
	}
	if provider != "" {
		p, err := ParseProvider(provider)
		if err != nil {
			return Model{}, err
		}
		if p != m.Provider {
			return Model{}, fmt.Errorf("model %q is served by %s, not %s: %w",
				m.ID, m.Provider, p, ErrUnknownModel)
		}
	}
	return m, nil
}

// All returns the catalog ordered by provider then ID.
func All() []Model {
	out := slices.Clone(catalog)
	slices.SortStableFunc(out, func(a, b Model) int {
		if c := slices.Index(providerOrder, a.Provider.name) - slices.Index(providerOrder, b.Provider.name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
