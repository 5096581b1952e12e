package model

import (
	"fmt"
	"strings"
)

// Provider name constants.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
)

// Provider represents a validated generative-text provider.
// Zero value is invalid and must not be used.
// Use ParseProvider to create from user input, or the pre-parsed values.
type Provider struct {
	name string
}

var _ fmt.Stringer = Provider{}

// Pre-parsed providers.
var (
	OpenAI   = Provider{name: ProviderOpenAI}
	DeepSeek = Provider{name: ProviderDeepSeek}
	Gemini   = Provider{name: ProviderGemini}
)

// providerOrder is the order used in help text and listings.
var providerOrder = []string{ProviderOpenAI, ProviderDeepSeek, ProviderGemini}

// ParseProvider validates a provider name. Matching is case-insensitive.
func ParseProvider(s string) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return Provider{}, fmt.Errorf("provider cannot be empty: %w", ErrInvalidProvider)
	}
	for _, p := range providerOrder {
		if p == name {
			return Provider{name: name}, nil
		}
	}
	return Provider{}, fmt.Errorf("unknown provider %q (use %s): %w",
		s, strings.Join(providerOrder, ", "), ErrInvalidProvider)
}

// MustParseProvider parses a provider name, panicking if invalid.
// Use only for constants and tests.
func MustParseProvider(s string) Provider {
	p, err := ParseProvider(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Providers returns the supported provider names.
func Providers() []string {
	return append([]string(nil), providerOrder...)
}

// String returns the provider name, or "" for the zero value.
func (p Provider) String() string {
	return p.name
}

// IsZero reports whether no provider is set.
func (p Provider) IsZero() bool {
	return p.name == ""
}

// APIKeyEnv returns the environment variable holding the provider's API key.
func (p Provider) APIKeyEnv() string {
	switch p.name {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the catalog model used when only a provider is chosen.
func (p Provider) DefaultModel() string {
	switch p.name {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderDeepSeek:
		return "deepseek-chat"
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return ""
	}
}

// OrDefault returns p, or OpenAI when p is zero.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return OpenAI
	}
	return p
}
