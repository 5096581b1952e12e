package capability

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-enhance/internal/model"
)

// deepSeekBaseURL is DeepSeek's OpenAI-compatible endpoint.
const deepSeekBaseURL = "https://api.deepseek.com/v1"

// NewDeepSeek creates an adapter for the DeepSeek API.
// DeepSeek speaks the OpenAI chat completion protocol but only understands
// the max_tokens limit.
func NewDeepSeek(apiKey string, opts ...Option) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepseek: %w", ErrEmptyAPIKey)
	}
	s := newSettings(opts)
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = deepSeekBaseURL
	if s.baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(s.baseURL, "/")
	}
	cfg.HTTPClient = s.httpClient
	return newOpenAIWithClient(openai.NewClientWithConfig(cfg), model.ProviderDeepSeek, true, s), nil
}
