package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-enhance/internal/apierr"
	"github.com/alnah/go-enhance/internal/model"
)

var _ Capability = (*OpenAI)(nil)

// chatCompleter is the part of the go-openai client the adapter uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI calls an OpenAI-compatible chat completion API.
// It serves both OpenAI and DeepSeek.
type OpenAI struct {
	client   chatCompleter
	provider string
	// legacyMaxTokens sends max_tokens instead of max_completion_tokens.
	legacyMaxTokens bool
	retry           apierr.RetryConfig
	logger          *slog.Logger
}

// NewOpenAI creates an adapter for the OpenAI API.
func NewOpenAI(apiKey string, opts ...Option) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrEmptyAPIKey)
	}
	s := newSettings(opts)
	cfg := openai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(s.baseURL, "/")
	}
	cfg.HTTPClient = s.httpClient
	return newOpenAIWithClient(openai.NewClientWithConfig(cfg), model.ProviderOpenAI, false, s), nil
}

func newOpenAIWithClient(client chatCompleter, provider string, legacyMaxTokens bool, s settings) *OpenAI {
	c := &OpenAI{
		client:          client,
		provider:        provider,
		legacyMaxTokens: legacyMaxTokens,
		logger:          s.logger,
	}
	c.retry = apierr.RetryConfig{
		MaxRetries: s.maxRetries,
		BaseDelay:  s.baseDelay,
		MaxDelay:   s.maxDelay,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			c.logger.Warn("retrying provider call",
				"provider", c.provider, "attempt", attempt, "delay", delay, "error", err)
		},
	}
	return c
}

// Enhance sends the instructions as the system message and the text as the
// user message.
func (c *OpenAI) Enhance(ctx context.Context, call Call) (Response, error) {
	req := openai.ChatCompletionRequest{
		Model:       call.Model,
		Temperature: call.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: call.Instructions},
			{Role: openai.ChatMessageRoleUser, Content: call.Text},
		},
	}
	if c.legacyMaxTokens {
		req.MaxTokens = call.MaxTokens
	} else {
		req.MaxCompletionTokens = call.MaxTokens
	}

	return apierr.RetryWithBackoff(ctx, c.retry, func(ctx context.Context) (Response, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return Response{}, c.classify(ctx, err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return Response{}, fmt.Errorf("%s: %w", c.provider, apierr.ErrEmptyResponse)
		}
		return Response{
			Text: resp.Choices[0].Message.Content,
			Usage: Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
			},
		}, nil
	}, apierr.IsTransient)
}

// classify maps go-openai errors to apierr sentinels.
func (c *OpenAI) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if classified := apierr.FromStatus(apiErr.HTTPStatusCode, apiErr.Message); classified != nil {
			return fmt.Errorf("%s: %w", c.provider, classified)
		}
		return fmt.Errorf("%s API error %d: %w", c.provider, apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if classified := apierr.FromStatus(reqErr.HTTPStatusCode, reqErr.Error()); classified != nil {
			return fmt.Errorf("%s: %w", c.provider, classified)
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %v: %w", c.provider, err, apierr.ErrTimeout)
	}
	return fmt.Errorf("%s: %w", c.provider, err)
}
