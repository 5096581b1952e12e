package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/alnah/go-enhance/internal/apierr"
)

var _ Capability = (*Gemini)(nil)

// contentGenerator is the part of the genai client the adapter uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini calls the Gemini API.
type Gemini struct {
	models contentGenerator
	retry  apierr.RetryConfig
	logger *slog.Logger
}

// NewGemini creates an adapter for the Gemini API.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyAPIKey)
	}
	s := newSettings(opts)
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
	}
	if s.baseURL != "" {
		cfg.HTTPOptions.BaseURL = s.baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newGeminiWithModels(client.Models, s), nil
}

func newGeminiWithModels(models contentGenerator, s settings) *Gemini {
	g := &Gemini{models: models, logger: s.logger}
	g.retry = apierr.RetryConfig{
		MaxRetries: s.maxRetries,
		BaseDelay:  s.baseDelay,
		MaxDelay:   s.maxDelay,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			g.logger.Warn("retrying provider call",
				"provider", "gemini", "attempt", attempt, "delay", delay, "error", err)
		},
	}
	return g
}

// Enhance sends the instructions as the system instruction and the text as
// the user content.
func (g *Gemini) Enhance(ctx context.Context, call Call) (Response, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(call.Instructions, genai.RoleUser),
		Temperature:       genai.Ptr(call.Temperature),
	}
	if call.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(call.MaxTokens)
	}
	contents := []*genai.Content{genai.NewContentFromText(call.Text, genai.RoleUser)}

	return apierr.RetryWithBackoff(ctx, g.retry, func(ctx context.Context) (Response, error) {
		resp, err := g.models.GenerateContent(ctx, call.Model, contents, cfg)
		if err != nil {
			return Response{}, classifyGemini(ctx, err)
		}
		text := resp.Text()
		if strings.TrimSpace(text) == "" {
			return Response{}, fmt.Errorf("gemini: %w", apierr.ErrEmptyResponse)
		}
		out := Response{Text: text}
		if u := resp.UsageMetadata; u != nil {
			out.Usage = Usage{
				PromptTokens:     int(u.PromptTokenCount),
				CompletionTokens: int(u.CandidatesTokenCount),
			}
		}
		return out, nil
	}, apierr.IsTransient)
}

// classifyGemini maps genai errors to apierr sentinels.
func classifyGemini(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if classified := apierr.FromStatus(apiErr.Code, apiErr.Message); classified != nil {
			return fmt.Errorf("gemini: %w", classified)
		}
		return fmt.Errorf("gemini API error %d: %w", apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		if classified := apierr.FromStatus(apiErrPtr.Code, apiErrPtr.Message); classified != nil {
			return fmt.Errorf("gemini: %w", classified)
		}
		return fmt.Errorf("gemini API error %d: %w", apiErrPtr.Code, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gemini: %v: %w", err, apierr.ErrTimeout)
	}
	return fmt.Errorf("gemini: %w", err)
}
