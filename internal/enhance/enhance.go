// Package enhance runs a text through a generative Capability, splitting it
// into segments when it exceeds the model's input budget.
package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alnah/go-enhance/internal/capability"
	"github.com/alnah/go-enhance/internal/lang"
	"github.com/alnah/go-enhance/internal/model"
	"github.com/alnah/go-enhance/internal/ratelimit"
	"github.com/alnah/go-enhance/internal/segment"
	"github.com/alnah/go-enhance/internal/template"
)

// Sizing constants. Sizes are in bytes of UTF-8 text.
const (
	// MinContentLength is the shortest trimmed text Enhance accepts.
	MinContentLength = 50

	// CharsPerToken converts token budgets to text sizes. It is conservative
	// for European languages.
	CharsPerToken = 3

	// MaxDefaultChunkSize caps the default segment size.
	MaxDefaultChunkSize = 12_000

	// DefaultOverlapSize is the overlap used when the request leaves it at zero.
	DefaultOverlapSize = 200
)

// Request is one unit of content to enhance.
type Request struct {
	Text string
	// MaxChunkSize and OverlapSize configure segmentation. Zero selects the
	// defaults derived from the model.
	MaxChunkSize       int
	OverlapSize        int
	PreserveMedia      bool
	PreserveFormatting bool
	ContentType        template.Name
	OutputLang         lang.Language
	Temperature        float32
}

// Result is the outcome of a successful run.
type Result struct {
	Text string
	// Elapsed is the summed duration of the provider calls.
	Elapsed   time.Duration
	Segmented bool
	Segments  int
	Usage     capability.Usage
}

// Option configures an Enhancer.
type Option func(*Enhancer)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enhancer) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithProgress sets a callback invoked before each provider call.
func WithProgress(fn func(phase string, current, total int)) Option {
	return func(e *Enhancer) {
		e.onProgress = fn
	}
}

// WithClock sets the time source used to measure calls.
func WithClock(now func() time.Time) Option {
	return func(e *Enhancer) {
		if now != nil {
			e.now = now
		}
	}
}

// Enhancer orchestrates segmentation, pacing and provider calls.
// It is safe for concurrent use when its Capability is.
type Enhancer struct {
	capability capability.Capability
	limiter    *ratelimit.Store
	logger     *slog.Logger
	onProgress func(phase string, current, total int)
	now        func() time.Time
}

// New creates an Enhancer. limiter is shared by every run of the process.
func New(c capability.Capability, limiter *ratelimit.Store, opts ...Option) *Enhancer {
	e := &Enhancer{
		capability: c,
		limiter:    limiter,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.limiter == nil {
		e.limiter = ratelimit.New(ratelimit.WithClock(e.now))
	}
	return e
}

// Enhance processes req with model m.
//
// Text longer than m.MaxTokens*CharsPerToken is split into segments that are
// sent one at a time, in order. The first failing segment aborts the run: the
// error names the part and no partial text is returned.
func (e *Enhancer) Enhance(ctx context.Context, m model.Model, req Request) (Result, error) {
	if m.IsZero() {
		return Result{}, fmt.Errorf("model is not set: %w", ErrValidation)
	}
	if n := len(strings.TrimSpace(req.Text)); n < MinContentLength {
		return Result{}, fmt.Errorf("%d bytes, need at least %d: %w", n, MinContentLength, ErrContentTooShort)
	}
	opts := segmentOptions(m, req)
	if err := opts.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if len(req.Text) <= m.MaxTokens*CharsPerToken {
		return e.direct(ctx, m, req)
	}
	return e.segmented(ctx, m, req, opts)
}

func (e *Enhancer) direct(ctx context.Context, m model.Model, req Request) (Result, error) {
	hasMedia := req.PreserveMedia && len(segment.ScanMedia(req.Text)) > 0
	e.logger.Info("enhancing", "model", m.ID, "bytes", len(req.Text), "segments", 1)
	e.progress(1, 1)

	resp, elapsed, err := e.call(ctx, m, req, req.Text, buildInstructions(req, hasMedia, 1, 1))
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:     resp.Text,
		Elapsed:  elapsed,
		Segments: 1,
		Usage:    resp.Usage,
	}, nil
}

func (e *Enhancer) segmented(ctx context.Context, m model.Model, req Request, opts segment.Options) (Result, error) {
	segs, err := segment.Split(req.Text, opts)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	total := len(segs)
	e.logger.Info("enhancing", "model", m.ID, "bytes", len(req.Text), "segments", total,
		"chunk_size", opts.MaxChunkSize, "overlap", opts.OverlapSize)

	out := make([]segment.Segment, total)
	var res Result
	for i, seg := range segs {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		part := i + 1
		e.progress(part, total)
		e.logger.Debug("enhancing segment", "part", part, "of", total,
			"start", seg.Start, "end", seg.End, "media", len(seg.Media))

		instructions := buildInstructions(req, len(seg.Media) > 0, part, total)
		resp, elapsed, err := e.call(ctx, m, req, seg.Text, instructions)
		if err != nil {
			return Result{}, fmt.Errorf("enhance part %d/%d: %w", part, total, err)
		}

		seg.Text = resp.Text
		out[i] = seg
		res.Elapsed += elapsed
		res.Usage = res.Usage.Add(resp.Usage)
	}

	res.Text = segment.Reassemble(out)
	res.Segmented = true
	res.Segments = total
	return res, nil
}

// call paces, sends and accounts for one provider request.
// Provider failures are wrapped in ErrCapability; cancellation is returned as is.
func (e *Enhancer) call(ctx context.Context, m model.Model, req Request, text, instructions string) (capability.Response, time.Duration, error) {
	key, limits := m.Key(), m.Limits()
	estimate := estimateTokens(text) + estimateTokens(instructions)

	if err := e.limiter.Wait(ctx, key, limits, estimate); err != nil {
		return capability.Response{}, 0, err
	}

	start := e.now()
	resp, err := e.capability.Enhance(ctx, capability.Call{
		Text:         text,
		Instructions: instructions,
		Model:        m.ID,
		MaxTokens:    m.MaxOutputTokens,
		Temperature:  req.Temperature,
	})
	elapsed := e.now().Sub(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return capability.Response{}, elapsed, ctxErr
		}
		return capability.Response{}, elapsed, fmt.Errorf("%w: %w", ErrCapability, err)
	}

	used := resp.Usage.Total()
	if used == 0 {
		used = estimate
	}
	e.limiter.RecordRequest(key, limits, used)
	return resp, elapsed, nil
}

func (e *Enhancer) progress(current, total int) {
	if e.onProgress != nil {
		e.onProgress("enhance", current, total)
	}
}

// segmentOptions fills zero sizes with defaults derived from the model.
func segmentOptions(m model.Model, req Request) segment.Options {
	opts := segment.Options{
		MaxChunkSize:  req.MaxChunkSize,
		OverlapSize:   req.OverlapSize,
		PreserveMedia: req.PreserveMedia,
	}
	if opts.MaxChunkSize == 0 {
		opts.MaxChunkSize = min(m.MaxTokens*CharsPerToken/2, MaxDefaultChunkSize)
	}
	if opts.OverlapSize == 0 {
		opts.OverlapSize = min(DefaultOverlapSize, opts.MaxChunkSize/4)
	}
	return opts
}

func estimateTokens(text string) int {
	return (len(text) + CharsPerToken - 1) / CharsPerToken
}
