package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-enhance/internal/capability"
	"github.com/alnah/go-enhance/internal/config"
	"github.com/alnah/go-enhance/internal/enhance"
	"github.com/alnah/go-enhance/internal/format"
	"github.com/alnah/go-enhance/internal/lang"
	"github.com/alnah/go-enhance/internal/model"
	"github.com/alnah/go-enhance/internal/output"
	"github.com/alnah/go-enhance/internal/ratelimit"
	"github.com/alnah/go-enhance/internal/source"
	"github.com/alnah/go-enhance/internal/template"
)

// DefaultTemperature is the sampling temperature used when --temperature is not set.
const DefaultTemperature = 0.3

// runFlags holds raw flag values for the run command.
type runFlags struct {
	output             string
	contentType        string
	translate          string
	provider           string
	model              string
	chunkSize          int
	overlap            int
	noMedia            bool
	preserveFormatting bool
	temperature        float32
	jobs               int
	verbose            bool
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.output, "output", "o", "", "Output file path, single input only (default: <input>.enhanced<ext>)")
	fs.StringVarP(&f.contentType, "type", "t", "", "Content type: article, documentation, news, notes, generic (default: detected)")
	fs.StringVarP(&f.translate, "translate", "T", "", "Respond in language (BCP 47 code, e.g. en, fr, pt-BR)")
	fs.StringVar(&f.provider, "provider", "", "Provider: openai, deepseek, gemini (default: from config, else openai)")
	fs.StringVarP(&f.model, "model", "m", "", "Model ID (default: provider's default model)")
	fs.IntVar(&f.chunkSize, "chunk-size", 0, "Maximum segment size in bytes (default: derived from the model)")
	fs.IntVar(&f.overlap, "overlap", 0, "Bytes repeated between segments (default: 200)")
	fs.BoolVar(&f.noMedia, "no-media", false, "Do not protect images and embedded media")
	fs.BoolVar(&f.preserveFormatting, "preserve-formatting", false, "Keep the original structure and formatting")
	fs.Float32Var(&f.temperature, "temperature", DefaultTemperature, "Sampling temperature (0 to 2)")
	fs.IntVarP(&f.jobs, "jobs", "j", 1, "Number of files processed concurrently")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Debug logging to stderr")
}

// runOptions holds validated options for the run command.
type runOptions struct {
	inputs             []string
	output             string
	contentType        template.Name
	outputLang         lang.Language
	provider           string
	model              string
	chunkSize          int
	overlap            int
	preserveMedia      bool
	preserveFormatting bool
	temperature        float32
	jobs               int
	verbose            bool
}

// RunCmd creates the run command.
// The env parameter provides injectable dependencies for testing.
func RunCmd(env *Env) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <file>...",
		Short: "Enhance text, Markdown, HTML or PDF documents",
		Long: `Enhance documents with a generative model.

Long documents are split into overlapping segments that are processed in
order and merged back. Requests are paced to the model's published rate
limits. Images and embedded media are kept verbatim unless --no-media is set.

The API key is read from OPENAI_API_KEY, DEEPSEEK_API_KEY or GEMINI_API_KEY
depending on the provider.`,
		Example: `  enhance run article.html
  enhance run notes.md -t notes -T fr
  enhance run report.pdf -o report.enhanced.pdf --provider gemini
  enhance run *.md -j 3 -m gpt-4o`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseRunOptions(args, flags)
			if err != nil {
				return err
			}
			return runEnhance(cmd.Context(), env, opts)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

// parseRunOptions validates flag values at the CLI boundary.
func parseRunOptions(inputs []string, f runFlags) (runOptions, error) {
	opts := runOptions{
		inputs:             inputs,
		output:             f.output,
		provider:           f.provider,
		model:              f.model,
		chunkSize:          f.chunkSize,
		overlap:            f.overlap,
		preserveMedia:      !f.noMedia,
		preserveFormatting: f.preserveFormatting,
		temperature:        f.temperature,
		jobs:               f.jobs,
		verbose:            f.verbose,
	}

	if f.contentType != "" {
		ct, err := template.ParseName(f.contentType)
		if err != nil {
			return runOptions{}, err
		}
		opts.contentType = ct
	}

	outLang, err := lang.Parse(f.translate)
	if err != nil {
		return runOptions{}, err
	}
	opts.outputLang = outLang

	if f.provider != "" {
		if _, err := model.ParseProvider(f.provider); err != nil {
			return runOptions{}, err
		}
	}

	switch {
	case f.chunkSize < 0:
		return runOptions{}, fmt.Errorf("--chunk-size must be >= 0, got %d: %w", f.chunkSize, ErrInvalidFlag)
	case f.overlap < 0:
		return runOptions{}, fmt.Errorf("--overlap must be >= 0, got %d: %w", f.overlap, ErrInvalidFlag)
	case f.jobs < 1:
		return runOptions{}, fmt.Errorf("--jobs must be >= 1, got %d: %w", f.jobs, ErrInvalidFlag)
	case f.temperature < 0 || f.temperature > 2:
		return runOptions{}, fmt.Errorf("--temperature must be between 0 and 2, got %g: %w", f.temperature, ErrInvalidFlag)
	case f.output != "" && len(inputs) > 1:
		return runOptions{}, fmt.Errorf("--output needs a single input, got %d: %w", len(inputs), ErrInvalidFlag)
	}
	return opts, nil
}

// job is one input file and its resolved output path.
type job struct {
	input  string
	output string
}

// runEnhance executes the run command with validated options.
func runEnhance(ctx context.Context, env *Env, opts runOptions) error {
	// === VALIDATION (fail-fast) ===

	for _, in := range opts.inputs {
		if _, err := os.Stat(in); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%s: %w", in, ErrFileNotFound)
			}
			return fmt.Errorf("cannot access file: %w", err)
		}
		if _, err := source.FormatFor(in); err != nil {
			return err
		}
	}

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}
	opts = applyConfig(opts, cfg)

	m, err := model.Resolve(opts.provider, opts.model)
	if err != nil {
		return err
	}
	keyEnv := m.Provider.APIKeyEnv()
	apiKey := env.Getenv(keyEnv)
	if apiKey == "" {
		return fmt.Errorf("%s: %w (set it with: export %s=...)", keyEnv, ErrAPIKeyMissing, keyEnv)
	}

	outputDir := config.ExpandPath(cfg.OutputDir)
	if outputDir != "" {
		if err := config.EnsureOutputDir(outputDir); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
	}
	jobs, err := planJobs(opts, outputDir)
	if err != nil {
		return err
	}

	// === SETUP ===

	stderr := &lockedWriter{w: env.Stderr}
	logger := newLogger(stderr, opts.verbose)

	capab, err := env.CapabilityFactory.New(ctx, m.Provider, apiKey, logger)
	if err != nil {
		return err
	}
	limiter := env.Limiter
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.WithLogger(logger))
	}

	fmt.Fprintf(stderr, "Enhancing %d file(s) with %s (provider: %s)...\n", len(jobs), m.ID, m.Provider)

	// === ENHANCE ===

	// Each file is an independent run; a failure does not stop the others.
	errs := make([]error, len(jobs))
	var g errgroup.Group
	g.SetLimit(opts.jobs)
	for i, j := range jobs {
		g.Go(func() error {
			prefix := ""
			if len(jobs) > 1 {
				prefix = "[" + filepath.Base(j.input) + "] "
			}
			if err := enhanceFile(ctx, env, capab, limiter, logger, m, opts, j, stderr, prefix); err != nil {
				errs[i] = fmt.Errorf("%s: %w", j.input, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// applyConfig fills unset options from the user configuration.
// A configured model is used only when it belongs to the selected provider.
func applyConfig(opts runOptions, cfg config.Config) runOptions {
	if opts.model == "" {
		if opts.provider == "" {
			opts.provider = cfg.Provider
		}
		if cfg.Model != "" {
			if m, err := model.Lookup(cfg.Model); err == nil &&
				(opts.provider == "" || strings.EqualFold(opts.provider, m.Provider.String())) {
				opts.model = cfg.Model
			}
		}
	}
	if opts.chunkSize == 0 {
		opts.chunkSize = cfg.ChunkSize
	}
	if opts.overlap == 0 {
		opts.overlap = cfg.Overlap
	}
	return opts
}

// planJobs resolves output paths and refuses to start when one already exists.
func planJobs(opts runOptions, outputDir string) ([]job, error) {
	jobs := make([]job, 0, len(opts.inputs))
	seen := make(map[string]string, len(opts.inputs))
	for _, in := range opts.inputs {
		out := output.DefaultPath(in, outputDir)
		if opts.output != "" {
			out = config.ResolveOutputPath(opts.output, outputDir, "")
		}
		if prev, ok := seen[out]; ok {
			return nil, fmt.Errorf("%s and %s both write %s: %w", prev, in, out, output.ErrExists)
		}
		if _, err := os.Stat(out); err == nil {
			return nil, fmt.Errorf("%s: %w", out, output.ErrExists)
		}
		seen[out] = in
		jobs = append(jobs, job{input: in, output: out})
	}
	return jobs, nil
}

// enhanceFile loads, enhances and writes one document.
func enhanceFile(
	ctx context.Context,
	env *Env,
	capab capability.Capability,
	limiter *ratelimit.Store,
	logger *slog.Logger,
	m model.Model,
	opts runOptions,
	j job,
	stderr io.Writer,
	prefix string,
) error {
	fmt.Fprintf(stderr, "%sReading %s...\n", prefix, j.input)
	doc, err := source.Load(ctx, j.input)
	if err != nil {
		return err
	}

	contentType := opts.contentType
	if contentType.IsZero() {
		contentType = source.Classify(doc)
		fmt.Fprintf(stderr, "%sDetected content type: %s\n", prefix, contentType)
	}

	enh := enhance.New(capab, limiter,
		enhance.WithLogger(logger.With("file", j.input)),
		enhance.WithClock(env.Now),
		enhance.WithProgress(func(_ string, current, total int) {
			if total > 1 {
				fmt.Fprintf(stderr, "%s  Processing part %d/%d...\n", prefix, current, total)
			}
		}),
	)

	res, err := enh.Enhance(ctx, m, enhance.Request{
		Text:               doc.Text,
		MaxChunkSize:       opts.chunkSize,
		OverlapSize:        opts.overlap,
		PreserveMedia:      opts.preserveMedia,
		PreserveFormatting: opts.preserveFormatting,
		ContentType:        contentType,
		OutputLang:         opts.outputLang,
		Temperature:        opts.temperature,
	})
	if err != nil {
		return err
	}

	if err := output.Write(j.output, output.Document{Title: doc.Title, Text: res.Text}); err != nil {
		return err
	}

	fmt.Fprintf(stderr, "%sDone: %s (%s, %d part(s), %s, %s tokens)\n", prefix, j.output,
		format.Size(len(res.Text)), res.Segments, format.Elapsed(res.Elapsed), format.Tokens(res.Usage.Total()))
	return nil
}

// lockedWriter serializes writes from concurrent runs.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// newLogger returns a text logger on w: warnings by default, debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
