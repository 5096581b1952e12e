package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alnah/go-enhance/internal/capability"
	"github.com/alnah/go-enhance/internal/config"
	"github.com/alnah/go-enhance/internal/model"
	"github.com/alnah/go-enhance/internal/ratelimit"
)

// Env holds injectable dependencies for CLI commands.
//
// All fields have defaults via DefaultEnv(). Tests override specific fields
// with the With* options or by building an Env directly.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	ConfigLoader      ConfigLoader
	CapabilityFactory CapabilityFactory

	// Limiter is shared by every run of the process. Nil creates one per command.
	Limiter *ratelimit.Store
}

// ConfigLoader loads the user configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// CapabilityFactory creates a provider adapter.
type CapabilityFactory interface {
	New(ctx context.Context, p model.Provider, apiKey string, logger *slog.Logger) (capability.Capability, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithCapabilityFactory sets the capability factory.
func WithCapabilityFactory(f CapabilityFactory) EnvOption {
	return func(e *Env) {
		e.CapabilityFactory = f
	}
}

// WithLimiter sets the shared rate-limit store.
func WithLimiter(s *ratelimit.Store) EnvOption {
	return func(e *Env) {
		e.Limiter = s
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:            os.Stdout,
		Stderr:            os.Stderr,
		Getenv:            os.Getenv,
		Now:               time.Now,
		ConfigLoader:      defaultConfigLoader{},
		CapabilityFactory: defaultCapabilityFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

type defaultCapabilityFactory struct{}

func (defaultCapabilityFactory) New(ctx context.Context, p model.Provider, apiKey string, logger *slog.Logger) (capability.Capability, error) {
	return capability.New(ctx, p, apiKey, capability.WithLogger(logger))
}

// Compile-time interface verification.
var (
	_ ConfigLoader      = defaultConfigLoader{}
	_ CapabilityFactory = defaultCapabilityFactory{}
)
