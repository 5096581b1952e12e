package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alnah/go-enhance/internal/apierr"
	"github.com/alnah/go-enhance/internal/config"
	"github.com/alnah/go-enhance/internal/enhance"
	"github.com/alnah/go-enhance/internal/lang"
	"github.com/alnah/go-enhance/internal/model"
	"github.com/alnah/go-enhance/internal/output"
	"github.com/alnah/go-enhance/internal/source"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"interrupt", fmt.Errorf("a.md: %w", context.Canceled), ExitInterrupt},
		{"joined interrupt", errors.Join(context.Canceled, context.Canceled), ExitInterrupt},
		{"invalid flag", fmt.Errorf("--jobs: %w", ErrInvalidFlag), ExitUsage},
		{"cobra unknown flag", errors.New("unknown flag: --colour"), ExitUsage},
		{"cobra arg count", errors.New("requires at least 1 arg(s), only received 0"), ExitUsage},
		{"api key", ErrAPIKeyMissing, ExitSetup},
		{"unknown model", model.ErrUnknownModel, ExitSetup},
		{"config key", config.ErrUnknownKey, ExitSetup},
		{"content too short", enhance.ErrContentTooShort, ExitValidation},
		{"file not found", ErrFileNotFound, ExitValidation},
		{"output exists", output.ErrExists, ExitValidation},
		{"unsupported input", source.ErrUnsupportedFormat, ExitValidation},
		{"bad language", lang.ErrInvalid, ExitValidation},
		{"segment failure", fmt.Errorf("enhance part 2/3: %w: %w", enhance.ErrCapability, apierr.ErrRateLimit), ExitCapability},
		{"bare provider error", apierr.ErrQuotaExceeded, ExitCapability},
		{"other", errors.New("disk on fire"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
