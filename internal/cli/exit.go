package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/alnah/go-enhance/internal/apierr"
	"github.com/alnah/go-enhance/internal/capability"
	"github.com/alnah/go-enhance/internal/config"
	"github.com/alnah/go-enhance/internal/enhance"
	"github.com/alnah/go-enhance/internal/lang"
	"github.com/alnah/go-enhance/internal/model"
	"github.com/alnah/go-enhance/internal/output"
	"github.com/alnah/go-enhance/internal/segment"
	"github.com/alnah/go-enhance/internal/source"
	"github.com/alnah/go-enhance/internal/template"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitCapability = 5
	ExitInterrupt  = 130
)

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	if errors.Is(err, ErrInvalidFlag) || isCobraUsageError(err) {
		return ExitUsage
	}

	if errors.Is(err, ErrAPIKeyMissing) || errors.Is(err, capability.ErrEmptyAPIKey) ||
		errors.Is(err, model.ErrInvalidProvider) || errors.Is(err, model.ErrUnknownModel) ||
		errors.Is(err, config.ErrUnknownKey) || errors.Is(err, config.ErrInvalidValue) {
		return ExitSetup
	}

	if errors.Is(err, enhance.ErrValidation) || errors.Is(err, segment.ErrInvalidOptions) ||
		errors.Is(err, ErrFileNotFound) || errors.Is(err, output.ErrExists) ||
		errors.Is(err, source.ErrUnsupportedFormat) || errors.Is(err, source.ErrEmptyDocument) ||
		errors.Is(err, source.ErrTooLarge) || errors.Is(err, template.ErrUnknown) ||
		errors.Is(err, lang.ErrInvalid) {
		return ExitValidation
	}

	if errors.Is(err, enhance.ErrCapability) || errors.Is(err, apierr.ErrRateLimit) ||
		errors.Is(err, apierr.ErrQuotaExceeded) || errors.Is(err, apierr.ErrTimeout) ||
		errors.Is(err, apierr.ErrAuthFailed) || errors.Is(err, apierr.ErrBadRequest) ||
		errors.Is(err, apierr.ErrEmptyResponse) {
		return ExitCapability
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings of Cobra usage
// errors. Cobra doesn't expose typed errors.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
	"requires at least",
	"requires at most",
}

func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
