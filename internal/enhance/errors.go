package enhance

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Enhance.
var (
	// ErrValidation indicates the request was rejected before any provider call.
	ErrValidation = errors.New("invalid request")

	// ErrContentTooShort indicates the text is empty or below MinContentLength.
	ErrContentTooShort = fmt.Errorf("content too short: %w", ErrValidation)

	// ErrCapability indicates a provider call failed. No partial text is returned.
	ErrCapability = errors.New("enhancement failed")
)
