package model

import "errors"

// Sentinel errors for provider and model lookups.
var (
	// ErrInvalidProvider indicates an unknown provider name.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrUnknownModel indicates a model ID missing from the catalog.
	ErrUnknownModel = errors.New("unknown model")
)
