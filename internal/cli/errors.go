package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.
var (
	// ErrAPIKeyMissing indicates the provider's API key variable is not set.
	ErrAPIKeyMissing = errors.New("API key environment variable not set")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFlag indicates a flag value outside its allowed range.
	ErrInvalidFlag = errors.New("invalid flag value")
)
