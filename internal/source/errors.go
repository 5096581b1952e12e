package source

import "errors"

// Sentinel errors for content loading.
var (
	// ErrUnsupportedFormat indicates a file extension with no loader.
	ErrUnsupportedFormat = errors.New("unsupported input format")

	// ErrEmptyDocument indicates the loader found no text.
	ErrEmptyDocument = errors.New("document has no text")

	// ErrTooLarge indicates the input exceeds MaxInputSize.
	ErrTooLarge = errors.New("input too large")
)
