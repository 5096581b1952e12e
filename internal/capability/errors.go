package capability

import "errors"

// ErrEmptyAPIKey indicates that no API key was provided.
var ErrEmptyAPIKey = errors.New("API key is required")
