package template

import "errors"

// ErrUnknown indicates an invalid content type was specified.
var ErrUnknown = errors.New("unknown content type")
