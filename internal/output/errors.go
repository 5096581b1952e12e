package output

import "errors"

// ErrExists indicates the output file already exists.
var ErrExists = errors.New("output file already exists")
