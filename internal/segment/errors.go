package segment

import "errors"

// ErrInvalidOptions indicates Split was called with unusable size settings.
var ErrInvalidOptions = errors.New("invalid segment options")

// ErrReservedRune indicates the content already contains the private-use
// code points reserved for media placeholders.
var ErrReservedRune = errors.New("content contains reserved placeholder characters")
