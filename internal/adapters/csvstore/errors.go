package csvstore

import "errors"

// Sentinel error kinds for this package.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrInvalidValue  = errors.New("invalid value")
	ErrEmptyFile     = errors.New("file has no header")
)
