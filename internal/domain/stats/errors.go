package stats

import (
	"errors"
	"fmt"
)

// Sentinel kinds for extraction errors.
var (
	ErrMissingField = errors.New("missing stat field")
	ErrParse        = errors.New("stat value not numeric")
)

// FieldError names the category that failed extraction.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%v: %s=%q", e.Err, e.Field, e.Value)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Field)
}

func (e *FieldError) Unwrap() error { return e.Err }
