package scrape

import (
	"errors"
	"fmt"

	"github.com/okian/pprforecast/internal/domain/stats"
)

// Kind classifies a per-page failure.
type Kind string

// Error kinds surfaced to the pipeline driver.
const (
	KindNetwork      Kind = "NetworkError"
	KindMissingField Kind = "MissingFieldError"
	KindParse        Kind = "ParseError"
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrNetwork      = errors.New("network error")
	ErrMissingField = errors.New("missing field")
	ErrParse        = errors.New("parse error")

	ErrRosterTableMissing = errors.New("roster table not found")
	ErrSeasonTableMissing = errors.New("season table not found")
	ErrBodyTooLarge       = errors.New("response body exceeds limit")
	ErrUnexpectedStatus   = errors.New("unexpected status code")
)

// Error is a typed fetch or parse failure for one page.
type Error struct {
	Kind       Kind
	URL        string
	Field      string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.URL != "" {
		msg += " " + e.URL
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Field != "" {
		msg += " field " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrMissingField:
		return e.Kind == KindMissingField
	case ErrParse:
		return e.Kind == KindParse
	}
	return false
}

// Classify maps a per-player failure to a typed page error. An *Error passes
// through; stats field errors keep their field name.
func Classify(url string, err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		if se.URL == "" {
			se.URL = url
		}
		return se
	}
	e := &Error{Kind: KindParse, URL: url, Err: err}
	var fe *stats.FieldError
	if errors.As(err, &fe) {
		e.Field = fe.Field
		if errors.Is(fe, stats.ErrMissingField) {
			e.Kind = KindMissingField
		}
	}
	return e
}
