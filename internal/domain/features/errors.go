package features

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrOutOfRange   = errors.New("value out of range")
	ErrNotFinite    = errors.New("value is not a finite number")
	ErrUnknownField = errors.New("unknown field")
	ErrMalformed    = errors.New("malformed value")
)

// RangeError reports a value rejected by the collector.
type RangeError struct {
	Field Field
	Value float64
	Kind  error
}

func (e *RangeError) Error() string {
	s := e.Field.Spec()
	if errors.Is(e.Kind, ErrNotFinite) {
		return fmt.Sprintf("%s: %v is not a finite number", s.Name, e.Value)
	}
	return fmt.Sprintf("%s: %g is outside [%g, %g]", s.Name, e.Value, s.Min, s.Max)
}

func (e *RangeError) Unwrap() error { return e.Kind }
