package mottime

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidLength = errors.New("mottime: invalid length")
	ErrInvalidField  = errors.New("mottime: invalid field value")
	ErrOutOfRange    = errors.New("mottime: value out of range")
)

// RangeError reports a time value that cannot be represented on the wire.
type RangeError struct {
	Value  string
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("mottime: %s: %s", e.Value, e.Reason)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

func durationRangeError(d time.Duration, reason string) *RangeError {
	return &RangeError{Value: d.String(), Reason: reason}
}
