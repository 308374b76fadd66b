package param

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPreamble = errors.New("param: malformed preamble")
	ErrPayloadTooLarge   = errors.New("param: payload too large")
	ErrInvalidID         = errors.New("param: invalid parameter id")
	ErrUnknownParameter  = errors.New("param: unknown parameter")
	ErrValidation        = errors.New("param: validation failed")
	ErrNilDecoder        = errors.New("param: nil decoder")
)

// UnknownParameterError reports an id with no registered decoder. Consumed
// is the full size of the parameter on the wire so callers can skip it.
type UnknownParameterError struct {
	ID       uint8
	Consumed int
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("param: unknown parameter 0x%02x with size %d bytes", e.ID, e.Consumed)
}

func (e *UnknownParameterError) Is(target error) bool {
	return target == ErrUnknownParameter
}

// ValidationError reports an out of range or malformed field value.
type ValidationError struct {
	ID     uint8
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("param: id=%d %s: %s", e.ID, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DecodeError wraps a failure raised by a registered decoder.
type DecodeError struct {
	ID  uint8
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("param: decode id=%d: %v", e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func invalid(id uint8, field, format string, args ...any) *ValidationError {
	return &ValidationError{ID: id, Field: field, Reason: fmt.Sprintf(format, args...)}
}
