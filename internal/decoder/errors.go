package decoder

import (
	"errors"
	"fmt"
)

var (
	ErrIncomplete           = errors.New("decoder: object incomplete")
	ErrMissingContentName   = errors.New("decoder: missing content name")
	ErrAmbiguousContentName = errors.New("decoder: more than one content name")
)

// CompileError reports an object that was dropped from the cache without
// being emitted.
type CompileError struct {
	TransportID uint16
	Err         error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("decoder: compile transport_id=%d: %v", e.TransportID, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// LookupError reports an object without a header that the directory
// could not describe. Err is set when the directory itself failed.
type LookupError struct {
	TransportID uint16
	Err         error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoder: no directory entry for transport_id=%d: %v", e.TransportID, e.Err)
	}
	return fmt.Sprintf("decoder: no directory entry for transport_id=%d", e.TransportID)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
