package mot

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated         = errors.New("mot: truncated data")
	ErrInvalidHeaderSize = errors.New("mot: invalid header size")
	ErrFieldRange        = errors.New("mot: field out of range")
	ErrNilParameter      = errors.New("mot: nil parameter")
)

// EntryError records a directory entry whose parameters could not be
// decoded completely. Parameters decoded before the failure are kept.
type EntryError struct {
	TransportID uint16
	Offset      int
	Err         error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("mot: directory entry transport_id=%d offset=%d: %v", e.TransportID, e.Offset, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}
