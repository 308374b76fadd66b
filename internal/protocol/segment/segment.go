// Package segment owns the MOT segment envelope: a 16 bit header made of a
// 3 bit repetition count and a 13 bit payload size.
package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	HeaderLen     = 2
	MaxSize       = 1<<13 - 1
	MaxRepetition = 1<<3 - 1
)

var (
	ErrShortHeader     = errors.New("segment: short header")
	ErrShortPayload    = errors.New("segment: short payload")
	ErrSizeTooLarge    = errors.New("segment: size too large")
	ErrInvalidSplitLen = errors.New("segment: invalid split size")
)

// Header is the segment envelope.
type Header struct {
	Repetition uint8
	Size       uint16
}

func (h Header) String() string {
	return fmt.Sprintf("repetition=%d size=%d", h.Repetition, h.Size)
}

// EncodeHeader renders h in two bytes.
func EncodeHeader(h Header) ([]byte, error) {
	if h.Size > MaxSize {
		return nil, fmt.Errorf("%w: %d", ErrSizeTooLarge, h.Size)
	}
	if h.Repetition > MaxRepetition {
		return nil, fmt.Errorf("segment: repetition %d exceeds %d", h.Repetition, MaxRepetition)
	}
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint16(buf, uint16(h.Repetition)<<13|h.Size)
	return buf, nil
}

// DecodeHeader parses the first two bytes of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, ErrShortHeader
	}
	v := binary.BigEndian.Uint16(b[:HeaderLen])
	return Header{Repetition: uint8(v >> 13), Size: v & MaxSize}, nil
}

// Encode prefixes payload with its segment header.
func Encode(repetition uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxSize {
		return nil, fmt.Errorf("%w: %d", ErrSizeTooLarge, len(payload))
	}
	head, err := EncodeHeader(Header{Repetition: repetition, Size: uint16(len(payload))})
	if err != nil {
		return nil, err
	}
	return append(head, payload...), nil
}

// Decode strips the segment header and returns exactly Size payload bytes.
func Decode(b []byte) (Header, []byte, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return Header{}, nil, err
	}
	end := HeaderLen + int(h.Size)
	if len(b) < end {
		return Header{}, nil, fmt.Errorf("%w: signalled %d bytes, %d available", ErrShortPayload, h.Size, len(b)-HeaderLen)
	}
	return h, b[HeaderLen:end], nil
}

// Split cuts data into segment payloads of at most size bytes. Empty data
// yields a single empty segment so every object has a last segment.
func Split(data []byte, size int) ([][]byte, error) {
	if size <= 0 || size > MaxSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSplitLen, size)
	}
	if len(data) == 0 {
		return [][]byte{{}}, nil
	}
	out := make([][]byte, 0, (len(data)+size-1)/size)
	for start := 0; start < len(data); start += size {
		end := min(start+size, len(data))
		out = append(out, data[start:end])
	}
	return out, nil
}
