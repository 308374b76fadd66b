// Package datagroup defines the MSC datagroup values the MOT decoder
// consumes. Transport framing and CRC checks happen upstream.
package datagroup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/danmuck/mot/internal/protocol/segment"
)

// Type is the datagroup type field.
type Type uint8

const (
	TypeHeader    Type = 3
	TypeBody      Type = 4
	TypeDirectory Type = 6
)

func (t Type) String() string {
	switch t {
	case TypeHeader:
		return "header"
	case TypeBody:
		return "body"
	case TypeDirectory:
		return "directory"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Datagroup carries one segment of a MOT entity. Data is the segment
// payload with the segment header already stripped.
type Datagroup struct {
	Type         Type
	TransportID  uint16
	SegmentIndex uint32
	Last         bool
	Data         []byte
}

// Equal compares every field by value.
func (d Datagroup) Equal(o Datagroup) bool {
	return d.Type == o.Type &&
		d.TransportID == o.TransportID &&
		d.SegmentIndex == o.SegmentIndex &&
		d.Last == o.Last &&
		bytes.Equal(d.Data, o.Data)
}

func (d Datagroup) String() string {
	last := ""
	if d.Last {
		last = " last"
	}
	return fmt.Sprintf("%s tid=%d seg=%d%s len=%d", d.Type, d.TransportID, d.SegmentIndex, last, len(d.Data))
}

// Source yields datagroups one at a time. Next returns io.EOF once the
// source is exhausted.
type Source interface {
	Next(ctx context.Context) (Datagroup, error)
}

// SliceSource serves datagroups from memory.
type SliceSource struct {
	items []Datagroup
	pos   int
}

func NewSliceSource(items ...Datagroup) *SliceSource {
	return &SliceSource{items: items}
}

func (s *SliceSource) Next(ctx context.Context) (Datagroup, error) {
	if err := ctx.Err(); err != nil {
		return Datagroup{}, err
	}
	if s.pos >= len(s.items) {
		return Datagroup{}, io.EOF
	}
	dg := s.items[s.pos]
	s.pos++
	return dg, nil
}

// All adapts a Source into a sequence. Iteration stops at io.EOF; any
// other error is yielded once and ends the sequence.
func All(ctx context.Context, src Source) iter.Seq2[Datagroup, error] {
	return func(yield func(Datagroup, error) bool) {
		for {
			dg, err := src.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Datagroup{}, err)
				return
			}
			if !yield(dg, nil) {
				return
			}
		}
	}
}

// FromPayloads builds the datagroups of one entity from segment payloads.
func FromPayloads(t Type, transportID uint16, payloads [][]byte) []Datagroup {
	out := make([]Datagroup, len(payloads))
	for i, p := range payloads {
		out[i] = Datagroup{
			Type:         t,
			TransportID:  transportID,
			SegmentIndex: uint32(i),
			Last:         i == len(payloads)-1,
			Data:         p,
		}
	}
	return out
}

// Segment splits data into segment payloads of at most size bytes and
// wraps them as the datagroups of one entity.
func Segment(t Type, transportID uint16, data []byte, size int) ([]Datagroup, error) {
	parts, err := segment.Split(data, size)
	if err != nil {
		return nil, err
	}
	return FromPayloads(t, transportID, parts), nil
}
