package datagroup

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestEqual(t *testing.T) {
	a := Datagroup{Type: TypeBody, TransportID: 7, SegmentIndex: 1, Last: true, Data: []byte{1, 2}}
	b := a
	b.Data = []byte{1, 2}
	if !a.Equal(b) {
		t.Fatalf("expected equal datagroups")
	}
	b.Last = false
	if a.Equal(b) {
		t.Fatalf("expected last flag to matter")
	}
	if got := a.String(); got != "body tid=7 seg=1 last len=2" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource(FromPayloads(TypeHeader, 3, [][]byte{{1}, {2}})...)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		dg, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if dg.SegmentIndex != uint32(i) || dg.Last != (i == 1) {
			t.Fatalf("unexpected datagroup %v", dg)
		}
	}
	if _, err := src.Next(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := NewSliceSource().Next(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type failingSource struct{ err error }

func (f failingSource) Next(context.Context) (Datagroup, error) {
	return Datagroup{}, f.err
}

func TestAll(t *testing.T) {
	n := 0
	for dg, err := range All(context.Background(), NewSliceSource(FromPayloads(TypeBody, 1, [][]byte{{1}, {2}, {3}})...)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dg.TransportID != 1 {
			t.Fatalf("unexpected datagroup %v", dg)
		}
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("expected early stop after 2, got %d", n)
	}

	boom := errors.New("boom")
	var errs []error
	for _, err := range All(context.Background(), failingSource{err: boom}) {
		errs = append(errs, err)
	}
	if len(errs) != 1 || !errors.Is(errs[0], boom) {
		t.Fatalf("expected one boom error, got %v", errs)
	}
}

func TestSegment(t *testing.T) {
	data := make([]byte, 25)
	for i := range data {
		data[i] = byte(i)
	}
	dgs, err := Segment(TypeBody, 9, data, 10)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	if len(dgs) != 3 || len(dgs[2].Data) != 5 || !dgs[2].Last || dgs[1].Last {
		t.Fatalf("unexpected segmentation %v", dgs)
	}
	empty, err := Segment(TypeHeader, 9, nil, 10)
	if err != nil || len(empty) != 1 || !empty[0].Last {
		t.Fatalf("expected one empty last segment, got %v %v", empty, err)
	}
}
