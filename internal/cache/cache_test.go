package cache

import (
	"errors"
	"testing"

	"github.com/danmuck/mot/internal/datagroup"
	"github.com/danmuck/mot/internal/mot"
	"github.com/danmuck/mot/internal/protocol/param"
	"github.com/danmuck/mot/internal/testutil/testlog"
)

func body(tid uint16, idx uint32, last bool) datagroup.Datagroup {
	return datagroup.Datagroup{Type: datagroup.TypeBody, TransportID: tid, SegmentIndex: idx, Last: last, Data: []byte{byte(idx)}}
}

func header(tid uint16, idx uint32, last bool) datagroup.Datagroup {
	return datagroup.Datagroup{Type: datagroup.TypeHeader, TransportID: tid, SegmentIndex: idx, Last: last, Data: []byte{0xff, byte(idx)}}
}

func directoryDatagroups(t *testing.T, tid uint16, entries ...uint16) []datagroup.Datagroup {
	t.Helper()
	d := &mot.Directory{}
	for _, e := range entries {
		d.Entries = append(d.Entries, mot.DirectoryEntry{
			TransportID: e,
			Core:        mot.CoreHeader{BodySize: 1, ContentType: mot.TextASCII},
			Parameters:  []param.Parameter{param.NewContentName("x")},
		})
	}
	b, err := mot.EncodeDirectory(d)
	if err != nil {
		t.Fatalf("encode directory: %v", err)
	}
	dgs, err := datagroup.Segment(datagroup.TypeDirectory, tid, b, 16)
	if err != nil {
		t.Fatalf("segment directory: %v", err)
	}
	return dgs
}

func TestIngestOrderAndDedup(t *testing.T) {
	testlog.Start(t)
	c := New(mot.NewRegistries())
	for _, dg := range []datagroup.Datagroup{body(1, 2, true), header(1, 0, true), body(1, 0, false), body(1, 1, false)} {
		if !c.Ingest(dg) {
			t.Fatalf("expected %v to be stored", dg)
		}
	}
	if c.Ingest(body(1, 1, false)) {
		t.Fatalf("expected duplicate to be ignored")
	}
	bodies := c.Datagroups(1, datagroup.TypeBody)
	if len(bodies) != 3 {
		t.Fatalf("expected 3 bodies, got %v", bodies)
	}
	for i, dg := range bodies {
		if dg.SegmentIndex != uint32(i) {
			t.Fatalf("expected sorted bodies, got %v", bodies)
		}
	}
	if got := c.entries[1][0].Type; got != datagroup.TypeHeader {
		t.Fatalf("expected header first, got %v", got)
	}

	replaced := body(1, 1, false)
	replaced.Data = []byte{9}
	if !c.Ingest(replaced) {
		t.Fatalf("expected changed slot to be replaced")
	}
	if got := c.Datagroups(1, datagroup.TypeBody); len(got) != 3 || got[1].Data[0] != 9 {
		t.Fatalf("unexpected bodies after replace %v", got)
	}
}

func TestCompleteness(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		dgs  []datagroup.Datagroup
		want bool
	}{
		{"empty", nil, false},
		{"body only", []datagroup.Datagroup{body(1, 0, true)}, false},
		{"header only", []datagroup.Datagroup{header(1, 0, true)}, false},
		{"complete", []datagroup.Datagroup{header(1, 0, true), body(1, 0, false), body(1, 1, true)}, true},
		{"body gap", []datagroup.Datagroup{header(1, 0, true), body(1, 0, false), body(1, 2, true)}, false},
		{"body not from zero", []datagroup.Datagroup{header(1, 0, true), body(1, 1, true)}, false},
		{"last not flagged", []datagroup.Datagroup{header(1, 0, true), body(1, 0, false), body(1, 1, false)}, false},
		{"header not last", []datagroup.Datagroup{header(1, 0, false), body(1, 0, true)}, false},
		{"header gap", []datagroup.Datagroup{header(1, 0, false), header(1, 2, true), body(1, 0, true)}, false},
		{"body after last", []datagroup.Datagroup{header(1, 0, true), body(1, 0, true), body(1, 1, false)}, false},
		{"flagged body after last", []datagroup.Datagroup{header(1, 0, true), body(1, 0, true), body(1, 1, true)}, false},
		{"header after last", []datagroup.Datagroup{header(1, 0, true), header(1, 1, false), body(1, 0, true)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(mot.NewRegistries())
			for _, dg := range tc.dgs {
				c.Ingest(dg)
			}
			if got := c.IsComplete(1); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDirectorySubstitutesHeader(t *testing.T) {
	testlog.Start(t)
	c := New(mot.NewRegistries())
	c.Ingest(body(5, 0, true))
	if c.IsComplete(5) || c.HasDirectory() {
		t.Fatalf("expected incomplete without header or directory")
	}
	if _, err := c.Directory(); !errors.Is(err, ErrNoDirectory) {
		t.Fatalf("expected ErrNoDirectory, got %v", err)
	}

	dir := directoryDatagroups(t, 100, 5, 6)
	if len(dir) < 2 {
		t.Fatalf("expected a multi segment directory")
	}
	for _, dg := range dir[:len(dir)-1] {
		c.Ingest(dg)
	}
	if c.IsComplete(5) {
		t.Fatalf("expected incomplete with partial directory")
	}
	c.Ingest(dir[len(dir)-1])
	if !c.IsComplete(5) || c.HeaderComplete(5) {
		t.Fatalf("expected completion through directory")
	}
	if c.IsComplete(100) {
		t.Fatalf("directory transport id has no body")
	}

	d, err := c.Directory()
	if err != nil {
		t.Fatalf("directory: %v", err)
	}
	if _, ok := d.Lookup(6); !ok {
		t.Fatalf("expected entry 6 in %v", d.Entries)
	}
	c.Remove(100)
	again, err := c.Directory()
	if err != nil || again != d {
		t.Fatalf("expected cached directory after removal, got %v %v", again, err)
	}
	if !c.HasDirectory() {
		t.Fatalf("expected directory to stay available")
	}
}

func TestTrailingSegmentReplaced(t *testing.T) {
	testlog.Start(t)
	c := New(mot.NewRegistries())
	for _, dg := range []datagroup.Datagroup{header(1, 0, true), body(1, 1, false), body(1, 0, true)} {
		c.Ingest(dg)
	}
	if c.IsComplete(1) {
		t.Fatalf("expected stale trailing body to block completion")
	}
	c.Ingest(body(1, 0, false))
	c.Ingest(body(1, 1, true))
	if !c.IsComplete(1) {
		t.Fatalf("expected completion once the run is consistent")
	}
}

func TestDirectoryTracking(t *testing.T) {
	testlog.Start(t)
	c := New(mot.NewRegistries())
	c.Ingest(body(5, 0, true))
	for _, dg := range directoryDatagroups(t, 200, 5) {
		c.Ingest(dg)
	}
	for _, dg := range directoryDatagroups(t, 100, 6) {
		c.Ingest(dg)
	}
	if tid, ok := c.directoryTransportID(); !ok || tid != 100 {
		t.Fatalf("expected lowest directory tid 100, got %d %v", tid, ok)
	}

	// a trailing segment past the flagged one makes the run incomplete again
	c.Ingest(datagroup.Datagroup{Type: datagroup.TypeDirectory, TransportID: 100, SegmentIndex: 40, Data: []byte{1}})
	if tid, ok := c.directoryTransportID(); !ok || tid != 200 {
		t.Fatalf("expected directory tid 200, got %d %v", tid, ok)
	}
	c.Remove(200)
	if c.HasDirectory() || c.IsComplete(5) {
		t.Fatalf("expected no directory after removal")
	}
	d, err := c.Directory()
	if !errors.Is(err, ErrNoDirectory) || d != nil {
		t.Fatalf("expected ErrNoDirectory, got %v %v", d, err)
	}
}

func TestDirectoryErrorIsKept(t *testing.T) {
	testlog.Start(t)
	c := New(mot.NewRegistries())
	c.Ingest(datagroup.Datagroup{Type: datagroup.TypeDirectory, TransportID: 2, Last: true, Data: []byte{0, 1}})
	_, err := c.Directory()
	if !errors.Is(err, mot.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if _, again := c.Directory(); again != err {
		t.Fatalf("expected identical cached error, got %v", again)
	}
}

func TestRemoveEvictAndIDs(t *testing.T) {
	testlog.Start(t)
	c := New(mot.NewRegistries())
	for _, tid := range []uint16{9, 3, 7} {
		c.Ingest(body(tid, 0, false))
	}
	ids := c.TransportIDs()
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 7 || ids[2] != 9 {
		t.Fatalf("expected sorted ids, got %v", ids)
	}
	c.Remove(7)
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	n := c.Evict(func(tid uint16, _ []datagroup.Datagroup) bool { return tid > 5 })
	if n != 1 || c.Len() != 1 || c.TransportIDs()[0] != 3 {
		t.Fatalf("unexpected eviction n=%d ids=%v", n, c.TransportIDs())
	}
}
