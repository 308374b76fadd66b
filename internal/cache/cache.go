// Package cache holds datagroups per transport id until an object can be
// compiled, and decides when that is.
package cache

import (
	"errors"
	"slices"

	"github.com/danmuck/mot/internal/datagroup"
	"github.com/danmuck/mot/internal/mot"
	"github.com/rs/zerolog/log"
)

// ErrNoDirectory is returned by Directory while no directory has been
// received completely.
var ErrNoDirectory = errors.New("cache: no complete directory")

// Cache is owned by a single decoder and is not safe for concurrent use.
type Cache struct {
	regs    mot.Registries
	entries map[uint16][]datagroup.Datagroup

	// transport ids whose directory run is complete
	directories map[uint16]struct{}

	directory     *mot.Directory
	directoryErr  error
	directoryDone bool
}

func New(regs mot.Registries) *Cache {
	return &Cache{
		regs:        regs,
		entries:     make(map[uint16][]datagroup.Datagroup),
		directories: make(map[uint16]struct{}),
	}
}

// Ingest stores dg under its transport id, keeping the entry ordered by
// type and segment index. An identical datagroup is ignored; a different
// one for an occupied slot replaces it. It reports whether the cache
// changed.
func (c *Cache) Ingest(dg datagroup.Datagroup) bool {
	items := c.entries[dg.TransportID]
	i, found := slices.BinarySearchFunc(items, dg, compareSlot)
	if found {
		if items[i].Equal(dg) {
			log.Debug().Stringer("datagroup", dg).Msg("duplicate datagroup ignored")
			return false
		}
		log.Debug().Stringer("datagroup", dg).Msg("datagroup slot replaced")
		items[i] = dg
	} else {
		items = slices.Insert(items, i, dg)
		c.entries[dg.TransportID] = items
	}
	if dg.Type == datagroup.TypeDirectory {
		c.trackDirectory(dg.TransportID, items)
	}
	return true
}

func (c *Cache) trackDirectory(transportID uint16, items []datagroup.Datagroup) {
	if runComplete(items, datagroup.TypeDirectory) {
		c.directories[transportID] = struct{}{}
		return
	}
	delete(c.directories, transportID)
}

func compareSlot(a, b datagroup.Datagroup) int {
	if a.Type != b.Type {
		return int(a.Type) - int(b.Type)
	}
	switch {
	case a.SegmentIndex < b.SegmentIndex:
		return -1
	case a.SegmentIndex > b.SegmentIndex:
		return 1
	}
	return 0
}

// Datagroups returns the cached datagroups of one type for a transport id,
// in segment order.
func (c *Cache) Datagroups(transportID uint16, t datagroup.Type) []datagroup.Datagroup {
	var out []datagroup.Datagroup
	for _, dg := range c.entries[transportID] {
		if dg.Type == t {
			out = append(out, dg)
		}
	}
	return out
}

// runComplete reports whether dgs holds segments 0..n of one type with
// only the final one flagged. A segment past the flagged one leaves the
// run inconsistent until it is replaced.
func runComplete(dgs []datagroup.Datagroup, t datagroup.Type) bool {
	next := uint32(0)
	closed := false
	for _, dg := range dgs {
		if dg.Type != t {
			continue
		}
		if closed || dg.SegmentIndex != next {
			return false
		}
		closed = dg.Last
		next++
	}
	return closed
}

// IsComplete reports whether transportID has a complete body and either a
// complete header or a directory. A directory that was decoded once keeps
// serving after its datagroups are gone.
func (c *Cache) IsComplete(transportID uint16) bool {
	items := c.entries[transportID]
	if !runComplete(items, datagroup.TypeBody) {
		return false
	}
	if runComplete(items, datagroup.TypeHeader) {
		return true
	}
	return c.HasDirectory()
}

// HeaderComplete reports whether transportID carries its own header.
func (c *Cache) HeaderComplete(transportID uint16) bool {
	return runComplete(c.entries[transportID], datagroup.TypeHeader)
}

// directoryTransportID returns the lowest transport id holding a complete
// directory run.
func (c *Cache) directoryTransportID() (uint16, bool) {
	var (
		first uint16
		found bool
	)
	for tid := range c.directories {
		if !found || tid < first {
			first, found = tid, true
		}
	}
	return first, found
}

// HasDirectory reports whether a complete directory is cached.
func (c *Cache) HasDirectory() bool {
	if c.directoryDone {
		return true
	}
	_, ok := c.directoryTransportID()
	return ok
}

// Directory decodes the first complete directory. The result, error
// included, is kept for the lifetime of the cache.
func (c *Cache) Directory() (*mot.Directory, error) {
	if c.directoryDone {
		return c.directory, c.directoryErr
	}
	tid, ok := c.directoryTransportID()
	if !ok {
		return nil, ErrNoDirectory
	}
	var data []byte
	for _, dg := range c.Datagroups(tid, datagroup.TypeDirectory) {
		data = append(data, dg.Data...)
	}
	log.Debug().Uint16("transport_id", tid).Int("size", len(data)).Msg("decoding cached directory")
	c.directory, c.directoryErr = mot.DecodeDirectory(c.regs, data)
	c.directoryDone = true
	return c.directory, c.directoryErr
}

// Remove drops every datagroup of transportID.
func (c *Cache) Remove(transportID uint16) {
	delete(c.entries, transportID)
	delete(c.directories, transportID)
}

// TransportIDs returns the cached transport ids in ascending order.
func (c *Cache) TransportIDs() []uint16 {
	ids := make([]uint16, 0, len(c.entries))
	for tid := range c.entries {
		ids = append(ids, tid)
	}
	slices.Sort(ids)
	return ids
}

// Len is the number of transport ids held.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Evict drops every entry the predicate selects and returns how many were
// dropped.
func (c *Cache) Evict(drop func(transportID uint16, dgs []datagroup.Datagroup) bool) int {
	n := 0
	for tid, items := range c.entries {
		if drop(tid, items) {
			delete(c.entries, tid)
			delete(c.directories, tid)
			n++
		}
	}
	return n
}
