package mot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/danmuck/mot/internal/protocol/param"
	"github.com/icza/bitio"
	"github.com/rs/zerolog/log"
)

const (
	// DirectoryHeaderLen is the fixed part of a directory before the
	// extension parameters.
	DirectoryHeaderLen = 13

	entryTransportIDLen = 2
	maxDirectorySize    = 1<<28 - 1
	maxCarouselPeriod   = 1<<24 - 1
	maxSegmentSize      = 1<<13 - 1
	maxUint16           = 1<<16 - 1
)

// DirectoryHeader is the fixed part of a directory segment.
type DirectoryHeader struct {
	Size           uint32
	ObjectCount    uint16
	CarouselPeriod uint32
	SegmentSize    uint16
	ExtensionLen   uint16
}

// MarshalBinary renders the 104 bit directory header.
func (h DirectoryHeader) MarshalBinary() ([]byte, error) {
	if h.Size > maxDirectorySize {
		return nil, fmt.Errorf("%w: directory size %d", ErrFieldRange, h.Size)
	}
	if h.CarouselPeriod > maxCarouselPeriod {
		return nil, fmt.Errorf("%w: carousel period %d", ErrFieldRange, h.CarouselPeriod)
	}
	if h.SegmentSize > maxSegmentSize {
		return nil, fmt.Errorf("%w: segment size %d", ErrFieldRange, h.SegmentSize)
	}
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	w.TryWriteBits(0, 4)
	w.TryWriteBits(uint64(h.Size), 28)
	w.TryWriteBits(uint64(h.ObjectCount), 16)
	w.TryWriteBits(uint64(h.CarouselPeriod), 24)
	w.TryWriteBits(0, 3)
	w.TryWriteBits(uint64(h.SegmentSize), 13)
	w.TryWriteBits(uint64(h.ExtensionLen), 16)
	if w.TryError != nil {
		return nil, w.TryError
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseDirectoryHeader reads the fixed directory header at the start of b.
func ParseDirectoryHeader(b []byte) (DirectoryHeader, error) {
	if len(b) < DirectoryHeaderLen {
		return DirectoryHeader{}, fmt.Errorf("%w: directory header needs %d bytes, got %d", ErrTruncated, DirectoryHeaderLen, len(b))
	}
	r := bitio.NewReader(bytes.NewReader(b[:DirectoryHeaderLen]))
	r.TryReadBits(4)
	h := DirectoryHeader{Size: uint32(r.TryReadBits(28))}
	h.ObjectCount = uint16(r.TryReadBits(16))
	h.CarouselPeriod = uint32(r.TryReadBits(24))
	r.TryReadBits(3)
	h.SegmentSize = uint16(r.TryReadBits(13))
	h.ExtensionLen = uint16(r.TryReadBits(16))
	if r.TryError != nil {
		return DirectoryHeader{}, fmt.Errorf("%w: %v", ErrTruncated, r.TryError)
	}
	return h, nil
}

// DirectoryEntry is the header information of one object in a directory.
type DirectoryEntry struct {
	TransportID uint16
	Core        CoreHeader
	Parameters  []param.Parameter
}

// NewDirectoryEntry describes obj for a directory.
func NewDirectoryEntry(obj *Object) DirectoryEntry {
	return DirectoryEntry{
		TransportID: obj.TransportID(),
		Core: CoreHeader{
			BodySize:    uint32(len(obj.Body())),
			ContentType: obj.ContentType(),
		},
		Parameters: obj.Parameters(),
	}
}

func (e DirectoryEntry) ContentType() ContentType {
	return e.Core.ContentType
}

// Directory is a decoded directory segment.
type Directory struct {
	// Size is the directory size as signalled on the wire.
	Size           uint32
	CarouselPeriod uint32
	SegmentSize    uint16
	Parameters     []param.Parameter
	Entries        []DirectoryEntry
	// Errors holds per entry failures; the entries themselves are kept
	// with the parameters decoded before the failure.
	Errors []error

	index map[uint16]int
}

// Lookup returns the entry for a transport id.
func (d *Directory) Lookup(transportID uint16) (DirectoryEntry, bool) {
	if d.index == nil {
		d.reindex()
	}
	i, ok := d.index[transportID]
	if !ok {
		return DirectoryEntry{}, false
	}
	return d.Entries[i], true
}

func (d *Directory) reindex() {
	d.index = make(map[uint16]int, len(d.Entries))
	for i, e := range d.Entries {
		d.index[e.TransportID] = i
	}
}

// Parameter returns the directory wide parameter of the given kind.
func (d *Directory) Parameter(kind param.Kind) (param.Parameter, bool) {
	for _, p := range d.Parameters {
		if p.Kind() == kind {
			return p, true
		}
	}
	return nil, false
}

// CarouselPeriodDuration converts the carousel period from tenths of a
// second. The second result is false when the period is undefined.
func (d *Directory) CarouselPeriodDuration() (time.Duration, bool) {
	if d.CarouselPeriod == 0 {
		return 0, false
	}
	return time.Duration(d.CarouselPeriod) * 100 * time.Millisecond, true
}

// DecodeDirectory parses a directory segment payload. Failures inside one
// entry's parameters are recorded in Directory.Errors and decoding resumes
// at that entry's declared header boundary. Truncated fixed fields abort.
func DecodeDirectory(regs Registries, data []byte) (*Directory, error) {
	head, err := ParseDirectoryHeader(data)
	if err != nil {
		return nil, err
	}
	log.Debug().Uint32("size", head.Size).Uint16("objects", head.ObjectCount).
		Uint32("carousel_period", head.CarouselPeriod).Uint16("segment_size", head.SegmentSize).
		Uint16("extension_len", head.ExtensionLen).Msg("decoding directory")
	if int(head.Size) != len(data) {
		log.Debug().Uint32("signalled", head.Size).Int("available", len(data)).Msg("directory size mismatch")
	}

	d := &Directory{
		Size:           head.Size,
		CarouselPeriod: head.CarouselPeriod,
		SegmentSize:    head.SegmentSize,
		Entries:        make([]DirectoryEntry, 0, head.ObjectCount),
	}

	offset := DirectoryHeaderLen
	extEnd := offset + int(head.ExtensionLen)
	if extEnd > len(data) {
		return nil, fmt.Errorf("%w: extension signals %d bytes, %d available", ErrTruncated, head.ExtensionLen, len(data)-offset)
	}
	params, _, err := decodeParameters(regs.Directory, data[offset:extEnd])
	d.Parameters = params
	if err != nil {
		log.Warn().Err(err).Msg("directory extension decode stopped")
		d.Errors = append(d.Errors, fmt.Errorf("mot: directory extension: %w", err))
	}
	offset = extEnd

	for i := 0; i < int(head.ObjectCount); i++ {
		if len(data)-offset < entryTransportIDLen+CoreHeaderLen {
			return nil, fmt.Errorf("%w: entry %d of %d at offset %d", ErrTruncated, i+1, head.ObjectCount, offset)
		}
		transportID := binary.BigEndian.Uint16(data[offset:])
		start := offset + entryTransportIDLen
		core, err := ParseCoreHeader(data[start:])
		if err != nil {
			return nil, err
		}
		if core.HeaderSize < CoreHeaderLen {
			return nil, fmt.Errorf("%w: transport_id=%d header size %d", ErrInvalidHeaderSize, transportID, core.HeaderSize)
		}
		end := start + int(core.HeaderSize)
		if end > len(data) {
			return nil, fmt.Errorf("%w: transport_id=%d header signals %d bytes, %d available",
				ErrTruncated, transportID, core.HeaderSize, len(data)-start)
		}

		params, _, err := decodeParameters(regs.Header, data[start+CoreHeaderLen:end])
		if err != nil {
			log.Warn().Err(err).Uint16("transport_id", transportID).Msg("skipping rest of directory entry")
			d.Errors = append(d.Errors, &EntryError{TransportID: transportID, Offset: start, Err: err})
		}
		d.Entries = append(d.Entries, DirectoryEntry{TransportID: transportID, Core: core, Parameters: params})
		offset = end
	}
	d.reindex()
	return d, nil
}

// EncodeDirectory renders d as a directory segment payload. Entry header
// sizes and the directory size are computed.
func EncodeDirectory(d *Directory) ([]byte, error) {
	if len(d.Entries) > maxUint16 {
		return nil, fmt.Errorf("%w: %d entries", ErrFieldRange, len(d.Entries))
	}
	ext, err := encodeParameters(d.Parameters, param.EncodeDirectory)
	if err != nil {
		return nil, err
	}
	if len(ext) > maxUint16 {
		return nil, fmt.Errorf("%w: extension of %d bytes", ErrFieldRange, len(ext))
	}

	var entries []byte
	for _, e := range d.Entries {
		params, err := encodeParameters(e.Parameters, param.EncodeHeader)
		if err != nil {
			return nil, fmt.Errorf("mot: directory entry transport_id=%d: %w", e.TransportID, err)
		}
		if CoreHeaderLen+len(params) > maxHeaderSize {
			return nil, fmt.Errorf("%w: transport_id=%d header of %d bytes", ErrFieldRange, e.TransportID, CoreHeaderLen+len(params))
		}
		core := e.Core
		core.HeaderSize = uint16(CoreHeaderLen + len(params))
		head, err := core.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("mot: directory entry transport_id=%d: %w", e.TransportID, err)
		}
		entries = binary.BigEndian.AppendUint16(entries, e.TransportID)
		entries = append(entries, head...)
		entries = append(entries, params...)
	}

	total := DirectoryHeaderLen + len(ext) + len(entries)
	head, err := DirectoryHeader{
		Size:           uint32(total),
		ObjectCount:    uint16(len(d.Entries)),
		CarouselPeriod: d.CarouselPeriod,
		SegmentSize:    d.SegmentSize,
		ExtensionLen:   uint16(len(ext)),
	}.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, total)
	out = append(out, head...)
	out = append(out, ext...)
	return append(out, entries...), nil
}
