package param

import (
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/mot/internal/protocol/mottime"
	"golang.org/x/text/encoding/charmap"
)

// Header parameter ids.
const (
	IDExpiration  uint8 = 4
	IDPriority    uint8 = 10
	IDContentName uint8 = 12
	IDMimeType    uint8 = 16
	IDCompression uint8 = 17
)

// CharacterSet is the 4 bit charset indicator of a ContentName.
type CharacterSet uint8

const (
	CharsetEBULatin           CharacterSet = 0
	CharsetEBULatinCommonCore CharacterSet = 1
	CharsetEBULatinCore       CharacterSet = 2
	CharsetISOLatin2          CharacterSet = 3
	CharsetISOLatin1          CharacterSet = 4
	CharsetISO10646           CharacterSet = 15
)

func (c CharacterSet) valid() bool {
	return c <= CharsetISOLatin1 || c == CharsetISO10646
}

func (c CharacterSet) String() string {
	switch c {
	case CharsetEBULatin:
		return "ebu-latin"
	case CharsetEBULatinCommonCore:
		return "ebu-latin-common-core"
	case CharsetEBULatinCore:
		return "ebu-latin-core"
	case CharsetISOLatin2:
		return "iso-8859-2"
	case CharsetISOLatin1:
		return "iso-8859-1"
	case CharsetISO10646:
		return "iso-10646"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// The EBU sets have no x/text mapping and pass through byte for byte.
func (c CharacterSet) charmap() *charmap.Charmap {
	switch c {
	case CharsetISOLatin1:
		return charmap.ISO8859_1
	case CharsetISOLatin2:
		return charmap.ISO8859_2
	default:
		return nil
	}
}

// ContentName uniquely identifies an object within a carousel.
type ContentName struct {
	Name    string
	Charset CharacterSet
}

// NewContentName returns a Latin-1 content name.
func NewContentName(name string) ContentName {
	return ContentName{Name: name, Charset: CharsetISOLatin1}
}

func (ContentName) ID() uint8        { return IDContentName }
func (ContentName) Kind() Kind       { return KindContentName }
func (c ContentName) String() string { return c.Name }

func (c ContentName) Payload() ([]byte, error) {
	if !c.Charset.valid() {
		return nil, invalid(IDContentName, "charset", "unsupported indicator %d", c.Charset)
	}
	name := []byte(c.Name)
	if cm := c.Charset.charmap(); cm != nil {
		encoded, err := cm.NewEncoder().Bytes(name)
		if err != nil {
			return nil, &ValidationError{ID: IDContentName, Field: "name", Reason: "not representable in " + c.Charset.String(), Err: err}
		}
		name = encoded
	}
	return append([]byte{byte(c.Charset) << 4}, name...), nil
}

func decodeContentName(payload []byte) (Parameter, error) {
	if len(payload) == 0 {
		return nil, invalid(IDContentName, "payload", "missing charset indicator")
	}
	charset := CharacterSet(payload[0] >> 4)
	if !charset.valid() {
		return nil, invalid(IDContentName, "charset", "unsupported indicator %d", charset)
	}
	name := trimPadding(payload[1:])
	if cm := charset.charmap(); cm != nil {
		decoded, err := cm.NewDecoder().Bytes(name)
		if err != nil {
			return nil, &ValidationError{ID: IDContentName, Field: "name", Reason: "invalid " + charset.String(), Err: err}
		}
		name = decoded
	}
	return ContentName{Name: string(name), Charset: charset}, nil
}

// MimeType carries the MIME type of the object body.
type MimeType struct {
	Type string
}

func (MimeType) ID() uint8        { return IDMimeType }
func (MimeType) Kind() Kind       { return KindMimeType }
func (m MimeType) String() string { return m.Type }

func (m MimeType) Payload() ([]byte, error) {
	return []byte(m.Type), nil
}

func decodeMimeType(payload []byte) (Parameter, error) {
	return MimeType{Type: string(trimPadding(payload))}, nil
}

// RelativeExpiration is the time an object stays valid after reception
// loss. The offset is truncated to the step of its granularity on encode.
type RelativeExpiration struct {
	Offset time.Duration
}

// NewRelativeExpiration validates that offset fits the relative time range.
func NewRelativeExpiration(offset time.Duration) (RelativeExpiration, error) {
	if _, err := mottime.EncodeRelative(offset); err != nil {
		return RelativeExpiration{}, &ValidationError{ID: IDExpiration, Field: "offset", Reason: "out of range", Err: err}
	}
	return RelativeExpiration{Offset: offset}, nil
}

func (RelativeExpiration) ID() uint8        { return IDExpiration }
func (RelativeExpiration) Kind() Kind       { return KindExpiration }
func (e RelativeExpiration) String() string { return "+" + e.Offset.String() }

func (e RelativeExpiration) Payload() ([]byte, error) {
	b, err := mottime.EncodeRelative(e.Offset)
	if err != nil {
		return nil, &ValidationError{ID: IDExpiration, Field: "offset", Reason: "out of range", Err: err}
	}
	return b, nil
}

// AbsoluteExpiration is the UTC time after which an object is invalid.
type AbsoluteExpiration struct {
	Time time.Time
}

func (AbsoluteExpiration) ID() uint8  { return IDExpiration }
func (AbsoluteExpiration) Kind() Kind { return KindExpiration }

func (e AbsoluteExpiration) String() string {
	if e.Time.IsZero() {
		return "now"
	}
	return e.Time.UTC().Format(time.RFC3339Nano)
}

func (e AbsoluteExpiration) Payload() ([]byte, error) {
	b, err := mottime.EncodeAbsolute(e.Time)
	if err != nil {
		return nil, &ValidationError{ID: IDExpiration, Field: "time", Reason: "out of range", Err: err}
	}
	return b, nil
}

func decodeExpiration(payload []byte) (Parameter, error) {
	rel, abs, err := decodeTimeField(IDExpiration, payload)
	if err != nil {
		return nil, err
	}
	if abs == nil {
		return RelativeExpiration{Offset: rel}, nil
	}
	return AbsoluteExpiration{Time: *abs}, nil
}

// decodeTimeField picks relative or absolute time by payload length.
func decodeTimeField(id uint8, payload []byte) (time.Duration, *time.Time, error) {
	switch len(payload) {
	case mottime.RelativeLen:
		d, err := mottime.DecodeRelative(payload)
		if err != nil {
			return 0, nil, &ValidationError{ID: id, Field: "relative", Reason: "invalid", Err: err}
		}
		return d, nil, nil
	case mottime.AbsoluteShortLen, mottime.AbsoluteLongLen:
		t, err := mottime.DecodeAbsolute(payload)
		if err != nil {
			return 0, nil, &ValidationError{ID: id, Field: "absolute", Reason: "invalid", Err: err}
		}
		return 0, &t, nil
	default:
		return 0, nil, invalid(id, "payload", "unknown data length %d bytes for expiration", len(payload))
	}
}

// CompressionType identifies the algorithm applied to an object body.
type CompressionType uint8

const (
	CompressionReserved CompressionType = 0
	CompressionGzip     CompressionType = 1
)

func (t CompressionType) String() string {
	switch t {
	case CompressionReserved:
		return "reserved"
	case CompressionGzip:
		return "gzip"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Compression signals that the body was compressed.
type Compression struct {
	Type CompressionType
}

// Gzip is the Compression parameter for gzip bodies.
var Gzip = Compression{Type: CompressionGzip}

func (Compression) ID() uint8        { return IDCompression }
func (Compression) Kind() Kind       { return KindCompression }
func (c Compression) String() string { return c.Type.String() }

func (c Compression) Payload() ([]byte, error) {
	return []byte{byte(c.Type)}, nil
}

func decodeCompression(payload []byte) (Parameter, error) {
	if len(payload) != 1 {
		return nil, invalid(IDCompression, "payload", "expected 1 byte, got %d", len(payload))
	}
	t := CompressionType(payload[0])
	if t > CompressionGzip {
		return nil, invalid(IDCompression, "type", "unknown compression type %d", payload[0])
	}
	return Compression{Type: t}, nil
}

// Priority is the storage priority of an object, 1 (highest) to 255.
type Priority struct {
	value uint8
}

// NewPriority rejects values outside 1..255.
func NewPriority(p int) (Priority, error) {
	if p < 1 || p > 255 {
		return Priority{}, invalid(IDPriority, "priority", "must be between 1 and 255, got %d", p)
	}
	return Priority{value: uint8(p)}, nil
}

func (Priority) ID() uint8        { return IDPriority }
func (Priority) Kind() Kind       { return KindPriority }
func (p Priority) Value() uint8   { return p.value }
func (p Priority) String() string { return fmt.Sprintf("%d", p.value) }

func (p Priority) Payload() ([]byte, error) {
	if p.value == 0 {
		return nil, invalid(IDPriority, "priority", "must be between 1 and 255, got 0")
	}
	return []byte{p.value}, nil
}

func decodePriority(payload []byte) (Parameter, error) {
	if len(payload) != 1 {
		return nil, invalid(IDPriority, "payload", "expected 1 byte, got %d", len(payload))
	}
	return NewPriority(int(payload[0]))
}

// trimPadding drops the NUL bytes PLI=2 encoding adds to short payloads.
func trimPadding(b []byte) []byte {
	return []byte(strings.TrimRight(string(b), "\x00"))
}
