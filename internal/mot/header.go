package mot

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/danmuck/mot/internal/protocol/param"
	"github.com/icza/bitio"
	"github.com/rs/zerolog/log"
)

const (
	// CoreHeaderLen is the size of the core header in bytes.
	CoreHeaderLen = 7

	maxBodySize   = 1<<28 - 1
	maxHeaderSize = 1<<13 - 1
)

// CoreHeader is the fixed start of every header and directory entry.
// HeaderSize counts the core header itself plus the parameters.
type CoreHeader struct {
	BodySize    uint32
	HeaderSize  uint16
	ContentType ContentType
}

// MarshalBinary renders the 56 bit core header.
func (h CoreHeader) MarshalBinary() ([]byte, error) {
	if h.BodySize > maxBodySize {
		return nil, fmt.Errorf("%w: body size %d", ErrFieldRange, h.BodySize)
	}
	if h.HeaderSize > maxHeaderSize {
		return nil, fmt.Errorf("%w: header size %d", ErrFieldRange, h.HeaderSize)
	}
	if !h.ContentType.valid() {
		return nil, fmt.Errorf("%w: content type %s", ErrFieldRange, h.ContentType)
	}
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	w.TryWriteBits(uint64(h.BodySize), 28)
	w.TryWriteBits(uint64(h.HeaderSize), 13)
	w.TryWriteBits(uint64(h.ContentType.Type), 6)
	w.TryWriteBits(uint64(h.ContentType.Subtype), 9)
	if w.TryError != nil {
		return nil, w.TryError
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseCoreHeader reads the core header at the start of b.
func ParseCoreHeader(b []byte) (CoreHeader, error) {
	if len(b) < CoreHeaderLen {
		return CoreHeader{}, fmt.Errorf("%w: core header needs %d bytes, got %d", ErrTruncated, CoreHeaderLen, len(b))
	}
	r := bitio.NewReader(bytes.NewReader(b[:CoreHeaderLen]))
	h := CoreHeader{
		BodySize:   uint32(r.TryReadBits(28)),
		HeaderSize: uint16(r.TryReadBits(13)),
		ContentType: ContentType{
			Type:    uint8(r.TryReadBits(6)),
			Subtype: uint16(r.TryReadBits(9)),
		},
	}
	if r.TryError != nil {
		return CoreHeader{}, fmt.Errorf("%w: %v", ErrTruncated, r.TryError)
	}
	return h, nil
}

// Header is a decoded header segment.
type Header struct {
	Core       CoreHeader
	Parameters []param.Parameter
	// Skipped lists parameter ids that had no registered decoder.
	Skipped []uint8
}

// DecodeHeader parses a header segment payload. Parameters are read up to
// the declared header size. Unknown parameters are skipped; any other
// parameter failure is returned.
func DecodeHeader(reg *param.Registry, data []byte) (*Header, error) {
	core, err := ParseCoreHeader(data)
	if err != nil {
		return nil, err
	}
	end := int(core.HeaderSize)
	if end < CoreHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidHeaderSize, end)
	}
	if end > len(data) {
		return nil, fmt.Errorf("%w: header signals %d bytes, %d available", ErrTruncated, end, len(data))
	}

	h := &Header{Core: core}
	params, skipped, err := decodeParameters(reg, data[CoreHeaderLen:end])
	h.Parameters = params
	h.Skipped = skipped
	if err != nil {
		return nil, err
	}
	return h, nil
}

// decodeParameters reads parameters until data is exhausted. It stops at
// the first error other than an unknown parameter and returns what was
// decoded so far alongside the error.
func decodeParameters(reg *param.Registry, data []byte) ([]param.Parameter, []uint8, error) {
	var (
		params  []param.Parameter
		skipped []uint8
	)
	for offset := 0; offset < len(data); {
		p, n, err := param.Decode(reg, data[offset:])
		if err != nil {
			var unknown *param.UnknownParameterError
			if errors.As(err, &unknown) && n > 0 {
				log.Warn().Uint8("id", unknown.ID).Int("offset", offset).Int("size", n).
					Str("registry", reg.Name()).Msg("skipping unknown parameter")
				skipped = append(skipped, unknown.ID)
				offset += n
				continue
			}
			return params, skipped, fmt.Errorf("mot: parameter at offset %d: %w", offset, err)
		}
		log.Debug().Uint8("id", p.ID()).Stringer("kind", p.Kind()).Int("size", n).Msg("decoded parameter")
		params = append(params, p)
		offset += n
	}
	return params, skipped, nil
}

// EncodeHeader renders the header segment payload of obj.
func EncodeHeader(obj *Object) ([]byte, error) {
	params, err := encodeParameters(obj.Parameters(), param.EncodeHeader)
	if err != nil {
		return nil, err
	}
	core := CoreHeader{
		BodySize:    uint32(len(obj.Body())),
		HeaderSize:  uint16(CoreHeaderLen + len(params)),
		ContentType: obj.ContentType(),
	}
	if CoreHeaderLen+len(params) > maxHeaderSize {
		return nil, fmt.Errorf("%w: header of %d bytes", ErrFieldRange, CoreHeaderLen+len(params))
	}
	if len(obj.Body()) > maxBodySize {
		return nil, fmt.Errorf("%w: body of %d bytes", ErrFieldRange, len(obj.Body()))
	}
	head, err := core.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(head, params...), nil
}

func encodeParameters(params []param.Parameter, encode func(param.Parameter) ([]byte, error)) ([]byte, error) {
	var out []byte
	for _, p := range params {
		b, err := encode(p)
		if err != nil {
			return nil, fmt.Errorf("mot: encode %s: %w", p.Kind(), err)
		}
		out = append(out, b...)
	}
	return out, nil
}
