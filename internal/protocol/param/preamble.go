package param

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
)

const (
	// MaxID is the largest 6 bit parameter id.
	MaxID = 0x3f
	// MaxPayloadLen is the largest payload a 15 bit length field can signal.
	MaxPayloadLen = 1<<15 - 1

	pli2PayloadLen   = 4
	shortLengthLimit = 127
)

// Length indicators.
const (
	PLINoData uint8 = iota
	PLIOneByte
	PLIFourBytes
	PLIVariable
)

// Preamble is the decoded PLI header in front of a parameter payload.
type Preamble struct {
	PLI       uint8
	ID        uint8
	Ext       bool
	HeaderLen int
	DataLen   int
}

// Size is the total size of the parameter on the wire.
func (p Preamble) Size() int {
	return p.HeaderLen + p.DataLen
}

// Encode renders a parameter preamble followed by payload. When padPLI2 is
// set, payloads of two to four bytes use PLI=2 and are zero padded to four
// bytes. Otherwise only four byte payloads use PLI=2 and shorter ones carry
// an explicit length.
func Encode(id uint8, payload []byte, padPLI2 bool) ([]byte, error) {
	if id > MaxID {
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidID, id)
	}
	n := len(payload)
	if n > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, n)
	}

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	switch {
	case n == 0:
		w.TryWriteBits(uint64(PLINoData), 2)
		w.TryWriteBits(uint64(id), 6)
	case n == 1:
		w.TryWriteBits(uint64(PLIOneByte), 2)
		w.TryWriteBits(uint64(id), 6)
	case n == pli2PayloadLen || (padPLI2 && n < pli2PayloadLen):
		w.TryWriteBits(uint64(PLIFourBytes), 2)
		w.TryWriteBits(uint64(id), 6)
		if padPLI2 {
			padded := make([]byte, pli2PayloadLen)
			copy(padded, payload)
			payload = padded
		}
	case n <= shortLengthLimit:
		w.TryWriteBits(uint64(PLIVariable), 2)
		w.TryWriteBits(uint64(id), 6)
		w.TryWriteBool(false)
		w.TryWriteBits(uint64(n), 7)
	default:
		w.TryWriteBits(uint64(PLIVariable), 2)
		w.TryWriteBits(uint64(id), 6)
		w.TryWriteBool(true)
		w.TryWriteBits(uint64(n), 15)
	}
	if w.TryError != nil {
		return nil, w.TryError
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return append(buf.Bytes(), payload...), nil
}

// EncodeHeader renders p with the header parameter encoder.
func EncodeHeader(p Parameter) ([]byte, error) {
	payload, err := p.Payload()
	if err != nil {
		return nil, err
	}
	return Encode(p.ID(), payload, true)
}

// EncodeDirectory renders p with the directory parameter encoder.
func EncodeDirectory(p Parameter) ([]byte, error) {
	payload, err := p.Payload()
	if err != nil {
		return nil, err
	}
	return Encode(p.ID(), payload, false)
}

// ReadPreamble parses the preamble at the start of data. It does not check
// that the signalled payload is present.
func ReadPreamble(data []byte) (Preamble, error) {
	if len(data) == 0 {
		return Preamble{}, fmt.Errorf("%w: empty buffer", ErrMalformedPreamble)
	}
	r := bitio.NewReader(bytes.NewReader(data))
	p := Preamble{
		PLI:       uint8(r.TryReadBits(2)),
		ID:        uint8(r.TryReadBits(6)),
		HeaderLen: 1,
	}
	switch p.PLI {
	case PLINoData:
	case PLIOneByte:
		p.DataLen = 1
	case PLIFourBytes:
		p.DataLen = pli2PayloadLen
	case PLIVariable:
		p.Ext = r.TryReadBool()
		if p.Ext {
			p.DataLen = int(r.TryReadBits(15))
			p.HeaderLen = 3
		} else {
			p.DataLen = int(r.TryReadBits(7))
			p.HeaderLen = 2
		}
	}
	if r.TryError != nil {
		return Preamble{}, fmt.Errorf("%w: id=%d truncated length field", ErrMalformedPreamble, p.ID)
	}
	return p, nil
}

// Decode parses one parameter from the start of data and dispatches its
// payload through reg. The consumed size is returned whenever the preamble
// could be read, including with an *UnknownParameterError or *DecodeError.
func Decode(reg *Registry, data []byte) (Parameter, int, error) {
	pre, err := ReadPreamble(data)
	if err != nil {
		return nil, 0, err
	}
	if pre.Size() > len(data) {
		return nil, 0, fmt.Errorf("%w: id=%d signalled %d bytes, %d available",
			ErrMalformedPreamble, pre.ID, pre.DataLen, len(data)-pre.HeaderLen)
	}

	decode, ok := reg.Lookup(pre.ID)
	if !ok {
		return nil, pre.Size(), &UnknownParameterError{ID: pre.ID, Consumed: pre.Size()}
	}
	p, err := decode(data[pre.HeaderLen:pre.Size()])
	if err != nil {
		return nil, pre.Size(), &DecodeError{ID: pre.ID, Err: err}
	}
	return p, pre.Size(), nil
}
