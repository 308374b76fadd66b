package param

import (
	"time"

	"github.com/danmuck/mot/internal/protocol/mottime"
)

// Directory extension parameter ids.
const (
	IDSortedHeaderInformation       uint8 = 0
	IDDefaultPermitOutdatedVersions uint8 = 1
	IDDefaultExpiration             uint8 = 9
)

// DefaultPermitOutdatedVersions tells decoders whether an outdated object
// version may be presented until the new one is received, for objects
// that do not carry their own PermitOutdatedVersions.
type DefaultPermitOutdatedVersions struct {
	Permit bool
}

func (DefaultPermitOutdatedVersions) ID() uint8  { return IDDefaultPermitOutdatedVersions }
func (DefaultPermitOutdatedVersions) Kind() Kind { return KindDefaultPermitOutdatedVersions }

func (p DefaultPermitOutdatedVersions) String() string {
	if p.Permit {
		return "permitted"
	}
	return "forbidden"
}

func (p DefaultPermitOutdatedVersions) Payload() ([]byte, error) {
	if p.Permit {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func decodeDefaultPermitOutdatedVersions(payload []byte) (Parameter, error) {
	if len(payload) != 1 {
		return nil, invalid(IDDefaultPermitOutdatedVersions, "payload", "expected 1 byte, got %d", len(payload))
	}
	switch payload[0] {
	case 0:
		return DefaultPermitOutdatedVersions{Permit: false}, nil
	case 1:
		return DefaultPermitOutdatedVersions{Permit: true}, nil
	default:
		return nil, invalid(IDDefaultPermitOutdatedVersions, "permit", "invalid bool value %d", payload[0])
	}
}

// DefaultRelativeExpiration is the directory wide relative expiration for
// objects without an Expiration parameter.
type DefaultRelativeExpiration struct {
	Offset time.Duration
}

func (DefaultRelativeExpiration) ID() uint8        { return IDDefaultExpiration }
func (DefaultRelativeExpiration) Kind() Kind       { return KindDefaultExpiration }
func (e DefaultRelativeExpiration) String() string { return "+" + e.Offset.String() }

func (e DefaultRelativeExpiration) Payload() ([]byte, error) {
	return RelativeExpiration(e).Payload()
}

// DefaultAbsoluteExpiration is the directory wide absolute expiration for
// objects without an Expiration parameter.
type DefaultAbsoluteExpiration struct {
	Time time.Time
}

func (DefaultAbsoluteExpiration) ID() uint8        { return IDDefaultExpiration }
func (DefaultAbsoluteExpiration) Kind() Kind       { return KindDefaultExpiration }
func (e DefaultAbsoluteExpiration) String() string { return AbsoluteExpiration(e).String() }

func (e DefaultAbsoluteExpiration) Payload() ([]byte, error) {
	b, err := mottime.EncodeAbsolute(e.Time)
	if err != nil {
		return nil, &ValidationError{ID: IDDefaultExpiration, Field: "time", Reason: "out of range", Err: err}
	}
	return b, nil
}

func decodeDefaultExpiration(payload []byte) (Parameter, error) {
	rel, abs, err := decodeTimeField(IDDefaultExpiration, payload)
	if err != nil {
		return nil, err
	}
	if abs == nil {
		return DefaultRelativeExpiration{Offset: rel}, nil
	}
	return DefaultAbsoluteExpiration{Time: *abs}, nil
}

// SortedHeaderInformation signals that directory entries are sorted by
// ContentName.
type SortedHeaderInformation struct{}

func (SortedHeaderInformation) ID() uint8                { return IDSortedHeaderInformation }
func (SortedHeaderInformation) Kind() Kind               { return KindSortedHeaderInformation }
func (SortedHeaderInformation) String() string           { return "sorted" }
func (SortedHeaderInformation) Payload() ([]byte, error) { return nil, nil }

func decodeSortedHeaderInformation(payload []byte) (Parameter, error) {
	if len(payload) != 0 {
		return nil, invalid(IDSortedHeaderInformation, "payload", "expected no data, got %d bytes", len(payload))
	}
	return SortedHeaderInformation{}, nil
}
