// Package epg adds the electronic programme guide content types and
// scope parameters to the MOT codecs.
package epg

import (
	"time"

	"github.com/danmuck/mot/internal/mot"
	"github.com/danmuck/mot/internal/protocol/mottime"
	"github.com/danmuck/mot/internal/protocol/param"
)

const (
	IDScopeStart uint8 = 0x25
	IDScopeEnd   uint8 = 0x26
)

var (
	ServiceInformation   = mot.ContentType{Type: 7, Subtype: 0}
	ProgrammeInformation = mot.ContentType{Type: 7, Subtype: 1}
	GroupInformation     = mot.ContentType{Type: 7, Subtype: 2}
)

// ContentTypeName names the EPG content types, falling back to the core
// catalog for everything else.
func ContentTypeName(ct mot.ContentType) (string, bool) {
	switch ct {
	case ServiceInformation:
		return "epg/service-information", true
	case ProgrammeInformation:
		return "epg/programme-information", true
	case GroupInformation:
		return "epg/group-information", true
	}
	return ct.Name()
}

// ScopeStart is the start of the period an EPG object covers. Sub second
// precision is not carried.
type ScopeStart struct {
	Start time.Time
}

func (ScopeStart) ID() uint8        { return IDScopeStart }
func (ScopeStart) Kind() param.Kind { return param.ExtensionKind(IDScopeStart) }
func (s ScopeStart) String() string { return formatScope(s.Start) }

func (s ScopeStart) Payload() ([]byte, error) {
	return encodeScope(IDScopeStart, s.Start)
}

// ScopeEnd is the end of the period an EPG object covers.
type ScopeEnd struct {
	End time.Time
}

func (ScopeEnd) ID() uint8        { return IDScopeEnd }
func (ScopeEnd) Kind() param.Kind { return param.ExtensionKind(IDScopeEnd) }
func (s ScopeEnd) String() string { return formatScope(s.End) }

func (s ScopeEnd) Payload() ([]byte, error) {
	return encodeScope(IDScopeEnd, s.End)
}

func encodeScope(id uint8, t time.Time) ([]byte, error) {
	if !t.IsZero() {
		t = t.Truncate(time.Second)
	}
	b, err := mottime.EncodeAbsolute(t)
	if err != nil {
		return nil, &param.ValidationError{ID: id, Field: "time", Reason: "out of range", Err: err}
	}
	return b, nil
}

func decodeScope(id uint8, payload []byte) (time.Time, error) {
	t, err := mottime.DecodeAbsolute(payload)
	if err != nil {
		return time.Time{}, &param.ValidationError{ID: id, Field: "time", Reason: "invalid", Err: err}
	}
	return t, nil
}

func formatScope(t time.Time) string {
	if t.IsZero() {
		return "now"
	}
	return t.UTC().Format(time.RFC3339)
}

// Register adds the scope decoders to a header registry.
func Register(reg *param.Registry) error {
	if err := reg.Register(IDScopeStart, func(payload []byte) (param.Parameter, error) {
		t, err := decodeScope(IDScopeStart, payload)
		if err != nil {
			return nil, err
		}
		return ScopeStart{Start: t}, nil
	}); err != nil {
		return err
	}
	return reg.Register(IDScopeEnd, func(payload []byte) (param.Parameter, error) {
		t, err := decodeScope(IDScopeEnd, payload)
		if err != nil {
			return nil, err
		}
		return ScopeEnd{End: t}, nil
	})
}

// Registries returns fresh core registries with the EPG header
// parameters registered.
func Registries() (mot.Registries, error) {
	regs := mot.NewRegistries()
	if err := Register(regs.Header); err != nil {
		return mot.Registries{}, err
	}
	return regs, nil
}
