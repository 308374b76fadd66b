// Package dump renders MOT segments and decoded objects for inspection.
package dump

import (
	"fmt"
	"strings"

	"github.com/danmuck/mot/internal/mot"
	"github.com/danmuck/mot/internal/protocol/param"
	"github.com/danmuck/mot/internal/protocol/segment"
)

// Mode selects how a segment is interpreted.
type Mode byte

const (
	ModeHeader    Mode = 'h'
	ModeDirectory Mode = 'd'
	ModeBody      Mode = 'b'
)

func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "h", "header":
		return ModeHeader, nil
	case "d", "directory":
		return ModeDirectory, nil
	case "b", "body":
		return ModeBody, nil
	default:
		return 0, fmt.Errorf("dump: unknown mode %q", raw)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeHeader:
		return "header"
	case ModeDirectory:
		return "directory"
	case ModeBody:
		return "body"
	default:
		return fmt.Sprintf("mode(%q)", byte(m))
	}
}

// Options controls segment rendering.
type Options struct {
	Mode       Mode
	Registries mot.Registries
	// Raw input carries no 16 bit segment header.
	Raw      bool
	HexWidth int
	// ContentTypeName overrides the core catalog lookup.
	ContentTypeName func(mot.ContentType) (string, bool)
}

type Report struct {
	Segment   *SegmentReport   `yaml:"segment,omitempty"`
	Header    *HeaderReport    `yaml:"header,omitempty"`
	Directory *DirectoryReport `yaml:"directory,omitempty"`
	Body      *BodyReport      `yaml:"body,omitempty"`
}

type SegmentReport struct {
	Repetition uint8  `yaml:"repetition"`
	Size       uint16 `yaml:"size"`
}

type ParamReport struct {
	ID    uint8  `yaml:"id"`
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

type HeaderReport struct {
	BodySize    uint32        `yaml:"body_size"`
	HeaderSize  uint16        `yaml:"header_size"`
	ContentType string        `yaml:"content_type"`
	Parameters  []ParamReport `yaml:"parameters"`
	Skipped     []uint8       `yaml:"skipped,omitempty"`
}

type EntryReport struct {
	TransportID uint16        `yaml:"transport_id"`
	BodySize    uint32        `yaml:"body_size"`
	HeaderSize  uint16        `yaml:"header_size"`
	ContentType string        `yaml:"content_type"`
	Parameters  []ParamReport `yaml:"parameters"`
}

type DirectoryReport struct {
	Size           uint32        `yaml:"size"`
	CarouselPeriod string        `yaml:"carousel_period"`
	SegmentSize    uint16        `yaml:"segment_size"`
	Parameters     []ParamReport `yaml:"parameters"`
	Entries        []EntryReport `yaml:"entries"`
	Errors         []string      `yaml:"errors,omitempty"`
}

type BodyReport struct {
	Size int      `yaml:"size"`
	Hex  []string `yaml:"hex"`
}

// Segment decodes data according to opts.Mode.
func Segment(data []byte, opts Options) (*Report, error) {
	if opts.Registries.Header == nil {
		opts.Registries = mot.NewRegistries()
	}
	if opts.HexWidth <= 0 {
		opts.HexWidth = 16
	}
	if opts.ContentTypeName == nil {
		opts.ContentTypeName = mot.ContentType.Name
	}

	r := &Report{}
	payload := data
	if !opts.Raw {
		h, p, err := segment.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("dump: segment: %w", err)
		}
		r.Segment = &SegmentReport{Repetition: h.Repetition, Size: h.Size}
		payload = p
	}

	switch opts.Mode {
	case ModeHeader:
		h, err := mot.DecodeHeader(opts.Registries.Header, payload)
		if err != nil {
			return nil, fmt.Errorf("dump: header: %w", err)
		}
		r.Header = &HeaderReport{
			BodySize:    h.Core.BodySize,
			HeaderSize:  h.Core.HeaderSize,
			ContentType: contentType(h.Core.ContentType, opts.ContentTypeName),
			Parameters:  params(h.Parameters),
			Skipped:     h.Skipped,
		}
	case ModeDirectory:
		d, err := mot.DecodeDirectory(opts.Registries, payload)
		if err != nil {
			return nil, fmt.Errorf("dump: directory: %w", err)
		}
		r.Directory = directory(d, opts.ContentTypeName)
	case ModeBody:
		r.Body = &BodyReport{Size: len(payload), Hex: hexLines(payload, opts.HexWidth)}
	default:
		return nil, fmt.Errorf("dump: unknown mode %s", opts.Mode)
	}
	return r, nil
}

func directory(d *mot.Directory, name func(mot.ContentType) (string, bool)) *DirectoryReport {
	period := "undefined"
	if p, ok := d.CarouselPeriodDuration(); ok {
		period = p.String()
	}
	out := &DirectoryReport{
		Size:           d.Size,
		CarouselPeriod: period,
		SegmentSize:    d.SegmentSize,
		Parameters:     params(d.Parameters),
		Entries:        make([]EntryReport, 0, len(d.Entries)),
	}
	for _, e := range d.Entries {
		out.Entries = append(out.Entries, EntryReport{
			TransportID: e.TransportID,
			BodySize:    e.Core.BodySize,
			HeaderSize:  e.Core.HeaderSize,
			ContentType: contentType(e.ContentType(), name),
			Parameters:  params(e.Parameters),
		})
	}
	for _, err := range d.Errors {
		out.Errors = append(out.Errors, err.Error())
	}
	return out
}

func params(ps []param.Parameter) []ParamReport {
	out := make([]ParamReport, 0, len(ps))
	for _, p := range ps {
		out = append(out, ParamReport{ID: p.ID(), Kind: p.Kind().String(), Value: fmt.Sprint(p)})
	}
	return out
}

func contentType(ct mot.ContentType, name func(mot.ContentType) (string, bool)) string {
	if n, ok := name(ct); ok {
		return ct.String() + " " + n
	}
	return ct.String()
}

func hexLines(b []byte, width int) []string {
	out := make([]string, 0, (len(b)+width-1)/width)
	for off := 0; off < len(b); off += width {
		end := min(off+width, len(b))
		out = append(out, fmt.Sprintf("%08x  % x", off, b[off:end]))
	}
	return out
}
