package dump

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/danmuck/mot/internal/datagroup"
	"github.com/danmuck/mot/internal/decoder"
	"github.com/danmuck/mot/internal/mot"
	"github.com/danmuck/mot/internal/protocol/param"
	"gopkg.in/yaml.v3"
)

// StreamDatagroup is the YAML form of a datagroup; Data is hex encoded.
type StreamDatagroup struct {
	Type         uint8  `yaml:"type"`
	TransportID  uint16 `yaml:"transport_id"`
	SegmentIndex uint32 `yaml:"segment_index"`
	Last         bool   `yaml:"last,omitempty"`
	Data         string `yaml:"data"`
}

type Stream struct {
	Datagroups []StreamDatagroup `yaml:"datagroups"`
}

// ReadStream parses a YAML datagroup stream.
func ReadStream(r io.Reader) ([]datagroup.Datagroup, error) {
	var s Stream
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("dump: stream: %w", err)
	}
	out := make([]datagroup.Datagroup, 0, len(s.Datagroups))
	for i, sd := range s.Datagroups {
		data, err := hex.DecodeString(strings.Join(strings.Fields(sd.Data), ""))
		if err != nil {
			return nil, fmt.Errorf("dump: stream datagroup %d: %w", i, err)
		}
		out = append(out, datagroup.Datagroup{
			Type:         datagroup.Type(sd.Type),
			TransportID:  sd.TransportID,
			SegmentIndex: sd.SegmentIndex,
			Last:         sd.Last,
			Data:         data,
		})
	}
	return out, nil
}

func WriteStream(w io.Writer, dgs []datagroup.Datagroup) error {
	s := Stream{Datagroups: make([]StreamDatagroup, 0, len(dgs))}
	for _, dg := range dgs {
		s.Datagroups = append(s.Datagroups, StreamDatagroup{
			Type:         uint8(dg.Type),
			TransportID:  dg.TransportID,
			SegmentIndex: dg.SegmentIndex,
			Last:         dg.Last,
			Data:         hex.EncodeToString(dg.Data),
		})
	}
	return WriteYAML(w, s)
}

type PackFile struct {
	Name string
	Body []byte
}

type PackOptions struct {
	SegmentSize int
	// Directory sends one directory instead of a header per object.
	Directory            bool
	DirectoryTransportID uint16
	CarouselPeriod       uint32
	Gzip                 bool
}

// ContentTypeFor guesses a content type from a file extension.
func ContentTypeFor(name string) mot.ContentType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return mot.TextASCII
	case ".htm", ".html":
		return mot.TextHTML
	case ".gif":
		return mot.ImageGIF
	case ".jpg", ".jpeg":
		return mot.ImageJFIF
	case ".bmp":
		return mot.ImageBMP
	case ".png":
		return mot.ImagePNG
	case ".mp2":
		return mot.AudioMPEG1L2
	case ".mp3":
		return mot.AudioMPEG1L3
	default:
		return mot.GeneralObjectTransfer
	}
}

// Pack builds the datagroups a carousel would send for files, in header
// mode or directory mode.
func Pack(files []PackFile, opts PackOptions) ([]datagroup.Datagroup, error) {
	if opts.SegmentSize <= 0 {
		opts.SegmentSize = 1024
	}
	seen := make(map[uint16]string, len(files))
	objs := make([]*mot.Object, 0, len(files))
	for _, f := range files {
		obj, err := packObject(f, opts.Gzip)
		if err != nil {
			return nil, err
		}
		if other, ok := seen[obj.TransportID()]; ok {
			return nil, fmt.Errorf("dump: %s and %s share transport id %d", other, f.Name, obj.TransportID())
		}
		if opts.Directory && obj.TransportID() == opts.DirectoryTransportID {
			return nil, fmt.Errorf("dump: %s uses the directory transport id %d", f.Name, obj.TransportID())
		}
		seen[obj.TransportID()] = f.Name
		objs = append(objs, obj)
	}

	var out []datagroup.Datagroup
	for _, obj := range objs {
		if !opts.Directory {
			head, err := mot.EncodeHeader(obj)
			if err != nil {
				return nil, fmt.Errorf("dump: header %s: %w", obj.Name().Name, err)
			}
			dgs, err := datagroup.Segment(datagroup.TypeHeader, obj.TransportID(), head, opts.SegmentSize)
			if err != nil {
				return nil, err
			}
			out = append(out, dgs...)
		}
		dgs, err := datagroup.Segment(datagroup.TypeBody, obj.TransportID(), obj.Body(), opts.SegmentSize)
		if err != nil {
			return nil, err
		}
		out = append(out, dgs...)
	}
	if !opts.Directory {
		return out, nil
	}

	dir := &mot.Directory{CarouselPeriod: opts.CarouselPeriod, SegmentSize: uint16(opts.SegmentSize)}
	for _, obj := range objs {
		dir.Entries = append(dir.Entries, mot.NewDirectoryEntry(obj))
	}
	b, err := mot.EncodeDirectory(dir)
	if err != nil {
		return nil, fmt.Errorf("dump: directory: %w", err)
	}
	dgs, err := datagroup.Segment(datagroup.TypeDirectory, opts.DirectoryTransportID, b, opts.SegmentSize)
	if err != nil {
		return nil, err
	}
	return append(out, dgs...), nil
}

func packObject(f PackFile, gzip bool) (*mot.Object, error) {
	body := f.Body
	if gzip {
		packed, err := mot.CompressBody(body, param.CompressionGzip)
		if err != nil {
			return nil, err
		}
		body = packed
	}
	obj := mot.NewNamedObject(f.Name, body, ContentTypeFor(f.Name))
	if mt := mime.TypeByExtension(filepath.Ext(f.Name)); mt != "" {
		if err := obj.AddParameter(param.MimeType{Type: mt}); err != nil {
			return nil, err
		}
	}
	if gzip {
		if err := obj.AddParameter(param.Gzip); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

type ObjectReport struct {
	TransportID uint16        `yaml:"transport_id"`
	Name        string        `yaml:"name"`
	ContentType string        `yaml:"content_type"`
	BodySize    int           `yaml:"body_size"`
	Parameters  []ParamReport `yaml:"parameters"`
}

type ObjectsReport struct {
	Objects []ObjectReport `yaml:"objects"`
	Errors  []string       `yaml:"errors,omitempty"`
	Pending []uint16       `yaml:"pending"`
}

// Objects runs src through dec and reports every object and error, plus
// the transport ids still incomplete at the end.
func Objects(ctx context.Context, dec *decoder.Decoder, src datagroup.Source, name func(mot.ContentType) (string, bool)) *ObjectsReport {
	if name == nil {
		name = mot.ContentType.Name
	}
	r := &ObjectsReport{}
	for obj, err := range dec.Decode(ctx, src) {
		if err != nil {
			r.Errors = append(r.Errors, err.Error())
			continue
		}
		size := len(obj.Body())
		if body, err := obj.DecodedBody(); err == nil {
			size = len(body)
		} else {
			r.Errors = append(r.Errors, fmt.Sprintf("transport_id=%d: %v", obj.TransportID(), err))
		}
		r.Objects = append(r.Objects, ObjectReport{
			TransportID: obj.TransportID(),
			Name:        obj.Name().Name,
			ContentType: contentType(obj.ContentType(), name),
			BodySize:    size,
			Parameters:  params(obj.Parameters()),
		})
	}
	r.Pending = dec.Cache().TransportIDs()
	return r
}
