// Package decoder turns a stream of datagroups into assembled MOT objects.
//
// A Decoder owns one cache. Objects are compiled as soon as their body and
// either their own header or a directory are complete, so a directory can
// release many buffered objects at once.
package decoder

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/danmuck/mot/internal/cache"
	"github.com/danmuck/mot/internal/datagroup"
	"github.com/danmuck/mot/internal/mot"
	"github.com/danmuck/mot/internal/observability"
	"github.com/danmuck/mot/internal/protocol/param"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	modeHeader    = "header"
	modeDirectory = "directory"
)

type Decoder struct {
	regs  mot.Registries
	cache *cache.Cache
	runID ulid.ULID
	log   zerolog.Logger

	directoryReported bool
}

type Option func(*Decoder)

// WithRegistries replaces the core parameter tables, for example with
// extension parameters registered.
func WithRegistries(regs mot.Registries) Option {
	return func(d *Decoder) {
		d.regs = regs
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Decoder) {
		d.log = logger
	}
}

func New(opts ...Option) *Decoder {
	d := &Decoder{
		regs:  mot.NewRegistries(),
		runID: ulid.Make(),
		log:   log.Logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cache = cache.New(d.regs)
	d.log = d.log.With().Str("run", d.runID.String()).Logger()
	return d
}

func (d *Decoder) Cache() *cache.Cache {
	return d.cache
}

func (d *Decoder) RunID() ulid.ULID {
	return d.runID
}

// Compile assembles a complete transport id and removes it from the cache.
// When assembly fails the entry is dropped as well and the failure is
// returned as a *CompileError. Incomplete entries are left untouched.
func (d *Decoder) Compile(transportID uint16) (*mot.Object, error) {
	if !d.cache.IsComplete(transportID) {
		return nil, &CompileError{TransportID: transportID, Err: ErrIncomplete}
	}
	start := time.Now()
	obj, mode, err := d.compile(transportID)
	d.cache.Remove(transportID)
	observability.SetCacheEntries(d.cache.Len())
	if err != nil {
		observability.RecordDecodeError(errorKind(err))
		d.log.Warn().Err(err).Uint16("transport_id", transportID).Msg("dropping object")
		return nil, &CompileError{TransportID: transportID, Err: err}
	}
	observability.RecordObject(mode, time.Since(start))
	d.log.Debug().Uint16("transport_id", transportID).Str("mode", mode).
		Str("name", obj.Name().Name).Int("body", len(obj.Body())).Msg("object compiled")
	return obj, nil
}

func (d *Decoder) compile(transportID uint16) (*mot.Object, string, error) {
	var (
		contentType mot.ContentType
		bodySize    uint32
		params      []param.Parameter
		mode        string
	)
	if d.cache.HeaderComplete(transportID) {
		h, err := mot.DecodeHeader(d.regs.Header, concat(d.cache.Datagroups(transportID, datagroup.TypeHeader)))
		if err != nil {
			return nil, modeHeader, err
		}
		contentType, bodySize, params, mode = h.Core.ContentType, h.Core.BodySize, h.Parameters, modeHeader
	} else {
		entry, err := d.lookup(transportID)
		if err != nil {
			return nil, modeDirectory, err
		}
		contentType, bodySize, params, mode = entry.ContentType(), entry.Core.BodySize, entry.Parameters, modeDirectory
	}

	body := concat(d.cache.Datagroups(transportID, datagroup.TypeBody))
	if int(bodySize) != len(body) {
		d.log.Debug().Uint16("transport_id", transportID).Uint32("signalled", bodySize).
			Int("assembled", len(body)).Msg("body size mismatch")
	}

	name, err := contentName(params)
	if err != nil {
		return nil, mode, err
	}
	obj := mot.NewObject(name, body, contentType, transportID)
	for _, p := range params {
		if p.Kind() == param.KindContentName {
			continue
		}
		if err := obj.AddParameter(p); err != nil {
			return nil, mode, err
		}
	}
	return obj, mode, nil
}

func (d *Decoder) lookup(transportID uint16) (mot.DirectoryEntry, error) {
	dir, err := d.cache.Directory()
	if err != nil {
		return mot.DirectoryEntry{}, &LookupError{TransportID: transportID, Err: err}
	}
	if !d.directoryReported {
		d.directoryReported = true
		for _, entryErr := range dir.Errors {
			observability.RecordDecodeError("directory_entry")
			d.log.Warn().Err(entryErr).Msg("directory entry incomplete")
		}
		d.log.Info().Int("entries", len(dir.Entries)).Uint16("segment_size", dir.SegmentSize).Msg("directory acquired")
	}
	entry, ok := dir.Lookup(transportID)
	if !ok {
		return mot.DirectoryEntry{}, &LookupError{TransportID: transportID}
	}
	return entry, nil
}

func contentName(params []param.Parameter) (param.ContentName, error) {
	var (
		name  param.ContentName
		found int
	)
	for _, p := range params {
		if n, ok := p.(param.ContentName); ok {
			name = n
			found++
		}
	}
	switch found {
	case 0:
		return param.ContentName{}, ErrMissingContentName
	case 1:
		return name, nil
	default:
		return param.ContentName{}, ErrAmbiguousContentName
	}
}

func concat(dgs []datagroup.Datagroup) []byte {
	n := 0
	for _, dg := range dgs {
		n += len(dg.Data)
	}
	out := make([]byte, 0, n)
	for _, dg := range dgs {
		out = append(out, dg.Data...)
	}
	return out
}

func errorKind(err error) string {
	var lookup *LookupError
	switch {
	case errors.Is(err, ErrMissingContentName):
		return "missing_content_name"
	case errors.Is(err, ErrAmbiguousContentName):
		return "ambiguous_content_name"
	case errors.As(err, &lookup):
		return "directory_lookup"
	case errors.Is(err, param.ErrMalformedPreamble):
		return "malformed_preamble"
	case errors.Is(err, param.ErrValidation):
		return "validation"
	default:
		return "header"
	}
}

// Ingest stores dg and compiles every transport id it completed, in
// ascending transport id order. Objects that compiled are returned even
// when others failed; the failures are joined.
func (d *Decoder) Ingest(dg datagroup.Datagroup) ([]*mot.Object, error) {
	objs, errs := d.ingest(dg)
	return objs, errors.Join(errs...)
}

func (d *Decoder) ingest(dg datagroup.Datagroup) ([]*mot.Object, []error) {
	stored := d.cache.Ingest(dg)
	observability.RecordDatagroup(dg.Type.String(), stored)
	d.log.Trace().Stringer("datagroup", dg).Bool("stored", stored).Msg("ingest")
	if !stored {
		return nil, nil
	}
	observability.SetCacheEntries(d.cache.Len())

	var (
		objs []*mot.Object
		errs []error
	)
	for _, tid := range d.cache.TransportIDs() {
		if !d.cache.IsComplete(tid) {
			continue
		}
		obj, err := d.Compile(tid)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		objs = append(objs, obj)
	}
	return objs, errs
}

// Decode pulls datagroups from src until it is exhausted or ctx is done.
// Per object failures are yielded with a nil object and decoding goes on;
// a source error other than io.EOF is yielded last.
func (d *Decoder) Decode(ctx context.Context, src datagroup.Source) iter.Seq2[*mot.Object, error] {
	return func(yield func(*mot.Object, error) bool) {
		for dg, err := range datagroup.All(ctx, src) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !d.emit(dg, yield) {
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// DecodeSeq is Decode over an in memory sequence.
func (d *Decoder) DecodeSeq(seq iter.Seq[datagroup.Datagroup]) iter.Seq2[*mot.Object, error] {
	return func(yield func(*mot.Object, error) bool) {
		for dg := range seq {
			if !d.emit(dg, yield) {
				return
			}
		}
	}
}

func (d *Decoder) emit(dg datagroup.Datagroup, yield func(*mot.Object, error) bool) bool {
	objs, errs := d.ingest(dg)
	for _, obj := range objs {
		if !yield(obj, nil) {
			return false
		}
	}
	for _, err := range errs {
		if !yield(nil, err) {
			return false
		}
	}
	return true
}
