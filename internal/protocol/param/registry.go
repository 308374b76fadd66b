package param

import (
	"fmt"
	"slices"
	"sync"
)

// DecodeFunc builds a parameter from its payload bytes.
type DecodeFunc func(payload []byte) (Parameter, error)

// Registry maps 6 bit parameter ids to decoders. Header and directory
// parameters live in separate registries because their id spaces overlap.
type Registry struct {
	name     string
	mu       sync.RWMutex
	decoders map[uint8]DecodeFunc
}

// NewRegistry returns an empty registry.
func NewRegistry(name string) *Registry {
	return &Registry{
		name:     name,
		decoders: make(map[uint8]DecodeFunc),
	}
}

// NewHeaderRegistry returns a registry holding the core header parameters.
func NewHeaderRegistry() *Registry {
	r := NewRegistry("header")
	r.mustRegister(IDContentName, decodeContentName)
	r.mustRegister(IDMimeType, decodeMimeType)
	r.mustRegister(IDExpiration, decodeExpiration)
	r.mustRegister(IDCompression, decodeCompression)
	r.mustRegister(IDPriority, decodePriority)
	return r
}

// NewDirectoryRegistry returns a registry holding the core directory
// extension parameters.
func NewDirectoryRegistry() *Registry {
	r := NewRegistry("directory")
	r.mustRegister(IDSortedHeaderInformation, decodeSortedHeaderInformation)
	r.mustRegister(IDDefaultPermitOutdatedVersions, decodeDefaultPermitOutdatedVersions)
	r.mustRegister(IDDefaultExpiration, decodeDefaultExpiration)
	return r
}

// Register adds or replaces the decoder for id.
func (r *Registry) Register(id uint8, fn DecodeFunc) error {
	if id > MaxID {
		return fmt.Errorf("%w: 0x%02x", ErrInvalidID, id)
	}
	if fn == nil {
		return fmt.Errorf("%w: id=%d", ErrNilDecoder, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[id] = fn
	return nil
}

func (r *Registry) mustRegister(id uint8, fn DecodeFunc) {
	if err := r.Register(id, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the decoder for id.
func (r *Registry) Lookup(id uint8) (DecodeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.decoders[id]
	return fn, ok
}

// IDs returns the registered ids in ascending order.
func (r *Registry) IDs() []uint8 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint8, 0, len(r.decoders))
	for id := range r.decoders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (r *Registry) Name() string {
	return r.name
}
