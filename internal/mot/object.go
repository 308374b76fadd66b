package mot

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/danmuck/mot/internal/protocol/param"
	"github.com/zeebo/blake3"
)

// Object is one assembled MOT object. It holds at most one parameter per
// param.Kind; the ContentName is always present.
type Object struct {
	body        []byte
	contentType ContentType
	transportID uint16
	params      map[param.Kind]param.Parameter
}

// NewObject builds an object with the mandatory content name.
func NewObject(name param.ContentName, body []byte, contentType ContentType, transportID uint16) *Object {
	o := &Object{
		body:        body,
		contentType: contentType,
		transportID: transportID,
		params:      make(map[param.Kind]param.Parameter),
	}
	o.params[param.KindContentName] = name
	return o
}

// NewNamedObject builds an object whose transport id is derived from name.
func NewNamedObject(name string, body []byte, contentType ContentType) *Object {
	return NewObject(param.NewContentName(name), body, contentType, TransportIDFor(name))
}

// TransportIDFor derives a stable 16 bit transport id from a content name.
func TransportIDFor(name string) uint16 {
	sum := blake3.Sum256([]byte(name))
	return binary.BigEndian.Uint16(sum[:2])
}

// AddParameter attaches p, replacing any parameter of the same kind.
func (o *Object) AddParameter(p param.Parameter) error {
	if p == nil {
		return ErrNilParameter
	}
	if p.Kind() == param.KindContentName {
		if _, ok := p.(param.ContentName); !ok {
			return fmt.Errorf("mot: content name kind carried by %T", p)
		}
	}
	o.params[p.Kind()] = p
	return nil
}

// Parameter returns the parameter of the given kind.
func (o *Object) Parameter(kind param.Kind) (param.Parameter, bool) {
	p, ok := o.params[kind]
	return p, ok
}

func (o *Object) HasParameter(kind param.Kind) bool {
	_, ok := o.params[kind]
	return ok
}

// RemoveParameter detaches the parameter of the given kind. The content
// name cannot be removed.
func (o *Object) RemoveParameter(kind param.Kind) bool {
	if kind == param.KindContentName {
		return false
	}
	if _, ok := o.params[kind]; !ok {
		return false
	}
	delete(o.params, kind)
	return true
}

// Parameters returns all parameters ordered by kind.
func (o *Object) Parameters() []param.Parameter {
	kinds := make([]param.Kind, 0, len(o.params))
	for k := range o.params {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	out := make([]param.Parameter, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, o.params[k])
	}
	return out
}

func (o *Object) Name() param.ContentName {
	return o.params[param.KindContentName].(param.ContentName)
}

func (o *Object) Body() []byte {
	return o.body
}

// SetBody replaces the body.
func (o *Object) SetBody(body []byte) {
	o.body = body
}

func (o *Object) ContentType() ContentType {
	return o.contentType
}

func (o *Object) TransportID() uint16 {
	return o.transportID
}

func (o *Object) String() string {
	return fmt.Sprintf("%s [%d]", o.Name().Name, o.transportID)
}
