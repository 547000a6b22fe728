// Package registry implements the process-wide Kind Registry (component
// I): a table, keyed by the reflect.Type of a Kind's payload item, of the
// closures needed to decode that item type off the wire. Per spec §4.1,
// registration is idempotent and entries are never removed; per §4.7,
// writers are serialized and readers may be concurrent — backed here by
// sync.Map, whose LoadOrStore already gives idempotent registration
// without a caller-visible lock.
package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/vesselfabric/vessels/codec"
)

// Decoder decodes raw payload bytes, using c, into a freshly allocated
// value of the registered type, returned boxed as any.
type Decoder func(c codec.Codec, raw []byte) (any, error)

// Encoder encodes v, which must be of the registered type, into bytes
// using c.
type Encoder func(c codec.Codec, v any) ([]byte, error)

// Registry is the Kind Registry. The zero value is not usable; use New
// or the process-wide Global.
type Registry struct {
	decoders sync.Map // reflect.Type -> Decoder
	encoders sync.Map // reflect.Type -> Encoder
}

// New returns an empty Registry. Most callers should use Global instead;
// New exists for isolated tests.
func New() *Registry {
	return &Registry{}
}

// Global is the process-wide Kind Registry every Channel uses by default.
var Global = New()

// ErrUnregistered is returned when encoding or decoding a payload type
// that was never registered. Per spec §4.1 and §7, this is a fatal,
// unrecoverable condition — a registration bug, not a transport error.
type ErrUnregistered struct {
	Type reflect.Type
	Op   string // "encode" or "decode"
}

func (e *ErrUnregistered) Error() string {
	return fmt.Sprintf("registry: type %s has no registered %s", e.Type, e.Op)
}

// AddConstruct registers T's decoder — the closure used to turn a
// frame's Construct-Item bytes back into a value of type T — under T's
// reflect.Type. It is idempotent via sync.Map.LoadOrStore: registering
// the same type twice keeps the first closure and is otherwise a no-op.
func AddConstruct[T any](r *Registry) {
	t := typeOf[T]()
	r.decoders.LoadOrStore(t, Decoder(func(c codec.Codec, raw []byte) (any, error) {
		var v T
		if err := c.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}))
}

// AddDeconstruct registers T's encoder — the closure used to turn a
// Deconstruct-Item value of type T into wire bytes — under T's
// reflect.Type, idempotently via sync.Map.LoadOrStore.
func AddDeconstruct[T any](r *Registry) {
	t := typeOf[T]()
	r.encoders.LoadOrStore(t, Encoder(func(c codec.Codec, v any) ([]byte, error) {
		return c.Marshal(v)
	}))
}

// Add registers T as both its own Construct-Item and Deconstruct-Item
// type, the common case: every built-in Kind in this module is
// self-dual, its two directions sharing one wire type (a VOption, a
// []fork.Handle, an ErrorShim, …), so AddConstruct and AddDeconstruct
// are always called together for it. A Kind whose two directions carry
// genuinely different wire types should call AddConstruct and
// AddDeconstruct individually instead of Add.
func Add[T any](r *Registry) {
	AddConstruct[T](r)
	AddDeconstruct[T](r)
}

// Decode looks up the decoder registered for t and invokes it.
func (r *Registry) Decode(c codec.Codec, t reflect.Type, raw []byte) (any, error) {
	v, ok := r.decoders.Load(t)
	if !ok {
		return nil, &ErrUnregistered{Type: t, Op: "decode"}
	}

	return v.(Decoder)(c, raw)
}

// Encode looks up the encoder registered for reflect.TypeOf(v) and
// invokes it.
func (r *Registry) Encode(c codec.Codec, v any) ([]byte, error) {
	t := reflect.TypeOf(v)

	e, ok := r.encoders.Load(t)
	if !ok {
		return nil, &ErrUnregistered{Type: t, Op: "encode"}
	}

	return e.(Encoder)(c, v)
}

// Has reports whether t has a registered decoder or encoder.
func (r *Registry) Has(t reflect.Type) bool {
	if _, ok := r.decoders.Load(t); ok {
		return true
	}
	_, ok := r.encoders.Load(t)
	return ok
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
