// Package derived is the runtime a derive macro would target (derive
// macros themselves are out of scope): a reflection-driven Kind for
// plain structs, forking each exported field independently and framing
// the result as a name-to-handle map. Callers typically decode the
// reconstructed map[string]any back into a concrete struct with
// github.com/mitchellh/mapstructure.
package derived

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/idchannel"
	"github.com/vesselfabric/vessels/kind"
	"github.com/vesselfabric/vessels/registry"
)

// Field is the type-erased capability a struct field's value must carry
// to participate in Derived: the ability to fork itself onto router
// without either side naming the field's concrete Kind type.
type Field interface {
	forkField(ctx context.Context, router fork.Router) (fork.Handle, error)
}

type erasedKind[K kind.Kind[D, C], D, C any] struct{ value K }

func (e erasedKind[K, D, C]) forkField(ctx context.Context, router fork.Router) (fork.Handle, error) {
	return idchannel.Fork[K, D, C](ctx, router, e.value)
}

// Box wraps a concrete Kind value as a Field, for embedding in a struct
// passed to Derived.
func Box[K kind.Kind[D, C], D, C any](value K) Field {
	return erasedKind[K, D, C]{value: value}
}

// Derived is the Kind for a struct whose exported fields are all Field
// values (typically produced by Box).
type Derived struct {
	Value any
}

// Deconstruct implements kind.Kind[map[string]fork.Handle, map[string]fork.Handle].
func (d Derived) Deconstruct(ctx context.Context, ep *fork.Endpoint[map[string]fork.Handle, map[string]fork.Handle]) error {
	rv := reflect.ValueOf(d.Value)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("kind/derived: %T is not a struct", d.Value)
	}

	rt := rv.Type()
	handles := make(map[string]fork.Handle, rv.NumField())

	for i := 0; i < rv.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		field, ok := rv.Field(i).Interface().(Field)
		if !ok {
			return fmt.Errorf("kind/derived: field %s of %T does not implement Field (wrap it with derived.Box)", sf.Name, d.Value)
		}

		h, err := field.forkField(ctx, ep.Router())
		if err != nil {
			return fmt.Errorf("kind/derived: field %s: %w", sf.Name, err)
		}
		handles[sf.Name] = h
	}

	return ep.Send(ctx, handles)
}

// FieldConstructor reconstructs one named field's value from its fork
// handle.
type FieldConstructor func(ctx context.Context, router fork.Router, h fork.Handle) (any, error)

// ConstructField adapts a Kind's own ConstructFunc into a FieldConstructor
// for use in the map passed to Construct.
func ConstructField[K any, D, C any](construct kind.ConstructFunc[K, D, C]) FieldConstructor {
	return func(ctx context.Context, router fork.Router, h fork.Handle) (any, error) {
		return idchannel.GetFork[K, D, C](ctx, router, h, construct)
	}
}

// Construct reconstructs every field named in the inbound frame using
// the matching entry in fields, keyed by the original struct's field
// name, and returns the result as a map ready for
// github.com/mitchellh/mapstructure.Decode into a concrete struct.
func Construct(ctx context.Context, ep *fork.Endpoint[map[string]fork.Handle, map[string]fork.Handle], fields map[string]FieldConstructor) (map[string]any, error) {
	handles, ok, err := ep.Receive(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &kind.InsufficientError{Got: 0, Expected: 1}
	}

	out := make(map[string]any, len(handles))
	for name, h := range handles {
		ctor, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("kind/derived: no constructor registered for field %q", name)
		}

		v, err := ctor(ctx, ep.Router(), h)
		if err != nil {
			return nil, fmt.Errorf("kind/derived: field %q: %w", name, err)
		}
		out[name] = v
	}

	return out, nil
}

func init() {
	registry.Add[map[string]fork.Handle](registry.Global)
}
