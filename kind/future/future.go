// Package future implements a single-shot Kind: the deconstructing side
// resolves exactly one K (or fails), forks it off, and sends a frame
// naming either the child fork or a shimmed error. Grounded on the
// teacher's one-value Edge[T]/Publisher abstractions generalized to a
// standalone Kind.
package future

import (
	"context"
	"fmt"

	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/idchannel"
	"github.com/vesselfabric/vessels/kind"
	"github.com/vesselfabric/vessels/kind/errkind"
	"github.com/vesselfabric/vessels/registry"
)

// Frame is the single on-wire message a Future sends: either a handle
// to the resolved value's fork, or a shimmed resolution error.
type Frame struct {
	Handle *fork.Handle      `json:"handle,omitempty" yaml:"handle,omitempty" cbor:"1,omitempty"`
	Err    *errkind.ErrorShim `json:"err,omitempty" yaml:"err,omitempty" cbor:"2,omitempty"`
}

// Future is the Kind for a value resolved asynchronously by Resolve.
type Future[K kind.Kind[D, C], D, C any] struct {
	Resolve func(ctx context.Context) (K, error)
}

// Deconstruct implements kind.Kind[Frame, Frame].
func (f Future[K, D, C]) Deconstruct(ctx context.Context, ep *fork.Endpoint[Frame, Frame]) error {
	value, err := f.Resolve(ctx)
	if err != nil {
		return ep.Send(ctx, Frame{Err: errkind.ShimFrom(err)})
	}

	h, err := idchannel.Fork[K, D, C](ctx, ep.Router(), value)
	if err != nil {
		return err
	}
	return ep.Send(ctx, Frame{Handle: &h})
}

// Construct implements the ConstructFunc shape for Future[K, D, C]. The
// returned Future's Resolve is already satisfied; it exists only so the
// reconstructed value matches the shape Deconstruct consumed.
func Construct[K any, D, C any](ctx context.Context, ep *fork.Endpoint[Frame, Frame], construct kind.ConstructFunc[K, D, C]) (Future[K, D, C], error) {
	var zero Future[K, D, C]

	frame, ok, err := ep.Receive(ctx)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, &kind.InsufficientError{Got: 0, Expected: 1}
	}
	if frame.Err != nil {
		return zero, errkind.FromShim(frame.Err)
	}
	if frame.Handle == nil {
		return zero, fmt.Errorf("kind/future: frame carries neither a handle nor an error")
	}

	value, err := idchannel.GetFork[K, D, C](ctx, ep.Router(), *frame.Handle, construct)
	if err != nil {
		return zero, err
	}
	return Future[K, D, C]{Resolve: func(context.Context) (K, error) { return value, nil }}, nil
}

func init() {
	registry.Add[Frame](registry.Global)
}
