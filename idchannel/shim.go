package idchannel

import (
	"context"

	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/kind"
	"github.com/vesselfabric/vessels/transport"
)

// Complete performs the constructing side of the handshake (the
// fabric's Shim): it pre-registers handle 0's type pair before a single
// byte is read, wires a Channel over tr, starts the mux/demux loops, and
// runs construct against the root Endpoint. It returns once construct
// returns — typically after it has received enough of the root value to
// hand back a usable K, possibly while child forks of that value are
// still being driven in the background.
func Complete[K any, D, C any](ctx context.Context, tr transport.Transport, opts Options, construct kind.ConstructFunc[K, D, C]) (K, *Channel, error) {
	opts = opts.withDefaults()

	var zero K

	pair := fork.TypePair{ConstructType: typeOf[D](), DeconstructType: typeOf[C]()}
	forkCtx := fork.NewContextFor(pair)

	ch := newChannel(tr, forkCtx, opts)

	ep := fork.NewEndpoint[D, C](ch, fork.RootHandle, opts.BufferSize)
	ch.Register(fork.RootHandle, ep)

	ch.start()

	spanCtx, span := tracer.Start(ctx, "idchannel.Construct")
	defer span.End()

	value, err := construct(spanCtx, ep)
	if err != nil {
		return zero, ch, err
	}
	return value, ch, nil
}

// Shim is a deferred handle to the constructing side of a handshake,
// obtained from NewShim before a Transport exists, the way spec.md
// §4.5's new_shim::<K>() returns a value later fed a transport via
// complete(transport). Complete wires the transport once one is
// available and runs the handshake Complete already performs.
type Shim[K any] struct {
	complete func(ctx context.Context, tr transport.Transport, opts Options) (K, *Channel, error)
}

// NewShim returns a Shim[K] bound to construct, deferring transport
// wiring and the handshake itself until Complete is called. construct
// (and its D, C type parameters) must be supplied here rather than
// recovered later from K alone: kind.Kind has no symmetric Construct
// method for Go generics to call given only K (see kind.Kind's doc
// comment), so there is no way to derive one from K() the way
// spec.md's new_shim::<K>() implies.
func NewShim[K any, D, C any](construct kind.ConstructFunc[K, D, C]) *Shim[K] {
	return &Shim[K]{
		complete: func(ctx context.Context, tr transport.Transport, opts Options) (K, *Channel, error) {
			return Complete[K, D, C](ctx, tr, opts, construct)
		},
	}
}

// Complete wires tr as the Shim's transport and runs the construct call
// it was built with against the new Channel's root fork.
func (s *Shim[K]) Complete(ctx context.Context, tr transport.Transport, opts Options) (K, *Channel, error) {
	return s.complete(ctx, tr, opts)
}
