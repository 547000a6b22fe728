package idchannel

import (
	"context"

	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/kind"
	"github.com/vesselfabric/vessels/transport"
)

// NewWith performs the deconstructing side of the handshake (the
// fabric's Target): it allocates a fresh Channel over tr, binds value's
// root fork to handle 0, starts the mux/demux loops, and spawns value's
// Deconstruct as a background task on the configured Executor. It
// returns as soon as the Channel is wired; value's own Deconstruct keeps
// running until it completes or ctx is canceled.
func NewWith[K kind.Kind[D, C], D, C any](ctx context.Context, tr transport.Transport, opts Options, value K) (*Channel, error) {
	opts = opts.withDefaults()

	pair := fork.TypePair{ConstructType: typeOf[C](), DeconstructType: typeOf[D]()}
	forkCtx := fork.NewContext()
	root := forkCtx.CreateRoot(pair)

	ch := newChannel(tr, forkCtx, opts)

	ep := fork.NewEndpoint[C, D](ch, root, opts.BufferSize)
	ch.Register(root, ep)

	ch.start()

	ch.Spawn(func() {
		spanCtx, span := tracer.Start(ctx, "idchannel.Deconstruct")
		defer span.End()

		if err := value.Deconstruct(spanCtx, ep); err != nil {
			ch.logger.WithError(err).Debug("idchannel: root deconstruct ended")
		}
		ep.Close()
	})

	return ch, nil
}
