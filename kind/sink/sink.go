// Package sink implements a streamed Kind: the deconstructing side
// forwards a sequence of values one fork at a time until its source
// closes, rather than forking every element up front the way
// kind/iterator does. Grounded on the teacher's Edge[T]/Publisher
// streaming abstractions.
package sink

import (
	"context"
	"fmt"

	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/idchannel"
	"github.com/vesselfabric/vessels/kind"
	"github.com/vesselfabric/vessels/kind/errkind"
	"github.com/vesselfabric/vessels/registry"
)

// Frame is one message in a Sink's stream: a handle to one forked
// element, a terminal Done marker, or a terminal shimmed error.
type Frame struct {
	Handle *fork.Handle       `json:"handle,omitempty" yaml:"handle,omitempty" cbor:"1,omitempty"`
	Done   bool               `json:"done,omitempty" yaml:"done,omitempty" cbor:"2,omitempty"`
	Err    *errkind.ErrorShim `json:"err,omitempty" yaml:"err,omitempty" cbor:"3,omitempty"`
}

// Sink is the Kind for a live stream of T. On the deconstructing side,
// Items and Err are read together: a non-nil error on Err ends the
// stream with an error frame, and Items closing ends it with a Done
// frame without consulting Err again. On the constructing side,
// Construct returns a Sink whose Items channel is fed by a background
// goroutine as frames arrive.
type Sink[T kind.Kind[D, C], D, C any] struct {
	Items <-chan T
	Err   <-chan error
}

// Deconstruct implements kind.Kind[Frame, Frame].
func (s Sink[T, D, C]) Deconstruct(ctx context.Context, ep *fork.Endpoint[Frame, Frame]) error {
	for {
		select {
		case item, open := <-s.Items:
			if !open {
				return ep.Send(ctx, Frame{Done: true})
			}

			h, err := idchannel.Fork[T, D, C](ctx, ep.Router(), item)
			if err != nil {
				return err
			}
			if err := ep.Send(ctx, Frame{Handle: &h}); err != nil {
				return err
			}
		case err, open := <-s.Err:
			if !open {
				s.Err = nil
				continue
			}
			if err != nil {
				return ep.Send(ctx, Frame{Err: errkind.ShimFrom(err)})
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Construct implements the ConstructFunc shape for Sink[T, D, C]. It
// returns immediately with a Sink whose Items channel a background
// goroutine populates as frames arrive; that goroutine exits (closing
// Items) on Done, on a terminal Err frame, or when ctx is canceled.
func Construct[T any, D, C any](ctx context.Context, ep *fork.Endpoint[Frame, Frame], construct kind.ConstructFunc[T, D, C]) (Sink[T, D, C], error) {
	items := make(chan T)
	errc := make(chan error, 1)

	ep.Router().Spawn(func() {
		defer close(items)

		for {
			frame, ok, err := ep.Receive(ctx)
			if err != nil {
				errc <- err
				return
			}
			if !ok || frame.Done {
				return
			}
			if frame.Err != nil {
				errc <- errkind.FromShim(frame.Err)
				return
			}
			if frame.Handle == nil {
				errc <- fmt.Errorf("kind/sink: frame carries neither a handle, Done, nor an error")
				return
			}

			v, err := idchannel.GetFork[T, D, C](ctx, ep.Router(), *frame.Handle, construct)
			if err != nil {
				errc <- err
				return
			}

			select {
			case items <- v:
			case <-ctx.Done():
				return
			}
		}
	})

	return Sink[T, D, C]{Items: items, Err: errc}, nil
}

func init() {
	registry.Add[Frame](registry.Global)
}
