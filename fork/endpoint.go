package fork

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by Receive and Deliver once the Endpoint has
// been closed, and by Send attempts made after closing.
var ErrClosed = errors.New("fork: endpoint closed")

// Endpoint is the per-fork duplex handle described in spec §3 and §4.3:
// an incoming ordered lazy sequence of I, an outgoing sink of O, the
// Handle it represents, and a non-owning reference to its Router (the
// owning Channel). Kind implementations receive an *Endpoint[I, O] where
// I is their Construct-Item type and O is their Deconstruct-Item type —
// from the deconstructing side's view, it sends Deconstruct-Item (O) and
// receives Construct-Item (I).
type Endpoint[I, O any] struct {
	handle Handle
	router Router

	in chan I

	closeOnce sync.Once
	done      chan struct{}
}

// NewEndpoint constructs an Endpoint wired to h on router, with an inbound
// queue sized bufferSize (0 means unbuffered). Deliver blocks while the
// queue is full until the Kind implementation calls Receive; since the
// Channel's single demux loop calls Deliver, a full fork holds up inbound
// delivery for every fork on that Channel, not only itself.
func NewEndpoint[I, O any](router Router, h Handle, bufferSize int) *Endpoint[I, O] {
	return &Endpoint[I, O]{
		handle: h,
		router: router,
		in:     make(chan I, bufferSize),
		done:   make(chan struct{}),
	}
}

// Handle returns the ForkHandle this Endpoint represents.
func (e *Endpoint[I, O]) Handle() Handle { return e.handle }

// Router exposes the owning Channel's capabilities, used by the
// idchannel package's generic Fork/GetFork free functions (Go methods
// cannot carry their own type parameters, so those operations live as
// free functions taking an Endpoint as their first argument instead of
// spec's endpoint.fork(child) method call).
func (e *Endpoint[I, O]) Router() Router { return e.router }

// Send publishes one Deconstruct-Item on this fork. It blocks until the
// Channel's outgoing path accepts it, propagating transport back-pressure
// to the caller.
func (e *Endpoint[I, O]) Send(ctx context.Context, item O) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	return e.router.Publish(ctx, e.handle, item)
}

// Receive waits for the next Construct-Item, returning ok=false once the
// peer has sent nothing further and the endpoint has been closed.
func (e *Endpoint[I, O]) Receive(ctx context.Context) (item I, ok bool, err error) {
	select {
	case v, open := <-e.in:
		if !open {
			return item, false, nil
		}
		return v, true, nil
	case <-e.done:
		return item, false, ErrClosed
	case <-ctx.Done():
		return item, false, ctx.Err()
	}
}

// Ready implements fork.Sink.
func (e *Endpoint[I, O]) Ready() bool {
	select {
	case <-e.done:
		return false
	default:
	}
	return len(e.in) < cap(e.in)
}

// Deliver implements fork.Sink. The Channel's demux loop calls this with
// a decoded payload; it must already be of type I.
func (e *Endpoint[I, O]) Deliver(payload any) error {
	v, ok := payload.(I)
	if !ok {
		return fmt.Errorf("fork: %s received payload of unexpected type %T", e.handle, payload)
	}

	select {
	case e.in <- v:
		return nil
	case <-e.done:
		return ErrClosed
	}
}

// Close removes the Endpoint's routing entry and releases its handle back
// to the Context's free list. It is idempotent. Close does not cancel the
// context of a deconstruct driver still running against this Endpoint
// (idchannel.Fork passes its caller's ctx to the driver unchanged): the
// driver's later Send and Receive calls fail with ErrClosed, but a Send
// already blocked inside the Router's Publish is not interrupted.
func (e *Endpoint[I, O]) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
		e.router.Unregister(e.handle)
		e.router.Context().Release(e.handle)
	})
}
