package idchannel

import (
	"context"

	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/kind"
)

// Fork allocates a new child fork for value on router, spawns value's
// Deconstruct as a background task, and returns the Handle immediately —
// the caller is expected to send that Handle to the peer (typically as
// part of a tag frame, the way kind/option sends a VOption{Some(h)})
// so the peer can call GetFork for the same handle.
//
// This is the free-function stand-in for the fabric's endpoint.fork
// method: Go methods cannot introduce their own type parameters, so the
// operation takes the owning fork.Router explicitly (via
// Endpoint.Router()) instead of being a method on Endpoint itself.
func Fork[K kind.Kind[D, C], D, C any](ctx context.Context, router fork.Router, value K) (fork.Handle, error) {
	if max := maxForksOf(router); max > 0 && liveForkCountOf(router) >= max {
		return 0, &MaxForksExceeded{Max: max}
	}

	pair := fork.TypePair{ConstructType: typeOf[C](), DeconstructType: typeOf[D]()}
	h := router.Context().Create(pair)

	ep := fork.NewEndpoint[C, D](router, h, defaultForkBuffer)
	router.Register(h, ep)

	router.Spawn(func() {
		_ = value.Deconstruct(ctx, ep)
		ep.Close()
	})

	return h, nil
}

// GetFork registers a child fork previously allocated by the peer's Fork
// call (h is a Handle learned out of band, e.g. unpacked from a VOption)
// and runs construct against its Endpoint, returning the reconstructed
// value once construct is satisfied.
//
// If h was already recorded under a different TypePair — a handle reused
// for an incompatible type, the fatal protocol violation spec §4.3
// documents — GetFork returns a *fork.ErrTypeMismatch instead of
// silently overwriting the existing entry.
//
// This is the free-function stand-in for the fabric's endpoint.get_fork
// method, for the same reason Fork is free rather than a method.
func GetFork[K any, D, C any](ctx context.Context, router fork.Router, h fork.Handle, construct kind.ConstructFunc[K, D, C]) (K, error) {
	var zero K

	if max := maxForksOf(router); max > 0 && liveForkCountOf(router) >= max {
		return zero, &MaxForksExceeded{Max: max}
	}

	pair := fork.TypePair{ConstructType: typeOf[D](), DeconstructType: typeOf[C]()}

	if existing, ok := router.Context().Lookup(h); ok {
		if existing.ConstructType != pair.ConstructType || existing.DeconstructType != pair.DeconstructType {
			return zero, &fork.ErrTypeMismatch{Handle: h, Existing: existing, Requested: pair}
		}
	} else {
		router.Context().Add(h, pair)
	}

	ep := fork.NewEndpoint[D, C](router, h, defaultForkBuffer)
	router.Register(h, ep)

	value, err := construct(ctx, ep)
	if err != nil {
		ep.Close()
		return zero, err
	}
	return value, nil
}

// defaultForkBuffer sizes the inbound queue of forks created outside a
// Channel's own root wiring (Fork/GetFork don't have access to the
// Options a Channel was built with, since a Router is all they're given
// — this matches the fabric's own child-fork behavior of not re-deriving
// top-level configuration per fork).
const defaultForkBuffer = 16

// maxForksOf and liveForkCountOf type-assert router down to the concrete
// *Channel to enforce its fork quota when present; a Router that isn't
// backed by a *Channel (e.g. in tests) simply has no quota.
func maxForksOf(router fork.Router) int {
	if ch, ok := router.(*Channel); ok {
		return ch.maxForks
	}
	return 0
}

func liveForkCountOf(router fork.Router) int {
	if ch, ok := router.(*Channel); ok {
		return ch.forkCount()
	}
	return 0
}
