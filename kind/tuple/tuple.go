// Package tuple implements the Tuple Kind at fixed arities 2 through 4,
// standing in for the source fabric's macro-generated 2..16-arity
// family: Go generics cannot express a variadic type parameter list, so
// each arity is written out by hand here. Extending to arity 5 and
// beyond is a mechanical repetition of the Tuple4 pattern.
package tuple

import (
	"context"

	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/idchannel"
	"github.com/vesselfabric/vessels/kind"
	"github.com/vesselfabric/vessels/registry"
)

// Tuple2 forks its two fields independently and sends their handles in
// one frame.
type Tuple2[A kind.Kind[DA, CA], DA, CA any, B kind.Kind[DB, CB], DB, CB any] struct {
	First  A
	Second B
}

func (t Tuple2[A, DA, CA, B, DB, CB]) Deconstruct(ctx context.Context, ep *fork.Endpoint[[2]fork.Handle, [2]fork.Handle]) error {
	h1, err := idchannel.Fork[A, DA, CA](ctx, ep.Router(), t.First)
	if err != nil {
		return err
	}
	h2, err := idchannel.Fork[B, DB, CB](ctx, ep.Router(), t.Second)
	if err != nil {
		return err
	}
	return ep.Send(ctx, [2]fork.Handle{h1, h2})
}

// Construct2 implements the ConstructFunc shape for Tuple2.
func Construct2[A any, DA, CA any, B any, DB, CB any](
	ctx context.Context,
	ep *fork.Endpoint[[2]fork.Handle, [2]fork.Handle],
	constructA kind.ConstructFunc[A, DA, CA],
	constructB kind.ConstructFunc[B, DB, CB],
) (Tuple2[A, DA, CA, B, DB, CB], error) {
	var zero Tuple2[A, DA, CA, B, DB, CB]

	handles, ok, err := ep.Receive(ctx)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, &kind.InsufficientError{Got: 0, Expected: 1}
	}

	a, err := idchannel.GetFork[A, DA, CA](ctx, ep.Router(), handles[0], constructA)
	if err != nil {
		return zero, err
	}
	b, err := idchannel.GetFork[B, DB, CB](ctx, ep.Router(), handles[1], constructB)
	if err != nil {
		return zero, err
	}
	return Tuple2[A, DA, CA, B, DB, CB]{First: a, Second: b}, nil
}

// Tuple3 forks its three fields independently.
type Tuple3[A kind.Kind[DA, CA], DA, CA any, B kind.Kind[DB, CB], DB, CB any, C kind.Kind[DC, CC], DC, CC any] struct {
	First  A
	Second B
	Third  C
}

func (t Tuple3[A, DA, CA, B, DB, CB, C, DC, CC]) Deconstruct(ctx context.Context, ep *fork.Endpoint[[3]fork.Handle, [3]fork.Handle]) error {
	h1, err := idchannel.Fork[A, DA, CA](ctx, ep.Router(), t.First)
	if err != nil {
		return err
	}
	h2, err := idchannel.Fork[B, DB, CB](ctx, ep.Router(), t.Second)
	if err != nil {
		return err
	}
	h3, err := idchannel.Fork[C, DC, CC](ctx, ep.Router(), t.Third)
	if err != nil {
		return err
	}
	return ep.Send(ctx, [3]fork.Handle{h1, h2, h3})
}

// Construct3 implements the ConstructFunc shape for Tuple3.
func Construct3[A any, DA, CA any, B any, DB, CB any, C any, DC, CC any](
	ctx context.Context,
	ep *fork.Endpoint[[3]fork.Handle, [3]fork.Handle],
	constructA kind.ConstructFunc[A, DA, CA],
	constructB kind.ConstructFunc[B, DB, CB],
	constructC kind.ConstructFunc[C, DC, CC],
) (Tuple3[A, DA, CA, B, DB, CB, C, DC, CC], error) {
	var zero Tuple3[A, DA, CA, B, DB, CB, C, DC, CC]

	handles, ok, err := ep.Receive(ctx)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, &kind.InsufficientError{Got: 0, Expected: 1}
	}

	a, err := idchannel.GetFork[A, DA, CA](ctx, ep.Router(), handles[0], constructA)
	if err != nil {
		return zero, err
	}
	b, err := idchannel.GetFork[B, DB, CB](ctx, ep.Router(), handles[1], constructB)
	if err != nil {
		return zero, err
	}
	c, err := idchannel.GetFork[C, DC, CC](ctx, ep.Router(), handles[2], constructC)
	if err != nil {
		return zero, err
	}
	return Tuple3[A, DA, CA, B, DB, CB, C, DC, CC]{First: a, Second: b, Third: c}, nil
}

// Tuple4 forks its four fields independently.
type Tuple4[A kind.Kind[DA, CA], DA, CA any, B kind.Kind[DB, CB], DB, CB any, C kind.Kind[DC, CC], DC, CC any, D kind.Kind[DD, CD], DD, CD any] struct {
	First  A
	Second B
	Third  C
	Fourth D
}

func (t Tuple4[A, DA, CA, B, DB, CB, C, DC, CC, D, DD, CD]) Deconstruct(ctx context.Context, ep *fork.Endpoint[[4]fork.Handle, [4]fork.Handle]) error {
	h1, err := idchannel.Fork[A, DA, CA](ctx, ep.Router(), t.First)
	if err != nil {
		return err
	}
	h2, err := idchannel.Fork[B, DB, CB](ctx, ep.Router(), t.Second)
	if err != nil {
		return err
	}
	h3, err := idchannel.Fork[C, DC, CC](ctx, ep.Router(), t.Third)
	if err != nil {
		return err
	}
	h4, err := idchannel.Fork[D, DD, CD](ctx, ep.Router(), t.Fourth)
	if err != nil {
		return err
	}
	return ep.Send(ctx, [4]fork.Handle{h1, h2, h3, h4})
}

// Construct4 implements the ConstructFunc shape for Tuple4.
func Construct4[A any, DA, CA any, B any, DB, CB any, C any, DC, CC any, D any, DD, CD any](
	ctx context.Context,
	ep *fork.Endpoint[[4]fork.Handle, [4]fork.Handle],
	constructA kind.ConstructFunc[A, DA, CA],
	constructB kind.ConstructFunc[B, DB, CB],
	constructC kind.ConstructFunc[C, DC, CC],
	constructD kind.ConstructFunc[D, DD, CD],
) (Tuple4[A, DA, CA, B, DB, CB, C, DC, CC, D, DD, CD], error) {
	var zero Tuple4[A, DA, CA, B, DB, CB, C, DC, CC, D, DD, CD]

	handles, ok, err := ep.Receive(ctx)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, &kind.InsufficientError{Got: 0, Expected: 1}
	}

	a, err := idchannel.GetFork[A, DA, CA](ctx, ep.Router(), handles[0], constructA)
	if err != nil {
		return zero, err
	}
	b, err := idchannel.GetFork[B, DB, CB](ctx, ep.Router(), handles[1], constructB)
	if err != nil {
		return zero, err
	}
	c, err := idchannel.GetFork[C, DC, CC](ctx, ep.Router(), handles[2], constructC)
	if err != nil {
		return zero, err
	}
	d, err := idchannel.GetFork[D, DD, CD](ctx, ep.Router(), handles[3], constructD)
	if err != nil {
		return zero, err
	}
	return Tuple4[A, DA, CA, B, DB, CB, C, DC, CC, D, DD, CD]{First: a, Second: b, Third: c, Fourth: d}, nil
}

func init() {
	registry.Add[[2]fork.Handle](registry.Global)
	registry.Add[[3]fork.Handle](registry.Global)
	registry.Add[[4]fork.Handle](registry.Global)
}
