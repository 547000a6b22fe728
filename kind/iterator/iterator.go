// Package iterator implements the Iterator Kind: every element is
// forked independently and their handles are sent together in one
// frame, the way src/kind/iterator.rs forks each item up front rather
// than streaming them lazily (contrast kind/sink, which streams).
package iterator

import (
	"context"

	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/idchannel"
	"github.com/vesselfabric/vessels/kind"
	"github.com/vesselfabric/vessels/registry"
)

// Iterator is the Kind for a finite, eagerly-forked sequence of T.
type Iterator[T kind.Kind[D, C], D, C any] struct {
	Items []T
}

// Deconstruct implements kind.Kind[[]fork.Handle, []fork.Handle].
func (it Iterator[T, D, C]) Deconstruct(ctx context.Context, ep *fork.Endpoint[[]fork.Handle, []fork.Handle]) error {
	handles := make([]fork.Handle, 0, len(it.Items))
	for _, item := range it.Items {
		h, err := idchannel.Fork[T, D, C](ctx, ep.Router(), item)
		if err != nil {
			return err
		}
		handles = append(handles, h)
	}
	return ep.Send(ctx, handles)
}

// Construct implements the ConstructFunc shape for Iterator[T, D, C].
func Construct[T any, D, C any](ctx context.Context, ep *fork.Endpoint[[]fork.Handle, []fork.Handle], construct kind.ConstructFunc[T, D, C]) (Iterator[T, D, C], error) {
	var zero Iterator[T, D, C]

	handles, ok, err := ep.Receive(ctx)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, &kind.InsufficientError{Got: 0, Expected: 1}
	}

	items := make([]T, 0, len(handles))
	for _, h := range handles {
		v, err := idchannel.GetFork[T, D, C](ctx, ep.Router(), h, construct)
		if err != nil {
			return zero, err
		}
		items = append(items, v)
	}
	return Iterator[T, D, C]{Items: items}, nil
}

func init() {
	registry.Add[[]fork.Handle](registry.Global)
}
