// Package primitive implements the simplest Kind: a value sent whole,
// with no forking, over its own fork.
package primitive

import (
	"context"

	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/kind"
	"github.com/vesselfabric/vessels/registry"
)

// Primitive wraps a value of type T whose Kind is "send T directly":
// the fork's Deconstruct-Item and Construct-Item are both T.
type Primitive[T any] struct {
	Value T
}

// Deconstruct implements kind.Kind[T, T].
func (p Primitive[T]) Deconstruct(ctx context.Context, ep *fork.Endpoint[T, T]) error {
	return ep.Send(ctx, p.Value)
}

// Construct implements the ConstructFunc shape for Primitive[T].
func Construct[T any](ctx context.Context, ep *fork.Endpoint[T, T]) (Primitive[T], error) {
	var zero Primitive[T]

	v, ok, err := ep.Receive(ctx)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, &kind.InsufficientError{Got: 0, Expected: 1}
	}
	return Primitive[T]{Value: v}, nil
}

// Register records T's Registry entry using the process-wide Global
// registry. T is unbounded over all Go types, so there is no way to
// register every instantiation at package init time; callers register
// each concrete T they use once, typically from an init() in their own
// package, before any Channel carrying that T is created.
func Register[T any]() {
	registry.Add[T](registry.Global)
}
