// Package option implements the Option Kind: a present/absent tag sent
// on the fork's own wire, forking the wrapped value's Deconstruct onto a
// fresh child fork only when present.
package option

import (
	"context"
	"fmt"

	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/idchannel"
	"github.com/vesselfabric/vessels/kind"
	"github.com/vesselfabric/vessels/registry"
)

// VOption is the tag frame: either a handle to a forked-off child
// carrying the wrapped value, or a bare absence marker.
type VOption struct {
	Some *fork.Handle `json:"some,omitempty" yaml:"some,omitempty" cbor:"1,omitempty"`
	None bool         `json:"none,omitempty" yaml:"none,omitempty" cbor:"2,omitempty"`
}

// Option is the Kind for an optional K. A nil Value deconstructs as
// VOption{None: true} with no child fork ever allocated.
type Option[K kind.Kind[D, C], D, C any] struct {
	Value *K
}

// Deconstruct implements kind.Kind[VOption, VOption].
func (o Option[K, D, C]) Deconstruct(ctx context.Context, ep *fork.Endpoint[VOption, VOption]) error {
	if o.Value == nil {
		return ep.Send(ctx, VOption{None: true})
	}

	h, err := idchannel.Fork[K, D, C](ctx, ep.Router(), *o.Value)
	if err != nil {
		return err
	}
	return ep.Send(ctx, VOption{Some: &h})
}

// Construct implements the ConstructFunc shape for Option[K, D, C],
// taking the wrapped Kind's own ConstructFunc to apply if the tag
// carries a child handle.
func Construct[K any, D, C any](ctx context.Context, ep *fork.Endpoint[VOption, VOption], construct kind.ConstructFunc[K, D, C]) (Option[K, D, C], error) {
	tag, ok, err := ep.Receive(ctx)
	if err != nil {
		return Option[K, D, C]{}, err
	}
	if !ok {
		return Option[K, D, C]{}, &kind.InsufficientError{Got: 0, Expected: 1}
	}
	if tag.None || tag.Some == nil {
		return Option[K, D, C]{}, nil
	}

	value, err := idchannel.GetFork[K, D, C](ctx, ep.Router(), *tag.Some, construct)
	if err != nil {
		return Option[K, D, C]{}, fmt.Errorf("kind/option: construct child fork: %w", err)
	}
	return Option[K, D, C]{Value: &value}, nil
}

func init() {
	registry.Add[VOption](registry.Global)
}
