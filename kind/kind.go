// Package kind defines the Kind protocol (component C): the
// deconstruct/construct contract by which a high-level value is split
// across, and recomposed from, a fork's Endpoint.
package kind

import (
	"context"
	"fmt"

	"github.com/vesselfabric/vessels/fork"
)

// Kind is the deconstruct half of the protocol for a value type. D is the
// Deconstruct-Item type (what the deconstructing side sends on its
// Endpoint); C is the Construct-Item type (what it receives, dually what
// the constructing side sends). Deconstruct consumes the receiver by
// being called on a value, may fork child values via the idchannel
// package's Fork/GetFork free functions (Go cannot express spec's
// endpoint.fork(child) as a generic method), and completes with success
// or a Deconstruct-Error.
//
// There is deliberately no symmetric Construct method on this interface:
// Go has no way to express "a function that returns the implementing
// type" as an interface method. Each concrete Kind instead exports a
// free function with the shape documented by ConstructFunc.
type Kind[D, C any] interface {
	Deconstruct(ctx context.Context, ep *fork.Endpoint[C, D]) error
}

// ConstructFunc is the shape every built-in and user Kind package exports
// under the name Construct: given an Endpoint wired to a fork already
// carrying that Kind's type pair, build and return a K.
type ConstructFunc[K any, D, C any] func(ctx context.Context, ep *fork.Endpoint[D, C]) (K, error)

// InsufficientError is the canonical truncation error: the peer
// disconnected, or sent fewer items than the Kind's protocol requires,
// mid-message.
type InsufficientError struct {
	Got, Expected int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("kind: insufficient items: got %d, expected %d", e.Got, e.Expected)
}

// SendError wraps a failure to send an item on an Endpoint.
type SendError struct{ Err error }

func (e *SendError) Error() string { return fmt.Sprintf("kind: send: %v", e.Err) }
func (e *SendError) Unwrap() error { return e.Err }

// ReceiveError wraps a failure to receive an item from an Endpoint.
type ReceiveError struct{ Err error }

func (e *ReceiveError) Error() string { return fmt.Sprintf("kind: receive: %v", e.Err) }
func (e *ReceiveError) Unwrap() error { return e.Err }
