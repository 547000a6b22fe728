// Package errkind implements the Error Kind: a recursive, wire-safe
// shim for an arbitrary Go error chain, built by walking errors.Unwrap
// the way the fabric's original error Kind walks std::error::Error's
// source() chain.
package errkind

import (
	"context"
	"fmt"

	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/idchannel"
	"github.com/vesselfabric/vessels/kind"
	"github.com/vesselfabric/vessels/kind/primitive"
	"github.com/vesselfabric/vessels/registry"
)

// ErrorShim is the on-wire representation of one link in an error
// chain: its Display (Error()) and Debug (%#v) strings, plus its
// wrapped Source, if any.
type ErrorShim struct {
	Source  *ErrorShim `json:"source,omitempty" yaml:"source,omitempty" cbor:"1,omitempty"`
	Debug   string     `json:"debug" yaml:"debug" cbor:"2"`
	Display string     `json:"display" yaml:"display" cbor:"3"`
}

// ShimFrom walks err's Unwrap chain into an ErrorShim tree. It returns
// nil for a nil error.
func ShimFrom(err error) *ErrorShim {
	if err == nil {
		return nil
	}
	return &ErrorShim{
		Source:  ShimFrom(unwrap(err)),
		Debug:   fmt.Sprintf("%#v", err),
		Display: err.Error(),
	}
}

// FromShim rebuilds an error chain from a shim tree. Each link is a
// shimmedError carrying only the original Display/Debug strings; it no
// longer has the original concrete type, matching the fabric's own
// treatment of errors crossing the wire as opaque once reconstructed.
func FromShim(s *ErrorShim) error {
	if s == nil {
		return nil
	}
	return &shimmedError{display: s.Display, debug: s.Debug, source: FromShim(s.Source)}
}

type shimmedError struct {
	display string
	debug   string
	source  error
}

func (e *shimmedError) Error() string { return e.display }
func (e *shimmedError) Unwrap() error { return e.source }

func unwrap(err error) error {
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return u.Unwrap()
	}
	return nil
}

// ErrorKind is the Kind wrapping a single Go error value. Its own fork
// carries only a fork.Handle: the ErrorShim walked from Err is forked
// onto a fresh child fork, the way every other recursive Kind here
// (option, tuple, iterator, sink, future, derived) embeds its children,
// rather than sent inline on the owning fork.
type ErrorKind struct {
	Err error
}

// Deconstruct implements kind.Kind[fork.Handle, fork.Handle].
func (e ErrorKind) Deconstruct(ctx context.Context, ep *fork.Endpoint[fork.Handle, fork.Handle]) error {
	shim := ShimFrom(e.Err)
	if shim == nil {
		shim = &ErrorShim{}
	}

	h, err := idchannel.Fork[primitive.Primitive[ErrorShim], ErrorShim, ErrorShim](ctx, ep.Router(), primitive.Primitive[ErrorShim]{Value: *shim})
	if err != nil {
		return err
	}

	return ep.Send(ctx, h)
}

// Construct implements the ConstructFunc shape for ErrorKind.
func Construct(ctx context.Context, ep *fork.Endpoint[fork.Handle, fork.Handle]) (ErrorKind, error) {
	h, ok, err := ep.Receive(ctx)
	if err != nil {
		return ErrorKind{}, err
	}
	if !ok {
		return ErrorKind{}, &kind.InsufficientError{Got: 0, Expected: 1}
	}

	wrapped, err := idchannel.GetFork[primitive.Primitive[ErrorShim], ErrorShim, ErrorShim](ctx, ep.Router(), h, primitive.Construct[ErrorShim])
	if err != nil {
		return ErrorKind{}, fmt.Errorf("kind/errkind: construct child fork: %w", err)
	}

	return ErrorKind{Err: FromShim(&wrapped.Value)}, nil
}

func init() {
	registry.Add[ErrorShim](registry.Global)
	registry.Add[fork.Handle](registry.Global)
}
