// Package wasmbridge implements transport.Transport against a running
// WASM guest instance, using github.com/wasmerio/wasmer-go/wasmer. It is
// the one concrete implementer of the guest ABI spec §6 names: the guest
// exports an entry i(ptr, len) for inbound bytes and a global s holding a
// protocol signature; the host imports o(ptr, len) for outbound bytes.
// The loader, module validation, and guest-host memory layout beyond
// this are out of scope; wasmbridge only needs enough of wasmer-go to
// call i and to receive calls to o.
package wasmbridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/wasmerio/wasmer-go/wasmer"
)

// Bridge is a Transport backed by one WASM instance's linear memory.
// Outbound guest frames (calls to the host-imported o) are buffered on
// inbound; inbound host frames (calls to the guest-exported i) stage
// their bytes at a fixed scratch offset in guest memory before invoking
// i, so only one Send may be in flight at a time.
type Bridge struct {
	instance *wasmer.Instance
	memory   *wasmer.Memory
	guestIn  *wasmer.Function

	scratchBase uint32

	sendMu sync.Mutex

	inbound chan []byte
	closed  chan struct{}
}

// New instantiates module against store with the guest ABI's single
// host import registered, and returns a Bridge ready to Send/Receive.
// scratchBase is an offset into the guest's memory reserved for staging
// host-to-guest frames; it must not overlap memory the guest itself
// uses, which is a property of the specific guest module being loaded
// and is therefore the caller's responsibility, not wasmbridge's.
func New(store *wasmer.Store, module *wasmer.Module, scratchBase uint32) (*Bridge, error) {
	b := &Bridge{
		scratchBase: scratchBase,
		inbound:     make(chan []byte, 16),
		closed:      make(chan struct{}),
	}

	outbound := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes()),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			ptr := args[0].I32()
			length := args[1].I32()

			mem := b.memory.Data()
			if int(ptr)+int(length) > len(mem) || ptr < 0 || length < 0 {
				return nil, fmt.Errorf("wasmbridge: guest called o with out-of-range region [%d,%d)", ptr, ptr+length)
			}

			frame := make([]byte, length)
			copy(frame, mem[ptr:ptr+length])

			select {
			case b.inbound <- frame:
			case <-b.closed:
			}
			return []wasmer.Value{}, nil
		},
	)

	importObject := wasmer.NewImportObject()
	importObject.Register("env", map[string]wasmer.IntoExtern{
		"o": outbound,
	})

	instance, err := wasmer.NewInstance(module, importObject)
	if err != nil {
		return nil, fmt.Errorf("wasmbridge: instantiate: %w", err)
	}

	memory, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, fmt.Errorf("wasmbridge: guest exports no memory: %w", err)
	}

	guestIn, err := instance.Exports.GetFunction("i")
	if err != nil {
		return nil, fmt.Errorf("wasmbridge: guest exports no i(ptr,len): %w", err)
	}

	b.instance = instance
	b.memory = memory
	b.guestIn = guestIn
	return b, nil
}

// Signature reads the guest's exported global s, the protocol version
// the guest was built against.
func (b *Bridge) Signature() (uint64, error) {
	g, err := b.instance.Exports.GetGlobal("s")
	if err != nil {
		return 0, fmt.Errorf("wasmbridge: guest exports no global s: %w", err)
	}
	v, err := g.Get()
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("wasmbridge: global s is %T, not i64", v)
	}
	return uint64(n), nil
}

// Send implements transport.Transport by staging msg into guest memory
// at scratchBase and invoking the guest's i(ptr, len) export.
func (b *Bridge) Send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	mem := b.memory.Data()
	end := int(b.scratchBase) + len(msg)
	if end > len(mem) {
		return fmt.Errorf("wasmbridge: guest memory too small for %d-byte frame at offset %d", len(msg), b.scratchBase)
	}
	copy(mem[b.scratchBase:end], msg)

	_, err := b.guestIn(int32(b.scratchBase), int32(len(msg)))
	return err
}

// Receive implements transport.Transport, returning the next frame the
// guest delivered via its o import.
func (b *Bridge) Receive(ctx context.Context) ([]byte, error) {
	select {
	case frame := <-b.inbound:
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.closed:
		return nil, fmt.Errorf("wasmbridge: closed")
	}
}

// Close implements transport.Transport. It does not tear down the
// underlying wasmer.Instance, which the caller owns.
func (b *Bridge) Close() error {
	select {
	case <-b.closed:
	default:
		close(b.closed)
	}
	return nil
}
