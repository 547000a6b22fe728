// Package transport defines the opaque bidirectional byte stream the
// fabric multiplexes (spec §6). Concrete transports — a WebSocket, a WASM
// guest-host memory bridge, an in-process queue — are collaborators
// outside the fabric's core; this package gives them one contract.
package transport

import "context"

// Transport is an opaque bidirectional stream of messages, with FIFO
// per-direction ordering. No length framing is added by the fabric; it
// is delegated to the Transport.
type Transport interface {
	Send(ctx context.Context, msg []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}
