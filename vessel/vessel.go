// Package vessel is the top-level convenience API gluing a Target or
// Shim handshake, a transport.Transport, and an Executor together in
// one call — the fabric's analogue of the teacher's Builder/Stream
// wrappers over machine's core graph engine. Most applications only
// need Host or Guest; the idchannel package remains available directly
// for anything more bespoke.
package vessel

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vesselfabric/vessels/idchannel"
	"github.com/vesselfabric/vessels/kind"
	"github.com/vesselfabric/vessels/transport"
)

// Session identifies one Host/Guest handshake for logging and tracing,
// minted once per call the way the teacher's machine.go and vertex.go
// mint a uuid.NewString() per run.
type Session struct {
	ID      string
	Channel *idchannel.Channel
}

// Host performs the deconstructing side of a handshake: value is bound
// to the new Channel's root fork and driven in the background for as
// long as the Session's Channel lives. Host returns as soon as the
// Channel is wired, not once value finishes deconstructing.
func Host[K kind.Kind[D, C], D, C any](ctx context.Context, tr transport.Transport, opts idchannel.Options, value K) (*Session, error) {
	opts = withSessionLogger(opts)

	ch, err := idchannel.NewWith[K, D, C](ctx, tr, opts, value)
	if err != nil {
		return nil, fmt.Errorf("vessel: host: %w", err)
	}

	return &Session{ID: uuid.NewString(), Channel: ch}, nil
}

// Guest performs the constructing side of a handshake: construct is run
// against the new Channel's root fork and its result returned alongside
// the live Session.
func Guest[K any, D, C any](ctx context.Context, tr transport.Transport, opts idchannel.Options, construct kind.ConstructFunc[K, D, C]) (K, *Session, error) {
	opts = withSessionLogger(opts)

	value, ch, err := idchannel.Complete[K, D, C](ctx, tr, opts, construct)
	if err != nil {
		var zero K
		return zero, nil, fmt.Errorf("vessel: guest: %w", err)
	}

	return value, &Session{ID: uuid.NewString(), Channel: ch}, nil
}

// Close releases the Session's Channel: flushes best-effort, stops its
// mux/demux loops, and closes the underlying Transport.
func (s *Session) Close() error {
	return s.Channel.Close()
}

func withSessionLogger(opts idchannel.Options) idchannel.Options {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return opts
}
