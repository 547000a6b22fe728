// Package idchannel implements the Multiplex Channel (component E): the
// engine that demultiplexes one byte Transport into many live forks, and
// multiplexes their outgoing items back onto it, plus the Target and
// Shim handshakes that bind a Kind value to the channel's root fork
// (component F).
package idchannel

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vesselfabric/vessels/codec"
	"github.com/vesselfabric/vessels/executor"
	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/registry"
	"github.com/vesselfabric/vessels/transport"
)

type outgoingItem struct {
	handle  fork.Handle
	payload any
}

// Channel is the live, running Multiplex Channel bound to one Transport.
// It implements fork.Router, so every Endpoint it creates publishes
// through it and is routed by it. A Channel owns exactly one
// background mux goroutine and one background demux goroutine, started
// by start and stopped by Close.
type Channel struct {
	forkCtx *fork.Context
	reg     *registry.Registry
	codec   codec.Codec
	exec    executor.Executor
	logger  *logrus.Logger
	maxForks int

	tr transport.Transport

	mu    sync.RWMutex
	sinks map[fork.Handle]fork.Sink

	outgoing chan any // outgoingItem or chan struct{} (a flush marker)

	// errs surfaces *ChannelError and *InvalidHandle values the mux/demux
	// loops encounter with no synchronous caller to return them to — the
	// spec §7 "Channel(stage, fork-id, cause)" / "InvalidId(fork-id)"
	// taxonomy. Best-effort: a full or unread errs channel never blocks
	// the loops, since the failure is always logged regardless.
	errs chan error

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

// errChanCapacity bounds the Channel's asynchronous error surface so a
// burst of routing/transport failures with no reader can't grow without
// bound; once full, further errors are logged only (see reportError).
const errChanCapacity = 16

func newChannel(tr transport.Transport, forkCtx *fork.Context, opts Options) *Channel {
	runCtx, cancel := context.WithCancel(context.Background())
	return &Channel{
		forkCtx:  forkCtx,
		reg:      opts.Registry,
		codec:    opts.Codec,
		exec:     opts.Executor,
		logger:   opts.Logger,
		maxForks: opts.MaxForks,
		tr:       tr,
		sinks:    map[fork.Handle]fork.Sink{},
		outgoing: make(chan any, opts.MuxBufferSize),
		errs:     make(chan error, errChanCapacity),
		runCtx:   runCtx,
		cancel:   cancel,
		closed:   make(chan struct{}),
	}
}

// Errors returns the Channel's asynchronous error surface: the
// *ChannelError and *InvalidHandle values produced by the mux/demux
// loops for failures that have no synchronous caller to return to (an
// encode/transport-send failure mid-mux-loop, an inbound frame for an
// unknown fork). Reading from it is optional — every error reaching it
// is logged regardless — and it is never closed, so callers should
// select against it alongside their own cancellation.
func (c *Channel) Errors() <-chan error { return c.errs }

// reportError pushes err onto the Channel's error surface without
// blocking; if nobody is reading (or the buffer is already full), the
// error is dropped here since it has already been logged by the caller.
func (c *Channel) reportError(err error) {
	select {
	case c.errs <- err:
	default:
	}
}

// start launches the mux and demux loops. Called once by NewWith/Complete
// after the root fork is registered, so no inbound frame can arrive
// before something is listening for it.
func (c *Channel) start() {
	c.wg.Add(2)
	go c.muxLoop()
	go c.demuxLoop()
}

// Context implements fork.Router.
func (c *Channel) Context() *fork.Context { return c.forkCtx }

// Spawn implements fork.Router, delegating to the configured Executor.
func (c *Channel) Spawn(fn func()) { c.exec.Spawn(fn) }

// Register implements fork.Router.
func (c *Channel) Register(h fork.Handle, sink fork.Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks[h] = sink
}

// Unregister implements fork.Router.
func (c *Channel) Unregister(h fork.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sinks, h)
}

// forkCount reports the number of live routing entries, used to enforce
// Options.MaxForks.
func (c *Channel) forkCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sinks)
}

// Publish implements fork.Router: it queues payload, tagged with h, for
// the mux loop to encode and send. It blocks until the outgoing queue has
// room, propagating Transport back-pressure to the calling Endpoint.
func (c *Channel) Publish(ctx context.Context, h fork.Handle, payload any) error {
	select {
	case <-c.closed:
		return &ErrChannelClosed{}
	default:
	}

	select {
	case c.outgoing <- outgoingItem{handle: h, payload: payload}:
		return nil
	case <-c.closed:
		return &ErrChannelClosed{}
	case <-ctx.Done():
		return ctx.Err()
	case <-c.runCtx.Done():
		return &ErrChannelClosed{}
	}
}

// Ready reports whether every currently live fork's Sink is ready to
// accept a delivery without blocking — the aggregate readiness check
// described in spec §4.4 and exercised by testable property 6. A Channel
// with zero live forks is vacuously ready.
func (c *Channel) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, sink := range c.sinks {
		if !sink.Ready() {
			return false
		}
	}
	return true
}

// Flush blocks until every item queued before the call returns has been
// handed to the Transport. Unlike the documented defect in the channel
// this fabric is modeled on — where flush and close were wired to the
// same readiness check as a plain send — Flush here drives its own
// marker through the outgoing queue and waits only for that.
func (c *Channel) Flush(ctx context.Context) error {
	marker := make(chan struct{})

	select {
	case c.outgoing <- (chan struct{})(marker):
	case <-c.closed:
		return &ErrChannelClosed{}
	case <-ctx.Done():
		return ctx.Err()
	case <-c.runCtx.Done():
		return &ErrChannelClosed{}
	}

	select {
	case <-marker:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.runCtx.Done():
		return &ErrChannelClosed{}
	}
}

// Close flushes any queued outgoing items on a best-effort basis, then
// stops the mux and demux loops, closes the Transport, and closes every
// still-registered Sink. It is idempotent and safe to call concurrently
// with Publish.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = c.Flush(flushCtx)
		flushCancel()

		c.cancel()
		c.wg.Wait()

		if closeErr := c.tr.Close(); closeErr != nil {
			err = &ChannelError{Stage: StageClose, Err: closeErr}
		}

		c.mu.Lock()
		sinks := c.sinks
		c.sinks = map[fork.Handle]fork.Sink{}
		c.mu.Unlock()

		for _, sink := range sinks {
			sink.Close()
		}
	})
	return err
}

func (c *Channel) muxLoop() {
	defer c.wg.Done()

	for {
		select {
		case item := <-c.outgoing:
			c.drainOutgoing(item)
		case <-c.runCtx.Done():
			return
		}
	}
}

func (c *Channel) drainOutgoing(item any) {
	switch v := item.(type) {
	case chan struct{}:
		close(v)
	case outgoingItem:
		c.sendItem(v)
	}
}

func (c *Channel) sendItem(item outgoingItem) {
	raw, err := c.reg.Encode(c.codec, item.payload)
	if err != nil {
		c.logger.WithError(err).WithField("fork", item.handle).Error("idchannel: encode failed, dropping frame")
		c.reportError(&ChannelError{Stage: StageSend, Handle: item.handle, Err: err})
		return
	}

	frame, err := c.codec.Marshal(codec.Envelope{Handle: uint32(item.handle), Payload: raw})
	if err != nil {
		c.logger.WithError(err).WithField("fork", item.handle).Error("idchannel: envelope marshal failed, dropping frame")
		c.reportError(&ChannelError{Stage: StageSend, Handle: item.handle, Err: err})
		return
	}

	if err := c.tr.Send(c.runCtx, frame); err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.WithError(err).WithField("fork", item.handle).Warn("idchannel: transport send failed")
			c.reportError(&ChannelError{Stage: StageSend, Handle: item.handle, Err: err})
		}
	}
}

func (c *Channel) demuxLoop() {
	defer c.wg.Done()

	for {
		raw, err := c.tr.Receive(c.runCtx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				c.logger.WithError(err).Debug("idchannel: transport receive ended")
			}
			return
		}

		var env codec.Envelope
		if err := c.codec.Unmarshal(raw, &env); err != nil {
			c.logger.WithError(err).Warn("idchannel: envelope unmarshal failed, dropping frame")
			continue
		}

		c.routeFrame(fork.Handle(env.Handle), env.Payload)
	}
}

func (c *Channel) routeFrame(h fork.Handle, raw []byte) {
	pair, ok := c.forkCtx.Lookup(h)
	if !ok {
		c.logger.WithField("fork", h).Warn("idchannel: frame for unknown fork, dropping")
		c.reportError(&InvalidHandle{Handle: h})
		return
	}

	c.mu.RLock()
	sink, ok := c.sinks[h]
	c.mu.RUnlock()
	if !ok {
		c.logger.WithField("fork", h).Warn("idchannel: frame for fork with no live sink, dropping")
		c.reportError(&InvalidHandle{Handle: h})
		return
	}

	payload, err := c.reg.Decode(c.codec, pair.ConstructType, raw)
	if err != nil {
		c.logger.WithError(err).WithField("fork", h).Warn("idchannel: decode failed, dropping frame")
		return
	}

	if err := sink.Deliver(payload); err != nil {
		c.logger.WithError(err).WithField("fork", h).Debug("idchannel: delivery to closed fork")
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
