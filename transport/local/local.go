// Package local implements an in-process Transport pair backed by
// io.Pipe, so the fabric can be exercised end to end in tests without a
// real network (spec §6's Transport contract made concrete with the
// simplest possible implementer).
package local

import (
	"context"
	"encoding/binary"
	"io"
)

// Local is one end of an in-process duplex byte stream. Frames are
// length-prefixed (a 4-byte big-endian length, then that many bytes) so
// a single Transport.Receive call returns exactly one message, matching
// what io.Pipe's raw byte stream doesn't give for free.
type Local struct {
	r       io.ReadCloser
	w       io.WriteCloser
	closeFn func() error
}

// NewPair returns two ends of a connected in-process transport: whatever
// is sent on one is received on the other.
func NewPair() (*Local, *Local) {
	ar, aw := io.Pipe()
	br, bw := io.Pipe()

	a := &Local{r: br, w: aw}
	b := &Local{r: ar, w: bw}

	a.closeFn = func() error {
		_ = aw.Close()
		_ = br.Close()
		return nil
	}
	b.closeFn = func() error {
		_ = bw.Close()
		_ = ar.Close()
		return nil
	}

	return a, b
}

// Send implements transport.Transport.
func (l *Local) Send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		var header [4]byte
		binary.BigEndian.PutUint32(header[:], uint32(len(msg)))
		if _, err := l.w.Write(header[:]); err != nil {
			errc <- err
			return
		}
		_, err := l.w.Write(msg)
		errc <- err
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive implements transport.Transport.
func (l *Local) Receive(ctx context.Context) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	resc := make(chan result, 1)

	go func() {
		var header [4]byte
		if _, err := io.ReadFull(l.r, header[:]); err != nil {
			resc <- result{err: err}
			return
		}

		n := binary.BigEndian.Uint32(header[:])
		buf := make([]byte, n)
		if _, err := io.ReadFull(l.r, buf); err != nil {
			resc <- result{err: err}
			return
		}
		resc <- result{data: buf}
	}()

	select {
	case res := <-resc:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close implements transport.Transport.
func (l *Local) Close() error { return l.closeFn() }
