// Package wsocket implements transport.Transport over a WebSocket
// connection, using github.com/gofiber/websocket/v2 the way the teacher
// repo's loader/websocket.go wires an abstract Stream to a live
// connection — here the connection is a plain message-framed transport
// rather than a machine loader target.
package wsocket

import (
	"context"

	"github.com/gofiber/websocket/v2"
)

// Conn adapts a *websocket.Conn into transport.Transport. One goroutine
// at a time may call Send; gofiber/websocket/v2 (like the underlying
// fasthttp/websocket conn it wraps) does not itself serialize
// concurrent writers.
type Conn struct {
	conn *websocket.Conn
}

// New wraps conn.
func New(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

// Send implements transport.Transport, writing msg as one binary
// WebSocket frame.
func (c *Conn) Send(ctx context.Context, msg []byte) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(dl)
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, msg)
}

// Receive implements transport.Transport, returning the payload of the
// next binary or text WebSocket frame.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(dl)
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Close implements transport.Transport.
func (c *Conn) Close() error {
	return c.conn.Close()
}
