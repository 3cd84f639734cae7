// Package wsstream adapts a gorilla/websocket connection to
// stream.ChunkIterator, so an Encoder's or Decoder's chunk stream can travel
// over a single WebSocket connection, one text frame per chunk.
//
// A background goroutine pumps conn.ReadMessage into a channel, checking for
// *websocket.CloseError to distinguish a clean shutdown from a real failure.
package wsstream

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/tidenly/streamcodec/stream"
)

// Conn wraps a *websocket.Conn as a stream.ChunkIterator for reading and a
// chunk sender for writing. It is safe for one reader and one writer to use
// concurrently, matching *websocket.Conn's own concurrency contract.
type Conn struct {
	ws      *websocket.Conn
	stats   Stats
	recvErr chan error
	recvCh  chan string
}

// New wraps an already-upgraded WebSocket connection.
func New(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:      ws,
		recvErr: make(chan error, 1),
		recvCh:  make(chan string, 1),
	}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	for {
		mt, buf, err := c.ws.ReadMessage()
		if err != nil {
			if ce, ok := err.(*websocket.CloseError); ok &&
				(ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway) {
				close(c.recvCh)
				return
			}
			c.recvErr <- errors.Wrap(err, "wsstream: read")
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		c.stats.addReceived(len(buf))
		c.recvCh <- string(buf)
	}
}

// Next implements stream.ChunkIterator.
func (c *Conn) Next(ctx context.Context) (string, bool, error) {
	select {
	case chunk, ok := <-c.recvCh:
		if !ok {
			return "", false, nil
		}
		return chunk, true, nil
	case err := <-c.recvErr:
		return "", false, err
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// Send writes one chunk as a single WebSocket text frame.
func (c *Conn) Send(chunk string) error {
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(chunk)); err != nil {
		return errors.Wrap(err, "wsstream: write")
	}
	c.stats.addSent(len(chunk))
	return nil
}

// SendAll drains it, a stream.ChunkIterator, writing every chunk to the
// connection in order. It's the usual way to hand an Encoder's output to a
// Conn.
func SendAll(ctx context.Context, c *Conn, it stream.ChunkIterator) error {
	for {
		chunk, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := c.Send(chunk); err != nil {
			return err
		}
	}
}

// Stats returns a snapshot of the connection's traffic counters.
func (c *Conn) Stats() Stats { return c.stats.snapshot() }

// Close closes the underlying WebSocket connection.
func (c *Conn) Close() error { return c.ws.Close() }
