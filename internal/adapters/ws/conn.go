package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/voxly/voxly/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// signalConn implements core.SignalConnection over a websocket. Frames
// queue in a bounded channel; a full channel drops the frame rather
// than blocking the engine on a slow reader.
type signalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newSignalConn(conn *websocket.Conn, buffer int) *signalConn {
	return &signalConn{
		conn: conn,
		send: make(chan core.Frame, buffer),
	}
}

func (c *signalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *signalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
