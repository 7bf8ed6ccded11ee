package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// socket is the subset of *websocket.Conn the hub relies on. Tests supply
// in-memory fakes; production always passes a gorilla connection.
type socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	SetWriteDeadline(t time.Time) error
	Close() error
}

var _ socket = (*websocket.Conn)(nil)

// Conn represents one live bidirectional connection to a peer.
type Conn struct {
	ID         uuid.UUID
	remoteAddr string

	sock socket
	send chan []byte
	hub  *Hub

	// alive is cleared by each probe cycle and set again by the pong
	// handler; only this connection's handler ever touches it.
	alive atomic.Bool

	// mu orders enqueue against close: a broadcast may hold a snapshot of
	// the connection set while an eviction closes one of its entries, so
	// send and close(send) must never race.
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// RemoteAddr returns the peer address for diagnostics.
func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}

// markAlive records a heartbeat response.
func (c *Conn) markAlive() {
	c.alive.Store(true)
}

// enqueue hands a payload to the write pump without blocking the caller.
// It reports false when the connection is closed or the send buffer is full.
func (c *Conn) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// ping sends a probe control frame directly. gorilla allows WriteControl
// concurrently with the write pump.
func (c *Conn) ping(deadline time.Time) error {
	return c.sock.WriteControl(websocket.PingMessage, nil, deadline)
}

// close shuts the transport down exactly once. The closed flag is raised
// under mu before the channel closes, so an in-flight enqueue either lands
// before this point or observes the flag and drops the frame.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.send)
		c.sock.Close()
	})
}

// Run services the connection until its transport closes, then removes it
// from the hub. It blocks; callers run it on the connection's goroutine.
func (c *Conn) Run(router *Router) {
	defer c.hub.Remove(c)

	go c.writePump()
	c.readPump(router)
}

func (c *Conn) readPump(router *Router) {
	c.sock.SetReadLimit(c.hub.cfg.ReadLimit)
	c.sock.SetPongHandler(func(string) error {
		c.markAlive()
		return nil
	})
	for {
		_, frame, err := c.sock.ReadMessage()
		if err != nil {
			return
		}
		router.OnMessage(c, frame)
	}
}

func (c *Conn) writePump() {
	for payload := range c.send {
		c.sock.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
		if err := c.sock.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
