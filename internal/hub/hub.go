package hub

import (
	"context"
	"sync"

	"github.com/goliatone/go-push-relay/pkg/config"
	"github.com/goliatone/go-push-relay/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-push-relay/pkg/metrics"
	"github.com/google/uuid"
)

// Hub owns the live connection set. Every entry corresponds to a transport
// connection that was open as of its creation or the last liveness sweep.
type Hub struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Conn

	cfg     config.HubConfig
	logger  logger.Logger
	metrics *metrics.Collector
}

// New builds a hub. Metrics may be nil.
func New(cfg config.HubConfig, lgr logger.Logger, collector *metrics.Collector) *Hub {
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return &Hub{
		conns:   make(map[uuid.UUID]*Conn),
		cfg:     cfg,
		logger:  lgr,
		metrics: collector,
	}
}

// NewConn wraps a transport connection for hub management. The connection
// starts alive; the liveness monitor takes over from there.
func (h *Hub) NewConn(sock socket, remoteAddr string) *Conn {
	c := &Conn{
		ID:         uuid.New(),
		remoteAddr: remoteAddr,
		sock:       sock,
		send:       make(chan []byte, h.cfg.SendBuffer),
		hub:        h,
	}
	c.alive.Store(true)
	return c
}

// Add registers the connection. Adding twice is a no-op.
func (h *Hub) Add(c *Conn) {
	if c == nil {
		return
	}
	h.mu.Lock()
	h.conns[c.ID] = c
	total := len(h.conns)
	h.mu.Unlock()

	h.metrics.SetConnsActive(total)
	h.logger.Info("connection registered",
		logger.Field{Key: "conn", Value: c.ID},
		logger.Field{Key: "remote", Value: c.remoteAddr},
		logger.Field{Key: "total", Value: total},
	)
}

// Remove deregisters and closes the connection. Removing an absent
// connection is a no-op.
func (h *Hub) Remove(c *Conn) {
	if c == nil {
		return
	}
	h.mu.Lock()
	_, present := h.conns[c.ID]
	if present {
		delete(h.conns, c.ID)
	}
	total := len(h.conns)
	h.mu.Unlock()

	c.close()
	if !present {
		return
	}

	h.metrics.SetConnsActive(total)
	h.logger.Info("connection removed",
		logger.Field{Key: "conn", Value: c.ID},
		logger.Field{Key: "remote", Value: c.remoteAddr},
		logger.Field{Key: "total", Value: total},
	)
}

// Len reports the current connection count.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// ForEach visits every live connection; the liveness monitor uses it.
func (h *Hub) ForEach(visit func(*Conn)) {
	h.mu.RLock()
	snapshot := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	for _, c := range snapshot {
		visit(c)
	}
}

// Broadcast sends the payload to every live connection except origin. The
// sender never receives its own frame. Per-connection failures are logged
// and skipped; the broadcast continues to the remaining peers.
func (h *Hub) Broadcast(ctx context.Context, event broadcaster.Event) error {
	payload := []byte(event.Body)
	recipients := 0
	h.ForEach(func(c *Conn) {
		if c.ID == event.Origin {
			return
		}
		if !c.enqueue(payload) {
			h.logger.Warn("dropping frame: connection closed or send buffer full",
				logger.Field{Key: "conn", Value: c.ID},
				logger.Field{Key: "remote", Value: c.remoteAddr},
			)
			return
		}
		recipients++
	})

	h.metrics.IncBroadcast()
	h.logger.Debug("broadcast complete",
		logger.Field{Key: "origin", Value: event.Origin},
		logger.Field{Key: "recipients", Value: recipients},
	)
	return nil
}

var _ broadcaster.Broadcaster = (*Hub)(nil)

// Close drops every connection. Used on shutdown.
func (h *Hub) Close() {
	h.ForEach(func(c *Conn) {
		h.Remove(c)
	})
}
