package hub

import (
	"context"
	"time"

	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
)

// RunLiveness probes every connection on the configured interval until the
// context is canceled. A connection whose flag is still clear from the
// previous cycle gets evicted; everyone else has the flag cleared and a ping
// sent, so a peer must answer at least once per two intervals to stay.
// This catches half-open connections behind proxies that never send a close.
func (h *Hub) RunLiveness(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

func (h *Hub) sweep() {
	deadline := time.Now().Add(h.cfg.WriteTimeout)

	var stale []*Conn
	h.ForEach(func(c *Conn) {
		if !c.alive.Load() {
			stale = append(stale, c)
			return
		}
		c.alive.Store(false)
		if err := c.ping(deadline); err != nil {
			h.logger.Debug("liveness ping failed",
				logger.Field{Key: "conn", Value: c.ID},
				logger.Field{Key: "error", Value: err},
			)
		}
	})

	for _, c := range stale {
		h.metrics.IncConnEvicted()
		h.logger.Info("evicting unresponsive connection",
			logger.Field{Key: "conn", Value: c.ID},
			logger.Field{Key: "remote", Value: c.remoteAddr},
		)
		h.Remove(c)
	}
}
