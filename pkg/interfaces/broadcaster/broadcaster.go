package broadcaster

import (
	"context"

	"github.com/google/uuid"
)

// Event carries one inbound payload destined for real-time transports.
// Origin identifies the connection that produced the event; transports that
// track connections use it to skip echoing the frame back to its sender.
type Event struct {
	Title  string
	Body   string
	Origin uuid.UUID
}

// Broadcaster pushes events to WebSocket/SSE style transports.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

// Nop broadcaster discards events.
type Nop struct{}

var _ Broadcaster = (*Nop)(nil)

func (n *Nop) Broadcast(ctx context.Context, event Event) error { return nil }
