package relay

import (
	"context"
	"errors"

	"github.com/goliatone/go-push-relay/internal/dispatcher"
	"github.com/goliatone/go-push-relay/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
)

// Manager routes inbound events: the body is broadcast to the live
// connection set while the push fan-out runs detached. The two are
// independent side effects of one event; neither can fail the other.
type Manager struct {
	dispatcher  *dispatcher.Service
	broadcaster broadcaster.Broadcaster
	logger      logger.Logger
}

// Dependencies bundles the collaborators required by the manager.
type Dependencies struct {
	Dispatcher  *dispatcher.Service
	Broadcaster broadcaster.Broadcaster
	Logger      logger.Logger
}

var ErrMissingDispatcher = errors.New("relay: dispatcher service is required")

// NewManager constructs the event manager.
func NewManager(deps Dependencies) (*Manager, error) {
	if deps.Dispatcher == nil {
		return nil, ErrMissingDispatcher
	}
	if deps.Broadcaster == nil {
		deps.Broadcaster = &broadcaster.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Manager{
		dispatcher:  deps.Dispatcher,
		broadcaster: deps.Broadcaster,
		logger:      deps.Logger,
	}, nil
}

// OnEvent broadcasts the event body to peers and triggers the push fan-out
// on a detached goroutine. The caller never waits on push delivery, and
// dispatch errors are logged rather than propagated.
func (m *Manager) OnEvent(ctx context.Context, event broadcaster.Event) {
	if err := m.broadcaster.Broadcast(ctx, event); err != nil {
		m.logger.Error("broadcast failed", logger.Field{Key: "error", Value: err})
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		result, err := m.dispatcher.Trigger(detached, event.Title, event.Body)
		if err != nil {
			m.logger.Error("detached dispatch failed", logger.Field{Key: "error", Value: err})
			return
		}
		m.logger.Debug("detached dispatch complete",
			logger.Field{Key: "sent", Value: result.Sent},
			logger.Field{Key: "removed", Value: result.Removed},
			logger.Field{Key: "remaining", Value: result.Remaining},
		)
	}()
}

// Trigger runs one synchronous fan-out cycle and returns aggregate counts.
func (m *Manager) Trigger(ctx context.Context, title, body string) (dispatcher.Result, error) {
	return m.dispatcher.Trigger(ctx, title, body)
}
