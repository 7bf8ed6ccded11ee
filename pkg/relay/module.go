package relay

import (
	"github.com/goliatone/go-push-relay/internal/di"
	"github.com/goliatone/go-push-relay/internal/dispatcher"
	"github.com/goliatone/go-push-relay/pkg/adapters"
	"github.com/goliatone/go-push-relay/pkg/commands"
	"github.com/goliatone/go-push-relay/pkg/config"
	"github.com/goliatone/go-push-relay/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-push-relay/pkg/interfaces/store"
	"github.com/goliatone/go-push-relay/pkg/metrics"
)

// ModuleOptions configure the relay module. Zero values fall back to the
// container defaults: in-memory stores, console provider, nop broadcaster.
type ModuleOptions struct {
	Config        config.Config
	Registrations store.RegistrationStore
	Attempts      store.DeliveryAttemptRepository
	Logger        logger.Logger
	Broadcaster   broadcaster.Broadcaster
	Provider      adapters.Provider
	Metrics       *metrics.Collector
}

// Module is the embeddable facade over the relay services. Hosts construct
// one, hand its manager to their transport, and expose the command registry
// over whatever surface they run.
type Module struct {
	container *di.Container
	manager   *Manager
	registry  *commands.Registry
	logger    logger.Logger
}

// NewModule wires the relay services and returns the ready module.
func NewModule(opts ModuleOptions) (*Module, error) {
	container, err := di.New(di.Options{
		Config:        opts.Config,
		Registrations: opts.Registrations,
		Attempts:      opts.Attempts,
		Logger:        opts.Logger,
		Broadcaster:   opts.Broadcaster,
		Provider:      opts.Provider,
		Metrics:       opts.Metrics,
	})
	if err != nil {
		return nil, err
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	manager, err := NewManager(Dependencies{
		Dispatcher:  container.Dispatcher,
		Broadcaster: container.Broadcaster,
		Logger:      lgr,
	})
	if err != nil {
		return nil, err
	}

	return &Module{
		container: container,
		manager:   manager,
		registry: &commands.Registry{
			Catalog:         container.Commands,
			Subscribe:       container.Commands.Subscribe,
			TriggerDispatch: container.Commands.TriggerDispatch,
		},
		logger: lgr,
	}, nil
}

// Manager returns the event manager. It satisfies the hub event sink.
func (m *Module) Manager() *Manager {
	return m.manager
}

// Commands returns the command registry backing the HTTP surface.
func (m *Module) Commands() *commands.Registry {
	return m.registry
}

// Registrations exposes the registration store.
func (m *Module) Registrations() store.RegistrationStore {
	return m.container.Registrations
}

// Attempts exposes the delivery attempt audit repository.
func (m *Module) Attempts() store.DeliveryAttemptRepository {
	return m.container.Attempts
}

// Dispatcher exposes the fan-out service.
func (m *Module) Dispatcher() *dispatcher.Service {
	return m.container.Dispatcher
}

// Config returns the resolved configuration.
func (m *Module) Config() config.Config {
	return m.container.Config
}
