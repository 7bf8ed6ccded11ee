package di

import (
	"reflect"

	"github.com/goliatone/go-push-relay/internal/commands"
	"github.com/goliatone/go-push-relay/internal/dispatcher"
	"github.com/goliatone/go-push-relay/internal/storage/memory"
	"github.com/goliatone/go-push-relay/pkg/adapters"
	"github.com/goliatone/go-push-relay/pkg/adapters/console"
	"github.com/goliatone/go-push-relay/pkg/config"
	"github.com/goliatone/go-push-relay/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-push-relay/pkg/interfaces/store"
	"github.com/goliatone/go-push-relay/pkg/metrics"
)

// Options configure the DI container.
type Options struct {
	Config        config.Config
	Registrations store.RegistrationStore
	Attempts      store.DeliveryAttemptRepository
	Logger        logger.Logger
	Broadcaster   broadcaster.Broadcaster
	Provider      adapters.Provider
	Metrics       *metrics.Collector
}

// Container wires the store, dispatcher, and commands.
type Container struct {
	Config        config.Config
	Registrations store.RegistrationStore
	Attempts      store.DeliveryAttemptRepository
	Broadcaster   broadcaster.Broadcaster
	Dispatcher    *dispatcher.Service
	Commands      *commands.Catalog
	Metrics       *metrics.Collector
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container using the supplied options.
func New(opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	registrations := opts.Registrations
	if registrations == nil {
		registrations = memory.NewRegistrationStore()
	}

	attempts := opts.Attempts
	if attempts == nil {
		attempts = memory.NewAttemptRepository()
	}

	b := opts.Broadcaster
	if b == nil {
		b = &broadcaster.Nop{}
	}

	provider := opts.Provider
	if provider == nil {
		provider = console.New(lgr)
	}

	dispatcherSvc, err := dispatcher.New(dispatcher.Dependencies{
		Registrations: registrations,
		Attempts:      attempts,
		Provider:      provider,
		Logger:        lgr,
		Metrics:       opts.Metrics,
		Config:        cfg.Dispatcher,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := commands.NewCatalog(commands.Dependencies{
		Registrations: registrations,
		Dispatcher:    dispatcherSvc,
		Logger:        lgr,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:        cfg,
		Registrations: registrations,
		Attempts:      attempts,
		Broadcaster:   b,
		Dispatcher:    dispatcherSvc,
		Commands:      catalog,
		Metrics:       opts.Metrics,
	}, nil
}
