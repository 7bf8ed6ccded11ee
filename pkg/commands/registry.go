package commands

import (
	command "github.com/goliatone/go-command"
	internalcommands "github.com/goliatone/go-push-relay/internal/commands"
)

// Re-export request types so consumers need not import internal packages.
type (
	SubscribeRequest = internalcommands.SubscribeRequest
	TriggerDispatch  = internalcommands.TriggerDispatch
)

// Registry exposes go-command compatible handlers backed by the relay services.
type Registry struct {
	Catalog         *internalcommands.Catalog
	Subscribe       command.Commander[SubscribeRequest]
	TriggerDispatch command.Commander[TriggerDispatch]
}

// Dependencies mirror the internal command dependencies but keep them public.
type Dependencies = internalcommands.Dependencies

// New builds the registry using the provided dependencies.
func New(deps Dependencies) (*Registry, error) {
	catalog, err := internalcommands.NewCatalog(deps)
	if err != nil {
		return nil, err
	}
	return &Registry{
		Catalog:         catalog,
		Subscribe:       catalog.Subscribe,
		TriggerDispatch: catalog.TriggerDispatch,
	}, nil
}

// Commanders returns every handler so callers can register them with go-command registries.
func (r *Registry) Commanders() []any {
	if r == nil {
		return nil
	}
	return []any{
		r.Subscribe,
		r.TriggerDispatch,
	}
}
