package console

import (
	"context"
	"fmt"

	"github.com/goliatone/go-push-relay/pkg/adapters"
	"github.com/goliatone/go-push-relay/pkg/domain"
	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-push-relay/pkg/secrets"
)

// Adapter writes notifications to the configured logger for local runs.
type Adapter struct {
	name string
	base adapters.BaseAdapter
	opts Options
}

type Option func(*Adapter)

// Options tweak console output.
type Options struct {
	Structured bool // when true, emit field pairs instead of a formatted string
}

// WithName overrides the provider name (defaults to "console").
func WithName(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.name = name
		}
	}
}

// WithStructured enables structured logging mode.
func WithStructured(enabled bool) Option {
	return func(a *Adapter) {
		a.opts.Structured = enabled
	}
}

// New constructs a console provider.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "console",
		base: adapters.NewBaseAdapter(l),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	return adapter
}

var _ adapters.Provider = (*Adapter)(nil)

// Name implements adapters.Provider.
func (a *Adapter) Name() string {
	return a.name
}

// Send logs the notification instead of delivering it.
func (a *Adapter) Send(ctx context.Context, reg domain.Registration, note adapters.Notification) error {
	endpoint := secrets.MaskEndpoint(reg.Endpoint)
	if a.opts.Structured {
		a.base.Logger().Info("console delivery",
			logger.Field{Key: "endpoint", Value: endpoint},
			logger.Field{Key: "title", Value: note.Title},
			logger.Field{Key: "body", Value: note.Body},
		)
		return nil
	}
	a.base.Logger().Info(fmt.Sprintf("[console] endpoint=%s title=%s body=%s", endpoint, note.Title, note.Body))
	return nil
}
