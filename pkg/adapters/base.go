package adapters

import (
	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-push-relay/pkg/secrets"
)

// BaseAdapter provides shared helpers for simple providers.
type BaseAdapter struct {
	logger logger.Logger
}

func NewBaseAdapter(l logger.Logger) BaseAdapter {
	if l == nil {
		l = &logger.Nop{}
	}
	return BaseAdapter{logger: l}
}

func (b BaseAdapter) LogSuccess(name string, endpoint string) {
	b.logger.Info("provider delivered notification",
		logger.Field{Key: "provider", Value: name},
		logger.Field{Key: "endpoint", Value: secrets.MaskEndpoint(endpoint)},
	)
}

func (b BaseAdapter) LogFailure(name string, endpoint string, err error) {
	b.logger.Error("provider delivery failed",
		logger.Field{Key: "provider", Value: name},
		logger.Field{Key: "endpoint", Value: secrets.MaskEndpoint(endpoint)},
		logger.Field{Key: "error", Value: err},
	)
}

// Logger exposes the adapter logger for structured diagnostics.
func (b BaseAdapter) Logger() logger.Logger {
	if b.logger == nil {
		return &logger.Nop{}
	}
	return b.logger
}
