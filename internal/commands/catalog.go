package commands

import (
	"context"
	"errors"
	"strings"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-push-relay/internal/dispatcher"
	"github.com/goliatone/go-push-relay/pkg/domain"
	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-push-relay/pkg/interfaces/store"
)

// Catalog exposes go-command compatible handlers for host transports.
type Catalog struct {
	Subscribe       command.Commander[SubscribeRequest]
	TriggerDispatch command.Commander[TriggerDispatch]
}

type triggerService interface {
	Trigger(ctx context.Context, title, body string) (dispatcher.Result, error)
}

// Dependencies wires the store and dispatcher into the command catalog.
type Dependencies struct {
	Registrations store.RegistrationStore
	Dispatcher    triggerService
	Logger        logger.Logger
}

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.Registrations == nil {
		return nil, errors.New("commands: registration store is required")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("commands: dispatcher is required")
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}

	return &Catalog{
		Subscribe:       subscribeCommand{registrations: deps.Registrations, logger: deps.Logger},
		TriggerDispatch: triggerCommand{svc: deps.Dispatcher, logger: deps.Logger},
	}, nil
}

// SubscribeRequest carries a push registration descriptor. The shape matches
// the browser PushSubscription JSON a subscribe call posts.
type SubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type subscribeCommand struct {
	registrations store.RegistrationStore
	logger        logger.Logger
}

func (c subscribeCommand) Execute(ctx context.Context, msg SubscribeRequest) error {
	msg.Endpoint = strings.TrimSpace(msg.Endpoint)
	if msg.Endpoint == "" {
		return store.ErrInvalidRegistration
	}
	reg := &domain.Registration{
		Endpoint: msg.Endpoint,
		Keys: domain.RegistrationKeys{
			P256dh: msg.Keys.P256dh,
			Auth:   msg.Keys.Auth,
		},
	}
	created, err := c.registrations.Add(ctx, reg)
	if err != nil {
		return err
	}
	if created {
		c.logger.Info("registration added", logger.Field{Key: "id", Value: reg.ID})
	}
	return nil
}

// TriggerDispatch requests one push fan-out cycle.
type TriggerDispatch struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type triggerCommand struct {
	svc    triggerService
	logger logger.Logger
}

func (c triggerCommand) Execute(ctx context.Context, msg TriggerDispatch) error {
	_, err := c.svc.Trigger(ctx, msg.Title, msg.Body)
	return err
}
