package dispatcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-push-relay/pkg/adapters"
	"github.com/goliatone/go-push-relay/pkg/config"
	"github.com/goliatone/go-push-relay/pkg/domain"
	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-push-relay/pkg/interfaces/store"
	"github.com/goliatone/go-push-relay/pkg/metrics"
	"github.com/goliatone/go-push-relay/pkg/secrets"
	"github.com/google/uuid"
)

// Dependencies groups the collaborators required by the dispatcher.
type Dependencies struct {
	Registrations store.RegistrationStore
	Attempts      store.DeliveryAttemptRepository
	Provider      adapters.Provider
	Logger        logger.Logger
	Metrics       *metrics.Collector
	Config        config.DispatcherConfig
}

// Service fans one payload out to every registered endpoint, prunes the
// registrations the provider reports as gone, and returns aggregate counts.
type Service struct {
	registrations store.RegistrationStore
	attempts      store.DeliveryAttemptRepository
	provider      adapters.Provider
	logger        logger.Logger
	metrics       *metrics.Collector
	cfg           config.DispatcherConfig
}

// Result summarizes one fan-out cycle.
type Result struct {
	Sent      int `json:"sent"`
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

var (
	ErrMissingRegistrations = errors.New("dispatcher: registration store is required")
	ErrMissingProvider      = errors.New("dispatcher: push provider is required")

	// ErrDispatchUnavailable means the fan-out mechanism itself cannot run,
	// typically because provider credentials are absent. Per-attempt failures
	// never surface this way.
	ErrDispatchUnavailable = errors.New("dispatcher: push provider is not ready")
)

// New builds the dispatcher service.
func New(deps Dependencies) (*Service, error) {
	if deps.Registrations == nil {
		return nil, ErrMissingRegistrations
	}
	if deps.Provider == nil {
		return nil, ErrMissingProvider
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Config.AttemptTimeout <= 0 {
		deps.Config.AttemptTimeout = 10 * time.Second
	}
	if deps.Config.DefaultTitle == "" {
		deps.Config.DefaultTitle = "Notification"
	}
	return &Service{
		registrations: deps.Registrations,
		attempts:      deps.Attempts,
		provider:      deps.Provider,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		cfg:           deps.Config,
	}, nil
}

type attemptResult struct {
	reg domain.Registration
	err error
}

// Trigger snapshots the registration store and attempts delivery to every
// entry concurrently, waiting for all outcomes before classifying them.
// Individual delivery failures never fail the call: 404/410 responses prune
// the registration, anything else keeps it for the next cycle.
func (s *Service) Trigger(ctx context.Context, title, body string) (Result, error) {
	if ready, ok := s.provider.(adapters.ReadyChecker); ok && !ready.Ready() {
		return Result{}, ErrDispatchUnavailable
	}

	if strings.TrimSpace(title) == "" {
		title = s.cfg.DefaultTitle
	}

	snapshot, err := s.registrations.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(snapshot) == 0 {
		remaining, err := s.registrations.Size(ctx)
		if err != nil {
			return Result{}, err
		}
		return Result{Remaining: remaining}, nil
	}

	note := adapters.Notification{
		ID:    uuid.New().String(),
		Title: title,
		Body:  body,
	}

	attempted := make(map[string]struct{}, len(snapshot))
	for _, reg := range snapshot {
		attempted[reg.Endpoint] = struct{}{}
	}

	// Scatter one goroutine per registration; each attempt carries its own
	// timeout so a hung endpoint cannot stall classification of the rest.
	results := make([]attemptResult, len(snapshot))
	var wg sync.WaitGroup
	for i, reg := range snapshot {
		wg.Add(1)
		go func(i int, reg domain.Registration) {
			defer wg.Done()
			attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
			defer cancel()
			results[i] = attemptResult{reg: reg, err: s.provider.Send(attemptCtx, reg, note)}
		}(i, reg)
	}
	wg.Wait()

	var sent, removed int
	survivors := make([]domain.Registration, 0, len(snapshot))
	for _, res := range results {
		switch adapters.Classify(res.err) {
		case adapters.OutcomeDelivered:
			sent++
			survivors = append(survivors, res.reg)
			s.metrics.IncPushDelivered()
			s.recordAttempt(ctx, res.reg, note, domain.AttemptStatusDelivered, res.err)
		case adapters.OutcomePermanent:
			removed++
			s.metrics.IncPushPruned()
			s.logger.Info("pruning stale registration",
				logger.Field{Key: "endpoint", Value: secrets.MaskEndpoint(res.reg.Endpoint)},
				logger.Field{Key: "error", Value: res.err},
			)
			s.recordAttempt(ctx, res.reg, note, domain.AttemptStatusPruned, res.err)
		case adapters.OutcomeTransient:
			survivors = append(survivors, res.reg)
			s.metrics.IncPushFailed()
			s.logger.Warn("push delivery failed",
				logger.Field{Key: "endpoint", Value: secrets.MaskEndpoint(res.reg.Endpoint)},
				logger.Field{Key: "error", Value: res.err},
			)
			s.recordAttempt(ctx, res.reg, note, domain.AttemptStatusFailed, res.err)
		}
	}

	if err := s.registrations.ReplaceAll(ctx, survivors, attempted); err != nil {
		return Result{}, err
	}
	remaining, err := s.registrations.Size(ctx)
	if err != nil {
		return Result{}, err
	}

	s.metrics.IncDispatchCycle()
	s.logger.Info("dispatch cycle complete",
		logger.Field{Key: "sent", Value: sent},
		logger.Field{Key: "removed", Value: removed},
		logger.Field{Key: "remaining", Value: remaining},
	)

	return Result{Sent: sent, Removed: removed, Remaining: remaining}, nil
}

func (s *Service) recordAttempt(ctx context.Context, reg domain.Registration, note adapters.Notification, status string, attemptErr error) {
	if s.attempts == nil {
		return
	}
	record := &domain.DeliveryAttempt{
		Endpoint: reg.Endpoint,
		Provider: s.provider.Name(),
		Status:   status,
		Payload: domain.JSONMap{
			"notification_id": note.ID,
			"title":           note.Title,
		},
	}
	var statusErr *adapters.StatusError
	if errors.As(attemptErr, &statusErr) {
		record.StatusCode = statusErr.Code
	}
	if attemptErr != nil {
		record.Error = attemptErr.Error()
	}
	if err := s.attempts.Create(ctx, record); err != nil {
		s.logger.Warn("failed to record delivery attempt", logger.Field{Key: "error", Value: err})
	}
}
