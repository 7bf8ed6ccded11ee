package store

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-push-relay/pkg/domain"
)

// ErrNotFound is returned when a record cannot be located.
var ErrNotFound = errors.New("store: not found")

// ErrInvalidRegistration is returned when a registration has no endpoint.
// Invalid registrations are rejected at the boundary and never enter the store.
var ErrInvalidRegistration = errors.New("store: registration endpoint is required")

// ListOptions capture pagination and filtering knobs common to repositories.
type ListOptions struct {
	Limit  int
	Offset int
	Since  time.Time
	Until  time.Time
}

// ListResult bundles records and totals.
type ListResult[T any] struct {
	Items []T
	Total int
}

// RegistrationStore holds the live set of push endpoints. Implementations
// must be safe for concurrent use; the dispatcher and the subscribe surface
// mutate it from independent goroutines.
type RegistrationStore interface {
	// Add inserts the registration when its endpoint is absent. It reports
	// whether a new entry was created; adding an existing endpoint is a no-op.
	Add(ctx context.Context, reg *domain.Registration) (bool, error)

	// ReplaceAll atomically swaps the store contents for the survivors of a
	// fan-out cycle. attempted names the endpoints that cycle dispatched to:
	// entries added concurrently (present in the store but not attempted)
	// must be preserved, so the result is survivors plus current-minus-attempted.
	ReplaceAll(ctx context.Context, survivors []domain.Registration, attempted map[string]struct{}) error

	Size(ctx context.Context) (int, error)
	Snapshot(ctx context.Context) ([]domain.Registration, error)
}

// DeliveryAttemptRepository records push delivery outcomes for auditing.
type DeliveryAttemptRepository interface {
	Create(ctx context.Context, attempt *domain.DeliveryAttempt) error
	List(ctx context.Context, opts ListOptions) (ListResult[domain.DeliveryAttempt], error)
	ListByEndpoint(ctx context.Context, endpoint string) ([]domain.DeliveryAttempt, error)
}
