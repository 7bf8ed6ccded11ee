package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-push-relay/pkg/domain"
	"github.com/goliatone/go-push-relay/pkg/interfaces/store"
)

// RegistrationStore keeps the live endpoint set in memory, keyed by endpoint
// URL. All methods are safe for concurrent use.
type RegistrationStore struct {
	mu         sync.RWMutex
	byEndpoint map[string]domain.Registration
}

var _ store.RegistrationStore = (*RegistrationStore)(nil)

func NewRegistrationStore() *RegistrationStore {
	return &RegistrationStore{
		byEndpoint: make(map[string]domain.Registration),
	}
}

// Add inserts the registration when its endpoint is absent. Duplicate
// endpoints are a no-op, reported through the created flag.
func (r *RegistrationStore) Add(ctx context.Context, reg *domain.Registration) (bool, error) {
	if reg == nil || strings.TrimSpace(reg.Endpoint) == "" {
		return false, store.ErrInvalidRegistration
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEndpoint[reg.Endpoint]; exists {
		return false, nil
	}

	reg.EnsureID()
	now := time.Now().UTC()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	reg.UpdatedAt = now
	r.byEndpoint[reg.Endpoint] = *reg
	return true, nil
}

// ReplaceAll swaps the store contents for the survivors of a fan-out cycle.
// Entries that arrived while the cycle was in flight (present now, absent
// from attempted) are carried over so concurrent Adds are never lost.
func (r *RegistrationStore) ReplaceAll(ctx context.Context, survivors []domain.Registration, attempted map[string]struct{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]domain.Registration, len(survivors))
	for _, reg := range survivors {
		next[reg.Endpoint] = reg
	}
	for endpoint, reg := range r.byEndpoint {
		if _, wasAttempted := attempted[endpoint]; !wasAttempted {
			next[endpoint] = reg
		}
	}
	r.byEndpoint = next
	return nil
}

func (r *RegistrationStore) Size(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEndpoint), nil
}

// Snapshot returns a copy of the current registration set. Order is not
// significant; callers iterate it for fan-out.
func (r *RegistrationStore) Snapshot(ctx context.Context) ([]domain.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Registration, 0, len(r.byEndpoint))
	for _, reg := range r.byEndpoint {
		out = append(out, reg)
	}
	return out, nil
}
