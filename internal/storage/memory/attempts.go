package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-push-relay/pkg/domain"
	"github.com/goliatone/go-push-relay/pkg/interfaces/store"
)

// AttemptRepository keeps the delivery audit trail in memory.
type AttemptRepository struct {
	mu      sync.RWMutex
	records []domain.DeliveryAttempt
}

var _ store.DeliveryAttemptRepository = (*AttemptRepository)(nil)

func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	attempt.EnsureID()
	now := time.Now().UTC()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = now
	}
	attempt.UpdatedAt = now
	r.records = append(r.records, *attempt)
	return nil
}

func (r *AttemptRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.DeliveryAttempt], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filtered []domain.DeliveryAttempt
	for _, record := range r.records {
		if !opts.Since.IsZero() && record.CreatedAt.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && record.CreatedAt.After(opts.Until) {
			continue
		}
		filtered = append(filtered, record)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	total := len(filtered)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	return store.ListResult[domain.DeliveryAttempt]{
		Items: filtered[start:end],
		Total: total,
	}, nil
}

func (r *AttemptRepository) ListByEndpoint(ctx context.Context, endpoint string) ([]domain.DeliveryAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.DeliveryAttempt
	for _, record := range r.records {
		if record.Endpoint == endpoint {
			out = append(out, record)
		}
	}
	return out, nil
}
