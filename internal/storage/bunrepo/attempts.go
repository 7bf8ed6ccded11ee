package bunrepo

import (
	"context"
	"time"

	"github.com/goliatone/go-push-relay/pkg/domain"
	"github.com/goliatone/go-push-relay/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AttemptRepository persists the delivery audit trail through bun.
type AttemptRepository struct {
	repo repository.Repository[*domain.DeliveryAttempt]
	db   *bun.DB
}

var _ store.DeliveryAttemptRepository = (*AttemptRepository)(nil)

func NewAttemptRepository(db *bun.DB) *AttemptRepository {
	handlers := repository.ModelHandlers[*domain.DeliveryAttempt]{
		NewRecord:          func() *domain.DeliveryAttempt { return &domain.DeliveryAttempt{} },
		GetID:              func(a *domain.DeliveryAttempt) uuid.UUID { return a.ID },
		SetID:              func(a *domain.DeliveryAttempt, id uuid.UUID) { a.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(a *domain.DeliveryAttempt) string { return a.ID.String() },
	}
	return &AttemptRepository{
		repo: repository.MustNewRepository[*domain.DeliveryAttempt](db, handlers),
		db:   db,
	}
}

// Setup creates the attempts table when it does not exist yet.
func (r *AttemptRepository) Setup(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*domain.DeliveryAttempt)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	attempt.EnsureID()
	now := time.Now().UTC()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = now
	}
	attempt.UpdatedAt = now
	_, err := r.repo.Create(ctx, attempt)
	return mapError(err)
}

func (r *AttemptRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.DeliveryAttempt], error) {
	records, total, err := r.repo.List(ctx, withListOptions(opts))
	if err != nil {
		return store.ListResult[domain.DeliveryAttempt]{}, mapError(err)
	}
	items := make([]domain.DeliveryAttempt, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return store.ListResult[domain.DeliveryAttempt]{Items: items, Total: total}, nil
}

func (r *AttemptRepository) ListByEndpoint(ctx context.Context, endpoint string) ([]domain.DeliveryAttempt, error) {
	records, _, err := r.repo.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("endpoint = ?", endpoint)
	})
	if err != nil {
		return nil, mapError(err)
	}
	items := make([]domain.DeliveryAttempt, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return items, nil
}

func withListOptions(opts store.ListOptions) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if !opts.Since.IsZero() {
			q = q.Where("created_at >= ?", opts.Since)
		}
		if !opts.Until.IsZero() {
			q = q.Where("created_at <= ?", opts.Until)
		}
		if opts.Limit > 0 {
			q = q.Limit(opts.Limit)
		}
		if opts.Offset > 0 {
			q = q.Offset(opts.Offset)
		}
		return q.Order("created_at ASC")
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsRecordNotFound(err) {
		return store.ErrNotFound
	}
	return err
}
