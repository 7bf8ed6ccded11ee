package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-push-relay/internal/storage/memory"
	"github.com/goliatone/go-push-relay/pkg/adapters"
	"github.com/goliatone/go-push-relay/pkg/config"
	"github.com/goliatone/go-push-relay/pkg/domain"
	"github.com/goliatone/go-push-relay/pkg/interfaces/store"
)

type fakeProvider struct {
	mu        sync.Mutex
	errs      map[string]error
	sent      []adapters.Notification
	block     chan struct{}
	started   chan struct{}
	startOnce sync.Once
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Send(ctx context.Context, reg domain.Registration, note adapters.Notification) error {
	if p.started != nil {
		p.startOnce.Do(func() { close(p.started) })
	}
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, note)
	if p.errs != nil {
		return p.errs[reg.Endpoint]
	}
	return nil
}

func (p *fakeProvider) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

type offlineProvider struct{ fakeProvider }

func (p *offlineProvider) Ready() bool { return false }

func seedStore(t *testing.T, endpoints ...string) store.RegistrationStore {
	t.Helper()
	repo := memory.NewRegistrationStore()
	for _, endpoint := range endpoints {
		if _, err := repo.Add(context.Background(), &domain.Registration{Endpoint: endpoint}); err != nil {
			t.Fatalf("seed %s: %v", endpoint, err)
		}
	}
	return repo
}

func newService(t *testing.T, registrations store.RegistrationStore, attempts store.DeliveryAttemptRepository, provider adapters.Provider) *Service {
	t.Helper()
	svc, err := New(Dependencies{
		Registrations: registrations,
		Attempts:      attempts,
		Provider:      provider,
		Config:        config.Defaults().Dispatcher,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestTriggerClassifiesOutcomes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	const (
		okEndpoint    = "https://push.example.com/sub/ok"
		goneEndpoint  = "https://push.example.com/sub/gone"
		flakyEndpoint = "https://push.example.com/sub/flaky"
	)
	registrations := seedStore(t, okEndpoint, goneEndpoint, flakyEndpoint)
	attempts := memory.NewAttemptRepository()
	provider := &fakeProvider{errs: map[string]error{
		goneEndpoint:  &adapters.StatusError{Code: 410},
		flakyEndpoint: &adapters.StatusError{Code: 500},
	}}

	svc := newService(t, registrations, attempts, provider)

	result, err := svc.Trigger(ctx, "greeting", "hello")
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if result.Sent != 1 || result.Removed != 1 || result.Remaining != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	snapshot, _ := registrations.Snapshot(ctx)
	remaining := make(map[string]bool, len(snapshot))
	for _, reg := range snapshot {
		remaining[reg.Endpoint] = true
	}
	if remaining[goneEndpoint] {
		t.Fatalf("410 endpoint must be pruned: %v", remaining)
	}
	if !remaining[okEndpoint] || !remaining[flakyEndpoint] {
		t.Fatalf("delivered and transient endpoints must survive: %v", remaining)
	}

	audit, err := attempts.List(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if audit.Total != 3 {
		t.Fatalf("expected 3 audit records, got %d", audit.Total)
	}
	statuses := make(map[string]string, audit.Total)
	for _, record := range audit.Items {
		statuses[record.Endpoint] = record.Status
	}
	if statuses[okEndpoint] != domain.AttemptStatusDelivered {
		t.Fatalf("ok endpoint status = %q", statuses[okEndpoint])
	}
	if statuses[goneEndpoint] != domain.AttemptStatusPruned {
		t.Fatalf("gone endpoint status = %q", statuses[goneEndpoint])
	}
	if statuses[flakyEndpoint] != domain.AttemptStatusFailed {
		t.Fatalf("flaky endpoint status = %q", statuses[flakyEndpoint])
	}
}

func TestTriggerUsesDefaultTitleForBlankTitles(t *testing.T) {
	t.Parallel()

	registrations := seedStore(t, "https://push.example.com/sub/a")
	provider := &fakeProvider{}
	svc := newService(t, registrations, nil, provider)

	if _, err := svc.Trigger(context.Background(), "   ", "body"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if len(provider.sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(provider.sent))
	}
	if provider.sent[0].Title != config.Defaults().Dispatcher.DefaultTitle {
		t.Fatalf("expected default title, got %q", provider.sent[0].Title)
	}
}

func TestTriggerEmptyStoreIsANoop(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	svc := newService(t, memory.NewRegistrationStore(), nil, provider)

	result, err := svc.Trigger(context.Background(), "t", "b")
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if result.Sent != 0 || result.Removed != 0 || result.Remaining != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if provider.sentCount() != 0 {
		t.Fatalf("no deliveries expected, got %d", provider.sentCount())
	}
}

func TestTriggerRefusesWhenProviderNotReady(t *testing.T) {
	t.Parallel()

	registrations := seedStore(t, "https://push.example.com/sub/a")
	provider := &offlineProvider{}
	svc := newService(t, registrations, nil, provider)

	if _, err := svc.Trigger(context.Background(), "t", "b"); !errors.Is(err, ErrDispatchUnavailable) {
		t.Fatalf("expected ErrDispatchUnavailable, got %v", err)
	}
	if provider.sentCount() != 0 {
		t.Fatalf("provider must not be called when not ready")
	}
}

func TestTriggerPreservesRegistrationsAddedMidCycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registrations := seedStore(t, "https://push.example.com/sub/a")
	provider := &fakeProvider{block: make(chan struct{}), started: make(chan struct{})}
	svc := newService(t, registrations, nil, provider)

	type triggerOut struct {
		result Result
		err    error
	}
	done := make(chan triggerOut, 1)
	go func() {
		result, err := svc.Trigger(ctx, "t", "b")
		done <- triggerOut{result, err}
	}()

	// Subscribe while the only attempt is still in flight. Waiting for the
	// first Send guarantees the snapshot predates the late registration.
	<-provider.started
	if _, err := registrations.Add(ctx, &domain.Registration{Endpoint: "https://push.example.com/sub/late"}); err != nil {
		t.Fatalf("late add: %v", err)
	}
	close(provider.block)

	out := <-done
	if out.err != nil {
		t.Fatalf("trigger: %v", out.err)
	}
	if out.result.Sent != 1 {
		t.Fatalf("expected one delivery, got %+v", out.result)
	}
	if out.result.Remaining != 2 {
		t.Fatalf("expected late registration to survive the cycle, got %+v", out.result)
	}
}
