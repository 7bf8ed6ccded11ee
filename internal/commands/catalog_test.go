package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-push-relay/internal/dispatcher"
	"github.com/goliatone/go-push-relay/internal/storage/memory"
	"github.com/goliatone/go-push-relay/pkg/interfaces/store"
)

type fakeTrigger struct {
	calls  []TriggerDispatch
	result dispatcher.Result
	err    error
}

func (f *fakeTrigger) Trigger(_ context.Context, title, body string) (dispatcher.Result, error) {
	f.calls = append(f.calls, TriggerDispatch{Title: title, Body: body})
	return f.result, f.err
}

func newCatalog(t *testing.T, registrations store.RegistrationStore, trigger *fakeTrigger) *Catalog {
	t.Helper()
	catalog, err := NewCatalog(Dependencies{
		Registrations: registrations,
		Dispatcher:    trigger,
	})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return catalog
}

func TestSubscribeCommandStoresRegistration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registrations := memory.NewRegistrationStore()
	catalog := newCatalog(t, registrations, &fakeTrigger{})

	req := SubscribeRequest{Endpoint: "  https://push.example.com/sub/abc  "}
	req.Keys.P256dh = "pk"
	req.Keys.Auth = "ak"
	if err := catalog.Subscribe.Execute(ctx, req); err != nil {
		t.Fatalf("execute: %v", err)
	}

	snapshot, _ := registrations.Snapshot(ctx)
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 registration, got %d", len(snapshot))
	}
	if snapshot[0].Endpoint != "https://push.example.com/sub/abc" {
		t.Fatalf("endpoint not trimmed: %q", snapshot[0].Endpoint)
	}
	if snapshot[0].Keys.P256dh != "pk" || snapshot[0].Keys.Auth != "ak" {
		t.Fatalf("keys not stored: %+v", snapshot[0].Keys)
	}

	// Subscribing the same endpoint twice stays a single registration.
	if err := catalog.Subscribe.Execute(ctx, req); err != nil {
		t.Fatalf("duplicate execute: %v", err)
	}
	size, _ := registrations.Size(ctx)
	if size != 1 {
		t.Fatalf("expected 1 registration after duplicate, got %d", size)
	}
}

func TestSubscribeCommandRejectsBlankEndpoint(t *testing.T) {
	t.Parallel()

	catalog := newCatalog(t, memory.NewRegistrationStore(), &fakeTrigger{})
	err := catalog.Subscribe.Execute(context.Background(), SubscribeRequest{Endpoint: "   "})
	if !errors.Is(err, store.ErrInvalidRegistration) {
		t.Fatalf("expected ErrInvalidRegistration, got %v", err)
	}
}

func TestTriggerCommandDelegates(t *testing.T) {
	t.Parallel()

	trigger := &fakeTrigger{}
	catalog := newCatalog(t, memory.NewRegistrationStore(), trigger)

	if err := catalog.TriggerDispatch.Execute(context.Background(), TriggerDispatch{Title: "t", Body: "b"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(trigger.calls) != 1 || trigger.calls[0].Title != "t" || trigger.calls[0].Body != "b" {
		t.Fatalf("unexpected delegation: %+v", trigger.calls)
	}
}

func TestTriggerCommandPropagatesErrors(t *testing.T) {
	t.Parallel()

	trigger := &fakeTrigger{err: dispatcher.ErrDispatchUnavailable}
	catalog := newCatalog(t, memory.NewRegistrationStore(), trigger)

	err := catalog.TriggerDispatch.Execute(context.Background(), TriggerDispatch{Body: "b"})
	if !errors.Is(err, dispatcher.ErrDispatchUnavailable) {
		t.Fatalf("expected dispatch error, got %v", err)
	}
}
