package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/goliatone/go-push-relay/pkg/domain"
)

// Notification is a framed payload destined for one push endpoint.
type Notification struct {
	ID    string
	Title string
	Body  string
}

// Provider is implemented by push delivery backends (Web Push, console, etc).
// Send returns nil on success, a *StatusError when the provider answered with
// a non-success status, and any other error for transport-level failures.
type Provider interface {
	Name() string
	Send(ctx context.Context, reg domain.Registration, note Notification) error
}

// ReadyChecker is optionally implemented by providers that can be present but
// unusable (e.g., missing credentials). The dispatcher refuses to run a cycle
// against a provider that reports not ready.
type ReadyChecker interface {
	Ready() bool
}

// ErrProviderNotFound is returned when no provider matches a lookup.
var ErrProviderNotFound = errors.New("adapters: no provider registered under that name")

// StatusError reports a provider response status outside the success range.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d", e.Code)
}

// Outcome classifies a single delivery attempt.
type Outcome int

const (
	// OutcomeDelivered: the provider accepted the notification.
	OutcomeDelivered Outcome = iota
	// OutcomePermanent: the endpoint is gone; the registration must be pruned.
	OutcomePermanent
	// OutcomeTransient: delivery failed but the registration may still be valid.
	OutcomeTransient
)

// Classify maps a Send result to an outcome. Only 404 and 410 mark a
// registration as permanently invalid; every other failure is transient.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeDelivered
	}
	var status *StatusError
	if errors.As(err, &status) {
		switch status.Code {
		case http.StatusNotFound, http.StatusGone:
			return OutcomePermanent
		}
	}
	return OutcomeTransient
}

// Registry stores available providers keyed by name. The server binary wires
// its single webpush provider directly; hosts embedding the relay use the
// registry to select between several providers at runtime.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewRegistry builds a registry with the supplied providers.
func NewRegistry(providers ...Provider) *Registry {
	reg := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		reg.Register(p)
	}
	return reg
}

// Register adds a provider, indexing by its normalized name.
func (r *Registry) Register(p Provider) {
	if r == nil || p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name := normalizeKey(p.Name())
	if name == "" {
		return
	}
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = p
}

// Get locates a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	if r == nil {
		return nil, ErrProviderNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[normalizeKey(name)]; ok {
		return p, nil
	}
	return nil, ErrProviderNotFound
}

// Default returns the first registered provider.
func (r *Registry) Default() (Provider, error) {
	if r == nil {
		return nil, ErrProviderNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil, ErrProviderNotFound
	}
	return r.providers[r.order[0]], nil
}

// Describe returns a human-readable summary of the registry entries.
func (r *Registry) Describe() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, name)
	}
	return out
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
