package webpush

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/goliatone/go-push-relay/pkg/adapters"
	"github.com/goliatone/go-push-relay/pkg/domain"
	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-push-relay/pkg/secrets"
)

// Notification aliases the shared provider payload type.
type Notification = adapters.Notification

// Adapter delivers notifications over the Web Push protocol with VAPID auth.
type Adapter struct {
	name   string
	base   adapters.BaseAdapter
	cfg    Config
	creds  secrets.Source
	client *http.Client
}

// Config holds Web Push settings.
type Config struct {
	TTL     int
	Timeout time.Duration
	DryRun  bool
}

type Option func(*Adapter)

// WithName overrides the provider name.
func WithName(name string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(name) != "" {
			a.name = name
		}
	}
}

// WithConfig sets the adapter configuration.
func WithConfig(cfg Config) Option {
	return func(a *Adapter) {
		a.cfg = cfg
	}
}

// WithClient allows injecting a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

// New constructs the Web Push provider. creds may resolve to nothing; the
// adapter then reports not ready and every Send fails until keys appear.
func New(l logger.Logger, creds secrets.Source, opts ...Option) *Adapter {
	adapter := &Adapter{
		name:  "webpush",
		base:  adapters.NewBaseAdapter(l),
		creds: creds,
		cfg: Config{
			TTL:     60,
			Timeout: 10 * time.Second,
		},
	}
	if adapter.creds == nil {
		adapter.creds = &secrets.Nop{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	if adapter.client == nil {
		adapter.client = &http.Client{Timeout: adapter.cfg.Timeout}
	}
	return adapter
}

var _ adapters.Provider = (*Adapter)(nil)
var _ adapters.ReadyChecker = (*Adapter)(nil)

func (a *Adapter) Name() string { return a.name }

// Ready reports whether VAPID credentials resolve.
func (a *Adapter) Ready() bool {
	if a.cfg.DryRun {
		return true
	}
	_, err := a.creds.VAPID()
	return err == nil
}

// Send pushes the notification to the registration's endpoint. Non-2xx
// provider responses surface as *adapters.StatusError so the dispatcher can
// classify 404/410 as permanent failures.
func (a *Adapter) Send(ctx context.Context, reg domain.Registration, note Notification) error {
	if a.cfg.DryRun {
		a.base.LogSuccess(a.name, reg.Endpoint)
		a.base.Logger().Info("[webpush:dry-run] send skipped",
			logger.Field{Key: "endpoint", Value: secrets.MaskEndpoint(reg.Endpoint)},
			logger.Field{Key: "title", Value: note.Title},
		)
		return nil
	}

	keys, err := a.creds.VAPID()
	if err != nil {
		return fmt.Errorf("webpush: resolve credentials: %w", err)
	}

	payload, err := json.Marshal(domain.Payload{Title: note.Title, Body: note.Body})
	if err != nil {
		return fmt.Errorf("webpush: encode payload: %w", err)
	}

	sub := &webpush.Subscription{
		Endpoint: reg.Endpoint,
		Keys: webpush.Keys{
			P256dh: reg.Keys.P256dh,
			Auth:   reg.Keys.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
		Subscriber:      keys.Subscriber,
		VAPIDPublicKey:  keys.PublicKey,
		VAPIDPrivateKey: keys.PrivateKey,
		TTL:             a.cfg.TTL,
		HTTPClient:      a.client,
	})
	if err != nil {
		wrapped := fmt.Errorf("webpush: request failed: %w", err)
		a.base.LogFailure(a.name, reg.Endpoint, wrapped)
		return wrapped
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &adapters.StatusError{Code: resp.StatusCode}
		a.base.LogFailure(a.name, reg.Endpoint, statusErr)
		return statusErr
	}

	a.base.LogSuccess(a.name, reg.Endpoint)
	return nil
}
