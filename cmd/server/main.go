package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-push-relay/internal/api"
	"github.com/goliatone/go-push-relay/internal/hub"
	"github.com/goliatone/go-push-relay/internal/storage/bunrepo"
	"github.com/goliatone/go-push-relay/pkg/adapters/webpush"
	"github.com/goliatone/go-push-relay/pkg/config"
	"github.com/goliatone/go-push-relay/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-push-relay/pkg/interfaces/store"
	"github.com/goliatone/go-push-relay/pkg/metrics"
	"github.com/goliatone/go-push-relay/pkg/relay"
	"github.com/goliatone/go-push-relay/pkg/secrets"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type environment struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	VAPIDPublicKey  string        `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string        `env:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string        `env:"VAPID_SUBSCRIBER" envDefault:"mailto:admin@example.com"`
	PingInterval    time.Duration `env:"PING_INTERVAL" envDefault:"30s"`
	AttemptsDSN     string        `env:"ATTEMPTS_DSN"`
	PushDryRun      bool          `env:"PUSH_DRY_RUN" envDefault:"false"`
}

func main() {
	lgr := logger.New()

	if err := run(lgr); err != nil {
		lgr.Error("server exited", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}
}

func run(lgr logger.Logger) error {
	// Missing .env is fine; real deployments set the environment directly.
	godotenv.Load()

	var envCfg environment
	if err := env.Parse(&envCfg); err != nil {
		return err
	}

	cfg, err := config.Load(map[string]any{
		"server": map[string]any{
			"port": envCfg.Port,
		},
		"hub": map[string]any{
			"ping_interval": envCfg.PingInterval,
		},
		"push": map[string]any{
			"public_key":  envCfg.VAPIDPublicKey,
			"private_key": envCfg.VAPIDPrivateKey,
			"subscriber":  envCfg.VAPIDSubscriber,
			"dry_run":     envCfg.PushDryRun,
		},
		"storage": map[string]any{
			"attempts_dsn": envCfg.AttemptsDSN,
		},
	})
	if err != nil {
		return err
	}

	if !cfg.HasCredentials() && !cfg.Push.DryRun {
		lgr.Warn("VAPID credentials are not configured; push delivery is disabled until keys are supplied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.New(prometheus.DefaultRegisterer)

	attempts, cleanup, err := buildAttempts(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer cleanup()

	provider := webpush.New(lgr, &secrets.Static{Keys: secrets.VAPIDKeys{
		PublicKey:  cfg.Push.PublicKey,
		PrivateKey: cfg.Push.PrivateKey,
		Subscriber: cfg.Push.Subscriber,
	}}, webpush.WithConfig(webpush.Config{
		TTL:     cfg.Push.TTL,
		Timeout: cfg.Dispatcher.AttemptTimeout,
		DryRun:  cfg.Push.DryRun,
	}))

	connections := hub.New(cfg.Hub, lgr, collector)
	defer connections.Close()

	// Every event reaches the live peers and leaves a trace line; additional
	// sinks (SSE, audit streams) slot into the fanout without touching the
	// relay manager.
	eventTrace := broadcaster.Func(func(_ context.Context, event broadcaster.Event) error {
		lgr.Debug("event relayed",
			logger.Field{Key: "origin", Value: event.Origin},
			logger.Field{Key: "title", Value: event.Title},
		)
		return nil
	})

	module, err := relay.NewModule(relay.ModuleOptions{
		Config:      cfg,
		Attempts:    attempts,
		Logger:      lgr,
		Broadcaster: broadcaster.NewFanout(connections, eventTrace),
		Provider:    provider,
		Metrics:     collector,
	})
	if err != nil {
		return err
	}

	server, err := api.New(api.Dependencies{
		Module:  module,
		Hub:     connections,
		Logger:  lgr,
		Metrics: collector,
	})
	if err != nil {
		return err
	}

	go connections.RunLiveness(ctx)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lgr.Info("listening", logger.Field{Key: "addr", Value: addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lgr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildAttempts(ctx context.Context, cfg config.Config, lgr logger.Logger) (store.DeliveryAttemptRepository, func(), error) {
	if cfg.Storage.AttemptsDSN == "" {
		return nil, func() {}, nil
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Storage.AttemptsDSN)
	if err != nil {
		return nil, nil, err
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	repo := bunrepo.NewAttemptRepository(db)
	if err := repo.Setup(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	lgr.Info("delivery attempts persisted", logger.Field{Key: "dsn", Value: cfg.Storage.AttemptsDSN})
	return repo, func() { db.Close() }, nil
}
