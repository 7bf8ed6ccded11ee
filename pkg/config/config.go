package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/goliatone/go-config/cfgx"
)

// Config captures module-level configuration knobs. Feature packages (hub,
// dispatcher, push adapter) pull from these nested structs.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" json:"server"`
	Hub        HubConfig        `mapstructure:"hub" json:"hub"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" json:"dispatcher"`
	Push       PushConfig       `mapstructure:"push" json:"push"`
	Storage    StorageConfig    `mapstructure:"storage" json:"storage"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `mapstructure:"host" json:"host"`
	Port string `mapstructure:"port" json:"port"`
}

// HubConfig tunes the live connection hub and its liveness probing.
type HubConfig struct {
	// PingInterval is the probe cadence. A connection that misses a full
	// interval is evicted on the next sweep, giving a two-interval grace.
	PingInterval time.Duration `mapstructure:"ping_interval" json:"ping_interval"`
	ReadLimit    int64         `mapstructure:"read_limit" json:"read_limit"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	SendBuffer   int           `mapstructure:"send_buffer" json:"send_buffer"`
}

// DispatcherConfig tunes the push fan-out.
type DispatcherConfig struct {
	// DefaultTitle frames raw text payloads that carry no title of their own.
	DefaultTitle string `mapstructure:"default_title" json:"default_title"`
	// AttemptTimeout bounds each individual delivery so one hung endpoint
	// cannot stall classification of the rest.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" json:"attempt_timeout"`
}

// PushConfig carries Web Push (VAPID) settings.
type PushConfig struct {
	PublicKey  string `mapstructure:"public_key" json:"public_key"`
	PrivateKey string `mapstructure:"private_key" json:"private_key"`
	Subscriber string `mapstructure:"subscriber" json:"subscriber"`
	TTL        int    `mapstructure:"ttl" json:"ttl"`
	DryRun     bool   `mapstructure:"dry_run" json:"dry_run"`
}

// StorageConfig selects the delivery-attempt audit backend. An empty DSN
// keeps attempts in memory; a sqlite DSN persists them through bun.
type StorageConfig struct {
	AttemptsDSN string `mapstructure:"attempts_dsn" json:"attempts_dsn"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "3000",
		},
		Hub: HubConfig{
			PingInterval: 30 * time.Second,
			ReadLimit:    1 << 20,
			WriteTimeout: 10 * time.Second,
			SendBuffer:   256,
		},
		Dispatcher: DispatcherConfig{
			DefaultTitle:   "Notification",
			AttemptTimeout: 10 * time.Second,
		},
		Push: PushConfig{
			TTL: 60,
		},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Hub.PingInterval <= 0 {
		return fmt.Errorf("hub.ping_interval must be > 0")
	}
	if c.Hub.ReadLimit <= 0 {
		return fmt.Errorf("hub.read_limit must be > 0")
	}
	if c.Dispatcher.AttemptTimeout <= 0 {
		return fmt.Errorf("dispatcher.attempt_timeout must be > 0")
	}
	if c.Push.TTL < 0 {
		return fmt.Errorf("push.ttl must be >= 0")
	}
	return nil
}

// HasCredentials reports whether the VAPID key pair is configured. The relay
// starts without it, but every push delivery fails until it is supplied.
func (c *Config) HasCredentials() bool {
	return c.Push.PublicKey != "" && c.Push.PrivateKey != ""
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers,
// falling back to a lightweight decoder for plain maps and Config values.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == "" {
		c.Server.Port = defaults.Server.Port
	}
	if c.Hub.PingInterval == 0 {
		c.Hub.PingInterval = defaults.Hub.PingInterval
	}
	if c.Hub.ReadLimit == 0 {
		c.Hub.ReadLimit = defaults.Hub.ReadLimit
	}
	if c.Hub.WriteTimeout == 0 {
		c.Hub.WriteTimeout = defaults.Hub.WriteTimeout
	}
	if c.Hub.SendBuffer == 0 {
		c.Hub.SendBuffer = defaults.Hub.SendBuffer
	}
	if c.Dispatcher.DefaultTitle == "" {
		c.Dispatcher.DefaultTitle = defaults.Dispatcher.DefaultTitle
	}
	if c.Dispatcher.AttemptTimeout == 0 {
		c.Dispatcher.AttemptTimeout = defaults.Dispatcher.AttemptTimeout
	}
	if c.Push.TTL == 0 {
		c.Push.TTL = defaults.Push.TTL
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
