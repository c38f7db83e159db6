package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/expawatch/internal/model"
)

// EnvPath names the environment variable consulted when no --config flag is given.
const EnvPath = "EXPAWATCH_CONFIG"

// DefaultPath is used when neither the flag nor EnvPath is set.
const DefaultPath = "config.yaml"

const (
	defaultURL             = "https://gis-api.aiesec.org/graphql"
	defaultTimeout         = 30 * time.Second
	defaultRetries         = 1
	defaultMinDelay        = 2 * time.Second
	defaultTargetProgramme = 7
	defaultTimeZone        = "Asia/Colombo"
	defaultPageSize        = 10
	defaultSignupInterval  = 60 * time.Second
	defaultAppInterval     = 28 * time.Second
	defaultRatePerMinute   = 60
	defaultSQLitePath      = "expawatch.db"
	defaultRedisPrefix     = "expawatch"
)

// Config is the root configuration for expawatch.
type Config struct {
	Upstream     UpstreamConfig
	Routing      RoutingConfig
	Pollers      map[model.Kind]PollerConfig
	Notification NotificationConfig
	Store        StoreConfig
	Metrics      MetricsConfig
}

// UpstreamConfig describes the EXPA GraphQL endpoint.
type UpstreamConfig struct {
	URL      string
	Token    string
	Timeout  time.Duration
	Retries  int
	MinDelay time.Duration // minimum gap between requests, shared by all kinds
}

// RoutingConfig feeds the classifier and message formatting.
type RoutingConfig struct {
	TargetProgramme int
	HomeLocation    string
	Location        *time.Location
}

// PollerConfig holds the settings of one kind's poll loop.
type PollerConfig struct {
	Enabled    bool
	Interval   time.Duration
	StartDelay time.Duration
	PageSize   int
	Query      string
	Filters    map[string]any
	Watermark  bool
}

// NotificationConfig selects the notifier and binds channels to webhook URLs.
type NotificationConfig struct {
	Type          string // "chat" or "log"
	RatePerMinute int
	Channels      map[model.RoutingKey]string
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	Driver string // "sqlite", "postgres" or "redis"
	Path   string
	DSN    string
	Redis  RedisConfig
}

// RedisConfig holds the redis connection settings.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// EnabledKinds returns the enabled kinds in a stable order.
func (c *Config) EnabledKinds() []model.Kind {
	var kinds []model.Kind
	for _, k := range model.Kinds {
		if c.Pollers[k].Enabled {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Upstream struct {
		URL      string `yaml:"url"`
		Token    string `yaml:"token"`
		Timeout  string `yaml:"timeout"`
		Retries  *int   `yaml:"retries"`
		MinDelay string `yaml:"min_delay"`
	} `yaml:"upstream"`
	Routing struct {
		TargetProgramme *int   `yaml:"target_programme"`
		HomeLocation    string `yaml:"home_location"`
		TimeZone        string `yaml:"time_zone"`
	} `yaml:"routing"`
	Pollers struct {
		Signups      *rawPollerConfig `yaml:"signups"`
		Applications *rawPollerConfig `yaml:"applications"`
	} `yaml:"pollers"`
	Notification struct {
		Type          string            `yaml:"type"`
		RatePerMinute *int              `yaml:"rate_per_minute"`
		Channels      map[string]string `yaml:"channels"`
	} `yaml:"notification"`
	Store struct {
		Driver string      `yaml:"driver"`
		Path   string      `yaml:"path"`
		DSN    string      `yaml:"dsn"`
		Redis  RedisConfig `yaml:"redis"`
	} `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type rawPollerConfig struct {
	Enabled    *bool          `yaml:"enabled"`
	Interval   string         `yaml:"interval"`
	StartDelay string         `yaml:"start_delay"`
	PageSize   int            `yaml:"page_size"`
	Query      string         `yaml:"query"`
	Filters    map[string]any `yaml:"filters"`
	Watermark  bool           `yaml:"watermark"`
}

// ResolvePath picks the config path: the flag value, then EnvPath, then DefaultPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
// A .env file next to the config is loaded first so ${VAR} references can use it;
// variables already set in the environment win.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := godotenv.Load(filepath.Join(filepath.Dir(path), ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := convert(raw)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func convert(raw rawConfig) (*Config, error) {
	cfg := &Config{
		Upstream: UpstreamConfig{
			URL:     raw.Upstream.URL,
			Token:   raw.Upstream.Token,
			Retries: defaultRetries,
		},
		Routing: RoutingConfig{
			TargetProgramme: defaultTargetProgramme,
			HomeLocation:    raw.Routing.HomeLocation,
		},
		Pollers: make(map[model.Kind]PollerConfig, len(model.Kinds)),
		Notification: NotificationConfig{
			Type:          raw.Notification.Type,
			RatePerMinute: defaultRatePerMinute,
			Channels:      make(map[model.RoutingKey]string, len(raw.Notification.Channels)),
		},
		Store: StoreConfig{
			Driver: raw.Store.Driver,
			Path:   raw.Store.Path,
			DSN:    raw.Store.DSN,
			Redis:  raw.Store.Redis,
		},
		Metrics: raw.Metrics,
	}

	if cfg.Upstream.URL == "" {
		cfg.Upstream.URL = defaultURL
	}
	if raw.Upstream.Retries != nil {
		cfg.Upstream.Retries = *raw.Upstream.Retries
	}
	var err error
	if cfg.Upstream.Timeout, err = parseDuration("upstream.timeout", raw.Upstream.Timeout, defaultTimeout); err != nil {
		return nil, err
	}
	if cfg.Upstream.MinDelay, err = parseDuration("upstream.min_delay", raw.Upstream.MinDelay, defaultMinDelay); err != nil {
		return nil, err
	}

	if raw.Routing.TargetProgramme != nil {
		cfg.Routing.TargetProgramme = *raw.Routing.TargetProgramme
	}
	tz := raw.Routing.TimeZone
	if tz == "" {
		tz = defaultTimeZone
	}
	if cfg.Routing.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("parse routing.time_zone %q: %w", tz, err)
	}

	pollers := map[model.Kind]struct {
		raw      *rawPollerConfig
		interval time.Duration
	}{
		model.KindSignup:      {raw.Pollers.Signups, defaultSignupInterval},
		model.KindApplication: {raw.Pollers.Applications, defaultAppInterval},
	}
	for kind, p := range pollers {
		pc, err := convertPoller(kind, p.raw, p.interval)
		if err != nil {
			return nil, err
		}
		cfg.Pollers[kind] = pc
	}

	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "chat"
	}
	if raw.Notification.RatePerMinute != nil {
		cfg.Notification.RatePerMinute = *raw.Notification.RatePerMinute
	}
	for name, u := range raw.Notification.Channels {
		key := model.RoutingKey(name)
		if !slices.Contains(model.RoutingKeys, key) {
			return nil, fmt.Errorf("notification.channels: unknown channel %q", name)
		}
		cfg.Notification.Channels[key] = u
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = defaultSQLitePath
	}
	if cfg.Store.Redis.Prefix == "" {
		cfg.Store.Redis.Prefix = defaultRedisPrefix
	}
	return cfg, nil
}

// convertPoller applies defaults; an absent section means enabled with defaults.
func convertPoller(kind model.Kind, raw *rawPollerConfig, interval time.Duration) (PollerConfig, error) {
	pc := PollerConfig{Enabled: true, Interval: interval, PageSize: defaultPageSize, Filters: map[string]any{}}
	if raw == nil {
		return pc, nil
	}
	if raw.Enabled != nil {
		pc.Enabled = *raw.Enabled
	}
	section := "pollers." + kind.Collection()
	var err error
	if pc.Interval, err = parseDuration(section+".interval", raw.Interval, interval); err != nil {
		return pc, err
	}
	if pc.StartDelay, err = parseDuration(section+".start_delay", raw.StartDelay, 0); err != nil {
		return pc, err
	}
	if raw.PageSize != 0 {
		pc.PageSize = raw.PageSize
	}
	if raw.Filters != nil {
		pc.Filters = raw.Filters
	}
	pc.Query = raw.Query
	pc.Watermark = raw.Watermark
	return pc, nil
}

func parseDuration(field, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if cfg.Upstream.Token == "" {
		return fmt.Errorf("%w: upstream.token is required", model.ErrConfigMissing)
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("%w: upstream.timeout must be positive, got %v", model.ErrConfigMissing, cfg.Upstream.Timeout)
	}
	if cfg.Upstream.Retries < 0 {
		return fmt.Errorf("%w: upstream.retries must not be negative", model.ErrConfigMissing)
	}

	kinds := cfg.EnabledKinds()
	if len(kinds) == 0 {
		return fmt.Errorf("%w: at least one poller must be enabled", model.ErrConfigMissing)
	}
	for _, kind := range kinds {
		pc := cfg.Pollers[kind]
		section := "pollers." + kind.Collection()
		if pc.Interval <= 0 {
			return fmt.Errorf("%w: %s.interval must be positive, got %v", model.ErrConfigMissing, section, pc.Interval)
		}
		if pc.StartDelay < 0 {
			return fmt.Errorf("%w: %s.start_delay must not be negative", model.ErrConfigMissing, section)
		}
		if pc.PageSize < 1 || pc.PageSize > 100 {
			return fmt.Errorf("%w: %s.page_size must be between 1 and 100, got %d", model.ErrConfigMissing, section, pc.PageSize)
		}
	}

	if cfg.Pollers[model.KindApplication].Enabled && cfg.Routing.HomeLocation == "" {
		return fmt.Errorf("%w: routing.home_location is required when applications are polled", model.ErrConfigMissing)
	}

	switch cfg.Notification.Type {
	case "log":
	case "chat":
		for _, kind := range kinds {
			for _, key := range model.ChannelsFor(kind) {
				if err := validateWebhook(key, cfg.Notification.Channels[key]); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("%w: notification.type must be \"chat\" or \"log\", got %q", model.ErrConfigMissing, cfg.Notification.Type)
	}

	switch cfg.Store.Driver {
	case "sqlite":
		if cfg.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for sqlite", model.ErrConfigMissing)
		}
	case "postgres":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn is required for postgres", model.ErrConfigMissing)
		}
	case "redis":
		if cfg.Store.Redis.Address == "" {
			return fmt.Errorf("%w: store.redis.address is required for redis", model.ErrConfigMissing)
		}
	default:
		return fmt.Errorf("%w: unknown store.driver %q", model.ErrConfigMissing, cfg.Store.Driver)
	}
	return nil
}

func validateWebhook(key model.RoutingKey, raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: notification.channels.%s is required", model.ErrConfigMissing, key)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: notification.channels.%s must be an http(s) URL", model.ErrConfigMissing, key)
	}
	return nil
}
