package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/rotationalphysics495/plantops/cache"
	"github.com/rotationalphysics495/plantops/datasource"
	"github.com/rotationalphysics495/plantops/observe"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. PLANTOPS_INVOKE_CALLTIMEOUT.
const EnvPrefix = "plantops"

// Config is the full process configuration.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Sources   []SourceConfig  `mapstructure:"sources"`
	Invoke    InvokeConfig    `mapstructure:"invoke"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// ServiceConfig identifies the service in logs and telemetry.
type ServiceConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// CacheConfig configures the response cache. Tier names are the
// textual tier labels (live, daily, static).
type CacheConfig struct {
	Enabled      bool                     `mapstructure:"enabled"`
	MaxEntries   map[string]int           `mapstructure:"max_entries"`
	TTLOverrides map[string]time.Duration `mapstructure:"ttl_overrides"`
}

// SourceConfig declares one backing data source.
type SourceConfig struct {
	// ID is the source identifier cited in provenance.
	ID string `mapstructure:"id"`
	// Driver selects the implementation: postgres, sqlite, or memory.
	Driver string `mapstructure:"driver"`
	// DSN is the connection string. ${VAR} references are expanded
	// strictly from the environment at load time.
	DSN string `mapstructure:"dsn"`
	// Categories lists the query categories this source serves.
	Categories []string `mapstructure:"categories"`
	// Default marks the fallback source for unrouted categories.
	Default bool `mapstructure:"default"`
}

// InvokeConfig configures the orchestrator.
type InvokeConfig struct {
	// CallTimeout bounds one handler execution.
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// TelemetryConfig configures tracing, metrics, and logging.
type TelemetryConfig struct {
	Tracing struct {
		Enabled   bool    `mapstructure:"enabled"`
		Exporter  string  `mapstructure:"exporter"`
		SamplePct float64 `mapstructure:"sample_pct"`
	} `mapstructure:"tracing"`
	Metrics struct {
		Enabled  bool   `mapstructure:"enabled"`
		Exporter string `mapstructure:"exporter"`
	} `mapstructure:"metrics"`
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
}

// AuthConfig configures the privileged-operation token validator.
type AuthConfig struct {
	// AdminTokenKey is the HMAC key for admin tokens. Usually a ${VAR}
	// reference; expanded strictly at load time.
	AdminTokenKey string `mapstructure:"admin_token_key"`
	// Issuer, when set, must match the token iss claim.
	Issuer string `mapstructure:"issuer"`
}

var validDrivers = map[string]bool{
	"postgres": true,
	"sqlite":   true,
	"memory":   true,
}

var validCategories = map[string]bool{
	string(datasource.CategoryProduction):  true,
	string(datasource.CategoryMaintenance): true,
	string(datasource.CategoryQuality):     true,
	string(datasource.CategoryMaster):      true,
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Service: ServiceConfig{Name: "plantops"},
		Cache:   CacheConfig{Enabled: true},
		Invoke:  InvokeConfig{CallTimeout: 10 * time.Second},
	}
	cfg.Telemetry.Logging.Level = "info"
	cfg.Telemetry.Logging.Format = "json"
	return cfg
}

// Load reads the YAML file at path (optional, "" skips it), overlays
// PLANTOPS_* environment variables, expands secret references, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment overlay: %w", err)
	}

	for i := range cfg.Sources {
		dsn, err := ExpandEnvStrict(cfg.Sources[i].DSN)
		if err != nil {
			return nil, fmt.Errorf("config: source %s dsn: %w", cfg.Sources[i].ID, err)
		}
		cfg.Sources[i].DSN = dsn
	}
	if cfg.Auth.AdminTokenKey != "" {
		key, err := ExpandEnvStrict(cfg.Auth.AdminTokenKey)
		if err != nil {
			return nil, fmt.Errorf("config: admin token key: %w", err)
		}
		cfg.Auth.AdminTokenKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return errors.New("config: service name is required")
	}
	if c.Invoke.CallTimeout <= 0 {
		return errors.New("config: invoke call_timeout must be positive")
	}

	for name := range c.Cache.MaxEntries {
		if _, err := cache.ParseTier(name); err != nil {
			return fmt.Errorf("config: cache max_entries: %w", err)
		}
	}
	for name := range c.Cache.TTLOverrides {
		if _, err := cache.ParseTier(name); err != nil {
			return fmt.Errorf("config: cache ttl_overrides: %w", err)
		}
	}

	seen := make(map[string]bool, len(c.Sources))
	defaults := 0
	for _, src := range c.Sources {
		if src.ID == "" {
			return errors.New("config: source id is required")
		}
		if seen[src.ID] {
			return fmt.Errorf("config: duplicate source id %q", src.ID)
		}
		seen[src.ID] = true

		if !validDrivers[src.Driver] {
			return fmt.Errorf("config: source %s: unknown driver %q", src.ID, src.Driver)
		}
		if src.Driver != "memory" && src.DSN == "" {
			return fmt.Errorf("config: source %s: dsn is required", src.ID)
		}
		for _, cat := range src.Categories {
			if !validCategories[cat] {
				return fmt.Errorf("config: source %s: unknown category %q", src.ID, cat)
			}
		}
		if src.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return errors.New("config: at most one source may be the default")
	}
	if len(c.Sources) > 0 && defaults == 0 {
		return errors.New("config: one source must be marked default")
	}

	return nil
}

// StoreConfig converts the cache section into the store's form.
func (c *CacheConfig) StoreConfig() (cache.Config, error) {
	out := cache.Config{Enabled: c.Enabled}

	if len(c.MaxEntries) > 0 {
		out.MaxEntries = make(map[cache.Tier]int, len(c.MaxEntries))
		for name, max := range c.MaxEntries {
			tier, err := cache.ParseTier(name)
			if err != nil {
				return cache.Config{}, err
			}
			out.MaxEntries[tier] = max
		}
	}
	if len(c.TTLOverrides) > 0 {
		out.TTLOverrides = make(map[cache.Tier]time.Duration, len(c.TTLOverrides))
		for name, ttl := range c.TTLOverrides {
			tier, err := cache.ParseTier(name)
			if err != nil {
				return cache.Config{}, err
			}
			out.TTLOverrides[tier] = ttl
		}
	}
	return out, nil
}

// ObserveConfig converts the service and telemetry sections into the
// observer's form.
func (c *Config) ObserveConfig() observe.Config {
	return observe.Config{
		ServiceName: c.Service.Name,
		Version:     c.Service.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.Tracing.Enabled,
			Exporter:  c.Telemetry.Tracing.Exporter,
			SamplePct: c.Telemetry.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Telemetry.Metrics.Enabled,
			Exporter: c.Telemetry.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Level:  c.Telemetry.Logging.Level,
			Format: c.Telemetry.Logging.Format,
		},
	}
}
