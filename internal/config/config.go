package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Google  GoogleConfig  `yaml:"google" mapstructure:"google"`
	Data    DataConfig    `yaml:"data" mapstructure:"data"`
	Email   EmailConfig   `yaml:"email" mapstructure:"email"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// GoogleConfig configures the Geocoding and Places client.
type GoogleConfig struct {
	APIKey       string  `yaml:"api_key" mapstructure:"api_key"`
	KeyFile      string  `yaml:"key_file" mapstructure:"key_file"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PageDelayMS  int     `yaml:"page_delay_ms" mapstructure:"page_delay_ms"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxAttempts  int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	RadiusFactor float64 `yaml:"radius_factor" mapstructure:"radius_factor"`
	MaxRadiusM   float64 `yaml:"max_radius_m" mapstructure:"max_radius_m"`
}

// Timeout returns the per-request timeout.
func (g GoogleConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// PageDelay returns the wait between nearby search result pages.
func (g GoogleConfig) PageDelay() time.Duration {
	return time.Duration(g.PageDelayMS) * time.Millisecond
}

// DataConfig locates the output tree and the postal reference table.
type DataConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	PostalTable string `yaml:"postal_table" mapstructure:"postal_table"`
}

// EmailConfig configures website email scraping.
type EmailConfig struct {
	Concurrency     int    `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs     int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxContactPages int    `yaml:"max_contact_pages" mapstructure:"max_contact_pages"`
	UserAgent       string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the per-page fetch timeout.
func (e EmailConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSecs) * time.Second
}

// StoreConfig configures the SQLite place cache and run ledger.
type StoreConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	Path          string `yaml:"path" mapstructure:"path"`
	PlaceTTLHours int    `yaml:"place_ttl_hours" mapstructure:"place_ttl_hours"`
}

// PlaceTTL returns how long cached place details stay valid.
func (s StoreConfig) PlaceTTL() time.Duration {
	return time.Duration(s.PlaceTTLHours) * time.Hour
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GMAPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.key_file", ".ga_key")
	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api")
	v.SetDefault("google.timeout_secs", 10)
	v.SetDefault("google.page_delay_ms", 2000)
	v.SetDefault("google.rate_per_sec", 10)
	v.SetDefault("google.max_attempts", 1)
	v.SetDefault("google.radius_factor", 0.6)
	v.SetDefault("google.max_radius_m", 50000)
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.postal_table", "us_postal_codes.csv")
	v.SetDefault("email.concurrency", 4)
	v.SetDefault("email.timeout_secs", 10)
	v.SetDefault("email.max_contact_pages", 5)
	v.SetDefault("email.user_agent", "Mozilla/5.0 (compatible; gmaps-contacts/1.0)")
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", "data/gmaps.db")
	v.SetDefault("store.place_ttl_hours", 720)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields a command mode needs. Modes: grab, state,
// emails, plan, runs.
func (c *Config) Validate(mode string) error {
	var errs []string

	harvest := func() {
		if c.Google.BaseURL == "" {
			errs = append(errs, "google.base_url is required")
		}
		if c.Google.APIKey == "" && c.Google.KeyFile == "" {
			errs = append(errs, "google.api_key or google.key_file is required")
		}
		if c.Google.TimeoutSecs <= 0 {
			errs = append(errs, "google.timeout_secs must be > 0")
		}
		if c.Google.PageDelayMS < 0 {
			errs = append(errs, "google.page_delay_ms must be >= 0")
		}
		if c.Google.MaxAttempts < 1 || c.Google.MaxAttempts > 10 {
			errs = append(errs, "google.max_attempts must be between 1 and 10")
		}
		if c.Google.RadiusFactor <= 0 {
			errs = append(errs, "google.radius_factor must be > 0")
		}
		if c.Google.MaxRadiusM <= 0 || c.Google.MaxRadiusM > 50000 {
			errs = append(errs, "google.max_radius_m must be between 1 and 50000")
		}
		if c.Data.Dir == "" {
			errs = append(errs, "data.dir is required")
		}
	}
	emails := func() {
		if c.Email.Concurrency < 1 || c.Email.Concurrency > 64 {
			errs = append(errs, "email.concurrency must be between 1 and 64")
		}
		if c.Email.TimeoutSecs <= 0 {
			errs = append(errs, "email.timeout_secs must be > 0")
		}
		if c.Email.MaxContactPages < 0 {
			errs = append(errs, "email.max_contact_pages must be >= 0")
		}
	}
	storePath := func() {
		if c.Store.Enabled && c.Store.Path == "" {
			errs = append(errs, "store.path is required when store.enabled is set")
		}
	}

	switch mode {
	case "grab":
		harvest()
		emails()
		storePath()
	case "state":
		harvest()
		emails()
		storePath()
		if c.Data.PostalTable == "" {
			errs = append(errs, "data.postal_table is required")
		}
	case "emails":
		emails()
	case "plan":
		if c.Data.Dir == "" {
			errs = append(errs, "data.dir is required")
		}
		if c.Data.PostalTable == "" {
			errs = append(errs, "data.postal_table is required")
		}
	case "runs":
		if !c.Store.Enabled {
			errs = append(errs, "store.enabled must be set to list runs")
		}
		storePath()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() Config {
	out := *c
	if out.Google.APIKey != "" {
		out.Google.APIKey = "<redacted>"
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
