package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Pipeline    PipelineConfig  `mapstructure:"pipeline"`
	Session     SessionConfig   `mapstructure:"session"`
	Render      RenderConfig    `mapstructure:"render"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
	Sentry      SentryConfig    `mapstructure:"sentry"`
	Logging     LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// APIKey guards the JSON pipeline proxy; empty leaves it open.
	APIKey string `mapstructure:"api_key" json:"-" yaml:"-"`
}

type DatabaseConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PipelineConfig points at the analysis backend that produces the results payload.
type PipelineConfig struct {
	BaseURL   string  `mapstructure:"base_url"`
	Timeout   int     `mapstructure:"timeout"`
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
	// BreakerFailures consecutive backend failures open the circuit for
	// BreakerCooldown seconds.
	BreakerFailures int `mapstructure:"breaker_failures"`
	BreakerCooldown int `mapstructure:"breaker_cooldown"`
}

type SessionConfig struct {
	Secret     string `mapstructure:"secret" json:"-" yaml:"-"`
	TTL        string `mapstructure:"ttl"`
	CookieName string `mapstructure:"cookie_name"`
	Secure     bool   `mapstructure:"secure"`
}

// RenderConfig holds presentation policy for the dashboard.
type RenderConfig struct {
	DefaultLayout           string  `mapstructure:"default_layout"`
	MaxDisplayRows          int     `mapstructure:"max_display_rows"`
	PairwiseStrongPercent   float64 `mapstructure:"pairwise_strong_percent"`
	PairwiseModeratePercent float64 `mapstructure:"pairwise_moderate_percent"`
	TotalHighPercent        float64 `mapstructure:"total_high_percent"`
	TotalModeratePercent    float64 `mapstructure:"total_moderate_percent"`
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	StdoutTraces   bool   `mapstructure:"stdout_traces"`
	LogLevel       string `mapstructure:"log_level"`
}

type SentryConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	DSN              string  `mapstructure:"dsn" json:"-" yaml:"-"`
	Environment      string  `mapstructure:"environment"`
	Release          string  `mapstructure:"release"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate"`
}

// LoggingConfig selects the console stream and an optional rotating file
// sink next to it.
type LoggingConfig struct {
	Output     string `mapstructure:"output"` // stdout or stderr
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

func (c *PipelineConfig) GetBaseURL() string {
	return strings.TrimRight(c.BaseURL, "/")
}

// GetTimeout returns the backend request timeout; the pipeline can run for minutes.
func (c *PipelineConfig) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 160 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetBreakerCooldown returns how long the circuit stays open.
func (c *PipelineConfig) GetBreakerCooldown() time.Duration {
	if c.BreakerCooldown <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.BreakerCooldown) * time.Second
}

// SessionTTL returns the parsed session lifetime.
func (c SessionConfig) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("session.secret", "SESSION_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind SESSION_SECRET environment variable: %w", err)
	}
	if err := viper.BindEnv("server.api_key", "API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind API_KEY environment variable: %w", err)
	}
	if err := viper.BindEnv("sentry.dsn", "SENTRY_DSN"); err != nil {
		return nil, fmt.Errorf("failed to bind SENTRY_DSN environment variable: %w", err)
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the invariants Load cannot express through defaults.
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Environment != "test" && c.Session.Secret == "" {
		return errors.New("SESSION_SECRET environment variable is required in non-development environments")
	}

	if c.Session.TTL != "" {
		if _, err := time.ParseDuration(c.Session.TTL); err != nil {
			return fmt.Errorf("invalid session ttl: %w", err)
		}
	}

	if c.Database.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Database.ConnMaxLifetime); err != nil {
			return fmt.Errorf("invalid database conn_max_lifetime: %w", err)
		}
	}

	if c.Render.MaxDisplayRows <= 0 {
		return fmt.Errorf("render.max_display_rows must be positive, got %d", c.Render.MaxDisplayRows)
	}

	// Three tiers only make sense if the upper bound sits above the lower one.
	if c.Render.PairwiseStrongPercent <= c.Render.PairwiseModeratePercent {
		return fmt.Errorf("render.pairwise_strong_percent (%.2f) must exceed pairwise_moderate_percent (%.2f)",
			c.Render.PairwiseStrongPercent, c.Render.PairwiseModeratePercent)
	}
	if c.Render.TotalHighPercent <= c.Render.TotalModeratePercent {
		return fmt.Errorf("render.total_high_percent (%.2f) must exceed total_moderate_percent (%.2f)",
			c.Render.TotalHighPercent, c.Render.TotalModeratePercent)
	}

	switch c.Logging.Output {
	case "", "stdout", "stderr":
	default:
		return fmt.Errorf("logging.output must be stdout or stderr, got %q", c.Logging.Output)
	}

	if c.Pipeline.RateLimit < 0 {
		return fmt.Errorf("pipeline.rate_limit must not be negative, got %.2f", c.Pipeline.RateLimit)
	}

	return nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.api_key", "")

	// Database (run history, optional)
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "timeseries")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.conn_max_lifetime", "300s")

	// Redis (session store)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Pipeline backend
	viper.SetDefault("pipeline.base_url", "http://localhost:8001")
	viper.SetDefault("pipeline.timeout", 160)
	viper.SetDefault("pipeline.rate_limit", 1.0)
	viper.SetDefault("pipeline.burst", 3)
	viper.SetDefault("pipeline.breaker_failures", 5)
	viper.SetDefault("pipeline.breaker_cooldown", 30)

	// Session
	viper.SetDefault("session.secret", "")
	viper.SetDefault("session.ttl", "24h")
	viper.SetDefault("session.cookie_name", "ts_session")
	viper.SetDefault("session.secure", false)

	// Render
	viper.SetDefault("render.default_layout", "full")
	viper.SetDefault("render.max_display_rows", 100)
	viper.SetDefault("render.pairwise_strong_percent", 25.0)
	viper.SetDefault("render.pairwise_moderate_percent", 10.0)
	viper.SetDefault("render.total_high_percent", 50.0)
	viper.SetDefault("render.total_moderate_percent", 25.0)

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	viper.SetDefault("telemetry.service_name", "timeseries-dashboard")
	viper.SetDefault("telemetry.service_version", "1.0.0")
	viper.SetDefault("telemetry.stdout_traces", false)
	viper.SetDefault("telemetry.log_level", "")

	// Sentry
	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.traces_sample_rate", 0.2)

	// Logging
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.file_path", "")
	viper.SetDefault("logging.max_size_mb", 50)
	viper.SetDefault("logging.max_backups", 5)
	viper.SetDefault("logging.max_age_days", 14)
	viper.SetDefault("logging.compress", true)
}
