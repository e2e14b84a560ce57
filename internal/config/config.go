// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN. Required by the server, migrate, and seed commands.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the Redis host:port for the cache/rate-limit store. Empty means
	// the in-process memory cache is used instead.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the Redis AUTH password; empty for no auth.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// RedisDB is the Redis logical database index.
	RedisDB int `mapstructure:"REDIS_DB"`
	// JWTSecret is the shared HS256 signing secret for access and refresh tokens. Required.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim (e.g. "servicos-ja").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAccessTTL is the access token lifetime (e.g. "1h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime (e.g. "168h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// RotationRevokesAll selects the refresh-token rotation policy: false revokes
	// only the rotated token (multi-session), true revokes every outstanding
	// refresh token of the user (single-session).
	RotationRevokesAll bool `mapstructure:"ROTATION_REVOKES_ALL"`
	// UserCacheTTL is the TTL for cached user projections (user:<email>).
	UserCacheTTL string `mapstructure:"USER_CACHE_TTL"`
	// SessionCacheTTL is the TTL for session markers (session:<userID>).
	SessionCacheTTL string `mapstructure:"SESSION_CACHE_TTL"`

	// Rate-limit thresholds. Limits are attempt counts per window.
	RateLoginLimit          int    `mapstructure:"RATE_LOGIN_LIMIT"`
	RateLoginWindow         string `mapstructure:"RATE_LOGIN_WINDOW"`
	RateSignupLimit         int    `mapstructure:"RATE_SIGNUP_LIMIT"`
	RateSignupWindow        string `mapstructure:"RATE_SIGNUP_WINDOW"`
	RatePasswordResetLimit  int    `mapstructure:"RATE_PASSWORD_RESET_LIMIT"`
	RatePasswordResetWindow string `mapstructure:"RATE_PASSWORD_RESET_WINDOW"`
	RateChatSendLimit       int    `mapstructure:"RATE_CHAT_SEND_LIMIT"`
	RateChatSendWindow      string `mapstructure:"RATE_CHAT_SEND_WINDOW"`
	RateAPIReadLimit        int    `mapstructure:"RATE_API_READ_LIMIT"`
	RateAPIReadWindow       string `mapstructure:"RATE_API_READ_WINDOW"`
	RateAPIWriteLimit       int    `mapstructure:"RATE_API_WRITE_LIMIT"`
	RateAPIWriteWindow      string `mapstructure:"RATE_API_WRITE_WINDOW"`

	// Security event stream (optional). When Kafka brokers are set, the server
	// emits auth/security events to Kafka.
	// EventKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	EventKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// EventKafkaTopic is the Kafka topic for security events (default sja-security-events).
	EventKafkaTopic string `mapstructure:"SECURITY_EVENTS_TOPIC"`

	// Worker-only: Loki URL for the event worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the event worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint for traces/metrics/logs.
	// Empty disables export (no-op providers).
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "servicos-ja")
	v.SetDefault("JWT_ACCESS_TTL", "1h")
	v.SetDefault("JWT_REFRESH_TTL", "168h") // 7d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("ROTATION_REVOKES_ALL", false)
	v.SetDefault("USER_CACHE_TTL", "1h")
	v.SetDefault("SESSION_CACHE_TTL", "24h")
	v.SetDefault("RATE_LOGIN_LIMIT", 5)
	v.SetDefault("RATE_LOGIN_WINDOW", "15m")
	v.SetDefault("RATE_SIGNUP_LIMIT", 3)
	v.SetDefault("RATE_SIGNUP_WINDOW", "1h")
	v.SetDefault("RATE_PASSWORD_RESET_LIMIT", 5)
	v.SetDefault("RATE_PASSWORD_RESET_WINDOW", "1h")
	v.SetDefault("RATE_CHAT_SEND_LIMIT", 20)
	v.SetDefault("RATE_CHAT_SEND_WINDOW", "1m")
	v.SetDefault("RATE_API_READ_LIMIT", 100)
	v.SetDefault("RATE_API_READ_WINDOW", "1m")
	v.SetDefault("RATE_API_WRITE_LIMIT", 10)
	v.SetDefault("RATE_API_WRITE_WINDOW", "1m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("SECURITY_EVENTS_TOPIC", "sja-security-events")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "sja-event-worker")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTRefreshTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// UserTTL parses UserCacheTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) UserTTL() time.Duration {
	d, err := time.ParseDuration(c.UserCacheTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// SessionTTL parses SessionCacheTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionCacheTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// RatePolicy is one named rate-limit policy: at most Limit attempts per Window.
type RatePolicy struct {
	Limit  int
	Window time.Duration
}

// RatePolicies returns the configured per-operation rate-limit policies keyed by
// scope name (login, signup, password_reset, chat_send, api_read, api_write).
// Invalid windows fall back to the documented defaults.
func (c *Config) RatePolicies() map[string]RatePolicy {
	return map[string]RatePolicy{
		"login":          {Limit: c.RateLoginLimit, Window: parseWindow(c.RateLoginWindow, 15*time.Minute)},
		"signup":         {Limit: c.RateSignupLimit, Window: parseWindow(c.RateSignupWindow, time.Hour)},
		"password_reset": {Limit: c.RatePasswordResetLimit, Window: parseWindow(c.RatePasswordResetWindow, time.Hour)},
		"chat_send":      {Limit: c.RateChatSendLimit, Window: parseWindow(c.RateChatSendWindow, time.Minute)},
		"api_read":       {Limit: c.RateAPIReadLimit, Window: parseWindow(c.RateAPIReadWindow, time.Minute)},
		"api_write":      {Limit: c.RateAPIWriteLimit, Window: parseWindow(c.RateAPIWriteWindow, time.Minute)},
	}
}

func parseWindow(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// EventKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the event stream is enabled (non-empty list) and to create the producer.
func (c *Config) EventKafkaBrokersList() []string {
	if c == nil || c.EventKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.EventKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
