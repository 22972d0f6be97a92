package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/benvon/quizmify/internal/validation"
)

// Config holds application configuration
type Config struct {
	DatabaseURL        string        `env:"DATABASE_URL" yaml:"database_url" validate:"required"`
	ServerPort         string        `env:"SERVER_PORT" yaml:"server_port" validate:"required,numeric"`
	BaseURL            string        `env:"BASE_URL" yaml:"base_url" validate:"required,url"`
	FrontendURL        string        `env:"FRONTEND_URL" yaml:"frontend_url"`
	AuthSecret         string        `env:"NEXTAUTH_SECRET" yaml:"auth_secret" validate:"required"`
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID" yaml:"google_client_id" validate:"required"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET" yaml:"google_client_secret" validate:"required"`
	SessionMaxAge      time.Duration `env:"SESSION_MAX_AGE" yaml:"session_max_age" validate:"gt=0"`
	SessionUpdateAge   time.Duration `env:"SESSION_UPDATE_AGE" yaml:"session_update_age" validate:"gte=0,ltfield=SessionMaxAge"`
	EnableHSTS         bool          `env:"ENABLE_HSTS" yaml:"enable_hsts"`
	RedisURL           string        `env:"REDIS_URL" yaml:"redis_url"`
	RateLimit          string        `env:"RATE_LIMIT" yaml:"rate_limit" validate:"ratelimit"`
	ServerDebugMode    bool          `env:"SERVER_DEBUG_MODE" yaml:"server_debug_mode"`
	OTELEnabled        bool          `env:"OTEL_ENABLED" yaml:"otel_enabled"`
	OTELEndpoint       string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" yaml:"otel_endpoint"`
}

const (
	// DefaultSessionMaxAge is how long an issued session token stays valid (30 days)
	DefaultSessionMaxAge = 30 * 24 * time.Hour
	// DefaultSessionUpdateAge is how old a session token may get before it is re-issued
	DefaultSessionUpdateAge = 24 * time.Hour
)

// Load loads configuration from environment variables and fails on any missing or invalid value
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		BaseURL:            strings.TrimRight(getEnv("BASE_URL", getEnv("NEXTAUTH_URL", "http://localhost:8080")), "/"),
		FrontendURL:        getEnv("FRONTEND_URL", ""),
		AuthSecret:         getEnv("NEXTAUTH_SECRET", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		SessionMaxAge:      getEnvDuration("SESSION_MAX_AGE", DefaultSessionMaxAge),
		SessionUpdateAge:   getEnvDuration("SESSION_UPDATE_AGE", DefaultSessionUpdateAge),
		EnableHSTS:         getEnvBool("ENABLE_HSTS", false),
		RedisURL:           getEnv("REDIS_URL", ""),
		RateLimit:          getEnv("RATE_LIMIT", "10-M"),
		ServerDebugMode:    getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every field against its rules, naming failures by environment variable
func (c *Config) Validate() error {
	v := validation.New("env")
	if err := validation.Describe(v.Struct(c)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SecureCookies reports whether cookies should carry the Secure attribute
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

// AllowedOrigins returns the CORS origins for the auth API; the base URL is always allowed
func (c *Config) AllowedOrigins() []string {
	origins := []string{c.BaseURL}
	for _, origin := range strings.Split(c.FrontendURL, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		exists := false
		for _, existing := range origins {
			if existing == trimmed {
				exists = true
				break
			}
		}
		if !exists {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// Redacted returns a copy of the configuration with secrets masked
func (c *Config) Redacted() Config {
	out := *c
	out.AuthSecret = redact(out.AuthSecret)
	out.GoogleClientSecret = redact(out.GoogleClientSecret)
	out.DatabaseURL = redact(out.DatabaseURL)
	out.RedisURL = redact(out.RedisURL)
	return out
}

func redact(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
