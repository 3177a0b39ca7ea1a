package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the media service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"media-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"MEDIA_API_PORT" envDefault:"8285"`
	LogLevel        string        `env:"MEDIA_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"MEDIA_LOG_FORMAT" envDefault:"json"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database (required, no default)
	DBPostgresqlDSN string `env:"DB_POSTGRESQL_DSN,notEmpty"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// API Configuration
	APIURL   string `env:"MEDIA_API_URL" envDefault:"http://localhost:8285"`
	LoginURL string `env:"MEDIA_LOGIN_URL" envDefault:"/login"`

	// Hosting Provider
	ProviderBaseURL      string        `env:"MEDIA_PROVIDER_BASE_URL,notEmpty"`
	ProviderPartnerID    string        `env:"MEDIA_PROVIDER_PARTNER_ID"`
	ProviderSecret       string        `env:"MEDIA_PROVIDER_SECRET"`
	ProviderFetchTimeout time.Duration `env:"MEDIA_PROVIDER_FETCH_TIMEOUT" envDefault:"15s"`

	// Media Configuration
	AuthenticatedContent bool `env:"MEDIA_AUTHENTICATED_CONTENT" envDefault:"false"`
	ThumbnailWidth       int  `env:"MEDIA_THUMBNAIL_WIDTH" envDefault:"550"`
	ThumbnailHeight      int  `env:"MEDIA_THUMBNAIL_HEIGHT" envDefault:"448"`

	// Authentication
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer  string `env:"AUTH_ISSUER"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL"`
	AuthHSKey   string `env:"AUTH_HS256_KEY"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	cfg.ProviderBaseURL = strings.TrimRight(strings.TrimSpace(cfg.ProviderBaseURL), "/")
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" && strings.TrimSpace(cfg.AuthHSKey) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL or AUTH_HS256_KEY is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
