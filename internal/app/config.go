package app

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// PGDSN backs the gold loan book. Empty keeps loans in memory.
	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	BackendAPIURL     string        `envconfig:"BACKEND_API_URL" required:"true"`
	BackendAPIToken   string        `envconfig:"BACKEND_API_TOKEN"`
	BackendAPITimeout time.Duration `envconfig:"BACKEND_API_TIMEOUT" default:"30s"`

	CatalogCacheTTL    time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"10m"`
	CatalogRefreshCron string        `envconfig:"CATALOG_REFRESH_CRON" default:"*/15 * * * *"`
	DraftTTL           time.Duration `envconfig:"DRAFT_TTL" default:"12h"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

// LoadConfig reads configuration from environment variables. A .env file in
// the working directory is applied first when present; real environment
// variables win over it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.BackendAPIURL = strings.TrimSpace(cfg.BackendAPIURL)
	if cfg.BackendAPIURL == "" {
		return nil, errors.New("backend api url must be provided")
	}
	if cfg.RateLimitPerMinute <= 0 {
		return nil, errors.New("rate limit per minute must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
