package app

import (
	"errors"
	"time"

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
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// PGDSN is optional; without it sign-ins are not audited.
	PGDSN      string `envconfig:"PG_DSN"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"4"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	BackendURL          string        `envconfig:"BACKEND_URL" default:"http://127.0.0.1:8000"`
	BackendTimeout      time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`
	BackendServiceToken string        `envconfig:"BACKEND_SERVICE_TOKEN"`
	BackendJWTSecret    string        `envconfig:"BACKEND_JWT_SECRET"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"300"`

	WorkspaceTTL      time.Duration `envconfig:"WORKSPACE_TTL" default:"30m"`
	WorkspaceCapacity int           `envconfig:"WORKSPACE_CAPACITY" default:"2048"`

	NotifyChannel  string        `envconfig:"NOTIFY_CHANNEL" default:"rentaldesk:notifications"`
	ReminderCron   string        `envconfig:"REMINDER_CRON" default:"*/15 * * * *"`
	ReminderWindow time.Duration `envconfig:"REMINDER_WINDOW" default:"24h"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.BackendURL == "" {
		return nil, errors.New("backend url must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
