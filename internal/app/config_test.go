package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("CSRF_SECRET", "csrf")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.BackendURL)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 300, cfg.RateLimitPerMinute)
	assert.Equal(t, 30*time.Minute, cfg.WorkspaceTTL)
	assert.Equal(t, "rentaldesk:notifications", cfg.NotifyChannel)
	assert.Equal(t, 24*time.Hour, cfg.ReminderWindow)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("CSRF_SECRET", "csrf")
	t.Setenv("APP_ENV", "production")
	t.Setenv("BACKEND_URL", "https://api.rentaldesk.test")
	t.Setenv("REMINDER_WINDOW", "2h")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://api.rentaldesk.test", cfg.BackendURL)
	assert.Equal(t, 2*time.Hour, cfg.ReminderWindow)
}
