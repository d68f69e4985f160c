package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BACKEND_API_URL", " https://api.example.test ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.test", cfg.BackendAPIURL)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 30*time.Second, cfg.BackendAPITimeout)
	assert.Equal(t, 12*time.Hour, cfg.DraftTTL)
	assert.Equal(t, "*/15 * * * *", cfg.CatalogRefreshCron)
	assert.Empty(t, cfg.PGDSN)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BACKEND_API_URL", "   ")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsZeroRateLimit(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BACKEND_API_URL", "https://api.example.test")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestRefreshTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
