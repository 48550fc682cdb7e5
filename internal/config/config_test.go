package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsToFixtureWithoutDatabase(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_HOST", "")
	t.Setenv("DATA_SOURCE", "")
	t.Setenv("NOTIFY_DRIVER", "")
	t.Setenv("RESEND_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DataSourceFixture, cfg.DataSource)
	assert.Equal(t, NotifyLog, cfg.NotifyDriver)
	assert.Equal(t, 5*time.Minute, cfg.HoldTTL)
	assert.Equal(t, 24*time.Hour, cfg.VerifyTokenTTL)
}

func TestLoadPicksMySQLWhenHostIsSet(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATA_SOURCE", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "transit")
	t.Setenv("DB_NAME", "transit")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DataSourceMySQL, cfg.DataSource)
}

func TestLoadRejectsIncompleteMySQLConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATA_SOURCE", "mysql")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_NAME")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATA_SOURCE", "fixture")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestRateLimitShorthands(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	c := LoadRateLimitConfig()

	assert.Equal(t, 5, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, 2*time.Second, c.RefillInterval)
	assert.Equal(t, 10*time.Second, c.TTL)
}

func TestCacheMethodsAreUpperCased(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")

	c := LoadCacheConfig()

	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, c.Methods)
}

func TestLoadRequiresAdminCredentialsTogether(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_HOST", "")
	t.Setenv("DATA_SOURCE", "")
	t.Setenv("ADMIN_EMAIL", "Ops@Example.com")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := Load()
	assert.ErrorContains(t, err, "ADMIN_EMAIL and ADMIN_PASSWORD")

	t.Setenv("ADMIN_PASSWORD", "correct-horse")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", cfg.AdminEmail)
}
