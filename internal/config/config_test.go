package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "hello")
	t.Setenv("X_INT", "42")
	t.Setenv("X_INT_BAD", "forty-two")
	t.Setenv("X_BOOL_ON", "yes")
	t.Setenv("X_BOOL_OFF", "0")
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_DUR_BAD", "soon")

	assert.Equal(t, "hello", envStr("X_STR", "d"))
	assert.Equal(t, "d", envStr("X_MISSING", "d"))

	assert.Equal(t, 42, envDefInt("X_INT", 7))
	assert.Equal(t, 7, envDefInt("X_INT_BAD", 7))
	assert.Equal(t, 7, envDefInt("X_MISSING", 7))

	assert.True(t, envBool("X_BOOL_ON", false))
	assert.False(t, envBool("X_BOOL_OFF", true))
	assert.True(t, envBool("X_MISSING", true))

	assert.Equal(t, 90*time.Second, envDur("X_DUR", time.Second))
	assert.Equal(t, time.Second, envDur("X_DUR_BAD", time.Second))
}

func TestLoadRateLimitConfigNormalizes(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "-5")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "-1s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, time.Second, cfg.RefillInterval)
	// TTL is floored to five refill intervals so buckets outlive a refill cycle
	assert.Equal(t, 5*time.Second, cfg.TTL)
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "coaching")
	t.Setenv("JWT_SECRET", "test")
}

func TestLoadAuthDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg := Load()
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, 7, cfg.RefreshTTLDays)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 5, cfg.MaxFailedLogin)
	assert.Equal(t, 30, cfg.LockoutMin)
	assert.Equal(t, 25, cfg.DBMaxConns)
	assert.Equal(t, 30, cfg.DBConnLifeMin)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "5")
	t.Setenv("LOGIN_MAX_FAILED", "3")
	t.Setenv("LOGIN_LOCKOUT_MIN", "60")

	cfg := Load()
	assert.Equal(t, 5, cfg.AccessTTLMin)
	assert.Equal(t, 3, cfg.MaxFailedLogin)
	assert.Equal(t, 60, cfg.LockoutMin)
}
