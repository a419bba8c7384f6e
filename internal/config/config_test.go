package config

import (
    "net/http"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoadDevelopmentDefaults(t *testing.T) {
    t.Setenv("APP_ENV", "development")
    t.Setenv("JWT_SECRET", "")
    t.Setenv("MISSION_NOTIFICATION_WEBHOOKS", " https://a.example/hook , ,https://b.example/hook")

    cfg, err := Load()
    require.NoError(t, err)

    assert.Equal(t, "4000", cfg.Port)
    assert.Equal(t, devSecret, cfg.JWTSecret)
    assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
    assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
    assert.Equal(t, "jrdriving_token", cfg.Cookie.Name)
    assert.Equal(t, http.SameSiteLaxMode, cfg.Cookie.SameSite)
    assert.False(t, cfg.Cookie.Secure)
    assert.Equal(t, []string{"https://a.example/hook", "https://b.example/hook"}, cfg.Webhooks.MissionStatusChange)
    assert.Empty(t, cfg.Webhooks.QuoteCreated)
}

func TestLoadProductionRequiresStrongSecret(t *testing.T) {
    t.Setenv("APP_ENV", "production")
    t.Setenv("DATABASE_URL", "u:p@tcp(db:3306)/jr")
    t.Setenv("JWT_SECRET", "change-me")

    _, err := Load()
    require.Error(t, err)

    t.Setenv("JWT_SECRET", "a-much-longer-production-secret")
    cfg, err := Load()
    require.NoError(t, err)
    assert.True(t, cfg.Cookie.Secure)
}

func TestLoadRejectsBadPort(t *testing.T) {
    t.Setenv("APP_ENV", "development")
    t.Setenv("APP_PORT", "70000")
    _, err := Load()
    assert.Error(t, err)
}

func TestParseDurationDaySuffix(t *testing.T) {
    d, ok := parseDuration("7d")
    require.True(t, ok)
    assert.Equal(t, 168*time.Hour, d)

    d, ok = parseDuration("90m")
    require.True(t, ok)
    assert.Equal(t, 90*time.Minute, d)

    _, ok = parseDuration("xd")
    assert.False(t, ok)
}

func TestLoadRateLimitConfig(t *testing.T) {
    t.Setenv("RATE_LIMIT_BURST", "40")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
    t.Setenv("RATE_LIMIT_AUTH_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()
    assert.True(t, cfg.Enabled)
    assert.Equal(t, Bucket{Capacity: 40, Refill: 1, Interval: 2 * time.Second}, cfg.Default)
    assert.Equal(t, 1, cfg.Credentials.Capacity)
    assert.Equal(t, 80*time.Second, cfg.TTL)
}

func TestLoadRedisConfig(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6380")
    t.Setenv("REDIS_DB", "2")
    t.Setenv("REDIS_TLS", "yes")

    cfg := LoadRedisConfig()
    assert.Equal(t, "cache:6380", cfg.Addr)
    opts := cfg.Options()
    assert.Equal(t, 2, opts.DB)
    require.NotNil(t, opts.TLSConfig)

    t.Setenv("REDIS_HOST", "10.0.0.5")
    t.Setenv("REDIS_PORT", "6379")
    assert.Equal(t, "10.0.0.5:6379", LoadRedisConfig().Addr)
}

func TestNewRedisClientDisabled(t *testing.T) {
    t.Setenv("REDIS_DISABLED", "on")
    assert.Nil(t, NewRedisClient())
}
