package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
    t.Setenv("DB_USER", "app")
    t.Setenv("DB_HOST", "127.0.0.1")
    t.Setenv("DB_NAME", "events")
    t.Setenv("JWT_SECRET", "secret")
}

func TestParse_Defaults(t *testing.T) {
    setRequired(t)

    cfg, err := Parse(New())
    require.NoError(t, err)
    assert.Equal(t, "8080", cfg.Port)
    assert.Equal(t, "3306", cfg.DBPort)
    assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
    assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
    assert.Equal(t, 10*time.Minute, cfg.ReconcileInterval)
    assert.False(t, cfg.AdminSignupEnabled)
    assert.Equal(t, "logs/booking.log", cfg.BookingLogPath)
    assert.False(t, cfg.IsProduction())

    assert.Equal(t, 5, cfg.RateLimit.BookingCreate.Capacity)
    assert.Equal(t, 12*time.Second, cfg.RateLimit.BookingCreate.RefillInterval)
    assert.Equal(t, "user_route", cfg.RateLimit.BookingCreate.KeyStrategy)
    assert.Equal(t, "rl:booking_create", cfg.RateLimit.BookingCreate.Prefix)
    assert.Equal(t, 10, cfg.RateLimit.BookingCancel.Capacity)
    assert.Equal(t, 60, cfg.RateLimit.Default.Capacity)
    assert.Equal(t, "rl", cfg.RateLimit.Default.Prefix)

    assert.True(t, cfg.Cache.Enabled)
    assert.Equal(t, "cache:events", cfg.Cache.Prefix)
    assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
    assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestParse_Overrides(t *testing.T) {
    setRequired(t)
    t.Setenv("APP_ENV", "production")
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "5")
    t.Setenv("ADMIN_SIGNUP_ENABLED", "true")
    t.Setenv("RECONCILE_INTERVAL", "30s")
    t.Setenv("RATE_LIMIT_BOOKING_CREATE_CAPACITY", "2")
    t.Setenv("REDIS_HOST", "cache")
    t.Setenv("REDIS_PORT", "6380")
    t.Setenv("CACHE_TTL", "2m")

    cfg, err := Parse(New())
    require.NoError(t, err)
    assert.True(t, cfg.IsProduction())
    assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
    assert.True(t, cfg.AdminSignupEnabled)
    assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
    assert.Equal(t, 2, cfg.RateLimit.BookingCreate.Capacity)
    assert.Equal(t, "cache:6380", cfg.Redis.Addr)
    assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
}

func TestParse_MissingRequired(t *testing.T) {
    t.Setenv("DB_USER", "")
    t.Setenv("DB_HOST", "")
    t.Setenv("DB_NAME", "events")
    t.Setenv("JWT_SECRET", "")

    _, err := Parse(New())
    require.Error(t, err)
    assert.Contains(t, err.Error(), "DB_USER, DB_HOST, JWT_SECRET")
}

func TestParse_InvalidTTL(t *testing.T) {
    setRequired(t)
    t.Setenv("REFRESH_TOKEN_TTL_DAYS", "0")

    _, err := Parse(New())
    assert.ErrorContains(t, err, "REFRESH_TOKEN_TTL_DAYS")
}
