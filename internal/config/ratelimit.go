package config

import (
    "strings"
    "time"

    "github.com/spf13/viper"
)

// RateLimitConfig describes one Redis token bucket.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

// RateLimits groups the buckets applied by the router.  Booking writes get
// their own, tighter buckets keyed per user.
type RateLimits struct {
    Default       RateLimitConfig
    BookingCreate RateLimitConfig
    BookingCancel RateLimitConfig
}

func loadRateLimits(v *viper.Viper) RateLimits {
    return RateLimits{
        Default:       loadBucket(v, "", 60, time.Second),
        BookingCreate: loadBucket(v, "BOOKING_CREATE", 5, time.Minute/5),
        BookingCancel: loadBucket(v, "BOOKING_CANCEL", 10, time.Minute/10),
    }
}

// loadBucket reads RATE_LIMIT_<NAME>_CAPACITY and RATE_LIMIT_<NAME>_REFILL_EVERY
// on top of the shared RATE_LIMIT_* settings.  Named buckets are keyed per
// user and route.
func loadBucket(v *viper.Viper, name string, capacity int, every time.Duration) RateLimitConfig {
    key := func(k string) string {
        if name == "" {
            return "RATE_LIMIT_" + k
        }
        return "RATE_LIMIT_" + name + "_" + k
    }
    v.SetDefault(key("CAPACITY"), capacity)
    v.SetDefault(key("REFILL_EVERY"), every)

    cfg := RateLimitConfig{
        Enabled:        v.GetBool("RATE_LIMIT_ENABLED"),
        Capacity:       v.GetInt(key("CAPACITY")),
        RefillTokens:   1,
        RefillInterval: v.GetDuration(key("REFILL_EVERY")),
        TTL:            v.GetDuration("RATE_LIMIT_TTL"),
        KeyStrategy:    v.GetString("RATE_LIMIT_KEY_STRATEGY"),
        Prefix:         v.GetString("RATE_LIMIT_PREFIX"),
        Debug:          v.GetBool("RATE_LIMIT_DEBUG"),
    }
    if name != "" {
        cfg.KeyStrategy = "user_route"
        cfg.Prefix += ":" + strings.ToLower(name)
    }
    if cfg.Capacity < 1 { cfg.Capacity = 1 }
    if cfg.RefillInterval <= 0 { cfg.RefillInterval = time.Second }
    minTTL := 5 * cfg.RefillInterval
    if cfg.TTL < minTTL { cfg.TTL = minTTL }
    return cfg
}
