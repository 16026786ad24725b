package config

import (
    "time"

    "github.com/spf13/viper"
)

// CacheConfig controls the Redis cache in front of the public event reads.
// Caching is off when Enabled is false or Redis is unreachable.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string // keys are <Prefix>:<sha1 of path and sorted query>
    MaxBodyBytes int    // larger responses are served but not stored
}

func loadCacheConfig(v *viper.Viper) CacheConfig {
    cfg := CacheConfig{
        Enabled:      v.GetBool("CACHE_ENABLED"),
        TTL:          v.GetDuration("CACHE_TTL"),
        Prefix:       v.GetString("CACHE_PREFIX"),
        MaxBodyBytes: v.GetInt("CACHE_MAX_BODY_BYTES"),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    return cfg
}
