package config

// Redis backs rate limiting, the response cache and the access token
// blocklist.  If it cannot be reached at startup NewRedisClient returns nil
// and those features degrade to no-ops.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"
    "github.com/spf13/viper"
)

// RedisConfig holds connection settings.  REDIS_HOST and REDIS_PORT take
// precedence over REDIS_ADDR when both are set.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

func loadRedisConfig(v *viper.Viper) RedisConfig {
    addr := v.GetString("REDIS_ADDR")
    if host, port := v.GetString("REDIS_HOST"), v.GetString("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    return RedisConfig{
        Addr:     addr,
        Password: v.GetString("REDIS_PASSWORD"),
        DB:       v.GetInt("REDIS_DB"),
        TLS:      v.GetBool("REDIS_TLS"),
    }
}

// NewRedisClient connects to Redis and pings it.  The returned client is
// nil if a connection cannot be established.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Addr,
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        logrus.WithError(err).WithField("addr", cfg.Addr).Warn("redis unavailable; cache, rate limiting and token blocklist disabled")
        _ = client.Close()
        return nil
    }
    return client
}
