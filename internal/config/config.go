// Package config loads application configuration from the environment.  A
// .env file in the working directory is read first when present.
package config

import (
    "errors"
    "fmt"
    "io/fs"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "github.com/sirupsen/logrus"
    "github.com/spf13/viper"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env       string // application environment (development, production)
    Port      string // HTTP port to listen on
    LogLevel  string // logrus level name
    DBUser    string
    DBPass    string // empty allowed
    DBHost    string
    DBPort    string
    DBName    string
    JWTSecret string

    AccessTTL          time.Duration // ACCESS_TOKEN_TTL_MIN
    RefreshTTL         time.Duration // REFRESH_TOKEN_TTL_DAYS
    BcryptCost         int
    AdminSignupEnabled bool

    AMQPURL        string // empty disables publishing and the consumer
    BookingLogPath string // file the consumer appends booking notifications to

    ReconcileInterval  time.Duration // 0 disables the seat audit job
    TokenSweepInterval time.Duration // 0 disables refresh token cleanup

    Redis     RedisConfig
    RateLimit RateLimits
    Cache     CacheConfig
}

// required lists the variables without a usable default.
var required = []string{"DB_USER", "DB_HOST", "DB_NAME", "JWT_SECRET"}

// Load reads .env (if any) and the environment and returns a Config.
// Missing required variables or invalid values stop the program.
func Load() Config {
    if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
        logrus.WithError(err).Warn("config: could not read .env")
    }
    cfg, err := Parse(New())
    if err != nil {
        logrus.Fatalf("config: %v", err)
    }
    return cfg
}

// New returns a viper instance bound to the environment with all defaults
// applied.
func New() *viper.Viper {
    v := viper.New()
    v.AutomaticEnv()
    setDefaults(v)
    return v
}

func setDefaults(v *viper.Viper) {
    v.SetDefault("APP_ENV", "development")
    v.SetDefault("APP_PORT", "8080")
    v.SetDefault("LOG_LEVEL", "info")
    v.SetDefault("DB_PORT", "3306")
    v.SetDefault("ACCESS_TOKEN_TTL_MIN", 15)
    v.SetDefault("REFRESH_TOKEN_TTL_DAYS", 7)
    v.SetDefault("BCRYPT_COST", 12)
    v.SetDefault("ADMIN_SIGNUP_ENABLED", false)
    v.SetDefault("BOOKING_LOG_PATH", "logs/booking.log")
    v.SetDefault("RECONCILE_INTERVAL", 10*time.Minute)
    v.SetDefault("TOKEN_SWEEP_INTERVAL", time.Hour)

    v.SetDefault("REDIS_ADDR", "localhost:6379")
    v.SetDefault("REDIS_DB", 0)
    v.SetDefault("REDIS_TLS", false)

    v.SetDefault("RATE_LIMIT_ENABLED", true)
    v.SetDefault("RATE_LIMIT_KEY_STRATEGY", "ip_user_route")
    v.SetDefault("RATE_LIMIT_PREFIX", "rl")
    v.SetDefault("RATE_LIMIT_TTL", 10*time.Minute)
    v.SetDefault("RATE_LIMIT_DEBUG", false)

    v.SetDefault("CACHE_ENABLED", true)
    v.SetDefault("CACHE_TTL", 30*time.Second)
    v.SetDefault("CACHE_PREFIX", "cache:events")
    v.SetDefault("CACHE_MAX_BODY_BYTES", 1<<20)
}

// Parse builds a Config from v.  It reports every missing required
// variable at once.
func Parse(v *viper.Viper) (Config, error) {
    var missing []string
    for _, k := range required {
        if strings.TrimSpace(v.GetString(k)) == "" {
            missing = append(missing, k)
        }
    }
    if len(missing) > 0 {
        return Config{}, fmt.Errorf("missing required env var: %s", strings.Join(missing, ", "))
    }

    cfg := Config{
        Env:                v.GetString("APP_ENV"),
        Port:               v.GetString("APP_PORT"),
        LogLevel:           v.GetString("LOG_LEVEL"),
        DBUser:             v.GetString("DB_USER"),
        DBPass:             v.GetString("DB_PASS"),
        DBHost:             v.GetString("DB_HOST"),
        DBPort:             v.GetString("DB_PORT"),
        DBName:             v.GetString("DB_NAME"),
        JWTSecret:          v.GetString("JWT_SECRET"),
        AccessTTL:          time.Duration(v.GetInt("ACCESS_TOKEN_TTL_MIN")) * time.Minute,
        RefreshTTL:         time.Duration(v.GetInt("REFRESH_TOKEN_TTL_DAYS")) * 24 * time.Hour,
        BcryptCost:         v.GetInt("BCRYPT_COST"),
        AdminSignupEnabled: v.GetBool("ADMIN_SIGNUP_ENABLED"),
        AMQPURL:            v.GetString("AMQP_URL"),
        BookingLogPath:     v.GetString("BOOKING_LOG_PATH"),
        ReconcileInterval:  v.GetDuration("RECONCILE_INTERVAL"),
        TokenSweepInterval: v.GetDuration("TOKEN_SWEEP_INTERVAL"),
        Redis:              loadRedisConfig(v),
        RateLimit:          loadRateLimits(v),
        Cache:              loadCacheConfig(v),
    }
    if cfg.AccessTTL <= 0 {
        return Config{}, fmt.Errorf("invalid ACCESS_TOKEN_TTL_MIN: %d", v.GetInt("ACCESS_TOKEN_TTL_MIN"))
    }
    if cfg.RefreshTTL <= 0 {
        return Config{}, fmt.Errorf("invalid REFRESH_TOKEN_TTL_DAYS: %d", v.GetInt("REFRESH_TOKEN_TTL_DAYS"))
    }
    return cfg, nil
}

// IsProduction reports whether the service runs outside development.
func (c Config) IsProduction() bool {
    return c.Env != "development" && c.Env != "dev" && c.Env != "test"
}
