package middleware

import (
    "math"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/pranavOffl/EventBookingSystem/internal/config"
)

// limiterScript refills KEYS[1] for the whole intervals elapsed since the
// last refill and takes one token.  It returns {allowed, remaining,
// retry_after_ms}.
var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// decision is the parsed reply of limiterScript.
type decision struct {
    allowed    bool
    remaining  int64
    retryAfter time.Duration
}

func parseDecision(v interface{}) (decision, bool) {
    arr, ok := v.([]interface{})
    if !ok || len(arr) != 3 {
        return decision{}, false
    }
    allowed, ok1 := arr[0].(int64)
    remaining, ok2 := arr[1].(int64)
    retryMs, ok3 := arr[2].(int64)
    if !ok1 || !ok2 || !ok3 {
        return decision{}, false
    }
    return decision{allowed: allowed == 1, remaining: remaining, retryAfter: time.Duration(retryMs) * time.Millisecond}, true
}

// retryAfterSeconds rounds up so that a client honouring it is not refused
// again.
func (d decision) retryAfterSeconds() int {
    if d.retryAfter <= 0 {
        return 0
    }
    return int(math.Ceil(d.retryAfter.Seconds()))
}

// NewTokenBucket returns a Redis backed token bucket limiter.  Each key
// holds at most cfg.Capacity tokens and regains cfg.RefillTokens every
// cfg.RefillInterval.  Redis failures let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    limit := strconv.Itoa(cfg.Capacity)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            log := logrus.WithField("key", key)

            res, err := limiterScript.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL/time.Second),
            ).Result()
            if err != nil {
                log.WithError(err).Warn("ratelimit: redis error, request allowed")
                return next(c)
            }
            d, ok := parseDecision(res)
            if !ok {
                log.Warnf("ratelimit: unexpected script result %#v", res)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
            if !d.allowed {
                secs := d.retryAfterSeconds()
                h.Set("Retry-After", strconv.Itoa(secs))
                if cfg.Debug {
                    log.WithField("retry_after", secs).Info("ratelimit: blocked")
                }
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

// rateKey builds the bucket key for c according to cfg.KeyStrategy.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := currentUserID(c)
    route := c.Request().Method + " " + c.Path()

    key := cfg.Prefix
    switch cfg.KeyStrategy {
    case "ip":
        key += ":ip:" + ip
    case "user":
        key += ":user:" + uid
    case "user_route":
        key += ":user:" + uid + ":route:" + route
    default:
        key += ":ip:" + ip + ":user:" + uid + ":route:" + route
    }
    return key
}
