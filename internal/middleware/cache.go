package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/pranavOffl/EventBookingSystem/internal/config"
)

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// captureWriter copies the response body while forwarding it to the client.
// Once the body grows past limit the copy is dropped and overflow is set.
type captureWriter struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (w *captureWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }

func (w *captureWriter) Write(b []byte) (int, error) {
    if !w.overflow {
        if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
            w.overflow = true
            w.buf.Reset()
        } else {
            w.buf.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

type cachedResponse struct {
    Status      int    `json:"status"`
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

// EventCache keeps public event reads in Redis.  Every stored key is also
// recorded in a registry set so that a write touching events or seat counts
// can drop the whole cache at once.
type EventCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
    log logrus.FieldLogger
}

// NewEventCache returns a cache that does nothing when cfg is disabled or
// rdb is nil.
func NewEventCache(cfg config.CacheConfig, rdb *redis.Client, log logrus.FieldLogger) *EventCache {
    if log == nil {
        log = logrus.StandardLogger()
    }
    return &EventCache{cfg: cfg, rdb: rdb, log: log}
}

func (ec *EventCache) enabled() bool { return ec.cfg.Enabled && ec.rdb != nil }

func (ec *EventCache) registry() string { return ec.cfg.Prefix + ":keys" }

// key hashes the path and the query with its parameters sorted, so
// ?limit=5&skip=0 and ?skip=0&limit=5 share an entry.
func (ec *EventCache) key(r *http.Request) string {
    sum := sha1.Sum([]byte(r.URL.Path + "?" + r.URL.Query().Encode()))
    return fmt.Sprintf("%s:%x", ec.cfg.Prefix, sum)
}

// Read serves GET requests from the cache and stores 200 responses for
// cfg.TTL.  Redis errors fall through to the handler.
func (ec *EventCache) Read() echo.MiddlewareFunc {
    if !ec.enabled() {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            r := c.Request()
            if r.Method != http.MethodGet {
                return next(c)
            }
            key := ec.key(r)

            bs, err := ec.rdb.Get(r.Context(), key).Bytes()
            switch {
            case err == nil:
                var cr cachedResponse
                if json.Unmarshal(bs, &cr) == nil {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(cr.Status, cr.ContentType, cr.Body)
                }
            case !errors.Is(err, redis.Nil):
                ec.log.WithError(err).Warn("event cache read failed")
                return next(c)
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: ec.cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.overflow {
                return nil
            }

            payload, err := json.Marshal(cachedResponse{
                Status:      cw.status,
                ContentType: c.Response().Header().Get(echo.HeaderContentType),
                Body:        cw.buf.Bytes(),
            })
            if err != nil {
                return nil
            }
            ctx, cancel := context.WithTimeout(context.Background(), time.Second)
            defer cancel()
            _, err = ec.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
                p.Set(ctx, key, payload, ec.cfg.TTL)
                p.SAdd(ctx, ec.registry(), key)
                return nil
            })
            if err != nil {
                ec.log.WithError(err).Warn("event cache write failed")
            }
            return nil
        }
    }
}

// Purge drops every cached event response.
func (ec *EventCache) Purge(ctx context.Context) error {
    if !ec.enabled() {
        return nil
    }
    keys, err := ec.rdb.SMembers(ctx, ec.registry()).Result()
    if err != nil {
        return err
    }
    return ec.rdb.Del(ctx, append(keys, ec.registry())...).Err()
}

// PurgeOnWrite purges the cache after the wrapped handler answers 2xx.
func (ec *EventCache) PurgeOnWrite() echo.MiddlewareFunc {
    if !ec.enabled() {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            if status := c.Response().Status; err == nil && status >= 200 && status < 300 {
                ctx, cancel := context.WithTimeout(context.Background(), time.Second)
                defer cancel()
                if perr := ec.Purge(ctx); perr != nil {
                    ec.log.WithError(perr).Warn("event cache purge failed")
                }
            }
            return err
        }
    }
}
