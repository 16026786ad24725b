package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// RequestLogger writes one logrus entry per request.  Server errors are
// logged at error level, client errors at warn.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }

            status := c.Response().Status
            entry := log.WithFields(logrus.Fields{
                "method":    c.Request().Method,
                "path":      c.Request().URL.Path,
                "route":     c.Path(),
                "status":    status,
                "duration":  time.Since(start),
                "client_ip": c.RealIP(),
                "user_id":   currentUserID(c),
            })
            switch {
            case status >= 500:
                entry.Error("request failed")
            case status >= 400:
                entry.Warn("request rejected")
            default:
                entry.Info("request processed")
            }
            return nil
        }
    }
}
