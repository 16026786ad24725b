package middleware

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/pranavOffl/EventBookingSystem/internal/utils"
)

// Blocklist reports whether an access token was revoked by logout.
type Blocklist interface {
    Contains(ctx context.Context, jti string) (bool, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects its claims into the request context under the Ctx* keys.
// Tokens whose jti is on the blocklist are rejected.  bl may be nil.  When
// the blocklist cannot be queried the token is accepted and a warning is
// logged.
func JWTAuth(secret string, bl Blocklist) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            if bl != nil {
                blocked, err := bl.Contains(c.Request().Context(), claims.ID)
                if err != nil {
                    logrus.WithError(err).Warn("token blocklist lookup failed")
                } else if blocked {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token revoked"})
                }
            }

            c.Set(CtxUserID, claims.Subject)
            c.Set(CtxRole, claims.Role)
            c.Set(CtxEmail, claims.Email)
            c.Set(CtxJTI, claims.ID)
            if claims.ExpiresAt != nil {
                c.Set(CtxTokenExp, claims.ExpiresAt.Time)
            }
            return next(c)
        }
    }
}
