package middleware

// identity.go holds the context keys JWTAuth fills in and the helpers that
// read them back.

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/pranavOffl/EventBookingSystem/internal/model"
)

// Context keys set by JWTAuth.
const (
    CtxUserID   = "user_id"   // string, canonical uuid
    CtxRole     = "role"      // string
    CtxEmail    = "email"     // string
    CtxJTI      = "jti"       // string
    CtxTokenExp = "token_exp" // time.Time
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uuid.UUID, bool) {
    s, ok := c.Get(CtxUserID).(string)
    if !ok || s == "" {
        return uuid.Nil, false
    }
    id, err := uuid.Parse(s)
    if err != nil {
        return uuid.Nil, false
    }
    return id, true
}

// Role returns the authenticated user's role, or "" for anonymous requests.
func Role(c echo.Context) model.Role {
    s, _ := c.Get(CtxRole).(string)
    return model.Role(s)
}

// TokenID returns the jti of the access token and when it expires.
func TokenID(c echo.Context) (string, time.Time) {
    jti, _ := c.Get(CtxJTI).(string)
    exp, _ := c.Get(CtxTokenExp).(time.Time)
    return jti, exp
}

// currentUserID is used for rate limit keys and request logs.
func currentUserID(c echo.Context) string {
    if s, ok := c.Get(CtxUserID).(string); ok && s != "" {
        return s
    }
    return "anon"
}
