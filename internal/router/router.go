// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pranavOffl/EventBookingSystem/internal/handler"
	"github.com/pranavOffl/EventBookingSystem/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// db backs the health check and may be nil.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers /v1/auth and the admin signup/login endpoints.
// Logout is the only auth endpoint that needs a bearer token: it revokes the
// token's jti.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, bl middleware.Blocklist, adminSignup bool) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret, bl))

	admin := e.Group("/v1/admin")
	if adminSignup {
		admin.POST("/signup", a.AdminSignup)
	}
	admin.POST("/login", a.AdminLogin)
}
