package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pranavOffl/EventBookingSystem/internal/handler"
	"github.com/pranavOffl/EventBookingSystem/internal/middleware"
	"github.com/pranavOffl/EventBookingSystem/internal/model"
)

// RegisterEvents registers /v1/events.  Reads are public and served through
// the event cache; writes need an organizer or admin token and purge the
// cache.  Ownership of an existing event is checked by the service.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, jwtSecret string, bl middleware.Blocklist, cache *middleware.EventCache) {
	pub := e.Group("/v1/events", cache.Read())
	pub.GET("", h.List)
	pub.GET("/:id", h.Get)

	g := e.Group(
		"/v1/events",
		middleware.JWTAuth(jwtSecret, bl),
		middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin),
		cache.PurgeOnWrite(),
	)
	g.POST("", h.Create)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
