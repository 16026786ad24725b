package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pranavOffl/EventBookingSystem/internal/handler"
	"github.com/pranavOffl/EventBookingSystem/internal/middleware"
	"github.com/pranavOffl/EventBookingSystem/internal/model"
)

// BookingLimits holds the per-route limiters for booking writes.
type BookingLimits struct {
	Create echo.MiddlewareFunc
	Cancel echo.MiddlewareFunc
}

// RegisterBookings registers /v1/bookings.  Attendees (and admins) book and
// cancel; organizers and admins read guest lists.  Seat changes purge the
// event cache.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, bl middleware.Blocklist, lim BookingLimits, cache *middleware.EventCache) {
	g := e.Group("/v1/bookings", middleware.JWTAuth(jwtSecret, bl))

	attendee := middleware.RequireRole(model.RoleAttendee, model.RoleAdmin)
	purge := cache.PurgeOnWrite()
	g.POST("", h.Create, attendee, lim.Create, purge)
	g.GET("/my-bookings", h.Mine, attendee)
	g.DELETE("/:id", h.Cancel, attendee, lim.Cancel, purge)

	g.GET("/:event_id", h.GuestList, middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin))
}
