package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pranavOffl/EventBookingSystem/internal/handler"
	"github.com/pranavOffl/EventBookingSystem/internal/middleware"
	"github.com/pranavOffl/EventBookingSystem/internal/model"
)

// RegisterAccounts registers the user dashboard (/v1/user), the admin
// dashboard (/v1/admin) and admin user management (/v1/admin/users).
// Deleting an account cancels its bookings, so deletes purge the event cache.
func RegisterAccounts(e *echo.Echo, h *handler.AccountHandler, jwtSecret string, bl middleware.Blocklist, cache *middleware.EventCache) {
	auth := middleware.JWTAuth(jwtSecret, bl)
	purge := cache.PurgeOnWrite()

	u := e.Group("/v1/user", auth)
	u.GET("/details", h.Details)
	u.PATCH("/update-email", h.UpdateEmail)
	u.PATCH("/update-password", h.UpdatePassword)
	u.PATCH("/update-role", h.UpdateRole)
	u.DELETE("/delete", h.DeleteSelf, purge)

	admin := middleware.RequireRole(model.RoleAdmin)
	a := e.Group("/v1/admin", auth, admin)
	a.GET("/details", h.Details)
	a.PATCH("/update_email", h.UpdateEmail)
	a.PATCH("/update_password", h.UpdatePassword)
	a.DELETE("/delete", h.DeleteSelf, purge)

	users := e.Group("/v1/admin/users", auth, admin)
	users.GET("/attendees", h.Attendees)
	users.GET("/organizers", h.Organizers)
	users.GET("/details/:id", h.UserDetails)
	users.PATCH("/role/:id", h.SetRole)
	users.DELETE("/:id", h.DeleteUser, purge)
}
