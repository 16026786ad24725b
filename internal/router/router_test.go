package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranavOffl/EventBookingSystem/internal/booking"
	"github.com/pranavOffl/EventBookingSystem/internal/config"
	"github.com/pranavOffl/EventBookingSystem/internal/handler"
	"github.com/pranavOffl/EventBookingSystem/internal/middleware"
	"github.com/pranavOffl/EventBookingSystem/internal/model"
	"github.com/pranavOffl/EventBookingSystem/internal/service"
	"github.com/pranavOffl/EventBookingSystem/internal/utils"
)

const secret = "router-test-secret"

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// newServer wires every route group.  The services are never reached: the
// requests below are all stopped by authentication or role checks.
func newServer(adminSignup bool) *echo.Echo {
	e := echo.New()
	events := &service.EventService{}
	cache := middleware.NewEventCache(config.CacheConfig{}, nil, nil)
	RegisterRoutes(e, nil)
	RegisterAuth(e, handler.NewAuthHandler(config.Config{}, nil, nil, nil), secret, nil, adminSignup)
	RegisterEvents(e, handler.NewEventHandler(events), secret, nil, cache)
	RegisterBookings(e, handler.NewBookingHandler(&booking.Manager{}, events), secret, nil, BookingLimits{Create: passThrough, Cancel: passThrough}, cache)
	RegisterAccounts(e, handler.NewAccountHandler(&service.AccountService{}), secret, nil, cache)
	return e
}

func bearer(t *testing.T, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uuid.New(), "u@example.com", string(role), time.Minute)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func serve(e *echo.Echo, method, path, auth string) int {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestHealthz(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(newServer(false), http.MethodGet, "/healthz", ""))
}

func TestRoutesRequireToken(t *testing.T) {
	e := newServer(false)
	id := uuid.NewString()
	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/v1/events"},
		{http.MethodPatch, "/v1/events/" + id},
		{http.MethodDelete, "/v1/events/" + id},
		{http.MethodPost, "/v1/bookings"},
		{http.MethodGet, "/v1/bookings/my-bookings"},
		{http.MethodDelete, "/v1/bookings/" + id},
		{http.MethodGet, "/v1/bookings/" + id},
		{http.MethodGet, "/v1/user/details"},
		{http.MethodGet, "/v1/admin/users/attendees"},
		{http.MethodPost, "/v1/auth/logout"},
	} {
		assert.Equal(t, http.StatusUnauthorized, serve(e, r.method, r.path, ""), r.method+" "+r.path)
	}
}

func TestRoleGates(t *testing.T) {
	e := newServer(false)
	id := uuid.NewString()
	attendee := bearer(t, model.RoleAttendee)
	organizer := bearer(t, model.RoleOrganizer)

	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodPost, "/v1/events", attendee))
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodPost, "/v1/bookings", organizer))
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodDelete, "/v1/bookings/"+id, organizer))
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/v1/bookings/"+id, attendee))
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/v1/admin/details", organizer))
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodDelete, "/v1/admin/users/"+id, attendee))
}

func hasRoute(e *echo.Echo, method, path string) bool {
	for _, r := range e.Routes() {
		if r.Method == method && r.Path == path {
			return true
		}
	}
	return false
}

func TestAdminSignupToggle(t *testing.T) {
	assert.False(t, hasRoute(newServer(false), http.MethodPost, "/v1/admin/signup"))
	assert.True(t, hasRoute(newServer(false), http.MethodPost, "/v1/admin/login"))

	e := newServer(true)
	require.True(t, hasRoute(e, http.MethodPost, "/v1/admin/signup"))
	// reachable without a token; the empty body fails validation
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/v1/admin/signup", ""))
}
