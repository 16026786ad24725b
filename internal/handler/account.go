package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/pranavOffl/EventBookingSystem/internal/booking"
    "github.com/pranavOffl/EventBookingSystem/internal/model"
    "github.com/pranavOffl/EventBookingSystem/internal/service"
)

// AccountManager is implemented by service.AccountService.
type AccountManager interface {
    Details(ctx context.Context, id uuid.UUID) (model.UserStats, error)
    FullDetails(ctx context.Context, id uuid.UUID) (service.UserDetails, error)
    UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
    UpdatePassword(ctx context.Context, id uuid.UUID, password, confirm string) error
    ChangeOwnRole(ctx context.Context, actor booking.Actor, role model.Role) error
    SetRole(ctx context.Context, id uuid.UUID, role model.Role) error
    Delete(ctx context.Context, id uuid.UUID) error
    DeleteByAdmin(ctx context.Context, actor booking.Actor, id uuid.UUID) error
    ListAttendees(ctx context.Context) ([]model.UserStats, error)
    ListOrganizers(ctx context.Context) ([]model.UserStats, error)
}

// AccountHandler serves the user dashboard (/v1/user), the admin dashboard
// (/v1/admin) and admin user management (/v1/admin/users).
type AccountHandler struct {
    Accounts AccountManager
}

func NewAccountHandler(a AccountManager) *AccountHandler {
    if a == nil {
        panic("nil AccountManager passed to NewAccountHandler")
    }
    return &AccountHandler{Accounts: a}
}

type updateEmailReq struct {
    Email string `json:"email" validate:"required,email"`
}
type updatePasswordReq struct {
    Password        string `json:"password" validate:"required,min=8"`
    ConfirmPassword string `json:"confirm_password" validate:"required"`
}
type updateRoleReq struct {
    Role string `json:"role" validate:"required"`
}

type statsResp struct {
    ID           uuid.UUID `json:"id"`
    Email        string    `json:"email"`
    Role         string    `json:"role"`
    CreatedAt    time.Time `json:"created_at"`
    BookingCount int       `json:"booking_count"`
    EventCount   int       `json:"event_count"`
}

func toStatsResp(s model.UserStats) statsResp {
    return statsResp{
        ID: s.User.ID, Email: s.User.Email, Role: string(s.User.Role), CreatedAt: s.User.CreatedAt,
        BookingCount: s.BookingCount, EventCount: s.EventCount,
    }
}

// Details handles GET /v1/user/details and GET /v1/admin/details.
func (h *AccountHandler) Details(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    st, err := h.Accounts.Details(ctx, a.UserID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toStatsResp(st))
}

// UpdateEmail handles PATCH /v1/user/update-email.
func (h *AccountHandler) UpdateEmail(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    var req updateEmailReq
    if err := bindValid(c, &req); err != nil {
        return badRequest(c, err)
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    if err := h.Accounts.UpdateEmail(ctx, a.UserID, req.Email); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "email updated"})
}

// UpdatePassword handles PATCH /v1/user/update-password.
func (h *AccountHandler) UpdatePassword(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    var req updatePasswordReq
    if err := bindValid(c, &req); err != nil {
        return badRequest(c, err)
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    if err := h.Accounts.UpdatePassword(ctx, a.UserID, req.Password, req.ConfirmPassword); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// UpdateRole handles PATCH /v1/user/update-role.
func (h *AccountHandler) UpdateRole(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    var req updateRoleReq
    if err := bindValid(c, &req); err != nil {
        return badRequest(c, err)
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    role := model.Role(strings.ToLower(strings.TrimSpace(req.Role)))
    if err := h.Accounts.ChangeOwnRole(ctx, a, role); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "role updated", "role": role})
}

// DeleteSelf handles DELETE /v1/user/delete and DELETE /v1/admin/delete.
func (h *AccountHandler) DeleteSelf(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    if err := h.Accounts.Delete(ctx, a.UserID); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ----- admin user management -----

func statsList(list []model.UserStats) []statsResp {
    out := make([]statsResp, 0, len(list))
    for _, s := range list {
        out = append(out, toStatsResp(s))
    }
    return out
}

// Attendees handles GET /v1/admin/users/attendees.
func (h *AccountHandler) Attendees(c echo.Context) error {
    ctx, cancel := requestCtx(c)
    defer cancel()
    list, err := h.Accounts.ListAttendees(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, statsList(list))
}

// Organizers handles GET /v1/admin/users/organizers.
func (h *AccountHandler) Organizers(c echo.Context) error {
    ctx, cancel := requestCtx(c)
    defer cancel()
    list, err := h.Accounts.ListOrganizers(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, statsList(list))
}

// UserDetails handles GET /v1/admin/users/details/:id.
func (h *AccountHandler) UserDetails(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    d, err := h.Accounts.FullDetails(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    bookings := make([]bookingResp, 0, len(d.Bookings))
    for _, b := range d.Bookings {
        bookings = append(bookings, toBookingResp(b))
    }
    events := make([]eventResp, 0, len(d.Events))
    for _, e := range d.Events {
        events = append(events, toEventResp(e))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "user":     toStatsResp(d.UserStats),
        "bookings": bookings,
        "events":   events,
    })
}

// SetRole handles PATCH /v1/admin/users/role/:id.
func (h *AccountHandler) SetRole(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    var req updateRoleReq
    if err := bindValid(c, &req); err != nil {
        return badRequest(c, err)
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    role := model.Role(strings.ToLower(strings.TrimSpace(req.Role)))
    if err := h.Accounts.SetRole(ctx, id, role); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "role updated", "role": role})
}

// DeleteUser handles DELETE /v1/admin/users/:id.
func (h *AccountHandler) DeleteUser(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    if err := h.Accounts.DeleteByAdmin(ctx, a, id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
