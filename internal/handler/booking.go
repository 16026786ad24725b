package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/pranavOffl/EventBookingSystem/internal/booking"
    "github.com/pranavOffl/EventBookingSystem/internal/model"
)

// BookingManager is the part of booking.Manager the handlers use.
type BookingManager interface {
    CreateBooking(ctx context.Context, userID, eventID uuid.UUID) (model.Booking, error)
    CancelBooking(ctx context.Context, bookingID uuid.UUID, actor booking.Actor) (model.Booking, error)
    ListUserBookings(ctx context.Context, userID uuid.UUID) ([]model.Booking, error)
}

// GuestLister returns an event's confirmed attendees to authorised callers.
type GuestLister interface {
    GuestList(ctx context.Context, eventID uuid.UUID, actor booking.Actor) ([]model.User, error)
}

// BookingHandler serves /v1/bookings.
type BookingHandler struct {
    Bookings BookingManager
    Guests   GuestLister
}

func NewBookingHandler(b BookingManager, g GuestLister) *BookingHandler {
    if b == nil || g == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: b, Guests: g}
}

type createBookingReq struct {
    EventID string `json:"event_id" validate:"required,uuid"`
}

type bookingResp struct {
    ID          uuid.UUID `json:"id"`
    UserID      uuid.UUID `json:"user_id"`
    EventID     uuid.UUID `json:"event_id"`
    BookingDate time.Time `json:"booking_date"`
    Status      string    `json:"status"`
}

func toBookingResp(b model.Booking) bookingResp {
    return bookingResp{ID: b.ID, UserID: b.UserID, EventID: b.EventID, BookingDate: b.BookingDate, Status: string(b.Status)}
}

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    var req createBookingReq
    if err := bindValid(c, &req); err != nil {
        return badRequest(c, err)
    }
    eventID := uuid.MustParse(req.EventID)

    ctx, cancel := requestCtx(c)
    defer cancel()

    b, err := h.Bookings.CreateBooking(ctx, a.UserID, eventID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, toBookingResp(b))
}

// Mine handles GET /v1/bookings/my-bookings.
func (h *BookingHandler) Mine(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    list, err := h.Bookings.ListUserBookings(ctx, a.UserID)
    if err != nil {
        return writeError(c, err)
    }
    out := make([]bookingResp, 0, len(list))
    for _, b := range list {
        out = append(out, toBookingResp(b))
    }
    return c.JSON(http.StatusOK, out)
}

// Cancel handles DELETE /v1/bookings/:id.
func (h *BookingHandler) Cancel(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    b, err := h.Bookings.CancelBooking(ctx, id, a)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled", "booking": toBookingResp(b)})
}

// GuestList handles GET /v1/bookings/:event_id.
func (h *BookingHandler) GuestList(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    eventID, ok := paramID(c, "event_id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    users, err := h.Guests.GuestList(ctx, eventID, a)
    if err != nil {
        return writeError(c, err)
    }
    out := make([]userPart, 0, len(users))
    for _, u := range users {
        out = append(out, toUserPart(u))
    }
    return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "attendees": out, "count": len(out)})
}
