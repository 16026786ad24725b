package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/pranavOffl/EventBookingSystem/internal/booking"
    "github.com/pranavOffl/EventBookingSystem/internal/model"
    "github.com/pranavOffl/EventBookingSystem/internal/service"
)

// EventManager is implemented by service.EventService.
type EventManager interface {
    Create(ctx context.Context, actor booking.Actor, in service.NewEvent) (model.Event, error)
    Get(ctx context.Context, id uuid.UUID) (model.Event, error)
    List(ctx context.Context, p service.ListParams) ([]model.Event, error)
    Update(ctx context.Context, id uuid.UUID, actor booking.Actor, patch model.EventPatch) (model.Event, error)
    Delete(ctx context.Context, id uuid.UUID, actor booking.Actor) error
}

// EventHandler serves /v1/events.
type EventHandler struct {
    Events EventManager
}

func NewEventHandler(events EventManager) *EventHandler {
    if events == nil {
        panic("nil EventManager passed to NewEventHandler")
    }
    return &EventHandler{Events: events}
}

type createEventReq struct {
    Title       string    `json:"title" validate:"required,max=255"`
    Description string    `json:"description" validate:"max=5000"`
    Date        time.Time `json:"date" validate:"required"`
    Location    string    `json:"location" validate:"required,max=255"`
    Capacity    int       `json:"capacity" validate:"gt=0"`
}

type updateEventReq struct {
    Title       *string    `json:"title" validate:"omitempty,min=1,max=255"`
    Description *string    `json:"description" validate:"omitempty,max=5000"`
    Date        *time.Time `json:"date"`
    Location    *string    `json:"location" validate:"omitempty,min=1,max=255"`
    Capacity    *int       `json:"capacity" validate:"omitempty,gt=0"`
}

type eventResp struct {
    ID             uuid.UUID  `json:"id"`
    Title          string     `json:"title"`
    Description    string     `json:"description"`
    Date           time.Time  `json:"date"`
    Location       string     `json:"location"`
    Capacity       int        `json:"capacity"`
    BookedSeats    int        `json:"booked_seats"`
    AvailableSeats int        `json:"available_seats"`
    OrganizerID    *uuid.UUID `json:"organizer_id"`
    CreatedAt      time.Time  `json:"created_at"`
    UpdatedAt      time.Time  `json:"updated_at"`
}

func toEventResp(e model.Event) eventResp {
    avail := e.Capacity - e.BookedSeats
    if avail < 0 {
        avail = 0
    }
    return eventResp{
        ID: e.ID, Title: e.Title, Description: e.Description, Date: e.Date, Location: e.Location,
        Capacity: e.Capacity, BookedSeats: e.BookedSeats, AvailableSeats: avail,
        OrganizerID: e.OrganizerID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
    }
}

// List handles GET /v1/events?upcoming_only=&skip=&limit=.
func (h *EventHandler) List(c echo.Context) error {
    p := service.ListParams{UpcomingOnly: true, Limit: service.DefaultListLimit}
    if v := c.QueryParam("upcoming_only"); v != "" {
        b, err := strconv.ParseBool(v)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "upcoming_only must be a boolean"})
        }
        p.UpcomingOnly = b
    }
    if v := c.QueryParam("skip"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n < 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "skip must be a non-negative integer"})
        }
        p.Skip = n
    }
    if v := c.QueryParam("limit"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n < 1 || n > service.MaxListLimit {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 100"})
        }
        p.Limit = n
    }

    ctx, cancel := requestCtx(c)
    defer cancel()

    list, err := h.Events.List(ctx, p)
    if err != nil {
        return writeError(c, err)
    }
    out := make([]eventResp, 0, len(list))
    for _, e := range list {
        out = append(out, toEventResp(e))
    }
    return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    e, err := h.Events.Get(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toEventResp(e))
}

// Create handles POST /v1/events.
func (h *EventHandler) Create(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    var req createEventReq
    if err := bindValid(c, &req); err != nil {
        return badRequest(c, err)
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    e, err := h.Events.Create(ctx, a, service.NewEvent{
        Title: req.Title, Description: req.Description, Date: req.Date, Location: req.Location, Capacity: req.Capacity,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, toEventResp(e))
}

// Update handles PATCH /v1/events/:id.
func (h *EventHandler) Update(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    var req updateEventReq
    if err := bindValid(c, &req); err != nil {
        return badRequest(c, err)
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    e, err := h.Events.Update(ctx, id, a, model.EventPatch{
        Title: req.Title, Description: req.Description, Date: req.Date, Location: req.Location, Capacity: req.Capacity,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toEventResp(e))
}

// Delete handles DELETE /v1/events/:id.
func (h *EventHandler) Delete(c echo.Context) error {
    a, ok := actor(c)
    if !ok {
        return unauthorized(c)
    }
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    if err := h.Events.Delete(ctx, id, a); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
