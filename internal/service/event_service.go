package service

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/pranavOffl/EventBookingSystem/internal/booking"
    "github.com/pranavOffl/EventBookingSystem/internal/model"
    "github.com/pranavOffl/EventBookingSystem/internal/repository"
)

// Listing limits.
const (
    DefaultListLimit = 20
    MaxListLimit     = 100
)

// NewEvent is the input of EventService.Create.
type NewEvent struct {
    Title       string
    Description string
    Date        time.Time
    Location    string
    Capacity    int
}

// ListParams selects a page of events.
type ListParams struct {
    UpcomingOnly bool
    Skip         int
    Limit        int
}

// EventService manages events.  Edits of an existing event take the same
// row lock as bookings so that capacity and booked_seats are checked
// against each other atomically.
type EventService struct {
    events   *repository.EventRepo
    store    booking.Store
    bookings *booking.Manager
    now      func() time.Time
}

// NewEventService wires an EventService.  now may be nil.
func NewEventService(events *repository.EventRepo, store booking.Store, bookings *booking.Manager, now func() time.Time) *EventService {
    if now == nil {
        now = time.Now
    }
    return &EventService{events: events, store: store, bookings: bookings, now: now}
}

// Create adds an event hosted by actor.
func (s *EventService) Create(ctx context.Context, actor booking.Actor, in NewEvent) (model.Event, error) {
    in.Title = strings.TrimSpace(in.Title)
    in.Location = strings.TrimSpace(in.Location)
    now := s.now().UTC()
    if in.Title == "" || in.Location == "" {
        return model.Event{}, invalid("title and location are required")
    }
    if in.Capacity <= 0 {
        return model.Event{}, invalid("capacity must be greater than zero")
    }
    if !in.Date.After(now) {
        return model.Event{}, invalid("event date must be in the future")
    }
    date := in.Date.UTC().Truncate(time.Second)

    exists, err := s.events.ExistsForOrganizer(ctx, actor.UserID, in.Title, date, in.Location)
    if err != nil {
        return model.Event{}, booking.Wrap("check duplicate event", err)
    }
    if exists {
        return model.Event{}, &booking.Error{Kind: booking.KindConflict, Msg: "event already exists", Err: ErrDuplicateEvent}
    }

    org := actor.UserID
    ev := model.Event{
        ID:          uuid.New(),
        Title:       in.Title,
        Description: in.Description,
        Date:        date,
        Location:    in.Location,
        Capacity:    in.Capacity,
        OrganizerID: &org,
        CreatedAt:   now,
        UpdatedAt:   now,
    }
    if err := s.events.Create(ctx, ev); err != nil {
        return model.Event{}, booking.Wrap("create event", err)
    }
    return ev, nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id uuid.UUID) (model.Event, error) {
    ev, err := s.events.GetByID(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return model.Event{}, booking.ErrEventNotFound
    }
    if err != nil {
        return model.Event{}, booking.Wrap("load event", err)
    }
    return ev, nil
}

// List returns a page of events ordered by date.  Limit is clamped to
// [1, MaxListLimit] and defaults to DefaultListLimit.
func (s *EventService) List(ctx context.Context, p ListParams) ([]model.Event, error) {
    if p.Limit <= 0 {
        p.Limit = DefaultListLimit
    }
    if p.Limit > MaxListLimit {
        p.Limit = MaxListLimit
    }
    if p.Skip < 0 {
        p.Skip = 0
    }
    f := repository.ListFilter{Offset: p.Skip, Limit: p.Limit}
    if p.UpcomingOnly {
        f.UpcomingAfter = s.now().UTC()
    }
    list, err := s.events.List(ctx, f)
    if err != nil {
        return nil, booking.Wrap("list events", err)
    }
    return list, nil
}

// Update applies patch under the event row lock.  Only the organizer of
// the event or an admin may edit it.  Capacity can not drop below the
// seats already booked.
func (s *EventService) Update(ctx context.Context, id uuid.UUID, actor booking.Actor, patch model.EventPatch) (model.Event, error) {
    tx, err := s.store.BeginTx(ctx)
    if err != nil {
        return model.Event{}, booking.Wrap("begin transaction", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    cur, err := s.bookings.Ledger().LockEvent(ctx, tx, id)
    if err != nil {
        return model.Event{}, err
    }
    if !actor.IsAdmin() && !cur.OrganizedBy(actor.UserID) {
        return model.Event{}, errNotEventOwner
    }
    if patch.Empty() {
        return cur, nil
    }

    next := cur.Apply(patch)
    switch {
    case strings.TrimSpace(next.Title) == "" || strings.TrimSpace(next.Location) == "":
        return model.Event{}, invalid("title and location are required")
    case next.Capacity <= 0:
        return model.Event{}, invalid("capacity must be greater than zero")
    case next.Capacity < next.BookedSeats:
        return model.Event{}, &booking.Error{Kind: booking.KindConflict, Msg: "capacity is below the number of booked seats"}
    case patch.Date != nil && !next.Date.After(s.now().UTC()):
        return model.Event{}, invalid("event date must be in the future")
    }
    next.UpdatedAt = s.now().UTC()

    if err := tx.UpdateEvent(ctx, next); err != nil {
        return model.Event{}, booking.Wrap("update event", err)
    }
    if err := tx.Commit(); err != nil {
        return model.Event{}, booking.Wrap("commit", err)
    }
    committed = true
    return next, nil
}

// Delete removes an event and, through the schema, its bookings.
func (s *EventService) Delete(ctx context.Context, id uuid.UUID, actor booking.Actor) error {
    if err := s.authorizeOrganizer(ctx, id, actor, errNotEventOwner); err != nil {
        return err
    }
    err := s.events.Delete(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return booking.ErrEventNotFound
    }
    if err != nil {
        return booking.Wrap("delete event", err)
    }
    return nil
}

// GuestList returns the confirmed attendees of an event.  Only the
// organizer of the event or an admin may see it.
func (s *EventService) GuestList(ctx context.Context, id uuid.UUID, actor booking.Actor) ([]model.User, error) {
    if err := s.authorizeOrganizer(ctx, id, actor, errNotGuestViewer); err != nil {
        return nil, err
    }
    return s.bookings.ListConfirmedAttendees(ctx, id)
}

func (s *EventService) authorizeOrganizer(ctx context.Context, id uuid.UUID, actor booking.Actor, denied error) error {
    org, found, err := s.store.GetOrganizer(ctx, id)
    if err != nil {
        return booking.Wrap("load organizer", err)
    }
    if !found {
        return booking.ErrEventNotFound
    }
    if actor.IsAdmin() {
        return nil
    }
    if org == nil || *org != actor.UserID {
        return denied
    }
    return nil
}
