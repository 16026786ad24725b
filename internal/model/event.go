package model

import (
    "time"

    "github.com/google/uuid"
)

// Event is a scheduled happening with a fixed number of seats.  The seat
// count is tracked by BookedSeats rather than by individual seat rows and
// must never exceed Capacity.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title.
//  Description – free text description.
//  Date        – UTC instant at which the event takes place.
//  Location    – venue.
//  Capacity    – total number of seats, always positive.
//  BookedSeats – number of confirmed bookings.
//  OrganizerID – hosting user; nil when the organizer account is gone.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
    ID          uuid.UUID  // events.id
    Title       string     // events.title
    Description string     // events.description
    Date        time.Time  // events.date
    Location    string     // events.location
    Capacity    int        // events.capacity
    BookedSeats int        // events.booked_seats
    OrganizerID *uuid.UUID // events.organizer_id (nullable)
    CreatedAt   time.Time  // events.created_at
    UpdatedAt   time.Time  // events.updated_at
}

// HasStarted reports whether the event date is not strictly after now.
func (e Event) HasStarted(now time.Time) bool {
    return !e.Date.After(now)
}

// Full reports whether every seat is taken.
func (e Event) Full() bool {
    return e.BookedSeats >= e.Capacity
}

// OrganizedBy reports whether userID hosts the event.
func (e Event) OrganizedBy(userID uuid.UUID) bool {
    return e.OrganizerID != nil && *e.OrganizerID == userID
}

// WithBookedSeats returns a copy of e with the seat count replaced.
// Negative values are clamped to zero.
func (e Event) WithBookedSeats(n int) Event {
    if n < 0 {
        n = 0
    }
    e.BookedSeats = n
    return e
}

// EventPatch holds a partial event update.  Nil fields are left as they are.
type EventPatch struct {
    Title       *string
    Description *string
    Date        *time.Time
    Location    *string
    Capacity    *int
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
    return p.Title == nil && p.Description == nil && p.Date == nil && p.Location == nil && p.Capacity == nil
}

// Apply returns a copy of e with the patch applied.  BookedSeats and
// OrganizerID are never touched by a patch.
func (e Event) Apply(p EventPatch) Event {
    if p.Title != nil {
        e.Title = *p.Title
    }
    if p.Description != nil {
        e.Description = *p.Description
    }
    if p.Date != nil {
        e.Date = p.Date.UTC().Truncate(time.Second)
    }
    if p.Location != nil {
        e.Location = *p.Location
    }
    if p.Capacity != nil {
        e.Capacity = *p.Capacity
    }
    return e
}
