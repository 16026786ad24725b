package model

import (
    "time"

    "github.com/google/uuid"
)

// BookingStatus is the state of a booking row.  A row moves between
// confirmed and cancelled any number of times and is never duplicated.
type BookingStatus string

const (
    BookingConfirmed BookingStatus = "confirmed"
    BookingCancelled BookingStatus = "cancelled"
)

// Booking records a user's seat at an event.  There is at most one row per
// (UserID, EventID) pair for the whole history of the pair.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user holding the booking.
//  EventID     – event being attended.
//  BookingDate – UTC time of the most recent confirmation.
//  Status      – confirmed or cancelled.
type Booking struct {
    ID          uuid.UUID     // bookings.id
    UserID      uuid.UUID     // bookings.user_id
    EventID     uuid.UUID     // bookings.event_id
    BookingDate time.Time     // bookings.booking_date
    Status      BookingStatus // bookings.status
}

// NewBooking returns a confirmed booking with a fresh id.
func NewBooking(userID, eventID uuid.UUID, now time.Time) Booking {
    return Booking{
        ID:          uuid.New(),
        UserID:      userID,
        EventID:     eventID,
        BookingDate: now.UTC(),
        Status:      BookingConfirmed,
    }
}

// Confirmed reports whether the booking currently holds a seat.
func (b Booking) Confirmed() bool { return b.Status == BookingConfirmed }

// Confirm returns a reactivated copy of b stamped with now.  The id is kept.
func (b Booking) Confirm(now time.Time) Booking {
    b.Status = BookingConfirmed
    b.BookingDate = now.UTC()
    return b
}

// Cancel returns a cancelled copy of b.  BookingDate keeps the time of the
// last confirmation.
func (b Booking) Cancel() Booking {
    b.Status = BookingCancelled
    return b
}
