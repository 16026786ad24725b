package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/pranavOffl/EventBookingSystem/internal/model"
)

// Store is the persistence boundary of the booking core.  Lookups return a
// nil pointer and a nil error when the row does not exist.
type Store interface {
	// BeginTx starts a transaction.  Row locks taken through the returned
	// Tx are held until Commit or Rollback.
	BeginTx(ctx context.Context) (Tx, error)

	// ListUserBookings returns every booking of a user, newest
	// booking_date first, cancelled rows included.
	ListUserBookings(ctx context.Context, userID uuid.UUID) ([]model.Booking, error)

	// ListAttendees returns the users holding a confirmed booking for the event.
	ListAttendees(ctx context.Context, eventID uuid.UUID) ([]model.User, error)

	// GetOrganizer returns the hosting user of an event.  found is false when
	// the event does not exist; org is nil when the event has no organizer.
	GetOrganizer(ctx context.Context, eventID uuid.UUID) (org *uuid.UUID, found bool, err error)
}

// Tx is one unit of work against the store.
type Tx interface {
	// LockUser takes an exclusive lock on the user row.  found is false
	// when the user does not exist.
	LockUser(ctx context.Context, userID uuid.UUID) (found bool, err error)
	// DeleteUser removes the user row together with the user's bookings.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	// GetEventForUpdate reads the event row and takes an exclusive lock on
	// it, blocking while another transaction holds the lock.
	GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error)
	// GetBookingForUpdate is GetBooking with an exclusive lock on the row.
	GetBookingForUpdate(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error)
	GetBookingByUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) (*model.Booking, error)
	// ListConfirmedByUser returns the user's confirmed bookings ordered by event id.
	ListConfirmedByUser(ctx context.Context, userID uuid.UUID) ([]model.Booking, error)
	InsertBooking(ctx context.Context, b model.Booking) error
	UpdateBooking(ctx context.Context, b model.Booking) error
	UpdateEvent(ctx context.Context, e model.Event) error
	Commit() error
	Rollback() error
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Role   model.Role
}

// IsAdmin reports whether the actor acts with admin rights.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }
