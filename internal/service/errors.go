// Package service holds the application logic behind the HTTP handlers
// that is not part of the booking state machine: event management and
// account management.  Failures are reported as booking.Error values so
// handlers map every error the same way.
package service

import (
    "errors"

    "github.com/pranavOffl/EventBookingSystem/internal/booking"
    "github.com/pranavOffl/EventBookingSystem/internal/repository"
)

// ErrDuplicateEvent is wrapped when an organizer already hosts an event
// with the same title, date and location.
var ErrDuplicateEvent = errors.New("event already exists")

var (
    errUserNotFound   = &booking.Error{Kind: booking.KindNotFound, Msg: "user not found"}
    errEmailInUse     = &booking.Error{Kind: booking.KindConflict, Msg: "email already in use", Err: repository.ErrEmailExists}
    errNotEventOwner  = &booking.Error{Kind: booking.KindForbidden, Msg: "not authorized to modify this event"}
    errNotGuestViewer = &booking.Error{Kind: booking.KindForbidden, Msg: "not authorized to view this guest list"}
)

func invalid(msg string) error {
    return &booking.Error{Kind: booking.KindInvalid, Msg: msg}
}

// userErr maps repository errors of user lookups and writes.
func userErr(op string, err error) error {
    switch {
    case err == nil:
        return nil
    case errors.Is(err, repository.ErrNotFound):
        return errUserNotFound
    case errors.Is(err, repository.ErrEmailExists):
        return errEmailInUse
    }
    return booking.Wrap(op, err)
}
