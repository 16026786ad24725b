package service

import (
    "context"
    "strings"

    "github.com/google/uuid"
    "github.com/sirupsen/logrus"

    "github.com/pranavOffl/EventBookingSystem/internal/booking"
    "github.com/pranavOffl/EventBookingSystem/internal/model"
    "github.com/pranavOffl/EventBookingSystem/internal/repository"
)

const minPasswordLen = 8

// UserDetails is the admin view of one account.
type UserDetails struct {
    model.UserStats
    Bookings []model.Booking
    Events   []model.Event
}

// AccountService manages user accounts on behalf of their owners and of
// admins.
type AccountService struct {
    users    *repository.UserRepo
    tokens   *repository.TokenRepo
    events   *repository.EventRepo
    bookings *booking.Manager
    cost     int
    log      logrus.FieldLogger
}

// NewAccountService wires an AccountService.  cost is the bcrypt cost for
// new password hashes.
func NewAccountService(users *repository.UserRepo, tokens *repository.TokenRepo, events *repository.EventRepo, bookings *booking.Manager, cost int, log logrus.FieldLogger) *AccountService {
    if log == nil {
        log = logrus.StandardLogger()
    }
    return &AccountService{users: users, tokens: tokens, events: events, bookings: bookings, cost: cost, log: log}
}

// Details returns the account with its booking and hosted event counts.
func (s *AccountService) Details(ctx context.Context, id uuid.UUID) (model.UserStats, error) {
    st, err := s.users.Stats(ctx, id)
    return st, userErr("load user", err)
}

// FullDetails adds the user's bookings and hosted events to Details.
func (s *AccountService) FullDetails(ctx context.Context, id uuid.UUID) (UserDetails, error) {
    st, err := s.Details(ctx, id)
    if err != nil {
        return UserDetails{}, err
    }
    bookings, err := s.bookings.ListUserBookings(ctx, id)
    if err != nil {
        return UserDetails{}, err
    }
    events, err := s.events.ListByOrganizer(ctx, id)
    if err != nil {
        return UserDetails{}, booking.Wrap("list hosted events", err)
    }
    return UserDetails{UserStats: st, Bookings: bookings, Events: events}, nil
}

// UpdateEmail changes the login e-mail.
func (s *AccountService) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
    if strings.TrimSpace(email) == "" {
        return invalid("email is required")
    }
    return userErr("update email", s.users.UpdateEmail(ctx, id, email))
}

// UpdatePassword stores a new password and signs the user out of every
// session by revoking all refresh tokens.
func (s *AccountService) UpdatePassword(ctx context.Context, id uuid.UUID, password, confirm string) error {
    if len(password) < minPasswordLen {
        return invalid("password must be at least 8 characters")
    }
    if password != confirm {
        return invalid("passwords do not match")
    }
    if err := s.users.UpdatePassword(ctx, id, password, s.cost); err != nil {
        return userErr("update password", err)
    }
    if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
        s.log.WithError(err).WithField("user_id", id).Warn("revoke refresh tokens after password change failed")
    }
    return nil
}

// ChangeOwnRole lets attendees and organizers switch between those two
// roles.  Admins keep their role.
func (s *AccountService) ChangeOwnRole(ctx context.Context, actor booking.Actor, role model.Role) error {
    if actor.IsAdmin() {
        return &booking.Error{Kind: booking.KindForbidden, Msg: "admins can not change their own role"}
    }
    if !role.SelfAssignable() {
        return invalid("role must be attendee or organizer")
    }
    return userErr("update role", s.users.UpdateRole(ctx, actor.UserID, role))
}

// SetRole assigns any role to a user.
func (s *AccountService) SetRole(ctx context.Context, id uuid.UUID, role model.Role) error {
    if !role.Valid() {
        return invalid("role must be attendee, organizer or admin")
    }
    return userErr("update role", s.users.UpdateRole(ctx, id, role))
}

// Delete removes an account.  The user's confirmed bookings are cancelled
// in the same transaction so their seats return to the events.
func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
    n, err := s.bookings.DeleteUser(ctx, id)
    if err != nil {
        return err
    }
    s.log.WithFields(logrus.Fields{"user_id": id, "cancelled_bookings": n}).Info("account deleted")
    return nil
}

// DeleteByAdmin removes another user's account.
func (s *AccountService) DeleteByAdmin(ctx context.Context, actor booking.Actor, id uuid.UUID) error {
    if actor.UserID == id {
        return invalid("admins can not delete their own account here")
    }
    return s.Delete(ctx, id)
}

// ListAttendees returns every attendee with booking counts.
func (s *AccountService) ListAttendees(ctx context.Context) ([]model.UserStats, error) {
    list, err := s.users.ListAttendeesWithBookings(ctx)
    return list, userErr("list attendees", err)
}

// ListOrganizers returns every organizer with hosted event counts.
func (s *AccountService) ListOrganizers(ctx context.Context) ([]model.UserStats, error) {
    list, err := s.users.ListOrganizersWithEvents(ctx)
    return list, userErr("list organizers", err)
}
