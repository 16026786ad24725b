package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pranavOffl/EventBookingSystem/internal/model"
)

// Transition names a committed booking state change.
type Transition string

const (
	TransitionConfirmed Transition = "booking.confirmed"
	TransitionCancelled Transition = "booking.cancelled"
)

// Notification describes a committed transition.  Event carries the seat
// counter as it was committed.
type Notification struct {
	Transition Transition
	Booking    model.Booking
	Event      model.Event
	ActorID    uuid.UUID
	At         time.Time
}

// Notifier receives notifications after commit.  Errors are logged and do
// not affect the outcome of the booking operation.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithNotifier sets the receiver of committed transitions.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithLogger sets the logger used for notification failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = l }
}

const notifyTimeout = 3 * time.Second

// Manager runs the booking state machine (none → confirmed ⇄ cancelled)
// for every (user, event) pair.  Each operation is one transaction on the
// Store; seat accounting is delegated to the Ledger.
type Manager struct {
	store    Store
	ledger   *Ledger
	notifier Notifier
	now      func() time.Time
	log      logrus.FieldLogger
}

// NewManager builds a Manager on top of store.  It panics if store is nil.
func NewManager(store Store, opts ...Option) *Manager {
	if store == nil {
		panic("nil store passed to NewManager")
	}
	m := &Manager{store: store, now: time.Now, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(m)
	}
	m.ledger = NewLedger(m.now)
	return m
}

// Ledger exposes the seat ledger so that other writers of the event row
// can take the same lock.
func (m *Manager) Ledger() *Ledger { return m.ledger }

// CreateBooking books a seat for userID.  A previously cancelled booking of
// the same pair is reactivated and keeps its id.  Locks are taken user
// first, then event, then booking.
func (m *Manager) CreateBooking(ctx context.Context, userID, eventID uuid.UUID) (model.Booking, error) {
	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return model.Booking{}, infra("begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockUser(ctx, tx, userID); err != nil {
		return model.Booking{}, err
	}
	ev, err := m.ledger.AcquireSeat(ctx, tx, eventID)
	if err != nil {
		return model.Booking{}, err
	}
	existing, err := tx.GetBookingByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return model.Booking{}, infra("load booking", err)
	}

	now := m.now().UTC()
	var b model.Booking
	switch {
	case existing == nil:
		b = model.NewBooking(userID, eventID, now)
		if err := tx.InsertBooking(ctx, b); err != nil {
			return model.Booking{}, infra("insert booking", err)
		}
	case existing.Confirmed():
		// the seat taken above is given back by the deferred rollback
		return model.Booking{}, ErrAlreadyBooked
	default:
		b = existing.Confirm(now)
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return model.Booking{}, infra("update booking", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Booking{}, infra("commit", err)
	}
	committed = true

	m.notify(ctx, Notification{Transition: TransitionConfirmed, Booking: b, Event: ev, ActorID: userID, At: now})
	return b, nil
}

// CancelBooking cancels a confirmed booking and releases its seat.  Only the
// booking owner or an admin may cancel.
func (m *Manager) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) (model.Booking, error) {
	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return model.Booking{}, infra("begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := tx.GetBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, infra("load booking", err)
	}
	if b == nil {
		return model.Booking{}, ErrBookingNotFound
	}
	if b.UserID != actor.UserID && !actor.IsAdmin() {
		return model.Booking{}, ErrForbidden
	}
	if !b.Confirmed() {
		return model.Booking{}, ErrAlreadyCancelled
	}

	cancelled, ev, err := m.cancelLocked(ctx, tx, b.EventID, bookingID)
	if err != nil {
		return model.Booking{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Booking{}, infra("commit", err)
	}
	committed = true

	m.notify(ctx, Notification{Transition: TransitionCancelled, Booking: cancelled, Event: ev, ActorID: actor.UserID, At: m.now().UTC()})
	return cancelled, nil
}

// cancelLocked takes the event lock, then the booking lock, re-checks the
// booking and releases its seat.  Event before booking is the same order
// CreateBooking uses.
func (m *Manager) cancelLocked(ctx context.Context, tx Tx, eventID, bookingID uuid.UUID) (model.Booking, model.Event, error) {
	if _, err := m.ledger.LockEvent(ctx, tx, eventID); err != nil {
		return model.Booking{}, model.Event{}, err
	}
	cur, err := tx.GetBookingForUpdate(ctx, bookingID)
	if err != nil {
		return model.Booking{}, model.Event{}, infra("lock booking", err)
	}
	if cur == nil {
		return model.Booking{}, model.Event{}, ErrBookingNotFound
	}
	if !cur.Confirmed() {
		return model.Booking{}, model.Event{}, ErrAlreadyCancelled
	}
	ev, err := m.ledger.ReleaseSeat(ctx, tx, eventID)
	if err != nil {
		return model.Booking{}, model.Event{}, err
	}
	next := cur.Cancel()
	if err := tx.UpdateBooking(ctx, next); err != nil {
		return model.Booking{}, model.Event{}, infra("update booking", err)
	}
	return next, ev, nil
}

// DeleteUser cancels every confirmed booking of userID, releasing each
// seat, and removes the user in the same transaction.  It returns how many
// bookings were cancelled.  The user row stays locked throughout, so no
// booking can be created or reactivated for the user in between.
func (m *Manager) DeleteUser(ctx context.Context, userID uuid.UUID) (int, error) {
	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return 0, infra("begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockUser(ctx, tx, userID); err != nil {
		return 0, err
	}
	list, err := tx.ListConfirmedByUser(ctx, userID)
	if err != nil {
		return 0, infra("list bookings", err)
	}
	done := make([]Notification, 0, len(list))
	for _, b := range list {
		cancelled, ev, err := m.cancelLocked(ctx, tx, b.EventID, b.ID)
		switch {
		case err == nil:
		case KindOf(err) == KindNotFound, KindOf(err) == KindAlreadyCancelled:
			continue
		default:
			return 0, err
		}
		done = append(done, Notification{Transition: TransitionCancelled, Booking: cancelled, Event: ev, ActorID: userID})
	}
	if err := tx.DeleteUser(ctx, userID); err != nil {
		return 0, infra("delete user", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, infra("commit", err)
	}
	committed = true

	now := m.now().UTC()
	for _, n := range done {
		n.At = now
		m.notify(ctx, n)
	}
	return len(done), nil
}

func lockUser(ctx context.Context, tx Tx, userID uuid.UUID) error {
	found, err := tx.LockUser(ctx, userID)
	if err != nil {
		return infra("lock user", err)
	}
	if !found {
		return ErrUserNotFound
	}
	return nil
}

// ListUserBookings returns the user's bookings, most recent first.
func (m *Manager) ListUserBookings(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	list, err := m.store.ListUserBookings(ctx, userID)
	if err != nil {
		return nil, infra("list bookings", err)
	}
	return list, nil
}

// ListConfirmedAttendees returns the users holding a confirmed booking for
// the event.  Callers decide who may see the list.
func (m *Manager) ListConfirmedAttendees(ctx context.Context, eventID uuid.UUID) ([]model.User, error) {
	users, err := m.store.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, infra("list attendees", err)
	}
	return users, nil
}

func (m *Manager) notify(ctx context.Context, n Notification) {
	if m.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := m.notifier.Notify(ctx, n); err != nil {
		m.log.WithFields(logrus.Fields{
			"transition": n.Transition,
			"booking_id": n.Booking.ID,
			"event_id":   n.Booking.EventID,
		}).WithError(err).Warn("booking notification failed")
	}
}
