package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pranavOffl/EventBookingSystem/internal/model"
)

// Ledger owns the seat counter of every event.  All changes to
// booked_seats go through AcquireSeat and ReleaseSeat, always inside the
// caller's transaction and always under the event row lock.
type Ledger struct {
	now func() time.Time
}

// NewLedger returns a Ledger that judges event dates against now.
func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{now: now}
}

// LockEvent takes the row lock on an event without changing it.  Locking
// the same event twice within one transaction is allowed.
func (l *Ledger) LockEvent(ctx context.Context, tx Tx, eventID uuid.UUID) (model.Event, error) {
	ev, err := tx.GetEventForUpdate(ctx, eventID)
	if err != nil {
		return model.Event{}, infra("lock event", err)
	}
	if ev == nil {
		return model.Event{}, ErrEventNotFound
	}
	return *ev, nil
}

// AcquireSeat locks the event and takes one seat.  The increment only
// becomes visible to others when tx commits.
func (l *Ledger) AcquireSeat(ctx context.Context, tx Tx, eventID uuid.UUID) (model.Event, error) {
	ev, err := l.LockEvent(ctx, tx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if ev.HasStarted(l.now().UTC()) {
		return model.Event{}, ErrEventInPast
	}
	if ev.Full() {
		return model.Event{}, ErrEventFull
	}
	next := ev.WithBookedSeats(ev.BookedSeats + 1)
	if err := tx.UpdateEvent(ctx, next); err != nil {
		return model.Event{}, infra("update event", err)
	}
	return next, nil
}

// ReleaseSeat locks the event and gives one seat back.  The counter never
// drops below zero, whatever state it was left in.
func (l *Ledger) ReleaseSeat(ctx context.Context, tx Tx, eventID uuid.UUID) (model.Event, error) {
	ev, err := l.LockEvent(ctx, tx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	next := ev.WithBookedSeats(ev.BookedSeats - 1)
	if next.BookedSeats == ev.BookedSeats {
		return ev, nil
	}
	if err := tx.UpdateEvent(ctx, next); err != nil {
		return model.Event{}, infra("update event", err)
	}
	return next, nil
}
