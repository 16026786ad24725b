package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pranavOffl/EventBookingSystem/internal/model"
)

// EventRepo manages persistence for events outside of the booking
// transaction: creation, lookups, listings and deletion.  Seat counts are
// changed only through booking.Ledger.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// Create inserts a new event.  BookedSeats is always stored as zero.
func (r *EventRepo) Create(ctx context.Context, e model.Event) error {
	const q = `INSERT INTO events (id, title, description, date, location, capacity, booked_seats, organizer_id, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`
	var org any
	if e.OrganizerID != nil {
		org = *e.OrganizerID
	}
	_, err := r.db.ExecContext(ctx, q, e.ID, e.Title, e.Description, e.Date, e.Location, e.Capacity, org, e.CreatedAt, e.UpdatedAt)
	return classify(err)
}

// GetByID retrieves an event.  It returns ErrNotFound if there is no
// matching row.
func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, classify(err)
	}
	return e, nil
}

// ExistsForOrganizer reports whether the organizer already hosts an event
// with the same title, date and location.
func (r *EventRepo) ExistsForOrganizer(ctx context.Context, organizerID uuid.UUID, title string, date time.Time, location string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM events WHERE organizer_id = ? AND title = ? AND date = ? AND location = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, organizerID, title, date, location).Scan(&exists); err != nil {
		return false, classify(err)
	}
	return exists, nil
}

// ListFilter narrows List.  When UpcomingAfter is non-zero only events
// dated strictly after it are returned.
type ListFilter struct {
	UpcomingAfter time.Time
	Offset        int
	Limit         int
}

// List returns events ordered by date.
func (r *EventRepo) List(ctx context.Context, f ListFilter) ([]model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events`
	args := make([]any, 0, 3)
	if !f.UpcomingAfter.IsZero() {
		q += ` WHERE date > ?`
		args = append(args, f.UpcomingAfter)
	}
	q += ` ORDER BY date, id LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)
	return r.queryEvents(ctx, q, args...)
}

// ListByOrganizer returns the events hosted by a user.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]model.Event, error) {
	return r.queryEvents(ctx, `SELECT `+eventColumns+` FROM events WHERE organizer_id = ? ORDER BY date, id`, organizerID)
}

func (r *EventRepo) queryEvents(ctx context.Context, q string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes an event.  Its bookings go with it through the foreign
// key.  It returns ErrNotFound if nothing was deleted.
func (r *EventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SeatDrift is an event whose seat counter disagrees with its confirmed
// bookings.
type SeatDrift struct {
	EventID     uuid.UUID
	Title       string
	BookedSeats int
	Confirmed   int
}

// FindSeatDrift returns every event whose booked_seats differs from the
// number of confirmed bookings.
func (r *EventRepo) FindSeatDrift(ctx context.Context) ([]SeatDrift, error) {
	const q = `SELECT e.id, e.title, e.booked_seats, COUNT(b.id)
               FROM events e
               LEFT JOIN bookings b ON b.event_id = e.id AND b.status = 'confirmed'
               GROUP BY e.id, e.title, e.booked_seats
               HAVING e.booked_seats <> COUNT(b.id)`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []SeatDrift
	for rows.Next() {
		var d SeatDrift
		if err := rows.Scan(&d.EventID, &d.Title, &d.BookedSeats, &d.Confirmed); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
