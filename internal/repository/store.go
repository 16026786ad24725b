package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pranavOffl/EventBookingSystem/internal/booking"
	"github.com/pranavOffl/EventBookingSystem/internal/model"
)

const (
	eventColumns   = `id, title, description, date, location, capacity, booked_seats, organizer_id, created_at, updated_at`
	bookingColumns = `id, user_id, event_id, booking_date, status`
	userColumns    = `id, email, password_hash, role, created_at, updated_at`
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (model.Event, error) {
	var (
		e   model.Event
		org uuid.NullUUID
	)
	err := r.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.Capacity, &e.BookedSeats, &org, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return model.Event{}, err
	}
	if org.Valid {
		id := org.UUID
		e.OrganizerID = &id
	}
	return e, nil
}

func scanBooking(r rowScanner) (model.Booking, error) {
	var b model.Booking
	err := r.Scan(&b.ID, &b.UserID, &b.EventID, &b.BookingDate, &b.Status)
	return b, err
}

func scanUser(r rowScanner) (model.User, error) {
	var u model.User
	err := r.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Store is the MySQL implementation of booking.Store.  Row locks are taken
// with SELECT ... FOR UPDATE and held by InnoDB until the transaction ends.
type Store struct {
	db *sql.DB
}

// NewStore constructs a Store with the given DB handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// BeginTx starts a READ COMMITTED transaction.  Locking reads always see
// the latest committed row, and plain reads see every commit that happened
// before them, so the counters read after taking a lock are current.
func (s *Store) BeginTx(ctx context.Context) (booking.Tx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", classify(err))
	}
	return &storeTx{tx: tx}, nil
}

// ListUserBookings returns all bookings of a user, newest first.
func (s *Store) ListUserBookings(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY booking_date DESC`
	return queryBookings(ctx, s.db, q, userID)
}

// ListAttendees returns users with a confirmed booking for the event.
func (s *Store) ListAttendees(ctx context.Context, eventID uuid.UUID) ([]model.User, error) {
	const q = `SELECT u.id, u.email, u.password_hash, u.role, u.created_at, u.updated_at
               FROM bookings b
               JOIN users u ON u.id = b.user_id
               WHERE b.event_id = ? AND b.status = 'confirmed'
               ORDER BY b.booking_date`
	rows, err := s.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetOrganizer returns the organizer of an event.
func (s *Store) GetOrganizer(ctx context.Context, eventID uuid.UUID) (*uuid.UUID, bool, error) {
	var org uuid.NullUUID
	err := s.db.QueryRowContext(ctx, `SELECT organizer_id FROM events WHERE id = ?`, eventID).Scan(&org)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(err)
	}
	if !org.Valid {
		return nil, true, nil
	}
	id := org.UUID
	return &id, true, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryBookings(ctx context.Context, q queryer, query string, args ...any) ([]model.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// storeTx implements booking.Tx on a *sql.Tx.
type storeTx struct {
	tx *sql.Tx
}

func (t *storeTx) LockUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ? FOR UPDATE`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(err)
	}
	return true, nil
}

// DeleteUser relies on ON DELETE CASCADE for bookings and refresh tokens.
func (t *storeTx) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	return classify(err)
}

func (t *storeTx) GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = ? FOR UPDATE`
	e, err := scanEvent(t.tx.QueryRowContext(ctx, q, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return &e, nil
}

func (t *storeTx) getBooking(ctx context.Context, q string, args ...any) (*model.Booking, error) {
	b, err := scanBooking(t.tx.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

func (t *storeTx) GetBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	return t.getBooking(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, bookingID)
}

func (t *storeTx) GetBookingForUpdate(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	return t.getBooking(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, bookingID)
}

// GetBookingByUserAndEvent uses a locking read so a row committed by a
// transaction that held the event lock before us is always seen.
func (t *storeTx) GetBookingByUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) (*model.Booking, error) {
	return t.getBooking(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? AND event_id = ? FOR UPDATE`, userID, eventID)
}

func (t *storeTx) ListConfirmedByUser(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? AND status = 'confirmed' ORDER BY event_id`
	return queryBookings(ctx, t.tx, q, userID)
}

func (t *storeTx) InsertBooking(ctx context.Context, b model.Booking) error {
	const q = `INSERT INTO bookings (id, user_id, event_id, booking_date, status) VALUES (?, ?, ?, ?, ?)`
	_, err := t.tx.ExecContext(ctx, q, b.ID, b.UserID, b.EventID, b.BookingDate, string(b.Status))
	if isDuplicate(err) {
		return &booking.Error{Kind: booking.KindConflict, Msg: "booking already exists", Err: ErrConflict}
	}
	return classify(err)
}

func (t *storeTx) UpdateBooking(ctx context.Context, b model.Booking) error {
	const q = `UPDATE bookings SET booking_date = ?, status = ? WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, q, b.BookingDate, string(b.Status), b.ID)
	return classify(err)
}

func (t *storeTx) UpdateEvent(ctx context.Context, e model.Event) error {
	const q = `UPDATE events
               SET title = ?, description = ?, date = ?, location = ?, capacity = ?, booked_seats = ?, updated_at = UTC_TIMESTAMP()
               WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, q, e.Title, e.Description, e.Date, e.Location, e.Capacity, e.BookedSeats, e.ID)
	return classify(err)
}

func (t *storeTx) Commit() error {
	return classify(t.tx.Commit())
}

func (t *storeTx) Rollback() error {
	return t.tx.Rollback()
}
