package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pranavOffl/EventBookingSystem/internal/model"
	"github.com/pranavOffl/EventBookingSystem/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes the password and inserts the user.
func (r *UserRepo) Create(ctx context.Context, email, password string, role model.Role, cost int) (model.User, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	now := time.Now().UTC()
	u := model.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, role, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		u.ID, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// UpdateEmail changes the login e-mail.  ErrEmailExists is returned when
// another account uses it.
func (r *UserRepo) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	err := r.update(ctx, "UPDATE users SET email=?, updated_at=UTC_TIMESTAMP() WHERE id=?", normalizeEmail(email), id)
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// UpdatePassword stores a new bcrypt hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	return r.update(ctx, "UPDATE users SET password_hash=?, updated_at=UTC_TIMESTAMP() WHERE id=?", hash, id)
}

// UpdateRole changes the user's role.
func (r *UserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	return r.update(ctx, "UPDATE users SET role=?, updated_at=UTC_TIMESTAMP() WHERE id=?", string(role), id)
}

func (r *UserRepo) update(ctx context.Context, q string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
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

// ListAttendeesWithBookings returns every attendee with the number of
// booking rows they own, cancelled ones included.
func (r *UserRepo) ListAttendeesWithBookings(ctx context.Context) ([]model.UserStats, error) {
	const q = `SELECT u.id, u.email, u.password_hash, u.role, u.created_at, u.updated_at, COUNT(b.id)
               FROM users u
               LEFT JOIN bookings b ON b.user_id = u.id
               WHERE u.role = 'attendee'
               GROUP BY u.id, u.email, u.password_hash, u.role, u.created_at, u.updated_at
               ORDER BY u.email`
	return r.listStats(ctx, q, func(s *model.UserStats) *int { return &s.BookingCount })
}

// ListOrganizersWithEvents returns every organizer with the number of
// events they host.
func (r *UserRepo) ListOrganizersWithEvents(ctx context.Context) ([]model.UserStats, error) {
	const q = `SELECT u.id, u.email, u.password_hash, u.role, u.created_at, u.updated_at, COUNT(e.id)
               FROM users u
               LEFT JOIN events e ON e.organizer_id = u.id
               WHERE u.role = 'organizer'
               GROUP BY u.id, u.email, u.password_hash, u.role, u.created_at, u.updated_at
               ORDER BY u.email`
	return r.listStats(ctx, q, func(s *model.UserStats) *int { return &s.EventCount })
}

func (r *UserRepo) listStats(ctx context.Context, q string, count func(*model.UserStats) *int) ([]model.UserStats, error) {
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.UserStats, 0)
	for rows.Next() {
		var s model.UserStats
		u := &s.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt, count(&s)); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Stats returns the user with booking and hosted event counts.
func (r *UserRepo) Stats(ctx context.Context, id uuid.UUID) (model.UserStats, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return model.UserStats{}, err
	}
	s := model.UserStats{User: u}
	const q = `SELECT (SELECT COUNT(*) FROM bookings WHERE user_id = ?), (SELECT COUNT(*) FROM events WHERE organizer_id = ?)`
	if err := r.DB.QueryRowContext(ctx, q, id, id).Scan(&s.BookingCount, &s.EventCount); err != nil {
		return model.UserStats{}, err
	}
	return s, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
