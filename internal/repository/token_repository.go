package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrTokenInvalid is returned for unknown, revoked and expired refresh
// tokens alike.
var ErrTokenInvalid = errors.New("refresh token invalid")

// TokenRepo stores refresh tokens by their SHA-256 hash.
type TokenRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db, Now: time.Now} }

func (r *TokenRepo) now() time.Time { return r.Now().UTC() }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uuid.UUID, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return classify(err)
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// owner reads a token row and returns its user while the token is usable.
func (r *TokenRepo) owner(ctx context.Context, q rowQuerier, query, tokenHash string) (uuid.UUID, error) {
	var (
		userID    uuid.UUID
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := q.QueryRowContext(ctx, query, tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrTokenInvalid
	}
	if err != nil {
		return uuid.Nil, classify(err)
	}
	if revokedAt.Valid || !expiresAt.After(r.now()) {
		return uuid.Nil, ErrTokenInvalid
	}
	return userID, nil
}

// ValidateRefresh returns the user of a live token.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	return r.owner(ctx, r.DB,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1", tokenHash)
}

// Rotate revokes oldHash and stores newHash for the same user in one
// transaction.  The old row is locked, so of two concurrent rotations of
// one token exactly one succeeds.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash, newHash string, exp time.Time) (uuid.UUID, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	userID, err := r.owner(ctx, tx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? FOR UPDATE", oldHash)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=?", r.now(), oldHash); err != nil {
		return uuid.Nil, classify(err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, newHash, exp.UTC()); err != nil {
		return uuid.Nil, classify(err)
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, classify(err)
	}
	committed = true
	return userID, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL",
		r.now(), tokenHash)
	return classify(err)
}

// RevokeAllForUser revokes all of the user's live tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE user_id=? AND revoked_at IS NULL",
		r.now(), userID)
	return classify(err)
}

// PurgeExpired deletes tokens that expired or were revoked before cutoff and
// returns how many rows went.
func (r *TokenRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < ? OR revoked_at < ?",
		cutoff.UTC(), cutoff.UTC())
	if err != nil {
		return 0, classify(err)
	}
	return res.RowsAffected()
}
