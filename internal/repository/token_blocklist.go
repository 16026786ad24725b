package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlocklist remembers the jti of access tokens that were logged out
// before they expired.  Entries expire together with the token.
type TokenBlocklist struct {
	rdb    *redis.Client
	prefix string
}

// NewTokenBlocklist returns a blocklist stored under prefix.  A nil client
// yields a blocklist that never blocks anything.
func NewTokenBlocklist(rdb *redis.Client, prefix string) *TokenBlocklist {
	if prefix == "" {
		prefix = "jti"
	}
	return &TokenBlocklist{rdb: rdb, prefix: prefix}
}

func (b *TokenBlocklist) key(jti string) string { return b.prefix + ":" + jti }

// Add blocks jti for ttl.  Tokens that already expired need no entry.
func (b *TokenBlocklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if b.rdb == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, b.key(jti), "1", ttl).Err()
}

// Contains reports whether jti was blocked.
func (b *TokenBlocklist) Contains(ctx context.Context, jti string) (bool, error) {
	if b.rdb == nil || jti == "" {
		return false, nil
	}
	err := b.rdb.Get(ctx, b.key(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
