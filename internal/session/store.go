package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidOrExpired covers access tokens that miss in the store or
	// decode to a claim without a subject. The store's TTL makes the two
	// cases indistinguishable on purpose.
	ErrInvalidOrExpired = errors.New("session: invalid or expired token")

	// ErrNotFound means the refresh token has no ledger record.
	ErrNotFound = errors.New("session: token not found")

	// ErrExpired means the refresh record exists but its expiry has passed.
	ErrExpired = errors.New("session: token expired")

	// ErrDuplicateToken surfaces the ledger's uniqueness constraint.
	// Practically unreachable at 64 bytes of entropy, but never ignored.
	ErrDuplicateToken = errors.New("session: duplicate token")
)

// TokenStore is a key-value store with per-key TTL, holding access-token
// and session-token entries. Single-key set/get/del are atomic; nothing
// here needs multi-key transactions.
type TokenStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}
