package auth

import (
	"context"
	"time"
)

// RevocationStore remembers users whose outstanding tokens must be rejected,
// for example because the account was deleted.
type RevocationStore interface {
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, userID string) (bool, error)
}

// NoopRevocationStore never revokes anything. Used when Redis is disabled.
type NoopRevocationStore struct{}

func (NoopRevocationStore) RevokeUser(context.Context, string, time.Duration) error { return nil }

func (NoopRevocationStore) IsRevoked(context.Context, string) (bool, error) { return false, nil }
