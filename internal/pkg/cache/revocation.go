package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const revokedUserPrefix = "revoked:user:"

// RedisRevocationStore keeps one key per revoked user. The key expires with
// the longest-lived token that could still be presented.
type RedisRevocationStore struct {
	client redis.Cmdable
}

// NewRedisRevocationStore creates a revocation store on client
func NewRedisRevocationStore(client redis.Cmdable) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func revokedUserKey(userID string) string {
	return revokedUserPrefix + userID
}

// RevokeUser marks userID revoked for ttl
func (s *RedisRevocationStore) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, revokedUserKey(userID), time.Now().UTC().Unix(), ttl).Err(); err != nil {
		return errors.Wrap(err, "revoke user")
	}
	return nil
}

// IsRevoked reports whether userID is currently revoked
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedUserKey(userID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "check revoked user")
	}
	return n > 0, nil
}

// MemoryRevocationStore is the process local revocation store used by the
// memory driver and tests.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationStore creates an empty in-process store
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: make(map[string]time.Time), now: time.Now}
}

// RevokeUser marks userID revoked for ttl
func (s *MemoryRevocationStore) RevokeUser(_ context.Context, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[userID] = s.now().Add(ttl)
	return nil
}

// IsRevoked reports whether userID is currently revoked
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.revoked[userID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.revoked, userID)
		return false, nil
	}
	return true, nil
}
