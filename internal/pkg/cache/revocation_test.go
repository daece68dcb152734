package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/yigit/studentdesk/internal/pkg/auth"
)

var (
	_ auth.RevocationStore = (*RedisRevocationStore)(nil)
	_ auth.RevocationStore = (*MemoryRevocationStore)(nil)
)

func TestMemoryRevocationExpires(t *testing.T) {
	store := NewMemoryRevocationStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if revoked, _ := store.IsRevoked(ctx, "u1"); revoked {
		t.Fatal("unknown user must not be revoked")
	}
	if err := store.RevokeUser(ctx, "u1", time.Hour); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, _ := store.IsRevoked(ctx, "u1"); !revoked {
		t.Fatal("expected u1 revoked")
	}

	now = now.Add(time.Hour)
	if revoked, _ := store.IsRevoked(ctx, "u1"); revoked {
		t.Fatal("revocation must lapse after ttl")
	}
}

func TestRedisRevocation(t *testing.T) {
	addr := os.Getenv("STUDENTDESK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STUDENTDESK_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	store := NewRedisRevocationStore(client)
	userID := uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, revokedUserKey(userID)) })

	if revoked, err := store.IsRevoked(ctx, userID); err != nil || revoked {
		t.Fatalf("expected not revoked, got %v (%v)", revoked, err)
	}
	if err := store.RevokeUser(ctx, userID, time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, err := store.IsRevoked(ctx, userID); err != nil || !revoked {
		t.Fatalf("expected revoked, got %v (%v)", revoked, err)
	}
	if ttl := client.TTL(ctx, revokedUserKey(userID)).Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}
}
