package cache

import (
	"context"
	"testing"
	"time"

	"github.com/yigit/studentdesk/internal/config"
)

func TestNewRedisClientFailsWhenUnreachable(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Addr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, cfg)
	if err == nil {
		_ = client.Close()
		t.Fatal("expected an error for an unreachable server")
	}
	if client != nil {
		t.Fatal("no client should be returned on failure")
	}
}
