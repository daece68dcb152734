package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/app/repositories/memory"
	"github.com/yigit/studentdesk/internal/config"
	"github.com/yigit/studentdesk/internal/pkg/auth"
)

func seedConfig(password string) *config.Config {
	cfg := &config.Config{}
	cfg.Admin.Name = "Administrator"
	cfg.Admin.Email = " Admin@Example.com "
	cfg.Admin.Password = password
	return cfg
}

func TestCreateDefaultAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := memory.NewRepositories(store)
	hasher := auth.NewPasswordHasher(4)

	for i := 0; i < 2; i++ {
		if err := CreateDefaultAdmin(ctx, seedConfig("secret1"), repos.Users, hasher, zerolog.Nop()); err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
	}

	if users, _ := store.Counts(); users != 1 {
		t.Fatalf("expected exactly one user, got %d", users)
	}

	admin, err := repos.Users.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("admin not stored: %v", err)
	}
	if admin.Role != appModels.RoleAdmin {
		t.Errorf("role = %q, want admin", admin.Role)
	}
	if !hasher.Check(admin.Password, "secret1") {
		t.Error("stored password does not match the configured one")
	}
}

func TestCreateDefaultAdminSkipsWithoutPassword(t *testing.T) {
	store := memory.NewStore()
	repos := memory.NewRepositories(store)

	if err := CreateDefaultAdmin(context.Background(), seedConfig(""), repos.Users, auth.NewPasswordHasher(4), zerolog.Nop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if users, _ := store.Counts(); users != 0 {
		t.Fatalf("expected no users, got %d", users)
	}
}
