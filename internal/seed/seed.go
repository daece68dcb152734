package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/studentdesk/internal/app/models"
	appRepos "github.com/yigit/studentdesk/internal/app/repositories"
	"github.com/yigit/studentdesk/internal/config"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
	"github.com/yigit/studentdesk/internal/pkg/auth"
	"github.com/yigit/studentdesk/internal/pkg/validation"
)

// CreateDefaultAdmin creates the configured admin account unless a user with
// its email already exists. Nothing is created when no password is
// configured, since the account could never log in.
func CreateDefaultAdmin(ctx context.Context, cfg *config.Config, users appRepos.UserRepository, hasher *auth.PasswordHasher, lgr zerolog.Logger) error {
	email := validation.NormalizeEmail(cfg.Admin.Email)
	if email == "" || cfg.Admin.Password == "" {
		lgr.Info().Msg("No default admin credentials configured, skipping creation")
		return nil
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != appModels.RoleAdmin {
			lgr.Warn().Str("email", email).Str("role", string(existing.Role)).
				Msg("Default admin email belongs to a non-admin user")
		} else {
			lgr.Info().Msg("Admin user already exists, skipping creation")
		}
		return nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return fmt.Errorf("check default admin: %w", err)
	}

	hashedPassword, err := hasher.Hash(cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	admin := &appModels.User{
		Name:     strings.TrimSpace(cfg.Admin.Name),
		Email:    email,
		Password: hashedPassword,
		Role:     appModels.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		// Another instance may have won the race.
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return nil
		}
		return fmt.Errorf("create default admin: %w", err)
	}

	lgr.Info().Str("adminID", admin.ID).Str("email", email).Msg("Default admin user created successfully")
	return nil
}
