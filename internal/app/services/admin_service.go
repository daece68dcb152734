package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/app/models/dto"
	"github.com/yigit/studentdesk/internal/app/repositories"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
	"github.com/yigit/studentdesk/internal/pkg/auth"
	"github.com/yigit/studentdesk/internal/pkg/events"
	"github.com/yigit/studentdesk/internal/pkg/validation"
)

// AdminService defines the interface for admin account operations
type AdminService interface {
	ListAdmins(ctx context.Context) ([]*models.User, error)
	GetAdmin(ctx context.Context, id string) (*models.User, error)
	CreateAdmin(ctx context.Context, req *dto.CreateAdminRequest) (*models.User, error)
	UpdateAdmin(ctx context.Context, id string, req *dto.UpdateAdminRequest) (*models.User, error)
	DeleteAdmin(ctx context.Context, id string) error
}

// adminServiceImpl implements AdminService
type adminServiceImpl struct {
	repos       *repositories.Repositories
	validator   *validation.Validator
	hasher      *auth.PasswordHasher
	revocations auth.RevocationStore
	jwtService  *auth.JWTService
	publisher   events.Publisher
	logger      zerolog.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(
	repos *repositories.Repositories,
	validator *validation.Validator,
	hasher *auth.PasswordHasher,
	jwtService *auth.JWTService,
	revocations auth.RevocationStore,
	publisher events.Publisher,
	logger zerolog.Logger,
) AdminService {
	return &adminServiceImpl{
		repos:       repos,
		validator:   validator,
		hasher:      hasher,
		jwtService:  jwtService,
		revocations: revocations,
		publisher:   publisher,
		logger:      logger,
	}
}

// ListAdmins returns every admin, newest first
func (s *adminServiceImpl) ListAdmins(ctx context.Context) ([]*models.User, error) {
	admins, err := s.repos.Users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("error listing admins: %w", err)
	}
	return admins, nil
}

// GetAdmin retrieves a user by id
func (s *adminServiceImpl) GetAdmin(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id, "error finding admin")
	}
	return user, nil
}

// CreateAdmin validates the payload and stores a new admin
func (s *adminServiceImpl) CreateAdmin(ctx context.Context, req *dto.CreateAdminRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = validation.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	exists, err := s.repos.Users.EmailExists(ctx, req.Email, "")
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, apperrors.NewCustomError(apperrors.ErrDuplicateEmail, "Admin with this email already exists")
	}

	admin := &models.User{Name: req.Name, Email: req.Email, Role: models.RoleAdmin}
	if req.Password != "" {
		hashed, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		admin.Password = hashed
	}

	if err := s.repos.Users.Create(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info().Str("adminID", admin.ID).Msg("Admin created")
	publishEvent(ctx, s.publisher, s.logger, events.New(events.AdminCreated, admin.ID, toProfile(admin)))
	return admin, nil
}

// UpdateAdmin applies a partial update of name and email
func (s *adminServiceImpl) UpdateAdmin(ctx context.Context, id string, req *dto.UpdateAdminRequest) (*models.User, error) {
	req.Name = trimPtr(req.Name)
	if req.Email != nil {
		email := validation.NormalizeEmail(*req.Email)
		req.Email = &email
	}

	update := models.UserUpdate{Name: req.Name, Email: req.Email}
	if update.Empty() {
		return nil, apperrors.NewValidationError("Validation failed", "Provide at least one of: name, email")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.repos.Users.GetByID(ctx, id); err != nil {
		return nil, notFoundOr(err, id, "error finding admin")
	}

	if req.Email != nil {
		taken, err := s.repos.Users.EmailExists(ctx, *req.Email, id)
		if err != nil {
			return nil, fmt.Errorf("error checking email: %w", err)
		}
		if taken {
			return nil, apperrors.NewCustomError(apperrors.ErrDuplicateEmail, "Email already in use by another admin")
		}
	}

	updated, err := s.repos.Users.Update(ctx, id, update)
	if err != nil {
		return nil, notFoundOr(err, id, "error updating admin")
	}

	s.logger.Info().Str("adminID", id).Msg("Admin updated")
	publishEvent(ctx, s.publisher, s.logger, events.New(events.AdminUpdated, id, toProfile(updated)))
	return updated, nil
}

// DeleteAdmin removes the user and any student it owns, then revokes its
// tokens
func (s *adminServiceImpl) DeleteAdmin(ctx context.Context, id string) error {
	err := s.repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Students.DeleteByOwner(ctx, id); err != nil {
			return err
		}
		return s.repos.Users.Delete(ctx, id)
	})
	if err != nil {
		return notFoundOr(err, id, "error deleting admin")
	}

	revokeUser(ctx, s.revocations, s.jwtService, s.logger, id)
	s.logger.Info().Str("adminID", id).Msg("Admin deleted")
	publishEvent(ctx, s.publisher, s.logger, events.New(events.UserDeleted, id, map[string]string{"id": id}))
	return nil
}

// notFoundOr turns missing and malformed ids into the "Resource not found"
// error and wraps anything else with context.
func notFoundOr(err error, id, action string) error {
	if apperrors.Is(err, apperrors.ErrNotFound, apperrors.ErrInvalidID) {
		return apperrors.NewNotFoundError(id)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// revokeUser rejects the outstanding tokens of a deleted user for as long as
// they could still be valid. Failures are logged.
func revokeUser(ctx context.Context, store auth.RevocationStore, jwtService *auth.JWTService, logger zerolog.Logger, userID string) {
	if store == nil {
		return
	}
	if err := store.RevokeUser(context.WithoutCancel(ctx), userID, jwtService.TokenTTL()); err != nil {
		logger.Error().Err(err).Str("userID", userID).Msg("Failed to revoke tokens of deleted user")
	}
}
