package services

import (
	"context"
	"errors"
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

// AuthService defines the interface for authentication operations
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	GetCurrentIdentity(ctx context.Context, userID string) (*dto.ProfileResponse, error)
}

// authServiceImpl implements AuthService
type authServiceImpl struct {
	repos      *repositories.Repositories
	validator  *validation.Validator
	jwtService *auth.JWTService
	hasher     *auth.PasswordHasher
	publisher  events.Publisher
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repos *repositories.Repositories,
	validator *validation.Validator,
	jwtService *auth.JWTService,
	hasher *auth.PasswordHasher,
	publisher events.Publisher,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		repos:      repos,
		validator:  validator,
		jwtService: jwtService,
		hasher:     hasher,
		publisher:  publisher,
		logger:     logger,
	}
}

// Login authenticates an admin and issues a token
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	email := validation.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrMissingFields, "Please provide email and password")
	}

	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	// Unknown accounts and non-admins still pay for one bcrypt compare.
	if user == nil || user.Role != models.RoleAdmin {
		s.hasher.CompareDummy(req.Password)
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid credentials")
	}
	if !s.hasher.Check(user.Password, req.Password) {
		s.logger.Info().Str("userID", user.ID).Msg("Login failed: wrong password")
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid credentials")
	}

	token, _, err := s.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	s.logger.Info().Str("userID", user.ID).Msg("Admin logged in")
	return &dto.LoginResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
		Token: token,
	}, nil
}

// validateRegistration normalizes req in place and returns the role to assign
func (s *authServiceImpl) validateRegistration(req *dto.RegisterRequest) (models.Role, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = validation.NormalizeEmail(req.Email)
	req.Course = strings.TrimSpace(req.Course)

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return "", apperrors.NewCustomError(apperrors.ErrMissingFields, "Please provide name, email, and password")
	}
	if !validation.IsEmail(req.Email) {
		return "", apperrors.NewCustomError(apperrors.ErrInvalidEmailFormat, "Please provide a valid email address")
	}
	if len(req.Password) < validation.PasswordMinLength {
		return "", apperrors.NewCustomError(apperrors.ErrWeakPassword,
			fmt.Sprintf("Password must be at least %d characters long", validation.PasswordMinLength))
	}

	role := models.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	switch role {
	case "":
		role = models.RoleUser
	case models.RoleUser, models.RoleStudent:
	default:
		return "", apperrors.NewValidationError("Validation failed", "Role must be one of: user, student")
	}

	if role == models.RoleStudent {
		var fields []string
		policy := s.validator.AgePolicy()
		if req.Age == nil {
			fields = append(fields, "Age is required")
		} else if !policy.Allows(*req.Age) {
			fields = append(fields, fmt.Sprintf("Age must be between %d and %d", policy.Min, policy.Max))
		}
		if req.Course == "" {
			fields = append(fields, "Course name is required")
		} else if len(req.Course) > 100 {
			fields = append(fields, "Course cannot be longer than 100 characters")
		}
		if len(req.Name) > validation.NameMaxLength {
			fields = append(fields, fmt.Sprintf("Name cannot be longer than %d characters", validation.NameMaxLength))
		}
		if len(fields) > 0 {
			return "", apperrors.NewCustomError(apperrors.ErrInvalidStudentFields, "Invalid student details").WithFields(fields...)
		}
	}

	return role, nil
}

// Register creates a user and, for students, the owned student record in the
// same transaction
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	role, err := s.validateRegistration(req)
	if err != nil {
		return nil, err
	}

	exists, err := s.repos.Users.EmailExists(ctx, req.Email, "")
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, apperrors.NewCustomError(apperrors.ErrDuplicateEmail, "User with this email already exists")
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{Name: req.Name, Email: req.Email, Password: hashed, Role: role}
	var student *models.Student

	err = s.repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Users.Create(ctx, user); err != nil {
			return err
		}
		if role != models.RoleStudent {
			return nil
		}
		student = &models.Student{
			Name:   user.Name,
			Email:  user.Email,
			Age:    *req.Age,
			Course: req.Course,
			Owner:  &user.ID,
		}
		return s.repos.Students.Create(ctx, student)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("email", req.Email).Msg("Registration rolled back")
		return nil, err
	}

	token, _, err := s.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	s.logger.Info().Str("userID", user.ID).Str("role", string(role)).Msg("User registered")
	publishEvent(ctx, s.publisher, s.logger, events.New(events.UserRegistered, user.ID, toProfile(user)))
	if student != nil {
		publishEvent(ctx, s.publisher, s.logger, events.New(events.StudentCreated, student.ID, student))
	}

	return &dto.RegisterResponse{
		ID:    user.ID,
		Email: user.Email,
		Role:  string(user.Role),
		Token: token,
	}, nil
}

// GetCurrentIdentity returns the profile of the authenticated user
func (s *authServiceImpl) GetCurrentIdentity(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound, apperrors.ErrInvalidID) {
			return nil, apperrors.NewCustomError(apperrors.ErrNotFound, "User not found")
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return toProfile(user), nil
}

func toProfile(user *models.User) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}
