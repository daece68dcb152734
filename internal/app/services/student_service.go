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

// StudentService defines the interface for student record operations
type StudentService interface {
	GetOwnProfile(ctx context.Context, identity models.Identity) (*models.Student, error)
	CreateStudent(ctx context.Context, req *dto.CreateStudentRequest) (*models.Student, error)
	ListStudents(ctx context.Context) ([]*models.Student, error)
	GetStudent(ctx context.Context, id string, identity models.Identity) (*models.Student, error)
	UpdateStudent(ctx context.Context, id string, req *dto.UpdateStudentRequest, identity models.Identity) (*models.Student, error)
	DeleteStudent(ctx context.Context, id string) error
}

// studentServiceImpl implements StudentService
type studentServiceImpl struct {
	repos       *repositories.Repositories
	validator   *validation.Validator
	jwtService  *auth.JWTService
	revocations auth.RevocationStore
	publisher   events.Publisher
	logger      zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(
	repos *repositories.Repositories,
	validator *validation.Validator,
	jwtService *auth.JWTService,
	revocations auth.RevocationStore,
	publisher events.Publisher,
	logger zerolog.Logger,
) StudentService {
	return &studentServiceImpl{
		repos:       repos,
		validator:   validator,
		jwtService:  jwtService,
		revocations: revocations,
		publisher:   publisher,
		logger:      logger,
	}
}

// GetOwnProfile returns the student record owned by the caller
func (s *studentServiceImpl) GetOwnProfile(ctx context.Context, identity models.Identity) (*models.Student, error) {
	student, err := s.repos.Students.GetByOwner(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrNotFound, "Student profile not found")
		}
		return nil, fmt.Errorf("error finding student profile: %w", err)
	}
	return student, nil
}

// CreateStudent stores a standalone student record
func (s *studentServiceImpl) CreateStudent(ctx context.Context, req *dto.CreateStudentRequest) (*models.Student, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = validation.NormalizeEmail(req.Email)
	req.Course = strings.TrimSpace(req.Course)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	exists, err := s.repos.Students.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking student email: %w", err)
	}
	if exists {
		return nil, apperrors.NewCustomError(apperrors.ErrDuplicateEmail, "Student with this email already exists")
	}

	student := &models.Student{
		Name:   req.Name,
		Email:  req.Email,
		Age:    *req.Age,
		Course: req.Course,
	}
	if err := s.repos.Students.Create(ctx, student); err != nil {
		return nil, err
	}

	s.logger.Info().Str("studentID", student.ID).Msg("Student created")
	publishEvent(ctx, s.publisher, s.logger, events.New(events.StudentCreated, student.ID, student))
	return student, nil
}

// ListStudents returns every student, newest first
func (s *studentServiceImpl) ListStudents(ctx context.Context) ([]*models.Student, error) {
	students, err := s.repos.Students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	return students, nil
}

// loadForIdentity fetches a student and checks the caller may act on it
func (s *studentServiceImpl) loadForIdentity(ctx context.Context, id string, identity models.Identity, verb string) (*models.Student, error) {
	student, err := s.repos.Students.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id, "error finding student")
	}
	if !identity.IsAdmin() && !student.OwnedBy(identity.UserID) {
		s.logger.Warn().Str("userID", identity.UserID).Str("studentID", id).Msg("Access to foreign student record denied")
		return nil, apperrors.NewForbiddenError(fmt.Sprintf("You can only %s your own student record", verb))
	}
	return student, nil
}

// GetStudent returns a student the caller may view
func (s *studentServiceImpl) GetStudent(ctx context.Context, id string, identity models.Identity) (*models.Student, error) {
	return s.loadForIdentity(ctx, id, identity, "view")
}

// UpdateStudent applies a partial update of name, age and course
func (s *studentServiceImpl) UpdateStudent(ctx context.Context, id string, req *dto.UpdateStudentRequest, identity models.Identity) (*models.Student, error) {
	req.Name = trimPtr(req.Name)
	req.Course = trimPtr(req.Course)

	update := models.StudentUpdate{Name: req.Name, Age: req.Age, Course: req.Course}
	if update.Empty() {
		return nil, apperrors.NewValidationError("Validation failed", "Provide at least one of: name, age, course")
	}

	if _, err := s.loadForIdentity(ctx, id, identity, "update"); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	updated, err := s.repos.Students.Update(ctx, id, update)
	if err != nil {
		return nil, notFoundOr(err, id, "error updating student")
	}

	s.logger.Info().Str("studentID", id).Str("by", identity.UserID).Msg("Student updated")
	publishEvent(ctx, s.publisher, s.logger, events.New(events.StudentUpdated, id, updated))
	return updated, nil
}

// DeleteStudent removes a student and the user owning it in one transaction
func (s *studentServiceImpl) DeleteStudent(ctx context.Context, id string) error {
	var ownerID string
	err := s.repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		student, err := s.repos.Students.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.repos.Students.Delete(ctx, id); err != nil {
			return err
		}
		if student.Owner == nil {
			return nil
		}
		ownerID = *student.Owner
		if err := s.repos.Users.Delete(ctx, ownerID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound, apperrors.ErrInvalidID) {
			return apperrors.NewCustomError(apperrors.ErrNotFound, fmt.Sprintf("Student not found with id of %s", id))
		}
		return fmt.Errorf("error deleting student: %w", err)
	}

	if ownerID != "" {
		revokeUser(ctx, s.revocations, s.jwtService, s.logger, ownerID)
	}
	s.logger.Info().Str("studentID", id).Msg("Student deleted")
	publishEvent(ctx, s.publisher, s.logger, events.New(events.StudentDeleted, id, map[string]string{"id": id, "owner": ownerID}))
	return nil
}
