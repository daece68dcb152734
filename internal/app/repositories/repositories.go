package repositories

import (
	"context"

	"github.com/yigit/studentdesk/internal/app/models"
)

// UserRepository persists credential records.
//
// Implementations return apperrors.ErrNotFound for missing records,
// apperrors.ErrInvalidID for ids the store cannot parse and an error wrapping
// apperrors.ErrDuplicateEmail when the unique email constraint fires.
// Emails are expected to be normalized by the caller.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// ListByRole returns users with the role, newest first.
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	// EmailExists reports whether a user other than excludeID holds email.
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
	Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// StudentRepository persists student records. Error conventions match
// UserRepository.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id string) (*models.Student, error)
	GetByOwner(ctx context.Context, ownerID string) (*models.Student, error)
	// List returns all students, newest first.
	List(ctx context.Context) ([]*models.Student, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, id string, update models.StudentUpdate) (*models.Student, error)
	Delete(ctx context.Context, id string) error
	// DeleteByOwner removes the student owned by ownerID and reports whether
	// one existed.
	DeleteByOwner(ctx context.Context, ownerID string) (bool, error)
}

// Transactor runs fn inside a store transaction. Repository calls made with
// the ctx passed to fn join the transaction; any error returned by fn rolls
// everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories holds all the repository instances of one store
type Repositories struct {
	Users    UserRepository
	Students StudentRepository
	Tx       Transactor

	// Ping checks the store is reachable.
	Ping func(ctx context.Context) error
	// Close releases the store connections.
	Close func(ctx context.Context) error
}
