// Package postgres implements the repositories on PostgreSQL with pgx and
// squirrel. Queries run on the transaction carried by the context when
// there is one.
package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/yigit/studentdesk/internal/app/repositories"
	"github.com/yigit/studentdesk/internal/db"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
)

// Unique constraint names created by migrations/001_init.sql
const (
	usersEmailKey      = "users_email_key"
	studentsEmailKey   = "students_email_key"
	studentsOwnerIDKey = "students_owner_id_key"
)

var errDuplicateField = apperrors.NewCustomError(apperrors.ErrDuplicateEmail, "Duplicate field value entered")

func statementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// parseID validates id and returns its canonical text form. The text form is
// passed to squirrel, which would expand a uuid.UUID byte array into an IN list.
func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", apperrors.ErrInvalidID
	}
	return parsed.String(), nil
}

// NewRepositories wires the PostgreSQL repositories around database.
func NewRepositories(database *db.PostgresDB) *repositories.Repositories {
	return &repositories.Repositories{
		Users:    NewUserRepository(database),
		Students: NewStudentRepository(database),
		Tx:       database,
		Ping:     database.Ping,
		Close: func(context.Context) error {
			database.Close()
			return nil
		},
	}
}
