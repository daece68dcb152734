package postgres

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/db"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
	"github.com/yigit/studentdesk/internal/pkg/dberrors"
	"github.com/yigit/studentdesk/internal/pkg/helpers"
	"github.com/yigit/studentdesk/internal/pkg/logger"
)

var studentColumns = []string{"id::text", "name", "email", "age", "course", "owner_id::text", "created_at", "updated_at"}

// StudentRepository handles student database operations
type StudentRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(database *db.PostgresDB) *StudentRepository {
	return &StudentRepository{db: database, sb: statementBuilder()}
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	s := &models.Student{}
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Age, &s.Course, &s.Owner, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func mapStudentWriteError(err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, studentsEmailKey):
		return errDuplicateField
	case dberrors.IsDuplicateConstraintError(err, studentsOwnerIDKey):
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, "User already owns a student record")
	}
	return nil
}

// Create inserts a student and fills in its id and timestamps
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	var owner interface{}
	if student.Owner != nil {
		ownerID, err := parseID(*student.Owner)
		if err != nil {
			return err
		}
		owner = ownerID
	}

	now := helpers.UTCNow()
	sql, args, err := r.sb.Insert("students").
		Columns("name", "email", "age", "course", "owner_id", "created_at", "updated_at").
		Values(student.Name, student.Email, student.Age, student.Course, owner, now, now).
		Suffix("RETURNING id::text").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build create student query")
	}

	if err := r.db.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&student.ID); err != nil {
		if mapped := mapStudentWriteError(err); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Str("email", student.Email).Msg("Error executing create student query")
		return errors.Wrap(err, "create student")
	}

	student.CreatedAt, student.UpdatedAt = now, now
	return nil
}

func (r *StudentRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).From("students").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build get student query")
	}

	s, err := scanStudent(r.db.Querier(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "get student")
	}
	return s, nil
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	sid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.getOne(ctx, squirrel.Eq{"id": sid})
}

// GetByOwner retrieves the student owned by ownerID
func (r *StudentRepository) GetByOwner(ctx context.Context, ownerID string) (*models.Student, error) {
	oid, err := parseID(ownerID)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}
	return r.getOne(ctx, squirrel.Eq{"owner_id": oid})
}

// List returns all students, newest first
func (r *StudentRepository) List(ctx context.Context) ([]*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).From("students").OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build list students query")
	}

	rows, err := r.db.Querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan student row")
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate student rows")
	}
	return students, nil
}

// EmailExists reports whether a student holds email
func (r *StudentRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	sql, args, err := r.sb.Select("1").From("students").Where(squirrel.Eq{"email": email}).
		Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, errors.Wrap(err, "build student email exists query")
	}

	var exists bool
	if err := r.db.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check student email")
	}
	return exists, nil
}

// Update applies a partial update and returns the stored student
func (r *StudentRepository) Update(ctx context.Context, id string, update models.StudentUpdate) (*models.Student, error) {
	sid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := map[string]interface{}{"updated_at": helpers.UTCNow()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Age != nil {
		set["age"] = *update.Age
	}
	if update.Course != nil {
		set["course"] = *update.Course
	}

	sql, args, err := r.sb.Update("students").
		SetMap(set).
		Where(squirrel.Eq{"id": sid}).
		Suffix("RETURNING " + strings.Join(studentColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build update student query")
	}

	s, err := scanStudent(r.db.Querier(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "update student")
	}
	return s, nil
}

// Delete removes a student
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	sid, err := parseID(id)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Delete("students").Where(squirrel.Eq{"id": sid}).ToSql()
	if err != nil {
		return errors.Wrap(err, "build delete student query")
	}

	tag, err := r.db.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return errors.Wrap(err, "delete student")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteByOwner removes the student owned by ownerID, if any
func (r *StudentRepository) DeleteByOwner(ctx context.Context, ownerID string) (bool, error) {
	oid, err := parseID(ownerID)
	if err != nil {
		return false, nil
	}

	sql, args, err := r.sb.Delete("students").Where(squirrel.Eq{"owner_id": oid}).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "build delete student by owner query")
	}

	tag, err := r.db.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, errors.Wrap(err, "delete student by owner")
	}
	return tag.RowsAffected() > 0, nil
}
