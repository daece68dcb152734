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

var userColumns = []string{"id::text", "name", "email", "password", "role", "created_at", "updated_at"}

// UserRepository handles user database operations
type UserRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(database *db.PostgresDB) *UserRepository {
	return &UserRepository{db: database, sb: statementBuilder()}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return u, nil
}

// Create inserts a user and fills in its id and timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := helpers.UTCNow()
	sql, args, err := r.sb.Insert("users").
		Columns("name", "email", "password", "role", "created_at", "updated_at").
		Values(user.Name, user.Email, user.Password, string(user.Role), now, now).
		Suffix("RETURNING id::text").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build create user query")
	}

	if err := r.db.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&user.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, usersEmailKey) {
			return errDuplicateField
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return errors.Wrap(err, "create user")
	}

	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build get user query")
	}

	u, err := scanUser(r.db.Querier(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "get user")
	}
	return u, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.getOne(ctx, squirrel.Eq{"id": uid})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// ListByRole returns users with the role, newest first
func (r *UserRepository) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"role": string(role)}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build list users query")
	}

	rows, err := r.db.Querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user row")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate user rows")
	}
	return users, nil
}

// EmailExists reports whether a user other than excludeID holds email
func (r *UserRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	q := r.sb.Select("1").From("users").Where(squirrel.Eq{"email": email})
	if excludeID != "" {
		if uid, err := parseID(excludeID); err == nil {
			q = q.Where(squirrel.NotEq{"id": uid})
		}
	}
	sql, args, err := q.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, errors.Wrap(err, "build email exists query")
	}

	var exists bool
	if err := r.db.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check user email")
	}
	return exists, nil
}

// Update applies a partial update and returns the stored user
func (r *UserRepository) Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := map[string]interface{}{"updated_at": helpers.UTCNow()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}

	sql, args, err := r.sb.Update("users").
		SetMap(set).
		Where(squirrel.Eq{"id": uid}).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build update user query")
	}

	u, err := scanUser(r.db.Querier(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		if dberrors.IsDuplicateConstraintError(err, usersEmailKey) {
			return nil, errDuplicateField
		}
		return nil, errors.Wrap(err, "update user")
	}
	return u, nil
}

// Delete removes a user. The owned student row goes with it through the
// ON DELETE CASCADE foreign key.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Delete("users").Where(squirrel.Eq{"id": uid}).ToSql()
	if err != nil {
		return errors.Wrap(err, "build delete user query")
	}

	tag, err := r.db.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return errors.Wrap(err, "delete user")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
