package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
)

var errDuplicateField = apperrors.NewCustomError(apperrors.ErrDuplicateEmail, "Duplicate field value entered")

// UserRepository is the in-memory UserRepository
type UserRepository struct {
	store *Store
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.ErrInvalidID
	}
	return nil
}

// Create inserts user, assigning its id and timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	s := r.store
	return s.write(ctx, func() error {
		if err := s.fault(OpUserCreate); err != nil {
			return err
		}
		for _, u := range s.users {
			if u.Email == user.Email {
				return errDuplicateField
			}
		}
		now := s.tick()
		user.ID = s.newID()
		user.CreatedAt, user.UpdatedAt = now, now
		stored := *user
		s.users[user.ID] = &stored
		return nil
	})
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *u
	return &c, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ListByRole returns users with role, newest first
func (r *UserRepository) ListByRole(_ context.Context, role models.Role) ([]*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	users := []*models.User{}
	for _, u := range r.store.users {
		if u.Role == role {
			c := *u
			users = append(users, &c)
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

// EmailExists reports whether another user holds email
func (r *UserRepository) EmailExists(_ context.Context, email, excludeID string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for id, u := range r.store.users {
		if u.Email == email && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// Update applies a partial update
func (r *UserRepository) Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	s := r.store
	var out models.User
	err := s.write(ctx, func() error {
		if err := s.fault(OpUserUpdate); err != nil {
			return err
		}
		u, ok := s.users[id]
		if !ok {
			return apperrors.ErrNotFound
		}
		if update.Email != nil {
			for otherID, other := range s.users {
				if otherID != id && other.Email == *update.Email {
					return errDuplicateField
				}
			}
			u.Email = *update.Email
		}
		if update.Name != nil {
			u.Name = *update.Name
		}
		u.UpdatedAt = s.tick()
		out = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	s := r.store
	return s.write(ctx, func() error {
		if err := s.fault(OpUserDelete); err != nil {
			return err
		}
		if _, ok := s.users[id]; !ok {
			return apperrors.ErrNotFound
		}
		delete(s.users, id)
		return nil
	})
}
