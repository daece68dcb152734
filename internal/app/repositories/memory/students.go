package memory

import (
	"context"
	"sort"

	"github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
)

// StudentRepository is the in-memory StudentRepository
type StudentRepository struct {
	store *Store
}

// Create inserts a student; email and owner are unique
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	s := r.store
	return s.write(ctx, func() error {
		if err := s.fault(OpStudentCreate); err != nil {
			return err
		}
		for _, st := range s.students {
			if st.Email == student.Email {
				return errDuplicateField
			}
			if student.Owner != nil && st.OwnedBy(*student.Owner) {
				return apperrors.NewCustomError(apperrors.ErrValidationFailed, "User already owns a student record")
			}
		}
		now := s.tick()
		student.ID = s.newID()
		student.CreatedAt, student.UpdatedAt = now, now
		s.students[student.ID] = copyStudent(student)
		return nil
	})
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(_ context.Context, id string) (*models.Student, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	st, ok := r.store.students[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyStudent(st), nil
}

// GetByOwner retrieves the student owned by ownerID
func (r *StudentRepository) GetByOwner(_ context.Context, ownerID string) (*models.Student, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, st := range r.store.students {
		if st.OwnedBy(ownerID) {
			return copyStudent(st), nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// List returns all students, newest first
func (r *StudentRepository) List(_ context.Context) ([]*models.Student, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	students := make([]*models.Student, 0, len(r.store.students))
	for _, st := range r.store.students {
		students = append(students, copyStudent(st))
	}
	sort.SliceStable(students, func(i, j int) bool {
		return students[i].CreatedAt.After(students[j].CreatedAt)
	})
	return students, nil
}

// EmailExists reports whether a student holds email
func (r *StudentRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, st := range r.store.students {
		if st.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// Update applies a partial update
func (r *StudentRepository) Update(ctx context.Context, id string, update models.StudentUpdate) (*models.Student, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	s := r.store
	var out *models.Student
	err := s.write(ctx, func() error {
		if err := s.fault(OpStudentUpdate); err != nil {
			return err
		}
		st, ok := s.students[id]
		if !ok {
			return apperrors.ErrNotFound
		}
		if update.Name != nil {
			st.Name = *update.Name
		}
		if update.Age != nil {
			st.Age = *update.Age
		}
		if update.Course != nil {
			st.Course = *update.Course
		}
		st.UpdatedAt = s.tick()
		out = copyStudent(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a student
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	s := r.store
	return s.write(ctx, func() error {
		if err := s.fault(OpStudentDelete); err != nil {
			return err
		}
		if _, ok := s.students[id]; !ok {
			return apperrors.ErrNotFound
		}
		delete(s.students, id)
		return nil
	})
}

// DeleteByOwner removes the student owned by ownerID, if any
func (r *StudentRepository) DeleteByOwner(ctx context.Context, ownerID string) (bool, error) {
	s := r.store
	deleted := false
	err := s.write(ctx, func() error {
		if err := s.fault(OpStudentDelete); err != nil {
			return err
		}
		for id, st := range s.students {
			if st.OwnedBy(ownerID) {
				delete(s.students, id)
				deleted = true
			}
		}
		return nil
	})
	return deleted, err
}
