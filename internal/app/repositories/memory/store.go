// Package memory keeps users and students in process memory. It backs the
// "memory" database driver and the service and controller tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/app/repositories"
	"github.com/yigit/studentdesk/internal/pkg/helpers"
)

// Operation names accepted by FailOn.
const (
	OpUserCreate    = "users.create"
	OpUserUpdate    = "users.update"
	OpUserDelete    = "users.delete"
	OpStudentCreate = "students.create"
	OpStudentUpdate = "students.update"
	OpStudentDelete = "students.delete"
)

type txKey struct{}

// Store is the shared state behind the memory repositories.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	students map[string]*models.Student

	// writeMu serializes writers; a transaction holds it for its whole run.
	writeMu sync.Mutex

	faults map[string]error
	now    func() time.Time
	last   time.Time
	newID  func() string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		students: make(map[string]*models.Student),
		faults:   make(map[string]error),
		now:      helpers.UTCNow,
		newID:    func() string { return uuid.New().String() },
	}
}

// FailOn makes the next call of op return err. Used to inject faults in tests.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// fault pops the pending fault for op. Callers hold mu.
func (s *Store) fault(op string) error {
	if err, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return err
	}
	return nil
}

// tick returns a timestamp strictly after the previous one so newest-first
// ordering is total. Callers hold mu.
func (s *Store) tick() time.Time {
	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Millisecond)
	}
	s.last = t
	return t
}

// Counts returns the number of stored users and students.
func (s *Store) Counts() (users, students int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), len(s.students)
}

// write runs fn under the write lock unless ctx already belongs to a
// transaction, which holds the lock.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if ctx.Value(txKey{}) == nil {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// WithinTransaction snapshots the store, runs fn and restores the snapshot
// when fn fails or panics.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	users, students := s.snapshot()
	s.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			s.restore(users, students)
			panic(r)
		}
		if err != nil {
			s.restore(users, students)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, true))
}

func (s *Store) snapshot() (map[string]*models.User, map[string]*models.Student) {
	users := make(map[string]*models.User, len(s.users))
	for k, v := range s.users {
		u := *v
		users[k] = &u
	}
	students := make(map[string]*models.Student, len(s.students))
	for k, v := range s.students {
		students[k] = copyStudent(v)
	}
	return users, students
}

func (s *Store) restore(users map[string]*models.User, students map[string]*models.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.students = students
}

// NewRepositories wires the memory repositories around store.
func NewRepositories(store *Store) *repositories.Repositories {
	return &repositories.Repositories{
		Users:    &UserRepository{store: store},
		Students: &StudentRepository{store: store},
		Tx:       store,
		Ping:     func(context.Context) error { return nil },
		Close:    func(context.Context) error { return nil },
	}
}

func copyStudent(s *models.Student) *models.Student {
	c := *s
	if s.Owner != nil {
		owner := *s.Owner
		c.Owner = &owner
	}
	return &c
}
